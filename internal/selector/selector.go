package selector

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
)

// File is an image picked by the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// SelectedImage is the current file plus its displayable preview reference.
type SelectedImage struct {
	File
	PreviewURL string
	Width      int
	Height     int
}

// PreviewStore hands out preview references for image bytes.
type PreviewStore interface {
	Put(data []byte, contentType string) string
	Release(ref string)
}

// Selector tracks the image chosen on one page. It is not safe for
// concurrent use; the owning flow serialises access.
type Selector struct {
	previews PreviewStore
	current  *SelectedImage
}

func New(previews PreviewStore) *Selector {
	return &Selector{previews: previews}
}

// Select replaces the current image. A nil file (cancelled picker) is a no-op.
func (s *Selector) Select(file *File) {
	if file == nil {
		return
	}

	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(file.Data)
	}

	selected := &SelectedImage{
		File: File{
			Name:        file.Name,
			ContentType: contentType,
			Data:        file.Data,
		},
		PreviewURL: s.previews.Put(file.Data, contentType),
	}

	width, height, err := dimensions(file.Data)
	if err != nil {
		slog.Debug("Unable to read image dimensions", "name", file.Name, "err", err)
	} else {
		selected.Width, selected.Height = width, height
	}

	s.Release()
	s.current = selected
	slog.Debug("Image selected", "name", file.Name, "content_type", contentType, "bytes", len(file.Data))
}

// Current returns the selected image, if any.
func (s *Selector) Current() (*SelectedImage, bool) {
	return s.current, s.current != nil
}

// Release frees the preview reference and forgets the current image.
func (s *Selector) Release() {
	if s.current == nil {
		return
	}
	s.previews.Release(s.current.PreviewURL)
	s.current = nil
}

func dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
