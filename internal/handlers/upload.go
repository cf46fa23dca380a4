package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/powerm17/automated-home-decor/internal/flow"
	"github.com/powerm17/automated-home-decor/internal/selector"
	"github.com/powerm17/automated-home-decor/internal/upload"
)

// HandleSelect takes the picked file and makes it the page's current image.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f, _ := h.flowFor(w, r, true)

	// multipart framing gets a little headroom on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)
	file, header, err := r.FormFile(upload.FieldName)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			// cancelled picker
			http.Redirect(w, r, "/upload", http.StatusSeeOther)
			return
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, h.tooLargeMessage(), http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.writeError(w, h.tooLargeMessage(), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		// browsers post an empty part when nothing was chosen
		http.Redirect(w, r, "/upload", http.StatusSeeOther)
		return
	}

	f.Select(&selector.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	slog.Info("Image selected", "filename", header.Filename, "bytes", len(data))

	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

// HandleSubmit runs the upload for the page's current image. The outcome is
// shown by the page the browser is redirected to.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f, _ := h.flowFor(w, r, true)

	// leaving the page does not abort an upload that was already sent
	ctx := context.WithoutCancel(r.Context())
	if err := f.Upload(ctx); err != nil && !errors.Is(err, flow.ErrNoImageSelected) {
		slog.Debug("Upload finished with error", "err", err)
	}

	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File too large (max %dMB)", h.maxUploadBytes/(1024*1024))
}
