package handlers

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/powerm17/automated-home-decor/internal/preview"
)

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/static/")

	// Prevent directory traversal attacks
	if name == "" || strings.Contains(name, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	if strings.HasSuffix(name, ".css") {
		w.Header().Set("Content-Type", "text/css")
	}
	http.ServeFileFS(w, r, assets, path.Join("static", name))
}

// HandlePreview serves the selected image to the page that owns it.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flowFor(w, r, false)
	if !ok {
		http.NotFound(w, r)
		return
	}
	img, ok := f.Selected()
	if !ok || preview.ID(img.PreviewURL) != preview.ID(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	data, contentType, ok := h.previews.Get(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("Unable to write preview", "ref", r.URL.Path, "err", err)
	}
}
