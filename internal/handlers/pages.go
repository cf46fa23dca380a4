package handlers

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/powerm17/automated-home-decor/internal/flow"
	"github.com/powerm17/automated-home-decor/internal/render"
)

type uploadPage struct {
	flow.View
	Uploading      bool
	Failed         bool
	Succeeded      bool
	Grid           bool
	NotificationMS int64
	MaxUploadMB    int64
}

// swatchStyle builds the inline style for a colour swatch. Colours that fail
// validation are left out so the swatch stays empty.
func swatchStyle(s render.Swatch) template.CSS {
	style := fmt.Sprintf("width: %dpx; height: %dpx", s.Size, s.Size)
	if s.Valid {
		style = "background-color: " + s.Color + "; " + style
	}
	return template.CSS(style)
}

func (h *Handler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.render(w, "landing.html", nil)
}

func (h *Handler) HandleUploadPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f, _ := h.flowFor(w, r, true)
	h.render(w, "upload.html", h.uploadPage(f.View()))
}

func (h *Handler) uploadPage(v flow.View) uploadPage {
	page := uploadPage{
		View:        v,
		Uploading:   v.State.Status == flow.Uploading,
		Failed:      v.State.Status == flow.Failed,
		Succeeded:   v.State.Status == flow.Succeeded,
		Grid:        v.Variant.Layout == flow.LayoutGrid,
		MaxUploadMB: h.maxUploadBytes / (1024 * 1024),
	}
	if v.Notification != nil {
		page.NotificationMS = v.Notification.Duration.Milliseconds()
	}
	return page
}
