package handlers

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/powerm17/automated-home-decor/internal/flow"
	"github.com/powerm17/automated-home-decor/internal/metrics"
	"github.com/powerm17/automated-home-decor/internal/preview"
	"github.com/powerm17/automated-home-decor/internal/storage"
	"golang.org/x/time/rate"
)

const sessionCookie = "roomdecor_session"

//go:embed templates/*.html static/*
var assets embed.FS

type Handler struct {
	sessions       *storage.SessionStore
	previews       *preview.Store
	uploader       flow.Uploader
	variant        flow.Variant
	metrics        *metrics.Metrics
	limiter        *rate.Limiter
	maxUploadBytes int64
	templates      *template.Template
}

type Options struct {
	Uploader       flow.Uploader
	Variant        flow.Variant
	Metrics        *metrics.Metrics
	MaxUploadBytes int64

	// POST requests per second across all sessions; zero disables limiting.
	UploadRateLimitRPS   float64
	UploadRateLimitBurst int
}

func New(opts Options) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"swatchStyle": swatchStyle,
	}).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}

	h := &Handler{
		sessions:       storage.New(),
		previews:       preview.New(),
		uploader:       opts.Uploader,
		variant:        opts.Variant,
		metrics:        opts.Metrics,
		maxUploadBytes: opts.MaxUploadBytes,
		templates:      tmpl,
	}
	if h.variant.Name == "" {
		h.variant = flow.Standard
	}
	if h.metrics == nil {
		h.metrics = metrics.New()
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = 10 * 1024 * 1024
	}
	if opts.UploadRateLimitRPS > 0 {
		burst := opts.UploadRateLimitBurst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(opts.UploadRateLimitRPS), burst)
	}
	return h, nil
}

// Routes wires every page and endpoint behind the shared middleware chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandleLanding)
	mux.HandleFunc("/upload", h.HandleUploadPage)
	mux.HandleFunc("/upload/select", h.HandleSelect)
	mux.HandleFunc("/upload/submit", h.HandleSubmit)
	mux.HandleFunc(preview.Prefix, h.HandlePreview)
	mux.HandleFunc("/static/", h.HandleStatic)
	mux.Handle("/metrics", h.metrics.Handler())
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, h.limiter)
	handler = h.metrics.Middleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// Sweep expires idle page instances until ctx is done.
func (h *Handler) Sweep(ctx context.Context, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	h.sessions.Sweep(ctx, ttl, interval, h.metrics.SetActiveSessions)
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers

// flowFor returns the caller's page instance, creating one (and its cookie)
// when create is set.
func (h *Handler) flowFor(w http.ResponseWriter, r *http.Request, create bool) (*flow.Flow, bool) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if f, exists := h.sessions.Get(c.Value); exists {
			return f, true
		}
	}
	if !create {
		return nil, false
	}

	sessionID := uuid.NewString()
	f := flow.New(flow.Options{
		Uploader: h.uploader,
		Previews: h.previews,
		Variant:  h.variant,
		Observer: h.metrics,
	})
	h.sessions.Set(sessionID, f)
	h.metrics.SetActiveSessions(h.sessions.Len())

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.Debug("Page instance created", "session_id", sessionID)
	return f, true
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Unable to render page", "template", name, "err", err)
	}
}
