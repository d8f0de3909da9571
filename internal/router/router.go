package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parisxmas/checkindesk/internal/handler"
	"github.com/parisxmas/checkindesk/internal/metrics"
	mw "github.com/parisxmas/checkindesk/internal/middleware"
)

// Route is one entry of the registration list.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

type Handlers struct {
	Form      *handler.FormHandler
	Viewer    *handler.ViewerHandler
	Dashboard *handler.DashboardHandler
}

// Routes lists every endpoint served by checkindesk.
func Routes(h Handlers) []Route {
	return []Route{
		// Check-in form
		{http.MethodGet, "/", h.Form.Page},
		{http.MethodPost, "/validate", h.Form.Validate},
		{http.MethodPost, "/submit", h.Form.Submit},

		// Viewer pages
		{http.MethodGet, "/submissions", h.Viewer.Page},
		{http.MethodPost, "/submissions/{id}/delete", h.Viewer.DeleteForm},
		{http.MethodPost, "/submissions/clear", h.Viewer.ClearForm},
		{http.MethodGet, "/submissions/export", h.Viewer.Export},
		{http.MethodGet, "/submissions/export.xlsx", h.Viewer.ExportXLSX},
		{http.MethodPost, "/submissions/import", h.Viewer.ImportForm},

		// JSON API
		{http.MethodPost, "/api/v1/submissions", h.Form.Create},
		{http.MethodGet, "/api/v1/submissions", h.Viewer.List},
		{http.MethodDelete, "/api/v1/submissions", h.Viewer.Clear},
		{http.MethodDelete, "/api/v1/submissions/{id}", h.Viewer.Delete},
		{http.MethodGet, "/api/v1/submissions/export", h.Viewer.Export},
		{http.MethodPost, "/api/v1/submissions/import", h.Viewer.Import},
		{http.MethodGet, "/api/v1/dashboard", h.Dashboard.Dashboard},
	}
}

// New mounts Routes behind the global middleware. When m is set, its
// registry is served on /metrics.
func New(h Handlers, logger *slog.Logger, m *metrics.Metrics) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery(logger))
	r.Use(mw.Logger(logger, m))
	r.Use(mw.CORS)

	for _, rt := range Routes(h) {
		r.Method(rt.Method, rt.Pattern, rt.Handler)
	}
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	return r
}
