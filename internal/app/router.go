package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ecstatics-spaces/backoffice/internal/customers"
	"github.com/ecstatics-spaces/backoffice/internal/otp"
	"github.com/ecstatics-spaces/backoffice/internal/projects"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	ProjectsHandler  *projects.Handler
	CustomersHandler *customers.Handler
	OTPHandler       *otp.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.ProjectsHandler.MountRoutes(r)
		params.CustomersHandler.MountRoutes(r)
		params.OTPHandler.MountRoutes(r)
	})

	// Rendered documents and uploaded assets are also served directly.
	if params.Config != nil {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(params.Config.UploadsDir)))
		r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
			fileServer.ServeHTTP(w, req)
		})
	}

	return r
}
