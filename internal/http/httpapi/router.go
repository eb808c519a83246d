package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bardoun7894/basplast/internal/http/handlers"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/metrics"
	"github.com/bardoun7894/basplast/internal/middleware"
)

type Options struct {
	Logger          infra.Logger
	Metrics         *metrics.Collector
	AllowedOrigins  []string
	RateLimitPerMin int
	RateLimitBurst  int
	// UploadDir and AssetsDir are served under /uploads and /public.
	UploadDir string
	AssetsDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.CleanPath,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	limit := middleware.RateLimit(opts.RateLimitPerMin, opts.RateLimitBurst)
	routes := func(r chi.Router) {
		r.Get("/health", app.Health)
		r.Get("/credits", app.CreditsBalance)
		r.Get("/models", app.ListModels)
		r.Get("/history", app.History)
		r.Get("/history/{id}", app.HistoryByID)
		r.Get("/history/{id}/download", app.HistoryArchive)
		r.Get("/proxy-image", app.ProxyImage)
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/generate", app.Generate)
			r.Post("/enhance", app.Enhance)
			r.Post("/upload", app.Upload)
		})
	}
	r.Route("/api", routes)
	r.Group(routes)

	if opts.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir))))
	}
	if opts.AssetsDir != "" {
		r.Handle("/public/*", http.StripPrefix("/public/", http.FileServer(http.Dir(opts.AssetsDir))))
	}
	r.Handle("/metrics", opts.Metrics.Handler())

	return r
}
