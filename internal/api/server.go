package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"JobScraper/internal/domain"
	"JobScraper/pkg/logging"
)

// Submitter accepts a job for background execution
type Submitter interface {
	Submit(job domain.Job) error
}

type Server struct {
	httpServer *http.Server
	router     chi.Router
	jobs       Submitter
	log        *logging.Logger
}

type Config struct {
	Addr string
	// AllowedOrigin is the single origin allowed to POST cross-origin. Empty disables CORS.
	AllowedOrigin string
}

func NewServer(cfg Config, jobs Submitter, log *logging.Logger) *Server {
	s := &Server{jobs: jobs, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	if cfg.AllowedOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.AllowedOrigin},
			AllowedMethods:   []string{http.MethodPost},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/linkedin/search", s.handleScrape(domain.DashboardLinkedIn))
		r.Post("/linkedin/scrape", s.handleScrape(domain.DashboardLinkedIn))
		r.Post("/other/scrape", s.handleScrape(domain.DashboardOther))
		r.Post("/linkedin/refreshProfile", s.handleRefreshProfile)
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

func requestLogger(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
