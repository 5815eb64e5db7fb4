package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terra-clan/recruitment-portal/internal/catalog"
	"github.com/terra-clan/recruitment-portal/internal/config"
	"github.com/terra-clan/recruitment-portal/internal/intake"
	"github.com/terra-clan/recruitment-portal/internal/metrics"
	"github.com/terra-clan/recruitment-portal/internal/session"
	"github.com/terra-clan/recruitment-portal/internal/storage"
)

// Deps are the components the API serves
type Deps struct {
	Catalog    *catalog.Loader
	Gate       *session.Gate
	Forms      *intake.Registry
	Store      storage.Store
	Submitter  intake.Gateway
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	CookieName string
}

// Server represents the HTTP API server
type Server struct {
	config     config.ServerConfig
	router     *chi.Mux
	catalog    *catalog.Loader
	gate       *session.Gate
	forms      *intake.Registry
	store      storage.Store
	submitter  intake.Gateway
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	cookieName string
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	if deps.CookieName == "" {
		deps.CookieName = defaultClientCookie
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(prometheus.NewRegistry())
	}

	s := &Server{
		config:     cfg,
		catalog:    deps.Catalog,
		gate:       deps.Gate,
		forms:      deps.Forms,
		store:      deps.Store,
		submitter:  deps.Submitter,
		metrics:    deps.Metrics,
		gatherer:   deps.Gatherer,
		cookieName: deps.CookieName,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// External submission contract, consumed by the intake form or other frontends
	r.Post("/api/submit", s.handleSubmitApplication)

	r.Group(func(r chi.Router) {
		r.Use(s.clientMiddleware)

		r.Get("/login", s.handleLoginPage)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/domains", s.handleListDomains)
			r.Get("/domains/{domainId}", s.handleGetDomain)
			r.Get("/questions", s.handleQuestions)

			r.Route("/session", func(r chi.Router) {
				r.Post("/", s.handleLogin)
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleLogout)
			})

			r.Route("/apply", func(r chi.Router) {
				r.Get("/", s.handleGetForm)
				r.Patch("/", s.handleUpdateForm)
				r.Post("/submit", s.handleSubmitForm)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
