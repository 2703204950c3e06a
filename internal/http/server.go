package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Clark-Hu/myflix-api/internal/auth"
	"github.com/Clark-Hu/myflix-api/internal/config"
	"github.com/Clark-Hu/myflix-api/internal/logging"
	"github.com/Clark-Hu/myflix-api/internal/metrics"
	"github.com/Clark-Hu/myflix-api/internal/repository"
)

// HealthChecker is satisfied by both the Postgres and the Mongo store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg       config.Config
	health    HealthChecker
	repo      *repository.Repository
	tokens    *auth.Issuer
	metrics   *metrics.Registry
	validator *requestValidator
	logger    *zap.Logger
	router    chi.Router
	httpSrv   *http.Server
}

// New constructs the HTTP server with base middleware and routes. reg may be
// nil, in which case /metrics is not mounted.
func New(cfg config.Config, health HealthChecker, repo *repository.Repository, tokens *auth.Issuer, reg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	if reg != nil {
		r.Use(reg.Middleware)
	}
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:       cfg,
		health:    health,
		repo:      repo,
		tokens:    tokens,
		metrics:   reg,
		validator: newRequestValidator(),
		logger:    logger,
		router:    r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/", s.handleWelcome)
	s.router.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	s.router.Post("/login", s.handleLogin)

	s.router.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleListMovies)
		r.Get("/genre/{genreName}", s.handleGetGenre)
		r.Get("/directors/{directorName}", s.handleGetDirector)
		r.Get("/{Title}", s.handleGetMovie)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleRegisterUser)
		r.Route("/{Username}", func(r chi.Router) {
			r.Get("/", s.handleGetUser)
			r.Group(func(r chi.Router) {
				r.Use(s.tokens.Require(s.respondUnauthorized))
				r.Use(s.requireAccountOwner)
				r.Put("/", s.handleUpdateUser)
				r.Delete("/", s.handleDeleteUser)
				r.Post("/movies/{MovieID}", s.handleAddFavorite)
				r.Delete("/movies/{MovieID}", s.handleRemoveFavorite)
			})
		})
	})

	// Static files are the lowest-priority match and answer reads only.
	s.router.Get("/*", s.handleStatic)
	s.router.Head("/*", s.handleStatic)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" is not allowed on "+r.URL.Path)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http: listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.respondText(w, http.StatusOK, "Welcome to my movie app.")
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil {
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "store not configured")
		return
	}
	if err := s.health.HealthCheck(ctx); err != nil {
		s.logger.Warn("healthz: store unreachable", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "store unreachable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatic serves GET and HEAD for any path no route claimed; missing
// files fall through to the file server's 404.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.cfg.StaticDir == "" {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	http.FileServer(http.Dir(s.cfg.StaticDir)).ServeHTTP(w, r)
}
