// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency in the app is constructed
// and wired here — database, hash pool, token service, services, handlers —
// then passed down explicitly. Nothing reaches for global state.
//
// DEPENDENCY CHAIN:
//
//	sqlite.DB → AuthService/SnippetService → AuthHandler/SnippetHandler
//	          ↘ RequireAuth middleware (token validation + identity lookup)
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/code-snippets/internal/auth"
	"github.com/sakif/code-snippets/internal/config"
	"github.com/sakif/code-snippets/internal/handler"
	"github.com/sakif/code-snippets/internal/middleware"
	sqliteRepo "github.com/sakif/code-snippets/internal/repository/sqlite"
	"github.com/sakif/code-snippets/internal/service"
)

// Server owns the router and the process-lifetime resources: the database
// connection and the password hash pool. Both are released during
// graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	hashes *auth.HashPool
}

// New creates a Server with the full dependency graph wired.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	hashes := auth.NewHashPool(auth.NewPasswordService(), cfg.HashWorkers, logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		hashes: hashes,
	}

	s.setupRoutes(tokens)

	return s, nil
}

// setupRoutes configures middleware, handlers, and the route table.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/register        → register, issues token
//	POST   /api/auth/login           → login, issues token
//	GET    /api/snippets/public      → public list (NO auth)
//	POST   /api/snippets             → create           (auth)
//	GET    /api/snippets             → list own         (auth)
//	GET    /api/snippets/public/mine → own public list  (auth)
//	GET    /api/snippets/dashboard   → visible union    (auth)
//	GET    /api/snippets/{id}        → read, owner only (auth)
//	PUT    /api/snippets/{id}        → update, owner    (auth)
//	DELETE /api/snippets/{id}        → delete, owner    (auth)
//
// The fixed paths (public, public/mine, dashboard) are registered before
// the {id} wildcard; chi routes static segments ahead of parameters, so
// "public" is never captured as an ID.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	authService := service.NewAuthService(s.db, tokens, s.hashes, s.logger)
	snippetService := service.NewSnippetService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		// The one anonymous snippet route.
		r.Get("/snippets/public", snippetHandler.HandleListPublic)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Get("/snippets", snippetHandler.HandleListOwn)
			r.Get("/snippets/public/mine", snippetHandler.HandleListOwnPublic)
			r.Get("/snippets/dashboard", snippetHandler.HandleDashboard)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
		})
	})
}

// Router exposes the configured router, mainly for tests that want to
// drive the full stack through httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// stop the hash pool, close the database.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.hashes.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
