// Package server is the composition root: it opens the database, builds the
// services and handlers, and mounts them on a chi router.
//
// AUTHENTICATION:
// Sign-in is optional. With a JWT secret configured, every /api route runs
// behind OptionalAuth, so signed-in users see their own records and
// anonymous callers share the unowned pool. The GitHub routes are mounted
// only when a GitHub client ID is configured as well. Without a secret the
// whole API is anonymous.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/html-scratchpad/internal/auth"
	"github.com/sakif/html-scratchpad/internal/classifier"
	"github.com/sakif/html-scratchpad/internal/classifier/gemini"
	"github.com/sakif/html-scratchpad/internal/config"
	"github.com/sakif/html-scratchpad/internal/handler"
	"github.com/sakif/html-scratchpad/internal/middleware"
	sqliteRepo "github.com/sakif/html-scratchpad/internal/repository/sqlite"
	"github.com/sakif/html-scratchpad/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
	ai     *gemini.Client
}

// New opens the database and wires every route.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.JWTSecret != "" {
		s.tokens, err = auth.NewTokenService(cfg.JWTSecret, auth.DefaultTokenTTL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating token service: %w", err)
		}
	}

	s.ai, err = NewAIClient(context.Background(), cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating AI client: %w", err)
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tokens is the token service, or nil when sign-in is disabled.
func (s *Server) Tokens() *auth.TokenService {
	return s.tokens
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// NewAIClient returns the Gemini client for cfg, or nil when no API key is
// configured.
func NewAIClient(ctx context.Context, cfg config.Config) (*gemini.Client, error) {
	if cfg.AIAPIKey == "" {
		return nil, nil
	}
	var opts []gemini.Option
	if cfg.AIBaseURL != "" {
		opts = append(opts, gemini.WithBaseURL(cfg.AIBaseURL))
	}
	return gemini.New(ctx, cfg.AIAPIKey, cfg.AIModel, opts...)
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// A nil *gemini.Client must not become a non-nil interface.
	var (
		remote   classifier.Remote
		improver service.Improver
	)
	if s.ai != nil {
		remote, improver = s.ai, s.ai
		s.logger.Info("AI client enabled", slog.String("model", s.config.AIModel))
	}
	cls := classifier.New(remote, s.logger)

	snippetSvc := service.NewSnippetService(s.db, s.db, cls, improver, s.logger)
	folderSvc := service.NewFolderService(s.db, s.logger)
	curriculumSvc := service.NewCurriculumService(s.db, s.db, s.logger)
	librarySvc := service.NewLibraryService(s.db, s.db, s.db, s.logger)

	snippets := handler.NewSnippetHandler(snippetSvc, s.logger)
	folders := handler.NewFolderHandler(folderSvc, s.logger)
	curriculums := handler.NewCurriculumHandler(curriculumSvc, s.logger)
	analysis := handler.NewAnalysisHandler(cls, librarySvc, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", health.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if s.tokens != nil {
			r.Use(auth.OptionalAuth(s.tokens))
		}

		r.Post("/analyze", analysis.HandleAnalyze)
		r.Post("/classify", analysis.HandleClassify)
		r.Get("/stats", analysis.HandleStats)

		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", snippets.HandleList)
			r.Post("/", snippets.HandleCreate)
			r.Post("/classify-all", snippets.HandleClassifyAll)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", snippets.HandleGetByID)
				r.Put("/", snippets.HandleUpdate)
				r.Delete("/", snippets.HandleDelete)
				r.Put("/folder", snippets.HandleMove)
				r.Get("/analysis", snippets.HandleAnalysis)
				r.Get("/export", snippets.HandleExport)
				r.Post("/classify", snippets.HandleClassify)
				r.Post("/improve", snippets.HandleImprove)
			})
		})

		r.Route("/folders", func(r chi.Router) {
			r.Get("/", folders.HandleList)
			r.Post("/", folders.HandleCreate)
			r.Put("/{id}", folders.HandleRename)
			r.Delete("/{id}", folders.HandleDelete)
		})

		r.Route("/curriculums", func(r chi.Router) {
			r.Get("/", curriculums.HandleList)
			r.Post("/", curriculums.HandleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", curriculums.HandleGet)
				r.Delete("/", curriculums.HandleDelete)
				r.Post("/steps", curriculums.HandleAddStep)
				r.Delete("/steps/{stepID}", curriculums.HandleRemoveStep)
				r.Post("/steps/{stepID}/toggle", curriculums.HandleToggleStep)
				r.Post("/steps/{stepID}/move", curriculums.HandleMoveStep)
			})
		})
	})

	if s.tokens != nil && s.config.GitHubClientID != "" {
		github := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		authSvc := service.NewAuthService(s.db, s.tokens, s.logger)
		secure := strings.HasPrefix(s.config.GitHubCallbackURL, "https://")
		authHandler := handler.NewAuthHandler(github, authSvc, secure, s.logger)

		s.router.Route("/auth", func(r chi.Router) {
			r.Use(auth.OptionalAuth(s.tokens))
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/me", authHandler.HandleMe)
		})
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// closes the database.
func (s *Server) Run(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // AI calls can take a while
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("auth", s.tokens != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
