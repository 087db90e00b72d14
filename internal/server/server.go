// Package server is the composition root: it opens the stores, builds the
// services and handlers, and mounts them on a chi router.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → repository.Store (sqlite or postgres)
//	              → session store (same database, or redis)
//	              → services (parks, auth, chat) → handlers → routes
//
// Nothing below this package reads configuration or globals; every
// collaborator is passed in.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/parks/internal/auth"
	"github.com/sakif/parks/internal/chat"
	"github.com/sakif/parks/internal/config"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/handler"
	"github.com/sakif/parks/internal/middleware"
	"github.com/sakif/parks/internal/notify"
	"github.com/sakif/parks/internal/repository"
	"github.com/sakif/parks/internal/repository/postgres"
	sqliteRepo "github.com/sakif/parks/internal/repository/sqlite"
	"github.com/sakif/parks/internal/service"
	"github.com/sakif/parks/internal/session"
	"github.com/sakif/parks/web"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and every resource that must be closed on exit.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	store    repository.Store
	sessions *session.Manager
	closers  []func() error
}

// OpenStore opens the relational backend selected by database.url and
// creates the schema if needed.
func OpenStore(cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.UsesPostgres() {
		db, err := postgres.New(cfg.Database.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return db, nil
	}

	if cfg.Database.URL != ":memory:" {
		// MkdirAll is a no-op when the directory exists.
		if err := os.MkdirAll(filepath.Dir(cfg.Database.URL), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	return db, nil
}

// New wires the application. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		closers: []func() error{store.Close},
	}

	if err := s.setupRoutes(ctx); err != nil {
		s.close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) sessionStore(ctx context.Context) (repository.SessionRepository, error) {
	if s.config.Server.SessionBackend != config.SessionBackendRedis {
		return s.store, nil
	}
	rs, err := session.NewRedisStore(ctx, session.RedisOptions{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, rs.Close)
	return rs, nil
}

func (s *Server) notifier() (notify.Notifier, error) {
	if !s.config.SMTPEnabled() {
		s.logger.Warn("smtp.host not set, edit suggestions will only be logged")
		return notify.NewLogNotifier(s.logger), nil
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:      s.config.SMTP.Host,
		Port:      s.config.SMTP.Port,
		Username:  s.config.SMTP.Username,
		Password:  s.config.SMTP.Password,
		From:      s.config.SMTP.From,
		Recipient: s.config.SMTP.Recipient,
	})
}

// generator returns a nil interface when chat is disabled so ChatService
// can tell "not configured" apart from "model failed".
func (s *Server) generator(ctx context.Context) (chat.Generator, error) {
	if !s.config.ChatEnabled() {
		s.logger.Warn("GEMINI_API_KEY not set, the chat assistant is disabled")
		return nil, nil
	}
	g, err := chat.NewGeminiGenerator(ctx, s.config.Chat.APIKey, s.config.Chat.Model)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Server) setupRoutes(ctx context.Context) error {
	tokens, err := auth.NewTokenService(s.config.Server.SecretKey)
	if err != nil {
		return err
	}
	sessionStore, err := s.sessionStore(ctx)
	if err != nil {
		return err
	}
	s.sessions = session.NewManager(sessionStore, tokens, s.config.SessionTTL(), s.logger,
		session.WithSecureCookie(s.config.Server.SecureCookie))

	notifier, err := s.notifier()
	if err != nil {
		return fmt.Errorf("creating mailer: %w", err)
	}
	generator, err := s.generator(ctx)
	if err != nil {
		return fmt.Errorf("creating chat generator: %w", err)
	}

	validator := form.NewValidator()
	parkService := service.NewParkService(s.store, validator, notifier, s.logger)
	authService := service.NewAuthService(s.store, auth.NewPasswordService(auth.DefaultCost), validator, s.logger)
	chatService := service.NewChatService(s.store, generator, service.ChatOptions{
		Timeout:      s.config.ChatTimeout(),
		HistoryLimit: s.config.Chat.HistoryLimit,
	}, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	}

	pages, err := handler.NewRenderer(web.Templates, s.sessions, s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}
	parkHandler := handler.NewParkHandler(parkService, pages, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, s.sessions, pages, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.sessions, pages, s.logger)
	apiHandler := handler.NewAPIHandler(parkService, s.logger)

	// Order matters: the request id must exist before Logger reads it, and
	// Recoverer sits inside Logger so a panic is still logged as a 500.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("static files: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Pages share the session; the JSON API is stateless.
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Get("/", parkHandler.HandleIndex)
		r.Get("/parks", parkHandler.HandleList)
		r.Get("/add_park", parkHandler.HandleAddForm)
		r.Post("/add_park", parkHandler.HandleAdd)
		r.Get("/edit_park/{id}", parkHandler.HandleEditForm)
		r.Post("/edit_park/{id}", parkHandler.HandleEdit)

		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)
		if github != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}

		r.Get("/chat", chatHandler.HandleChat)
		r.Post("/chat", chatHandler.HandleAsk)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireLogin(s.sessions, s.logger))
			r.Get("/logout", authHandler.HandleLogout)
			r.Post("/delete_park/{id}", parkHandler.HandleDelete)
		})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/all", apiHandler.HandleAll)
		r.Post("/add", apiHandler.HandleAdd)
		r.Patch("/update/{id}", apiHandler.HandleUpdate)
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// close releases resources in reverse order of acquisition.
func (s *Server) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the stores.
func (s *Server) Start() error {
	defer func() {
		if err := s.close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	purgeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if n, err := s.sessions.Purge(purgeCtx); err != nil {
		s.logger.Warn("purging expired sessions", slog.String("error", err.Error()))
	} else if n > 0 {
		s.logger.Info("purged expired sessions", slog.Int64("count", n))
	}
	cancel()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.ChatTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.Bool("postgres", s.config.UsesPostgres()),
			slog.String("sessions", s.config.Server.SessionBackend),
			slog.Bool("chat", s.config.ChatEnabled()),
			slog.Bool("smtp", s.config.SMTPEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
