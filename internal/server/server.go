// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts the routes and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config.Config → store (sqlite | firestore)
//	store → NoteService, UserService, AuthService
//	NoteService + UserService + pdf.Formatter → ReportService
//	services → handlers → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/weekly-notes/internal/auth"
	"github.com/sakif/weekly-notes/internal/config"
	"github.com/sakif/weekly-notes/internal/handler"
	"github.com/sakif/weekly-notes/internal/middleware"
	"github.com/sakif/weekly-notes/internal/report/pdf"
	"github.com/sakif/weekly-notes/internal/repository"
	firestoreRepo "github.com/sakif/weekly-notes/internal/repository/firestore"
	sqliteRepo "github.com/sakif/weekly-notes/internal/repository/sqlite"
	"github.com/sakif/weekly-notes/internal/service"
)

const shutdownTimeout = 30 * time.Second

// store is what both backends provide.
type store interface {
	repository.NoteRepository
	repository.UserRepository
	io.Closer
}

// Server owns the router and the store connection. The store is closed when
// Start returns.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	store  store
}

// New opens the configured store and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  st,
	}

	if err := s.setupRoutes(); err != nil {
		st.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		st, err := firestoreRepo.New(ctx, firestoreRepo.Config{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsFile: cfg.FirebaseCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("opening firestore: %w", err)
		}
		return st, nil

	default:
		if !strings.HasPrefix(cfg.DBPath, ":memory:") {
			// Equivalent of mkdir -p for the database's directory.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store. Start calls it on the way out.
func (s *Server) Close() error {
	return s.store.Close()
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET    /                          health
//	GET    /auth/google               start Google login
//	GET    /auth/google/callback      finish Google login
//	GET    /auth/logout               clear the session
//	GET    /auth/check-session        session status (optional auth)
//	POST   /note/submit               session
//	GET    /note/check                session
//	GET    /note/week                 session
//	GET    /note/week-pdf             session
//	GET    /users/top-users           public
//	GET    /users/all-users           session, admin
//	POST   /users/reset-points        session, admin
//	DELETE /users/delete-user         session, admin
//	GET    /users/{id}                session
//	POST   /profile/complete-profile  session
//
// MIDDLEWARE ORDER: RequestID must run before Logger so the ID is logged.
// CORS runs before routing so preflight requests never reach a handler.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	formatter, err := pdf.New(s.cfg.ReportFontPath)
	if err != nil {
		return fmt.Errorf("creating report formatter: %w", err)
	}

	weeklyUnique := s.cfg.WeeklyUnique
	if len(weeklyUnique) == 0 {
		weeklyUnique = service.DefaultWeeklyUnique
	}

	noteService := service.NewNoteService(s.store, weeklyUnique, nil, s.logger)
	userService := service.NewUserService(s.store, s.logger)
	reportService := service.NewReportService(noteService, userService, formatter, s.logger)
	authService := service.NewAuthService(s.store, tokens, service.AuthOptions{
		AdminEmails: s.cfg.AdminEmails,
		Location:    s.cfg.Location,
	}, s.logger)

	google := auth.NewGoogleProvider(s.cfg.GoogleClientID, s.cfg.GoogleClientSecret, s.cfg.GoogleCallbackURL)

	authHandler := handler.NewAuthHandler(google, authService, userService, handler.AuthHandlerConfig{
		FrontendURL:   s.cfg.FrontendURL,
		SessionTTL:    tokens.TTL(),
		SecureCookies: s.cfg.CookieSecure,
	}, s.logger)
	noteHandler := handler.NewNoteHandler(noteService, reportService, userService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Get("/", handler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/google", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Get("/logout", authHandler.HandleLogout)
		r.With(auth.OptionalAuth(tokens)).Get("/check-session", authHandler.HandleCheckSession)
	})

	s.router.Route("/note", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/submit", noteHandler.HandleSubmit)
		r.Get("/check", noteHandler.HandleCheck)
		r.Get("/week", noteHandler.HandleWeek)
		r.Get("/week-pdf", noteHandler.HandleWeekReport)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/top-users", userHandler.HandleTopUsers)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/all-users", userHandler.HandleAllUsers)
			r.Post("/reset-points", userHandler.HandleResetPoints)
			r.Delete("/delete-user", userHandler.HandleDeleteUser)
			r.Get("/{id}", userHandler.HandleGetUser)
		})
	})

	s.router.With(requireAuth).Post("/profile/complete-profile", userHandler.HandleCompleteProfile)

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the store.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second, // report rendering can take a moment
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("store", s.cfg.StoreBackend),
			slog.String("frontend", s.cfg.FrontendURL),
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
