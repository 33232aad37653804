package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vadim/neo-threads/internal/config"
	httpcontroller "github.com/vadim/neo-threads/internal/controller/http"
	"github.com/vadim/neo-threads/internal/httpx/upstream/threads"
	"github.com/vadim/neo-threads/internal/logger"
	"github.com/vadim/neo-threads/internal/session"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	services *Services
	sessions *session.Manager
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: log,
	}

	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	if err := app.registerRoutes(); err != nil {
		app.services.Close()
		return nil, fmt.Errorf("registering routes: %w", err)
	}

	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure builds the domain services and the session layer
func (a *App) initInfrastructure(ctx context.Context) error {
	services, err := NewServices(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	a.services = services

	if a.cfg.Session.InsecureSecret() {
		a.logger.Warn("SESSION_SECRET is not set, session cookies are signed with a well-known key")
	}

	store := session.NewCookieStore(session.StoreConfig{
		Secret: a.cfg.Session.Secret,
		MaxAge: a.cfg.Session.MaxAge,
		Secure: a.cfg.Server.TLSEnabled(),
	})
	bootstrap := session.NewBootstrap(a.cfg.Threads.InitialAccessToken, a.cfg.Threads.InitialUserID)
	a.sessions = session.NewManager(store, a.cfg.Session.CookieName, bootstrap, a.logger)

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() error {
	s := a.services

	health := map[string]httpcontroller.Pinger{}
	if s.Pool != nil {
		health["postgres"] = s.Pool
	}
	httpcontroller.NewHealthHandler(health).RegisterRoutes(a.router)
	a.router.Handle("/metrics", promhttp.Handler())

	swaggerHandler, err := httpcontroller.NewSwaggerHandler("Threads Companion API", OpenAPISpec)
	if err != nil {
		return err
	}
	swaggerHandler.RegisterRoutes(a.router)

	oauthCfg := threads.OAuthConfig{
		AppID:       a.cfg.Threads.AppID,
		AppSecret:   a.cfg.Threads.AppSecret,
		RedirectURI: a.cfg.Threads.RedirectURI,
	}
	httpcontroller.NewAuthHandler(s.Client, oauthCfg, a.sessions, a.logger).RegisterRoutes(a.router)

	threadHandler := httpcontroller.NewThreadHandler(s.Fetcher)
	threadHandler.RegisterPublicRoutes(a.router)

	var uploader httpcontroller.MediaUploader
	if s.Storage != nil {
		uploader = s.Storage
	}

	a.router.Group(func(r chi.Router) {
		r.Use(a.sessions.RequireLogin)

		httpcontroller.NewAccountHandler(s.Fetcher, a.sessions, a.logger).RegisterRoutes(r)
		threadHandler.RegisterRoutes(r)
		httpcontroller.NewPublishHandler(s.Publisher, s.Client, a.logger).RegisterRoutes(r)
		httpcontroller.NewBulkHandler(s.Bulk, s.Fetcher, a.sessions, a.logger).RegisterRoutes(r)
		httpcontroller.NewExportHandler(s.Exporter).RegisterRoutes(r)
		httpcontroller.NewMediaHandler(uploader, a.logger).RegisterRoutes(r)
	})

	return nil
}

// Router exposes the HTTP handler
func (a *App) Router() http.Handler {
	return a.router
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		var err error
		if a.cfg.Server.TLSEnabled() {
			a.logger.Info("starting HTTPS server", "addr", a.cfg.Server.Address())
			err = a.httpServer.ListenAndServeTLS(a.cfg.Server.TLSCertFile, a.cfg.Server.TLSKeyFile)
		} else {
			a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
			err = a.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.services.Close()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.services.Close()

	a.logger.Info("shutdown complete")
	return nil
}
