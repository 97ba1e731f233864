// Package app wires the auth service together: config, logging, storage,
// token signing, revocation, services, and the HTTP server.
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

	"github.com/rollcall-hq/rollcall/internal/auth/gate"
	httpapi "github.com/rollcall-hq/rollcall/internal/auth/http"
	"github.com/rollcall-hq/rollcall/internal/auth/revoke"
	"github.com/rollcall-hq/rollcall/internal/auth/service"
	"github.com/rollcall-hq/rollcall/internal/auth/store"
	"github.com/rollcall-hq/rollcall/internal/auth/store/drivers/sqlite"
	"github.com/rollcall-hq/rollcall/pkg/jwtx"
	"github.com/rollcall-hq/rollcall/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	// devSigningSecret keeps local development working without env setup.
	// Refusing to start in prod without a real secret happens in initSigner.
	devSigningSecret = "rollcall-dev-secret-do-not-use-in-prod"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	signer  *jwtx.HS256
	revoked revoke.Store

	sessionService *service.SessionService
	userService    *service.UserService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "rollcall-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSigner(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initRevocation(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()

	if err := app.bootstrap(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if closer, ok := app.revoked.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("error closing revocation store", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initSigner builds the HS256 signer. A missing secret is fatal in prod and
// a loudly logged fallback everywhere else.
func (app *Application) initSigner() error {
	secret := app.cfg.SigningSecret
	if secret == "" {
		if app.cfg.Env == "prod" {
			return errors.New("AUTH_SIGNING_SECRET must be set in prod")
		}
		app.logger.Warn("AUTH_SIGNING_SECRET not set, using development fallback secret")
		secret = devSigningSecret
	}

	signer, err := jwtx.NewHS256([]byte(secret), app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRevocation selects the revocation backend: Redis when configured so
// logouts propagate across instances, in-process memory otherwise.
func (app *Application) initRevocation() error {
	if app.cfg.RedisURL == "" {
		app.revoked = revoke.NewMemory()
		app.logger.Info("using in-memory revocation store")
		return nil
	}

	redisStore, err := revoke.NewRedis(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to initialize redis revocation store: %w", err)
	}

	if err := redisStore.Ping(context.Background()); err != nil {
		return fmt.Errorf("redis revocation store unreachable: %w", err)
	}

	app.revoked = redisStore
	app.logger.Info("using redis revocation store")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.sessionService = service.NewSessionService(
		app.signer,
		app.signer,
		app.db,
		app.revoked,
		app.cfg.Issuer,
		app.cfg.AccessTokenTTL,
		app.cfg.RefreshTokenTTL,
	)
	app.userService = service.NewUserService(app.db)
}

// initHTTP builds the router and the HTTP server.
func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(
		gate.New(app.signer, app.revoked),
		BuildVersion,
		app.db,
		app.revoked,
		app.logger,
	)
	app.router.SessionService = app.sessionService
	app.router.UserService = app.userService
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}
