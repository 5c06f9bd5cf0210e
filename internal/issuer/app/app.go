package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/tabwave/keygate/internal/issuer/http"
	"github.com/tabwave/keygate/internal/issuer/revocation"
	"github.com/tabwave/keygate/internal/issuer/service"
	"github.com/tabwave/keygate/internal/issuer/store"
	"github.com/tabwave/keygate/internal/issuer/store/drivers/sqlite"
	"github.com/tabwave/keygate/pkg/cryptox"
	"github.com/tabwave/keygate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the issuer with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	keys        *SigningKeys
	revocations revocation.Store

	// Services
	tokenService        *service.TokenService
	licenseService      *service.LicenseService
	housekeepingService *service.HousekeepingService // memory backend only

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "keygate-issuer",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.AdminPass == "" && cfg.AdminPassHash == "" {
		return nil, fmt.Errorf("no admin credentials configured: set KEYGATE_ADMIN_PASS or KEYGATE_ADMIN_PASS_HASH")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keys, err := InitSigningKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keys = keys

	if err := app.initRevocations(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("issuer starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"revocation_backend", app.cfg.RevocationBackend,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down issuer...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}

	if err := app.revocations.Close(); err != nil {
		app.logger.Error("error closing revocation store", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("issuer stopped")
	return nil
}

// initDatabase initializes the audit ledger and applies migrations
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

// initRevocations picks the revocation backend from config.
func (app *Application) initRevocations() error {
	switch app.cfg.RevocationBackend {
	case "redis":
		opts, err := redis.ParseURL(app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		rs := revocation.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return fmt.Errorf("redis unreachable: %w", err)
		}

		app.revocations = rs
		app.logger.Info("revocation backend: redis", "addr", opts.Addr)

	case "memory":
		app.revocations = revocation.NewMemoryStore()
		app.logger.Warn("revocation backend: in-memory, revocations do not survive restarts or span replicas")

	default:
		return fmt.Errorf("unknown revocation backend %q", app.cfg.RevocationBackend)
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = service.NewTokenService(
		app.keys.Signer,
		app.keys.Verifier,
		app.keys.KeySet,
		app.cfg.Issuer,
		[]string{app.cfg.Audience},
	)

	app.licenseService = service.NewLicenseService(app.tokenService, app.db, app.revocations)

	// Only the memory backend needs sweeping; Redis expires keys itself.
	if mem, ok := app.revocations.(*revocation.MemoryStore); ok {
		app.housekeepingService = service.NewHousekeepingService(
			mem,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys.KeySet,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.LicenseService = app.licenseService
	router.AdminCheck = app.adminCheck()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// adminCheck builds the constant-time Basic auth credential check. When a
// password hash is configured it wins over the plaintext password.
func (app *Application) adminCheck() func(username, password string) bool {
	user := app.cfg.AdminUser
	pass := app.cfg.AdminPass
	passHash := app.cfg.AdminPassHash

	return func(username, password string) bool {
		userOK := cryptox.ConstantTimeEquals(username, user)

		var passOK bool
		if passHash != "" {
			passOK = cryptox.VerifyPassword(password, passHash) == nil
		} else {
			passOK = cryptox.ConstantTimeEquals(password, pass)
		}

		return userOK && passOK
	}
}
