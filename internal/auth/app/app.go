package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	httpapi "github.com/D-Arox/BluFox-Studio-sub000/internal/auth/http"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/session"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store/drivers/sqlite"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/jwtx"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   *jwtx.EdDSASigner
	sessions *session.Manager

	oauthService        *service.OAuthService
	tokenService        *service.TokenService
	rememberService     *service.RememberService
	gate                *service.SessionGate
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "blufox-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, err := InitSigningKey(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}
	app.signer = signer

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

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

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

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

func (app *Application) initServices() {
	app.sessions = session.NewManager(app.cfg.SessionTTL)

	app.oauthService = service.NewOAuthService(service.ProviderConfig{
		ClientID:     app.cfg.OAuthClientID,
		ClientSecret: app.cfg.OAuthClientSecret,
		AuthorizeURL: app.cfg.OAuthAuthorizeURL,
		TokenURL:     app.cfg.OAuthTokenURL,
		UserInfoURL:  app.cfg.OAuthUserInfoURL,
		ProfileURL:   app.cfg.OAuthProfileURL,
		RevokeURL:    app.cfg.OAuthRevokeURL,
		RedirectURI:  app.cfg.OAuthRedirectURI,
		Prompt:       app.cfg.OAuthPrompt,
		Scopes:       app.cfg.OAuthScopes,
	}, app.db, app.logger)
	app.oauthService.StateTTL = app.cfg.StateTTL

	app.tokenService = &service.TokenService{
		Signer:     app.signer,
		Verifier:   jwtx.VerifierForSigner(app.signer, app.cfg.Issuer),
		Issuer:     app.cfg.Issuer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}

	audit := &service.StoreAuditLog{Store: app.db, Logger: app.logger}

	app.rememberService = &service.RememberService{
		Store:    app.db,
		Audit:    audit,
		Notifier: &service.SlogNotifier{Logger: app.logger},
		Logger:   app.logger,
		TTL:      app.cfg.RememberTTL,
	}

	app.gate = &service.SessionGate{
		Store:    app.db,
		Sessions: app.sessions,
		Tokens:   app.tokenService,
		Remember: app.rememberService,
		Audit:    audit,
		Logger:   app.logger,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.sessions,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.OAuthService = app.oauthService
	router.Gate = app.gate
	router.RememberService = app.rememberService
	router.SiteURL = app.cfg.SiteURL
	router.SecureCookies = !strings.EqualFold(app.cfg.Env, "dev")

	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
