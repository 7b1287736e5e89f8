package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/internal/http/handlers"
	"github.com/eurobrokers/leadcapture/internal/platform/auth"
	"github.com/eurobrokers/leadcapture/internal/platform/notify"
	"github.com/eurobrokers/leadcapture/internal/repo/sqlite"
	"github.com/eurobrokers/leadcapture/internal/service"
	"github.com/eurobrokers/leadcapture/internal/web"
	"github.com/eurobrokers/leadcapture/pkg/config"
	"github.com/eurobrokers/leadcapture/pkg/database"
	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	defaultSessionSecret = "change_me"
	shutdownTimeout      = 30 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// app is the assembled server with the resources it owns.
type app struct {
	handler http.Handler
	dbPath  string
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	a.dbPath = db.Path()

	users := sqlite.NewUsersRepo(db)
	leads := sqlite.NewLeadsRepo(db)
	hasher := auth.NewArgon2Hasher()

	res, err := service.EnsureAdmin(ctx, users, hasher, adminSeed(cfg))
	if err != nil {
		return fail(err)
	}
	logger.Info("Admin account checked", "email", cfg.Admin.Email, "result", res.String())

	if cfg.Session.Secret == defaultSessionSecret {
		logger.Warn("SESSION_SECRET is the default value; set a random secret in production")
	}
	store := sqlite.NewSessionStore(db, cfg.Session.TTL, []byte(cfg.Session.Secret))
	store.Options.Secure = cfg.Session.CookieSecure
	store.MaxAge(int(auth.RememberFor / time.Second))

	purged, err := store.PurgeExpired(ctx)
	if err != nil {
		return fail(err)
	}
	if purged > 0 {
		logger.Info("Expired sessions purged", "count", purged)
	}

	validator, err := domain.NewLeadValidator(cfg.Intake.PostalCodePattern, cfg.Intake.PhonePattern)
	if err != nil {
		return fail(fmt.Errorf("intake patterns: %w", err))
	}

	notifier, closeNotify, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, closeNotify)

	views, err := web.NewRenderer()
	if err != nil {
		return fail(err)
	}

	svc := service.NewLeadService(leads, validator, notifier)
	authn := auth.NewAuthenticator(users, hasher, store, cfg.Session.CookieName)
	a.handler = handlers.NewRouter(
		handlers.NewPublicHandler(svc, views, web.DefaultAgent),
		handlers.NewAdminHandler(svc, authn, views),
		db.Ping,
	)
	return a, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting leadcapture", "addr", srv.Addr, "db", a.dbPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down leadcapture...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
		return err
	}
	return <-errCh
}
