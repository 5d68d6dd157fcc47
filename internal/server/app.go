// Package server wires configuration, storage and services together and
// runs the REST API alongside the gRPC health endpoint until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/manup/agenda/internal/cryptox"
	"github.com/manup/agenda/internal/logging"
	"github.com/manup/agenda/internal/server/config"
	"github.com/manup/agenda/internal/server/httpapi"
	"github.com/manup/agenda/internal/server/notify"
	"github.com/manup/agenda/internal/server/ratelimit"
	"github.com/manup/agenda/internal/server/repositories/repomanager"
	"github.com/manup/agenda/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	gs "github.com/manup/agenda/internal/server/grpc"
)

const (
	startupTimeout    = 15 * time.Second
	probeTimeout      = 2 * time.Second
	resetPurgeEvery   = 15 * time.Minute
	resetPurgeTimeout = 30 * time.Second
	mailQueueSize     = 256
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	limiter ratelimit.Limiter
	mailer  *notify.Queue

	authService        *services.AuthService
	appointmentService *services.AppointmentService
	forumService       *services.ForumService
}

// NewApp connects to the database, applies migrations and builds the
// services. The returned App owns the connection pool.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel)

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	hasher := cryptox.NewArgon2Hasher(cryptox.Params{
		Time:    c.Argon2Time,
		Memory:  c.Argon2MemoryKB,
		Threads: c.Argon2Threads,
	})

	mailer := notify.NewQueue(newNotifier(c, logger), mailQueueSize, logger)

	as, err := services.NewAuthService(db, rm, c, hasher, mailer, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:             c,
		logger:             logger,
		db:                 db,
		limiter:            newLimiter(ctx, c, logger),
		mailer:             mailer,
		authService:        as,
		appointmentService: services.NewAppointmentService(db, rm, logger),
		forumService:       services.NewForumService(db, rm, c, logger),
	}, nil
}

// newNotifier picks SMTP delivery when mail is configured, the logging
// notifier in development, and otherwise disables password resets.
func newNotifier(c *config.Config, l logging.Logger) notify.Notifier {
	switch {
	case c.MailConfigured():
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
		})
	case c.MailDevLog:
		return notify.NewLogNotifier(l)
	}
	return notify.Disabled{}
}

// newLimiter uses Redis when an address is configured and reachable, and
// falls back to process memory otherwise.
func newLimiter(ctx context.Context, c *config.Config, l logging.Logger) ratelimit.Limiter {
	if c.RedisAddr == "" {
		return ratelimit.NewMemory()
	}
	lim, err := ratelimit.NewRedis(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, l)
	if err != nil {
		l.Warn(ctx, "redis rate limiter unavailable, using in-memory limiter", "error", err)
		return ratelimit.NewMemory()
	}
	return lim
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) probeDB(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return app.db.PingContext(ctx)
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(httpapi.Deps{
		Auth:         app.authService,
		Appointments: app.appointmentService,
		Forum:        app.forumService,
		Limiter:      app.limiter,
		Health:       app.probeDB,
		Logger:       app.logger,
	})

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, router.Handler(), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.probeDB, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeResetTokens periodically clears expired reset tokens until ctx ends.
func (app *App) purgeResetTokens(ctx context.Context) {
	ticker := time.NewTicker(resetPurgeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, resetPurgeTimeout)
			n, err := app.authService.PurgeExpiredResetTokens(pctx)
			cancel()
			if err != nil {
				app.logger.Warn(ctx, "reset token purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "expired reset tokens purged", "count", n)
			}
		}
	}
}

// Run blocks until a termination signal arrives or a server fails, then
// waits for the servers to drain and releases the pool and limiter.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(4)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeResetTokens(ctx)
	}()
	go func() {
		defer wg.Done()
		app.mailer.Run(ctx)
	}()

	wg.Wait()

	app.limiter.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
