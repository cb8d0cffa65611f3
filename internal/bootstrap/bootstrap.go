package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	contactinadapter "saferun/internal/modules/contact/adapter/in"
	contactoutadapter "saferun/internal/modules/contact/adapter/out"
	contactout "saferun/internal/modules/contact/port/out"
	contactservice "saferun/internal/modules/contact/service"
	contactusecase "saferun/internal/modules/contact/usecase"
	notifyoutadapter "saferun/internal/modules/notify/adapter/out"
	notifyout "saferun/internal/modules/notify/port/out"
	notifyservice "saferun/internal/modules/notify/service"
	notifyusecase "saferun/internal/modules/notify/usecase"
	sessioninadapter "saferun/internal/modules/session/adapter/in"
	sessionoutadapter "saferun/internal/modules/session/adapter/out"
	sessionin "saferun/internal/modules/session/port/in"
	sessionout "saferun/internal/modules/session/port/out"
	sessionservice "saferun/internal/modules/session/service"
	sessionusecase "saferun/internal/modules/session/usecase"
	sweepinadapter "saferun/internal/modules/sweep/adapter/in"
	sweepoutadapter "saferun/internal/modules/sweep/adapter/out"
	sweepservice "saferun/internal/modules/sweep/service"
	sweepusecase "saferun/internal/modules/sweep/usecase"
	"saferun/internal/platform/clock"
	"saferun/internal/platform/config"
	"saferun/internal/platform/httpserver"
	"saferun/internal/platform/id"
	"saferun/internal/platform/logging"
	"saferun/internal/platform/metrics"
)

type App struct {
	Config config.Config
	Logger zerolog.Logger

	Sessions   sessionin.Usecase
	SessionCLI sessioninadapter.CLIHandler
	ContactCLI contactinadapter.CLIHandler
	SweepCLI   sweepinadapter.CLIHandler

	HTTP      *httpserver.Server
	Scheduler *sweepusecase.Scheduler

	closers []func() error
}

// New wires every module for cfg. Resources opened before a failure are
// released before it returns.
func New(ctx context.Context, cfg config.Config) (_ *App, err error) {
	logger := logging.Setup(cfg.Log)
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	clk := clock.SystemClock{}

	var rdb *redis.Client
	if cfg.Store.Backend == config.BackendRedis || cfg.Notify.Gateway == config.GatewayRedis {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		app.closers = append(app.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collectorSet := metrics.New(registry)

	sessionStore, contactStore, err := app.openStores(cfg, rdb)
	if err != nil {
		return nil, err
	}

	contactUC := contactusecase.NewInteractor(contactservice.NewContactService(clk, contactStore))

	gateway, err := app.openGateway(cfg, rdb, logger)
	if err != nil {
		return nil, err
	}
	notifyUC := notifyusecase.NewInteractor(notifyservice.NewDispatcher(
		clk,
		gateway,
		notifyoutadapter.NewContactDirectory(contactUC),
		collectorSet,
		cfg.Notify.Timeout,
	))
	notifier := sessionoutadapter.NewNotifyBridge(notifyUC)

	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewEngine(clk, id.UUID{}, sessionStore, notifier, collectorSet, sessionservice.ConfigFrom(cfg)),
		sessionservice.NewTracker(clk, sessionStore, notifier, collectorSet),
		sessionservice.NewEscalations(clk, sessionStore),
	)

	sweepUC := sweepusecase.NewInteractor(sweepservice.NewSweeper(
		clk,
		sweepoutadapter.NewSessionSource(sessionUC),
		sweepoutadapter.NewOverdueNotifier(notifyUC),
		collectorSet,
		sweepservice.Config{GracePeriod: cfg.Sweep.GracePeriod, Concurrency: cfg.Sweep.Concurrency},
	))

	app.Sessions = sessionUC
	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.ContactCLI = contactinadapter.NewCLIHandler(contactUC)
	app.SweepCLI = sweepinadapter.NewCLIHandler(sweepUC)
	app.Scheduler = sweepusecase.NewScheduler(sweepUC, cfg.Sweep.Interval)
	app.HTTP = httpserver.New(cfg.HTTP.Addr, registry,
		sessioninadapter.NewHTTPHandler(sessionUC),
		contactinadapter.NewHTTPHandler(contactUC),
	)

	logger.Debug().
		Str("store", cfg.Store.Backend).
		Str("gateway", gateway.Name()).
		Msg("application wired")
	return app, nil
}

// openStores picks the session store by backend. Contacts live in SQLite
// when sessions do and in memory otherwise.
func (a *App) openStores(cfg config.Config, rdb *redis.Client) (sessionout.Store, contactout.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return sessionoutadapter.NewMemoryStore(), contactoutadapter.NewMemoryStore(), nil
	case config.BackendRedis:
		return sessionoutadapter.NewRedisStore(rdb, cfg.Redis.KeyPrefix), contactoutadapter.NewMemoryStore(), nil
	case config.BackendSQLite:
		sessions, err := sessionoutadapter.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		a.closers = append(a.closers, sessions.Close)
		contacts, err := contactoutadapter.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open contact store: %w", err)
		}
		a.closers = append(a.closers, contacts.Close)
		return sessions, contacts, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func (a *App) openGateway(cfg config.Config, rdb *redis.Client, logger zerolog.Logger) (notifyout.Gateway, error) {
	switch cfg.Notify.Gateway {
	case config.GatewayLog:
		return notifyoutadapter.NewLogGateway(logger), nil
	case config.GatewayRedis:
		return notifyoutadapter.NewRedisGateway(rdb, cfg.Notify.RedisChannel), nil
	case config.GatewayPlugin:
		gw := notifyoutadapter.NewPluginGateway(cfg.Notify.PluginBinary)
		a.closers = append(a.closers, func() error {
			gw.Close()
			return nil
		})
		return gw, nil
	}
	return nil, fmt.Errorf("unknown notification gateway %q", cfg.Notify.Gateway)
}

// Close releases stores, plugin processes and connections in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// RunServer serves the HTTP API and the overdue sweeper until SIGINT or
// SIGTERM. Either one failing stops both.
func (a *App) RunServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = a.Logger.WithContext(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.HTTP.Run(ctx) })
	g.Go(func() error { return a.Scheduler.Run(ctx) })
	return g.Wait()
}
