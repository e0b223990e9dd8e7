// Package bootstrap assembles the relay runtime: logger, optional history
// database, session store, router, and the background scheduler.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	coredatabase "github.com/m3rciful/relaybot/core/database"
	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/relay"
	"github.com/m3rciful/relaybot/core/relay/history"
	"github.com/m3rciful/relaybot/core/sched"
	"github.com/m3rciful/relaybot/core/session"
	coretelegram "github.com/m3rciful/relaybot/core/telegram"
	"github.com/m3rciful/relaybot/core/telegram/middleware"
	"github.com/m3rciful/relaybot/core/telegram/sender"
)

// App holds everything the process needs after bootstrap.
type App struct {
	Config   *coreconfig.Config
	DB       *sqlx.DB
	Store    *session.Store
	Router   *relay.Router
	Counters *sched.Counters
	History  history.Sink

	scheduler *sched.Scheduler
}

// Run initializes the logger, optionally connects the history database and
// applies migrations, and builds the routing core.
func Run(cfg *coreconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	sink := history.Sink(history.NewNoop())
	var db *sqlx.DB
	if cfg.Database.Enabled {
		var err error
		db, err = coredatabase.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		if err := coredatabase.RunMigrations(cfg.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		sink = history.NewPostgres(db)
	}

	store := session.NewStore()
	counters := sched.NewCounters()
	router := relay.NewRouter(store, relay.Options{
		Operator:     cfg.Telegram.OperatorID,
		Hours:        relay.Hours{Open: cfg.Support.OpenHour, Close: cfg.Support.CloseHour},
		CloseKeyword: cfg.Support.CloseKeyword,
		History:      sink,
	})

	return &App{
		Config:   cfg,
		DB:       db,
		Store:    store,
		Router:   router,
		Counters: counters,
		History:  sink,
	}, nil
}

// Close releases resources owned by the app.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// TelegramRunOptions builds the bot runtime wiring: middlewares, routes, and
// the scheduler lifecycle hooks.
func (a *App) TelegramRunOptions() coretelegram.RunOptions {
	cfg := a.Config

	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		exclude[kind] = struct{}{}
	}

	middlewares := []coretelegram.Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logging", Use: middleware.LoggerMiddleware},
		{Name: "counters", Use: middleware.CountersMiddleware(a.Counters)},
	}
	if cfg.RateLimit.IntervalMS > 0 {
		middlewares = append(middlewares, coretelegram.Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:  exclude,
				Exempt:   map[int64]struct{}{cfg.Telegram.OperatorID: {}},
			}),
		})
	}

	return coretelegram.RunOptions{
		Config: cfg,
		DispatcherOptions: sender.Options{
			OnFailure: a.Counters.IncSendFailures,
		},
		Middlewares: middlewares,
		Bind: func(rt coretelegram.Runtime) error {
			svc := coretelegram.NewService(a.Router, rt.Transport, rt.Dispatcher, a.Counters)
			svc.Register(rt.Bot)
			return nil
		},
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.scheduler = sched.New(
				time.Duration(cfg.Scheduler.StopGraceSeconds)*time.Second,
				a.tasks(rt)...,
			)
			return a.scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			if a.scheduler == nil {
				return nil
			}
			return a.scheduler.Stop()
		},
	}
}

// tasks builds the periodic background work: an activity report, a dispatcher
// self check, and a Bot API liveness ping.
func (a *App) tasks(rt coretelegram.Runtime) []sched.Task {
	cfg := a.Config

	var lastFailures int64
	return []sched.Task{
		{
			Name:     "activity",
			Interval: time.Duration(cfg.Scheduler.ActivitySeconds) * time.Second,
			Run: func(ctx context.Context) error {
				snap := a.Counters.Snapshot()
				logger.Info(ctx, "sched", "activity",
					slog.Int64("updates", snap.Updates),
					slog.Int64("actions", snap.Actions),
					slog.Int64("send_failures", snap.SendFailures),
					slog.Int("sessions", a.Store.Len()),
					slog.Int64("uptime_seconds", int64(snap.Uptime.Seconds())),
				)
				return nil
			},
		},
		{
			Name:     "self_check",
			Interval: time.Duration(cfg.Scheduler.SelfCheckSeconds) * time.Second,
			Run: func(ctx context.Context) error {
				snap := a.Counters.Snapshot()
				if delta := snap.SendFailures - lastFailures; delta > 0 {
					logger.Warn(ctx, "sched", "self_check.failures",
						slog.Int64("new_failures", delta),
						slog.Int64("total_failures", snap.SendFailures),
					)
				}
				lastFailures = snap.SendFailures
				return nil
			},
		},
		{
			Name:     "liveness",
			Interval: time.Duration(cfg.Scheduler.LivenessSeconds) * time.Second,
			Run: func(ctx context.Context) error {
				pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				defer cancel()
				return rt.Transport.Ping(pingCtx)
			},
		},
	}
}
