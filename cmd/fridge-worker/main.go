package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/fridge-monitor/internal/bootstrap"
	"github.com/angelmondragon/fridge-monitor/internal/cron"
	"github.com/angelmondragon/fridge-monitor/internal/inbox"
	"github.com/angelmondragon/fridge-monitor/pkg/config"
	"github.com/angelmondragon/fridge-monitor/pkg/instance"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
	"github.com/angelmondragon/fridge-monitor/pkg/metrics"
)

const serviceName = "fridge-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"backend":   cfg.Store.Backend,
		"worker_id": instance.GetID(),
	})

	app, err := bootstrap.New(ctx, cfg, logg, bootstrap.Options{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		logg.Error(ctx, "failed to bootstrap", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	sweeps, err := newSweepService(app)
	if err != nil {
		logg.Error(ctx, "failed to create alert sweep", err)
		os.Exit(1)
	}

	watcher, err := inbox.NewWatcher(inbox.WatcherParams{
		Dir:      cfg.Inbox.Dir,
		Debounce: cfg.Inbox.Debounce,
		Scanner:  app.Inventory,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create inbox watcher", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting fridge worker")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, run := range []func(context.Context) error{sweeps.Run, watcher.Run} {
		wg.Add(1)
		go func(run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- err
				stop()
			}
		}(run)
	}
	wg.Wait()
	close(errs)

	failed := false
	for err := range errs {
		logg.Error(ctx, "fridge worker stopped unexpectedly", err)
		failed = true
	}
	if failed {
		os.Exit(1)
	}
	logg.Info(ctx, "fridge worker shutting down gracefully")
}

// newSweepService schedules the alert sweep. Workers sharing a redis
// instance coordinate through a redis lock; otherwise the lock is local.
func newSweepService(app *bootstrap.App) (*cron.Service, error) {
	job, err := cron.NewAlertSweepJob(cron.AlertSweepJobParams{
		Logger:  app.Logger,
		Alerts:  app.Alerts,
		Metrics: app.Metrics,
	})
	if err != nil {
		return nil, err
	}

	var lock cron.Lock = cron.NewLocalLock()
	if app.Redis != nil {
		lock, err = cron.NewRedisLock(app.Redis, app.Redis.LockKey(cron.AlertSweepJobName+":"+envOrLocal(app.Config)), 2*app.Config.Alerts.SweepInterval)
		if err != nil {
			return nil, err
		}
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   app.Logger,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: app.Config.Alerts.SweepInterval,
	})
}

func envOrLocal(cfg *config.Config) string {
	if cfg.App.Env == "" {
		return "local"
	}
	return cfg.App.Env
}
