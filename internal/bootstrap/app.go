package bootstrap

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fridge-monitor/internal/alerts"
	"github.com/angelmondragon/fridge-monitor/internal/detection"
	"github.com/angelmondragon/fridge-monitor/internal/inventory"
	"github.com/angelmondragon/fridge-monitor/internal/nutrition"
	"github.com/angelmondragon/fridge-monitor/internal/recipes"
	"github.com/angelmondragon/fridge-monitor/internal/storage"
	"github.com/angelmondragon/fridge-monitor/pkg/clock"
	"github.com/angelmondragon/fridge-monitor/pkg/config"
	"github.com/angelmondragon/fridge-monitor/pkg/db"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
	"github.com/angelmondragon/fridge-monitor/pkg/metrics"
	"github.com/angelmondragon/fridge-monitor/pkg/migrate"
	"github.com/angelmondragon/fridge-monitor/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// Options override the defaults New picks for collaborators.
type Options struct {
	Clock      clock.Clock
	Detector   detection.Detector
	Registerer prometheus.Registerer
}

// App is the fully wired process: backend, stores and read-side services.
type App struct {
	Config    *config.Config
	Logger    *logger.Logger
	Clock     clock.Clock
	DB        *db.Client
	Redis     *redis.Client
	Blobs     storage.BlobStore
	Inventory *inventory.Store
	Macros    *nutrition.MacroStore
	Catalog   *recipes.Catalog
	Recipes   *recipes.Service
	Alerts    *alerts.Service
	Metrics   *metrics.InventoryMetrics

	closers []func() error
}

// New connects the configured backend, runs migrations when enabled and
// loads both persisted blobs. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts Options) (app *App, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}
	detector := opts.Detector
	if detector == nil {
		detector = detection.NewStubDetector(nil)
	}

	app = &App{Config: cfg, Logger: logg, Clock: clk, Metrics: metrics.NewInventoryMetrics(opts.Registerer)}
	defer func() {
		if err != nil {
			err = multierr.Append(err, app.Close())
			app = nil
		}
	}()

	if err := app.openBackend(ctx); err != nil {
		return app, err
	}

	app.Inventory, err = inventory.NewStore(inventory.StoreParams{
		Blobs:    app.Blobs,
		Key:      cfg.Store.StateKey,
		Detector: detector,
		Clock:    clk,
		Logger:   logg,
		Metrics:  app.Metrics,
	})
	if err != nil {
		return app, err
	}
	if err := app.Inventory.Load(ctx); err != nil {
		return app, fmt.Errorf("load inventory: %w", err)
	}

	app.Macros, err = nutrition.NewMacroStore(app.Blobs, cfg.Store.MacrosKey, logg)
	if err != nil {
		return app, err
	}
	if err := app.Macros.Load(ctx); err != nil {
		return app, fmt.Errorf("load macro overrides: %w", err)
	}

	app.Catalog, err = recipes.LoadCatalog(cfg.Recipe.File)
	if err != nil {
		return app, fmt.Errorf("load recipe catalog: %w", err)
	}
	if app.Recipes, err = recipes.NewService(app.Catalog, app.Inventory, clk); err != nil {
		return app, err
	}
	if app.Alerts, err = alerts.NewService(app.Inventory, clk); err != nil {
		return app, err
	}
	return app, nil
}

func (a *App) openBackend(ctx context.Context) error {
	cfg := a.Config
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		client, err := redis.New(ctx, cfg.Redis, a.Logger)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
	}

	switch {
	case cfg.Store.UsesSQL():
		client, err := db.New(ctx, cfg.DB, a.Logger)
		if err != nil {
			return fmt.Errorf("bootstrap database: %w", err)
		}
		a.DB = client
		a.closers = append(a.closers, client.Close)
		if err := migrate.MaybeRun(ctx, cfg, a.Logger, client); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		blobs, err := storage.NewSQLStore(client.DB(), a.Clock)
		if err != nil {
			return err
		}
		a.Blobs = blobs
	case cfg.Store.Backend == config.BackendRedis:
		if a.Redis == nil {
			return fmt.Errorf("redis backend selected without a redis address")
		}
		blobs, err := storage.NewRedisStore(a.Redis)
		if err != nil {
			return err
		}
		a.Blobs = blobs
	case cfg.Store.Backend == config.BackendMemory:
		a.Blobs = storage.NewMemoryStore()
	default:
		return fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}

	a.Logger.Debug(a.Logger.WithField(ctx, "backend", cfg.Store.Backend), "blob store ready")
	return nil
}

// Close releases every connection in reverse order of opening.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
