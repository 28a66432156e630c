package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fridge-monitor/pkg/config"
	"github.com/angelmondragon/fridge-monitor/pkg/db"
	"github.com/angelmondragon/fridge-monitor/pkg/logger"
)

// MaybeRun applies pending migrations on startup when FRIDGE_AUTO_MIGRATE is set.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.DB.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})
		logg.Info(ctx, "running goose migrations (auto-run)")
	}

	if err := Run(ctx, sqlDB, client.Driver(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "goose migrations completed")
	}
	return nil
}
