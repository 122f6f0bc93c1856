package migrate

import (
	"context"
	"fmt"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/config"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
)

// Apply brings the schema of client up to date: the mirrored schema for sqlite,
// the embedded goose migrations otherwise.
func Apply(ctx context.Context, driver string, logg *logger.Logger, client *db.Client) error {
	if driver == config.DriverSQLite {
		logg.Info(ctx, "migrate.sqlite_schema")
		return client.ApplySQLiteSchema(ctx)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := Run(ctx, Target{DB: sqlDB, Driver: driver}, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.goose_up_done")
	return nil
}

// MaybeRunDev applies the schema on startup in dev when the auto-migrate flag is on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})
	if err := Apply(ctx, cfg.DB.Driver, logg, client); err != nil {
		return fmt.Errorf("dev auto-migrate: %w", err)
	}
	return nil
}
