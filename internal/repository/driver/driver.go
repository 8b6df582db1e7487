// Package driver opens the repository store selected by database.driver.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/physiome/admin-api/internal/config"
	"github.com/physiome/admin-api/internal/repository"
	"github.com/physiome/admin-api/internal/repository/memory"
	"github.com/physiome/admin-api/internal/repository/mongo"
	"github.com/physiome/admin-api/internal/repository/postgres"
)

// Open connects to the configured database and prepares its schema.
func Open(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return postgres.NewStore(db), nil

	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  time.Duration(cfg.Mongo.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		if err := mongo.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return mongo.NewStore(client, db), nil

	case config.DriverMemory:
		return memory.NewStore(memory.New()), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
