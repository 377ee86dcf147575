package backend

import (
	"context"
	"fmt"
	"log/slog"

	"learnhub/internal/config"
	"learnhub/internal/storage"
	"learnhub/internal/storage/dynamo"
	"learnhub/internal/storage/memory"
	"learnhub/internal/storage/mongostore"
)

// Open connects the store selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		s, err := dynamo.New(ctx, cfg.AWSRegion, cfg.DynamoEndpoint, dynamo.Tables{
			Users:         cfg.Tables.Users,
			Registrations: cfg.Tables.Registrations,
			Progress:      cfg.Tables.Progress,
			Materials:     cfg.Tables.Materials,
		})
		if err != nil {
			return nil, err
		}
		if cfg.DynamoCreateTables {
			if err := s.EnsureTables(ctx); err != nil {
				return nil, err
			}
		}
		slog.Info("using dynamodb store", "region", cfg.AWSRegion, "local", cfg.DynamoEndpoint != "")
		return s, nil

	case config.BackendMongo:
		s, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		slog.Info("using mongo store", "db", cfg.MongoDB)
		return s, nil

	case config.BackendMemory:
		slog.Warn("using in-memory store, data is lost on exit")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
