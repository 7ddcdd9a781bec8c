package database

import (
	"context"

	"github.com/Alijeyrad/formora_backend/config"
	"github.com/Alijeyrad/formora_backend/internal/repo"
)

// NewRepoClient opens the application database described by cfg.
func NewRepoClient(cfg config.DatabaseConfig) (*repo.Client, error) {
	return NewRepoClientFromConfig(FromCentralConfig(cfg))
}

func NewRepoClientFromConfig(cfg Config) (*repo.Client, error) {
	db, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}
	return repo.NewClient(db, cfg.Dialect()), nil
}

func Migrate(ctx context.Context, client *repo.Client) error {
	return client.Migrate(ctx)
}
