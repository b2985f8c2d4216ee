package main

import (
	"context"

	config "github.com/NordCoder/authgate/internal/config/auth-api"
	"github.com/NordCoder/authgate/internal/obs/retry"
	pg "github.com/NordCoder/authgate/internal/repository/postgres"
	"go.uber.org/zap"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	var db *pg.DB
	err := retry.Do(ctx, func(ctx context.Context) error {
		d, err := pg.New(ctx, cfg.DB)
		if err != nil {
			return err
		}
		db = d
		return nil
	}, retry.DefaultDBPolicy(logger))
	if err != nil {
		return nil, err
	}
	return db, nil
}
