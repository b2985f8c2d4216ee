package main

import (
	"context"

	config "github.com/NordCoder/authgate/internal/config/auth-api"
	"go.uber.org/zap"
)

func seedAdmin(ctx context.Context, cfg *config.Config, app *app, logger *zap.Logger) error {
	created, err := app.accounts.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		logger.Info("admin user created", zap.String("email", cfg.Bootstrap.AdminEmail))
	}
	return nil
}
