package main

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/pkg/config"
	"finanzas/pkg/seed"
	"finanzas/pkg/store"
)

// initDB applies pending migrations when enabled, opens the backend and seeds
// the catalogs and the administrator.
func initDB(ctx context.Context, cfg *config.Config) (*store.DB, error) {
	sc := cfg.Store()
	if cfg.AutoMigrate {
		if err := store.Migrate(sc); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", sc.Dialect, err)
		}
		slog.Info("migrations applied", "dialect", sc.Dialect)
	}
	db, err := store.Open(ctx, sc)
	if err != nil {
		return nil, err
	}
	admin := seed.Admin{Nombre: cfg.Admin.Nombre, Email: cfg.Admin.Email, Password: cfg.Admin.Password}
	if err := seed.All(db.Gorm().WithContext(ctx), admin); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	return db, nil
}
