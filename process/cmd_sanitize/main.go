package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"finanzas/pkg/config"
	"finanzas/pkg/logging"
	"finanzas/pkg/seed"
	"finanzas/pkg/store"
	"finanzas/process/sanitize"
)

func main() {
	var (
		dryRun = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes    = flag.Bool("yes", false, "Confirm destructive action (required to actually truncate)")
		reseed = flag.Bool("reseed", false, "After truncation, reseed catalogs and the admin user")
		tables = flag.String("tables", strings.Join(sanitize.DefaultTables, ","), "Comma-separated list of tables to truncate")
	)
	flag.Parse()

	config.LoadDotEnv()
	logging.Setup()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", logging.Err(err))
		os.Exit(2)
	}

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.Store())
	if err != nil {
		slog.Error("open database", logging.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	opts := sanitize.Options{
		DryRun: *dryRun,
		Yes:    *yes,
		Reseed: *reseed,
		Tables: sanitize.ParseTables(*tables),
		Admin:  seed.Admin{Nombre: cfg.Admin.Nombre, Email: cfg.Admin.Email, Password: cfg.Admin.Password},
	}
	if err := sanitize.Run(ctx, db, opts, os.Stdout); err != nil {
		slog.Error("sanitize failed", logging.Err(err))
		os.Exit(1)
	}
}
