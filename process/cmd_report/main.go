package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"finanzas/pkg/config"
	"finanzas/pkg/logging"
	"finanzas/pkg/store"
	"finanzas/process/report"
)

func main() {
	month := flag.String("month", time.Now().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
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

	if err := report.RunReport(ctx, db, *month, *list, os.Stdout); err != nil {
		slog.Error("report failed", logging.Err(err))
		os.Exit(1)
	}
}
