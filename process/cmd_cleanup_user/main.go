package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm"

	"finanzas/models"
	"finanzas/pkg/config"
	"finanzas/pkg/logging"
	"finanzas/pkg/store"
)

func main() {
	email := flag.String("email", "", "email of the user whose movements are deleted")
	dry := flag.Bool("dry-run", true, "Preview actions without modifying the DB")
	yes := flag.Bool("yes", false, "Confirm destructive action when dry-run=false")
	flag.Parse()
	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "usage: cmd_cleanup_user -email <email>")
		os.Exit(2)
	}

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

	commit := !*dry
	if commit && !*yes {
		fmt.Println("Destructive! Pass -yes to proceed.")
		return
	}
	ing, egr, err := cleanupUser(ctx, db.Gorm(), *email, commit)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Println("user not found; nothing to cleanup")
		return
	}
	if err != nil {
		slog.Error("cleanup failed", logging.Err(err))
		os.Exit(1)
	}
	if !commit {
		fmt.Printf("dry-run: would delete ingresos=%d, egresos=%d. Use -dry-run=false -yes to execute.\n", ing, egr)
		return
	}
	fmt.Printf("cleanup done: ingresos deleted=%d, egresos deleted=%d\n", ing, egr)
}

// cleanupUser deletes every movement recorded by the user with email in one
// transaction. Without commit it only counts them.
func cleanupUser(ctx context.Context, gdb *gorm.DB, email string, commit bool) (ingresos, egresos int64, err error) {
	var user models.Usuario
	if err := gdb.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return 0, 0, err
	}
	if !commit {
		if err := gdb.WithContext(ctx).Model(&models.Ingreso{}).Where("registrado_por = ?", user.ID).Count(&ingresos).Error; err != nil {
			return 0, 0, err
		}
		if err := gdb.WithContext(ctx).Model(&models.Egreso{}).Where("registrado_por = ?", user.ID).Count(&egresos).Error; err != nil {
			return 0, 0, err
		}
		return ingresos, egresos, nil
	}
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("registrado_por = ?", user.ID).Delete(&models.Ingreso{})
		if res.Error != nil {
			return fmt.Errorf("delete ingresos: %w", res.Error)
		}
		ingresos = res.RowsAffected
		res = tx.Where("registrado_por = ?", user.ID).Delete(&models.Egreso{})
		if res.Error != nil {
			return fmt.Errorf("delete egresos: %w", res.Error)
		}
		egresos = res.RowsAffected
		return nil
	})
	return ingresos, egresos, err
}
