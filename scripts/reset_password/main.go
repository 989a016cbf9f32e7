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
	"finanzas/pkg/seed"
	"finanzas/pkg/store"
)

func main() {
	email := flag.String("email", "", "email of the user to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	ensure := flag.Bool("ensure", false, "create the user when it does not exist")
	nombre := flag.String("nombre", "", "name used when -ensure creates the user")
	flag.Parse()
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "-email and -password are required")
		os.Exit(2)
	}
	if len(*password) < 6 {
		fmt.Fprintln(os.Stderr, "password too short (min 6)")
		os.Exit(2)
	}

	config.LoadDotEnv()
	logging.Setup()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", logging.Err(err))
		os.Exit(2)
	}

	db, err := store.Open(context.Background(), cfg.Store())
	if err != nil {
		slog.Error("open db", logging.Err(err))
		os.Exit(1)
	}
	defer db.Close()
	gdb := db.Gorm()

	if !*ensure {
		var user models.Usuario
		err := gdb.Where("email = ?", strings.ToLower(strings.TrimSpace(*email))).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Fprintf(os.Stderr, "user %s not found (use -ensure to create it)\n", *email)
			os.Exit(1)
		}
		if err != nil {
			slog.Error("look up user", logging.Err(err))
			os.Exit(1)
		}
	}

	n := *nombre
	if n == "" && *ensure {
		n = cfg.Admin.Nombre
	}
	created, err := seed.ResetAdmin(gdb, seed.Admin{Nombre: n, Email: *email, Password: *password})
	if err != nil {
		slog.Error("reset failed", logging.Err(err))
		os.Exit(1)
	}
	if created {
		fmt.Printf("Created user %s\n", *email)
		return
	}
	fmt.Printf("Password reset for user %s\n", *email)
}
