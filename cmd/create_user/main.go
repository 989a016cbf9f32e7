package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"finanzas/pkg/config"
	"finanzas/pkg/logging"
	"finanzas/pkg/seed"
	"finanzas/pkg/store"
)

func main() {
	nombre := flag.String("nombre", "", "full name")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "plaintext password (min 6 chars)")
	flag.Parse()
	if *nombre == "" || *email == "" || *password == "" {
		fmt.Println("usage: go run ./cmd/create_user -nombre <nombre> -email <email> -password <password>")
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
		slog.Error("failed to open db", logging.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	user, err := seed.CreateUser(db.Gorm(), seed.Admin{Nombre: *nombre, Email: *email, Password: *password})
	if errors.Is(err, seed.ErrEmailExists) {
		fmt.Println("Ya existe un usuario con ese correo electrónico.")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("failed to create user", logging.Err(err))
		os.Exit(1)
	}
	fmt.Printf("created user %s id=%d\n", user.Email, user.ID)
}
