package movimientos

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finanzas/pkg/money"
	"finanzas/pkg/seed"
	"finanzas/pkg/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	cfg := store.Config{Dialect: store.SQLite, SQLitePath: filepath.Join(t.TempDir(), "movimientos.db")}
	if err := store.Migrate(cfg); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	db, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := seed.Catalogos(db.Gorm()); err != nil {
		t.Fatalf("seed.Catalogos() error = %v", err)
	}
	return db
}

// catalogID returns the id of a seeded catalog row.
func catalogID(t *testing.T, db store.Backend, table, nombre string) int64 {
	t.Helper()
	rows, err := db.Query(context.Background(), "SELECT id FROM "+table+" WHERE nombre = ?", nombre)
	if err != nil || len(rows) != 1 {
		t.Fatalf("catalog %s/%s: rows=%d err=%v", table, nombre, len(rows), err)
	}
	return rows[0].Int64("id")
}

func insertUser(t *testing.T, db store.Backend, email string) int64 {
	t.Helper()
	res, err := db.Run(context.Background(),
		"INSERT INTO usuarios (nombre, email, password_hash) VALUES (?, ?, ?)", "Test", email, "x")
	if err != nil {
		t.Fatalf("insert usuario: %v", err)
	}
	return res.InsertedID
}

func ptr(v int64) *int64 { return &v }

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s)
	if err != nil {
		t.Fatalf("money.Parse(%q): %v", s, err)
	}
	return m
}

// failingBackend fails every query whose text contains match.
type failingBackend struct {
	store.Backend
	match string
}

func (f failingBackend) Query(ctx context.Context, query string, args ...any) ([]store.Row, error) {
	if strings.Contains(query, f.match) {
		return nil, &store.Error{Op: "query", Err: context.DeadlineExceeded}
	}
	return f.Backend.Query(ctx, query, args...)
}

func fixedClock(s string) func() time.Time {
	t, _ := time.Parse(store.DateLayout, s)
	return func() time.Time { return t }
}
