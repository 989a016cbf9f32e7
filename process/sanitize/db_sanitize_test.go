package sanitize

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"finanzas/pkg/movimientos"
	"finanzas/pkg/seed"
	"finanzas/pkg/store"
)

func TestParseTables(t *testing.T) {
	got := ParseTables(" ingresos, egresos;drop ,, refresh_tokens")
	want := []string{"ingresos", "refresh_tokens"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseTables() = %v, want %v", got, want)
	}
}

func TestWipeScript(t *testing.T) {
	pg := wipeScript(store.Postgres, []string{"ingresos", "egresos"})
	if stmts := store.SplitStatements(pg); len(stmts) != 1 || !strings.Contains(stmts[0], `TRUNCATE TABLE "ingresos", "egresos" RESTART IDENTITY CASCADE`) {
		t.Errorf("postgres script = %q", pg)
	}
	lite := store.SplitStatements(wipeScript(store.SQLite, []string{"ingresos", "egresos"}))
	if len(lite) != 3 || lite[0] != `DELETE FROM "ingresos"` || !strings.HasPrefix(lite[2], "DELETE FROM sqlite_sequence") {
		t.Errorf("sqlite statements = %q", lite)
	}
}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	cfg := store.Config{Dialect: store.SQLite, SQLitePath: filepath.Join(t.TempDir(), "sanitize.db")}
	if err := store.Migrate(cfg); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *store.DB, table string) int64 {
	t.Helper()
	rows, err := db.Query(context.Background(), "SELECT count(*) AS n FROM "+table)
	if err != nil {
		t.Fatal(err)
	}
	return rows[0].Int64("n")
}

func TestRun(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := movimientos.NewRepository(db)
	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, movimientos.TipoIngreso, movimientos.Input{Fecha: "2026-10-01", Importe: 100}, 0); err != nil {
			t.Fatal(err)
		}
	}
	admin := seed.Admin{Nombre: "Administrador", Email: "admin@finanzas.corp", Password: "admin123"}

	var out bytes.Buffer
	if err := Run(ctx, db, Options{DryRun: true, Tables: []string{"ingresos", "no_such_table"}}, &out); err != nil {
		t.Fatal(err)
	}
	if countRows(t, db, "ingresos") != 3 {
		t.Fatal("dry run must not delete")
	}
	if strings.Contains(out.String(), "no_such_table") {
		t.Error("missing tables must be skipped")
	}

	if err := Run(ctx, db, Options{Tables: []string{"ingresos"}}, &out); err != nil {
		t.Fatal(err)
	}
	if countRows(t, db, "ingresos") != 3 {
		t.Fatal("run without -yes must not delete")
	}

	opts := Options{Yes: true, Reseed: true, Tables: []string{"ingresos", "cuentas"}, Admin: admin}
	if err := Run(ctx, db, opts, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := countRows(t, db, "ingresos"); n != 0 {
		t.Errorf("ingresos = %d after wipe", n)
	}
	if n := countRows(t, db, "cuentas"); n != 2 {
		t.Errorf("cuentas = %d after reseed, want 2", n)
	}
	if n := countRows(t, db, "usuarios"); n != 1 {
		t.Errorf("usuarios = %d after reseed, want 1", n)
	}

	id, err := repo.Create(ctx, movimientos.TipoIngreso, movimientos.Input{Fecha: "2026-10-01", Importe: 100}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Errorf("ids must restart after wipe, got %d", id)
	}
}
