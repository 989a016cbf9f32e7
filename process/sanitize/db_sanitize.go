// Package sanitize wipes application tables, for example before a demo or
// after an import went wrong.
package sanitize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"finanzas/pkg/seed"
	"finanzas/pkg/store"
)

// DefaultTables are the movement tables. Catalogs and users are only wiped
// when named explicitly.
var DefaultTables = []string{"ingresos", "egresos"}

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Options control a sanitize run.
type Options struct {
	DryRun bool
	Yes    bool
	Reseed bool
	Tables []string
	Admin  seed.Admin
}

// ParseTables splits a comma-separated list and drops invalid names.
func ParseTables(list string) []string {
	parts := strings.Split(list, ",")
	wanted := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			slog.Warn("skipping invalid table name", "table", p)
			continue
		}
		wanted = append(wanted, p)
	}
	return wanted
}

// Run empties the requested tables that exist. Nothing is changed unless
// DryRun is false and Yes is true.
func Run(ctx context.Context, db *store.DB, opts Options, w io.Writer) error {
	tables := opts.Tables
	if len(tables) == 0 {
		tables = DefaultTables
	}
	existing := make([]string, 0, len(tables))
	for _, t := range tables {
		ok, err := tableExists(ctx, db, t)
		if err != nil {
			return err
		}
		if !ok {
			slog.Info("table not found, skipping", "table", t)
			continue
		}
		existing = append(existing, t)
	}
	if len(existing) == 0 {
		fmt.Fprintln(w, "no requested tables present in the database; nothing to do")
		return nil
	}

	fmt.Fprintln(w, "Tables considered for truncation:")
	for _, t := range existing {
		fmt.Fprintf(w, " - %s\n", t)
	}
	if opts.DryRun {
		fmt.Fprintln(w, "dry-run enabled; no changes will be made. Use -dry-run=false -yes to execute.")
		return nil
	}
	if !opts.Yes {
		fmt.Fprintln(w, "Destructive operation. Pass -yes to confirm execution. Aborting.")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	for _, stmt := range store.SplitStatements(wipeScript(db.Dialect(), existing)) {
		slog.Info("executing", "sql", stmt)
		if _, err := db.Run(ctx, stmt); err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}
	}
	fmt.Fprintln(w, "Truncate completed.")

	if opts.Reseed {
		if err := seed.All(db.Gorm().WithContext(ctx), opts.Admin); err != nil {
			return fmt.Errorf("reseed failed: %w", err)
		}
		fmt.Fprintln(w, "Catalogs and admin user reseeded.")
	}
	return nil
}

func tableExists(ctx context.Context, db *store.DB, table string) (bool, error) {
	var q string
	switch db.Dialect() {
	case store.Postgres:
		q = "SELECT count(*) AS n FROM pg_tables WHERE schemaname = current_schema() AND tablename = ?"
	case store.SQLite:
		q = "SELECT count(*) AS n FROM sqlite_master WHERE type = 'table' AND name = ?"
	default:
		return false, errors.New("unsupported dialect")
	}
	rows, err := db.Query(ctx, q, table)
	if err != nil {
		return false, fmt.Errorf("look up table %s: %w", table, err)
	}
	return len(rows) == 1 && rows[0].Int64("n") > 0, nil
}

// wipeScript returns the statements that empty tables and restart their ids.
// Names must already be validated.
func wipeScript(d store.Dialect, tables []string) string {
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = `"` + t + `"`
	}
	if d == store.Postgres {
		return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", strings.Join(quoted, ", "))
	}
	var b strings.Builder
	names := make([]string, len(tables))
	for i, t := range tables {
		fmt.Fprintf(&b, "DELETE FROM %s;\n", quoted[i])
		names[i] = "'" + t + "'"
	}
	fmt.Fprintf(&b, "DELETE FROM sqlite_sequence WHERE name IN (%s);\n", strings.Join(names, ", "))
	return b.String()
}
