// Package store is the data access shim shared by every component that talks
// to the database. The same SQL text, written with `?` placeholders, runs
// against the embedded sqlite file or a postgres server; the backend is chosen
// once from an injected Config.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Dialect names a supported relational backend.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// IsValid reports whether d is a supported dialect.
func (d Dialect) IsValid() bool {
	return d == SQLite || d == Postgres
}

// ParseDialect maps a configuration value onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return "", fmt.Errorf("unknown database dialect %q", s)
}

// Row is one result row keyed by column name.
type Row map[string]any

// Result describes the outcome of a write statement.
type Result struct {
	InsertedID   int64
	RowsAffected int64
}

// Backend is the uniform query interface used by the repositories.
type Backend interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Run(ctx context.Context, query string, args ...any) (Result, error)
	Dialect() Dialect
	Close() error
}

// Config selects and configures the backend.
type Config struct {
	Dialect      Dialect
	SQLitePath   string
	PostgresDSN  string
	MaxOpenConns int
}

// DSN returns the driver connection string for the configured dialect.
func (c Config) DSN() string {
	if c.Dialect == Postgres {
		return c.PostgresDSN
	}
	return "file:" + c.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (c Config) driverName() string {
	if c.Dialect == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// DB is the Backend over database/sql. It also exposes a gorm handle sharing
// the same connection pool.
type DB struct {
	conn    *sql.DB
	gorm    *gorm.DB
	dialect Dialect
}

var _ Backend = (*DB)(nil)

// Open connects to the backend described by cfg and verifies the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if !cfg.Dialect.IsValid() {
		return nil, fmt.Errorf("invalid dialect %q", cfg.Dialect)
	}
	switch cfg.Dialect {
	case SQLite:
		if err := ensureDir(cfg.SQLitePath); err != nil {
			return nil, err
		}
	case Postgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres DSN is required")
		}
	}

	conn, err := sql.Open(cfg.driverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.Dialect == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Dialect, err)
	}

	gdb, err := openGorm(cfg.Dialect, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn, gorm: gdb, dialect: cfg.Dialect}, nil
}

func ensureDir(path string) error {
	if path == "" {
		return errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return nil
}

func openGorm(d Dialect, conn *sql.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch d {
	case Postgres:
		dialector = postgres.New(postgres.Config{Conn: conn})
	default:
		dialector = sqlite.New(sqlite.Config{DriverName: "sqlite", Conn: conn})
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise gorm: %w", err)
	}
	return gdb, nil
}

// Dialect returns the active backend.
func (db *DB) Dialect() Dialect { return db.dialect }

// Gorm returns a gorm handle over the same pool.
func (db *DB) Gorm() *gorm.DB { return db.gorm }

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return &Error{Op: "ping", Err: err}
	}
	return nil
}

// Close closes the pool.
func (db *DB) Close() error { return db.conn.Close() }

// Query runs a read statement and returns every row.
func (db *DB) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := checkArgs(query, args); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx, Rebind(db.dialect, query), args...)
	if err != nil {
		return nil, &Error{Op: "query", Err: err}
	}
	defer rows.Close()
	out, err := collect(rows)
	if err != nil {
		return nil, &Error{Op: "query", Err: err}
	}
	return out, nil
}

// Run executes a write statement. For inserts InsertedID carries the generated
// id of the last inserted row.
func (db *DB) Run(ctx context.Context, query string, args ...any) (Result, error) {
	if err := checkArgs(query, args); err != nil {
		return Result{}, err
	}
	q := Rebind(db.dialect, query)
	insert := leadingKeyword(q) == "INSERT"

	if db.dialect == Postgres && insert && !hasKeyword(q, "RETURNING") {
		return db.insertReturning(ctx, withReturning(q, "RETURNING id"), args)
	}

	res, err := db.conn.ExecContext(ctx, q, args...)
	if err != nil {
		return Result{}, &Error{Op: "run", Err: err}
	}
	var r Result
	if r.RowsAffected, err = res.RowsAffected(); err != nil {
		return Result{}, &Error{Op: "run", Err: err}
	}
	if insert && db.dialect == SQLite {
		if r.InsertedID, err = res.LastInsertId(); err != nil {
			return Result{}, &Error{Op: "run", Err: err}
		}
	}
	return r, nil
}

func (db *DB) insertReturning(ctx context.Context, q string, args []any) (Result, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return Result{}, &Error{Op: "run", Err: err}
	}
	defer rows.Close()
	var r Result
	for rows.Next() {
		if err := rows.Scan(&r.InsertedID); err != nil {
			return Result{}, &Error{Op: "run", Err: err}
		}
		r.RowsAffected++
	}
	if err := rows.Err(); err != nil {
		return Result{}, &Error{Op: "run", Err: err}
	}
	return r, nil
}

func checkArgs(query string, args []any) error {
	if n := CountPlaceholders(query); n != len(args) {
		return fmt.Errorf("%w: %d placeholders, %d arguments", ErrArgCount, n, len(args))
	}
	return nil
}

func collect(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			r[strings.ToLower(c)] = v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
