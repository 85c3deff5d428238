// Package store wraps the relational database behind the content layer.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, used locally and in
// tests) and "postgres" (lib/pq, used against a hosted Postgres such as
// Supabase). Callers talk to tables through the small query builder returned
// by DB.From, so the content repositories never see dialect differences.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ErrNotFound is returned by single-row operations that matched zero rows.
var ErrNotFound = errors.New("store: no rows matched")

// Config describes how to open a database.
type Config struct {
	Driver string // "sqlite" (default) or "postgres"
	DSN    string // file path for sqlite, connection URL for postgres

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func (c *Config) setDefaults() {
	if c.Driver == "" {
		c.Driver = SQLite
	}
	if c.DSN == "" && c.Driver == SQLite {
		c.DSN = "data/folio.db"
	}
	if c.MaxOpenConns == 0 {
		if c.Driver == SQLite {
			c.MaxOpenConns = 4
		} else {
			c.MaxOpenConns = 10
		}
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = 5 * time.Second
	}
}

// DB is a database handle shared by every repository.
type DB struct {
	x      *sqlx.DB
	driver string
}

// Open connects to the configured database and verifies the connection.
// For SQLite the parent directory is created and the connection pragmas are
// added to the DSN.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	cfg.setDefaults()

	switch cfg.Driver {
	case SQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "" && cfg.DSN != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
	case Postgres:
		if cfg.DSN == "" {
			return nil, errors.New("store: postgres requires a DSN")
		}
	default:
		return nil, fmt.Errorf("store: unsupported driver %q (want sqlite or postgres)", cfg.Driver)
	}

	dsn := cfg.DSN
	if cfg.Driver == SQLite {
		dsn = sqliteDSN(dsn)
	}
	x, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	x.SetMaxOpenConns(cfg.MaxOpenConns)
	x.SetMaxIdleConns(cfg.MaxIdleConns)
	x.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := x.PingContext(pingCtx); err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return &DB{x: x, driver: cfg.Driver}, nil
}

// sqlitePragmas apply to every pooled connection. WAL lets readers proceed
// during writes; busy_timeout makes writers wait instead of failing with
// SQLITE_BUSY.
var sqlitePragmas = []struct{ name, value string }{
	{"busy_timeout", "5000"},
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
}

// sqliteDSN appends the connection pragmas to dsn as _pragma parameters,
// leaving any the caller already set.
func sqliteDSN(dsn string) string {
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		if strings.Contains(dsn, "_pragma="+p.name+"(") {
			continue
		}
		b.WriteString(sep + "_pragma=" + p.name + "(" + p.value + ")")
		sep = "&"
	}
	return b.String()
}

// Driver reports the driver name the handle was opened with.
func (d *DB) Driver() string { return d.driver }

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	return d.x.Close()
}

// Ping issues a minimal read against table. It is what the keep-alive pinger
// runs to reset a hosted database's idle timer.
func (d *DB) Ping(ctx context.Context, table string) error {
	return d.From(table).Columns("id").Limit(1).Probe(ctx)
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
