// Package store persists prompts, models, sessions and results in a
// relational database. SQLite (modernc, pure Go) is the default backend;
// Postgres is reachable through the pgx stdlib driver.
//
// Every write is a single autocommitted statement so that a crash loses at
// most the in-flight row.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"              // registers "sqlite"
)

// Supported values for the db_driver setting.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Store wraps a *sql.DB together with the dialect it speaks.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("empty database dsn")
	}
	var name string
	switch driver {
	case DriverSQLite, "":
		driver, name = DriverSQLite, "sqlite"
	case DriverPostgres:
		name = "pgx"
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps PRAGMAs in effect and serializes writers.
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, driver: driver}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Driver reports the dialect in use.
func (s *Store) Driver() string { return s.driver }

// Check verifies that the reference tables exist and are readable.
func (s *Store) Check(ctx context.Context) error {
	for _, table := range []string{"Prompts", "Models", "Sessions", "Results"} {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return fmt.Errorf("read table %s: %w", table, err)
		}
	}
	return nil
}

// rebind rewrites '?' placeholders into the numbered form Postgres expects.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(q), args...)
}

func (s *Store) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(q), args...)
}

func (s *Store) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(q), args...)
}

// deref turns an optional column value into a driver argument, nil for NULL.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
