// Package sqlstore persists drafts and published snapshots in a relational database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Store is a site repository over database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if _, ok := blobTypes[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

var blobTypes = map[string]string{
	DriverSQLite:   "TEXT",
	DriverPostgres: "TEXT",
	DriverMySQL:    "LONGTEXT",
}

func (s *Store) ensureSchema(ctx context.Context) error {
	blob := blobTypes[s.driver]
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sites (
			id VARCHAR(36) PRIMARY KEY,
			owner_id VARCHAR(255) NOT NULL,
			brand_name VARCHAR(255) NOT NULL,
			logo_url VARCHAR(2048) NOT NULL,
			theme VARCHAR(64) NOT NULL,
			subdomain VARCHAR(255) UNIQUE,
			api_key VARCHAR(255) NOT NULL,
			monitor_provider VARCHAR(64) NOT NULL,
			monitors ` + blob + ` NOT NULL,
			theme_config ` + blob + ` NOT NULL,
			created_at VARCHAR(64) NOT NULL,
			updated_at VARCHAR(64) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS published_sites (
			site_id VARCHAR(36) PRIMARY KEY,
			subdomain VARCHAR(255) UNIQUE,
			snapshot ` + blob + ` NOT NULL,
			published_at VARCHAR(64) NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for drivers that number them.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, rebind(s.driver, query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, rebind(s.driver, query), args...)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// isUniqueViolation reports whether err is a unique constraint failure.
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
