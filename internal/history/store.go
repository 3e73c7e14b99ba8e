// Package history persists one row per parse or export call so operators
// can see what was converted and why a conversion failed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/observability"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultLimit applies when Recent is asked for a non-positive limit.
const DefaultLimit = 20

const schema = `
	CREATE TABLE IF NOT EXISTS conversions (
		id          TEXT PRIMARY KEY,
		command     TEXT NOT NULL,
		path        TEXT NOT NULL,
		item_count  INTEGER NOT NULL,
		status      TEXT NOT NULL,
		error_kind  TEXT NOT NULL DEFAULT '',
		error       TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL,
		created_at  TIMESTAMP NOT NULL
	)
`

// Config selects the backing database.
type Config struct {
	Driver string
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN string
}

// Store is a database/sql backed domain.Recorder.
type Store struct {
	db     *sql.DB
	driver string
	logger *observability.Logger
}

// Open connects to the configured database and ensures the schema exists.
func Open(ctx context.Context, cfg Config, logger *observability.Logger) (*Store, error) {
	var sqlDriver string
	switch cfg.Driver {
	case DriverSQLite, "sqlite3":
		sqlDriver = "sqlite3"
		if cfg.DSN != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0o755); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
	case DriverPostgres:
		sqlDriver = "postgres"
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unsupported history driver: %q", cfg.Driver), nil)
	}

	db, err := sql.Open(sqlDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if sqlDriver == "sqlite3" {
		// One writer at a time; also keeps ":memory:" on a single database.
		db.SetMaxOpenConns(1)
	}

	s, err := New(ctx, db, cfg.Driver, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and runs the schema migration.
func New(ctx context.Context, db *sql.DB, driver string, logger *observability.Logger) (*Store, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	s := &Store{db: db, driver: driver, logger: logger.WithComponent("history")}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one conversion, assigning ID and CreatedAt when unset.
func (s *Store) Record(ctx context.Context, c *domain.Conversion) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = c.CreatedAt.UTC()

	query := s.rebind(`
		INSERT INTO conversions (id, command, path, item_count, status, error_kind, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		c.ID.String(), c.Command, c.Path, c.ItemCount, string(c.Status),
		string(c.ErrorKind), c.Error, c.Duration.Milliseconds(), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion: %w", err)
	}

	s.logger.Debug().
		Str("id", c.ID.String()).
		Str("command", c.Command).
		Str("status", string(c.Status)).
		Msg("Recorded conversion")
	return nil
}

// Recent returns up to limit conversions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Conversion, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := s.rebind(`
		SELECT id, command, path, item_count, status, error_kind, error, duration_ms, created_at
		FROM conversions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	var out []domain.Conversion
	for rows.Next() {
		var (
			c          domain.Conversion
			id         string
			status     string
			kind       string
			durationMs int64
		)
		if err := rows.Scan(&id, &c.Command, &c.Path, &c.ItemCount, &status, &kind, &c.Error, &durationMs, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse conversion id %q: %w", id, err)
		}
		c.Status = domain.ConversionStatus(status)
		c.ErrorKind = domain.ErrorKind(kind)
		c.Duration = time.Duration(durationMs) * time.Millisecond
		c.CreatedAt = c.CreatedAt.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $N for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ domain.Recorder = (*Store)(nil)
