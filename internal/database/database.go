package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const busyTimeoutMillis = 5000

// DB is the booking, item and user store. Queries are written with `?`
// placeholders and rebound for the active dialect.
type DB struct {
	*sql.DB
	driver string
	logger *zerolog.Logger
}

// NewDB opens an SQLite database at path (":memory:" for a throwaway one) and
// creates the schema.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	return Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, logger)
}

func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)

	switch cfg.Driver {
	case config.DriverSQLite, "":
		conn, err = openSQLite(cfg.Path)
	case config.DriverPostgres:
		conn, err = openPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	db := &DB{DB: conn, driver: cfg.Driver, logger: logger}
	if db.driver == "" {
		db.driver = config.DriverSQLite
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.createTables(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", db.driver).Msg("Database initialized")
	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", path, busyTimeoutMillis)
	} else {
		dsn = fmt.Sprintf("%s?_foreign_keys=on", path)
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Один писатель: для :memory: это ещё и единственная копия базы.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	return conn, nil
}

func openPostgres(cfg config.PostgresConfig) (*sql.DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxConnections > 0 {
		conn.SetMaxOpenConns(cfg.MaxConnections)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)
	return conn, nil
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) createTables(ctx context.Context) error {
	pk, ts, yes := "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME", "1"
	if db.driver == config.DriverPostgres {
		pk, ts, yes = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ", "TRUE"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id ` + pk + `,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            created_at ` + ts + ` NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS items (
            id ` + pk + `,
            owner_id BIGINT NOT NULL REFERENCES users(id),
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            available BOOLEAN NOT NULL DEFAULT ` + yes + `,
            created_at ` + ts + ` NOT NULL,
            updated_at ` + ts + ` NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id ` + pk + `,
            item_id BIGINT NOT NULL REFERENCES items(id),
            booker_id BIGINT NOT NULL REFERENCES users(id),
            start_at ` + ts + ` NOT NULL,
            end_at ` + ts + ` NOT NULL,
            status TEXT NOT NULL DEFAULT 'WAITING',
            version BIGINT NOT NULL DEFAULT 1,
            created_at ` + ts + ` NOT NULL,
            updated_at ` + ts + ` NOT NULL,
            CHECK (start_at < end_at)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_items_owner_id ON items(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_booker_start ON bookings(booker_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_item_start ON bookings(item_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// rebind rewrites `?` placeholders to `$n` for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != config.DriverPostgres {
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

func (db *DB) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.QueryRowContext(ctx, db.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (db *DB) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := db.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
