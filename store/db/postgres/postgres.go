package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection pool for profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return nil, errors.Wrap(err, "failed to open db")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &DB{db: db, profile: profile}, nil
}

// newFromDB wraps an existing pool. Used by tests with sqlmock.
func newFromDB(db *sql.DB) *DB {
	return &DB{db: db, profile: &profile.Profile{Driver: "postgres"}}
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	id         SERIAL PRIMARY KEY,
	version    TEXT NOT NULL,
	applied_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS service_listing (
	id          SERIAL PRIMARY KEY,
	uid         TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	location    TEXT NOT NULL DEFAULT '',
	rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_cents BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_service_listing_location ON service_listing (LOWER(location));

CREATE TABLE IF NOT EXISTS booking (
	id           SERIAL PRIMARY KEY,
	uid          TEXT NOT NULL UNIQUE,
	user_id      TEXT NOT NULL,
	service_name TEXT NOT NULL,
	status       TEXT NOT NULL,
	scheduled_ts BIGINT NOT NULL,
	created_ts   BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_booking_user_id ON booking (user_id);
`

func (d *DB) SchemaVersion(ctx context.Context) (string, error) {
	var exists bool
	if err := d.db.QueryRowContext(ctx, "SELECT to_regclass('schema_version') IS NOT NULL").Scan(&exists); err != nil {
		return "", errors.Wrap(err, "failed to check if database is initialized")
	}
	if !exists {
		return "", nil
	}

	var version string
	err := d.db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY id DESC LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to read schema version")
	}
	return version, nil
}

func (d *DB) Migrate(ctx context.Context, version string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin migration")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (version, applied_ts) VALUES ("+placeholders(2)+")",
		version, time.Now().Unix(),
	); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	return errors.Wrap(tx.Commit(), "failed to commit migration")
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
