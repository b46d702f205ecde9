package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/store"
)

// SQLite backs single-instance and development deployments. Writes are
// serialised through one connection.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database named by profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	// Ensure a DSN is set before attempting to open the database.
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// - No foreign key constraints: bookings reference listings by name only.
	// - Journal mode set to WAL: it's the recommended journal mode for most
	//   applications as it prevents locking issues.
	// When using the `modernc.org/sqlite` driver, each pragma must be prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version    TEXT NOT NULL,
	applied_ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS service_listing (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	uid         TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	location    TEXT NOT NULL DEFAULT '',
	rating      REAL NOT NULL DEFAULT 0,
	price_cents INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_service_listing_location ON service_listing (location);

CREATE TABLE IF NOT EXISTS booking (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	uid          TEXT NOT NULL UNIQUE,
	user_id      TEXT NOT NULL,
	service_name TEXT NOT NULL,
	status       TEXT NOT NULL,
	scheduled_ts INTEGER NOT NULL,
	created_ts   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_booking_user_id ON booking (user_id);
`

func (d *DB) SchemaVersion(ctx context.Context) (string, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type='table' AND name='schema_version')").Scan(&exists)
	if err != nil {
		return "", errors.Wrap(err, "failed to check if database is initialized")
	}
	if !exists {
		return "", nil
	}

	var version string
	err = d.db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_ts DESC, rowid DESC LIMIT 1").Scan(&version)
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
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version, applied_ts) VALUES (?, ?)", version, time.Now().Unix()); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	return errors.Wrap(tx.Commit(), "failed to commit migration")
}
