package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// SchemaVersion returns the applied schema version, or "" for an empty database.
	SchemaVersion(ctx context.Context) (string, error)
	// Migrate applies the schema idempotently and records version.
	Migrate(ctx context.Context, version string) error

	CreateBooking(ctx context.Context, create *Booking) (*Booking, error)
	ListBookings(ctx context.Context, find *FindBooking) ([]*Booking, error)

	CreateServiceListing(ctx context.Context, create *ServiceListing) (*ServiceListing, error)
	ListServiceListings(ctx context.Context, find *FindServiceListing) ([]*ServiceListing, error)
}
