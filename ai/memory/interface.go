// Package memory provides the per-user key/value memory the concierge agent
// uses to remember searches, pending bookings and visit times across calls.
package memory

import (
	"context"
	"errors"
)

// Well-known memory keys written by the agent and read by intent prediction.
const (
	KeyLastSearch      = "lastSearch"
	KeyPendingBookings = "pendingBookings"
	KeyLastVisit       = "lastVisit"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("memory store is closed")

// ErrEmptyUserID is returned when an operation is attempted without a user id.
var ErrEmptyUserID = errors.New("user id is required")

// Store is a per-user key/value store. Keys are scoped under a user id and
// values are opaque to the store. Implementations must keep users isolated:
// writing a key for one user never affects another.
type Store interface {
	// Set creates or overwrites key for userID, creating the user's mapping lazily.
	Set(ctx context.Context, userID, key string, value any) error

	// Get returns the value stored under key for userID.
	Get(ctx context.Context, userID, key string) (any, bool, error)

	// GetAll returns a copy of the full mapping for userID. Unknown users yield an empty, non-nil map.
	GetAll(ctx context.Context, userID string) (map[string]any, error)

	// Delete removes key for userID. Deleting a missing key is not an error.
	Delete(ctx context.Context, userID, key string) error

	// Close releases resources held by the store.
	Close() error
}
