package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/loconomy/ai/cache"
	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/internal/version"
)

// SchemaVersion is the schema this binary writes.
const SchemaVersion = "0.1.0"

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Search results are cached briefly; any listing write clears the cache.
	listingCache *cache.LRUCache[string, []*ServiceListing]

	now func() time.Time
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:       driver,
		profile:      profile,
		listingCache: cache.NewLRUCache[string, []*ServiceListing](256, time.Minute),
		now:          time.Now,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.listingCache.Clear()
	return s.driver.Close()
}

// Migrate brings the database schema up to SchemaVersion. A database written
// by a newer binary is rejected.
func (s *Store) Migrate(ctx context.Context) error {
	current, err := s.driver.SchemaVersion(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}

	if current != "" {
		if !version.IsValid(current) {
			return errors.Errorf("invalid schema version %q in database", current)
		}
		if version.IsVersionGreaterThan(current, SchemaVersion) {
			return errors.Errorf("database schema %s is newer than supported schema %s", current, SchemaVersion)
		}
		if version.IsVersionGreaterOrEqualThan(current, SchemaVersion) {
			slog.Debug("schema up to date", "version", current)
			return nil
		}
	}

	if err := s.driver.Migrate(ctx, SchemaVersion); err != nil {
		return errors.Wrapf(err, "failed to migrate schema to %s", SchemaVersion)
	}
	slog.Info("schema migrated", "from", current, "to", SchemaVersion)
	return nil
}

func (s *Store) CreateBooking(ctx context.Context, create *Booking) (*Booking, error) {
	if create.UserID == "" || create.ServiceName == "" {
		return nil, errors.New("booking requires user id and service name")
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.Status == "" {
		create.Status = BookingStatusPending
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = s.now().Unix()
	}
	return s.driver.CreateBooking(ctx, create)
}

func (s *Store) ListBookings(ctx context.Context, find *FindBooking) ([]*Booking, error) {
	return s.driver.ListBookings(ctx, find)
}

func (s *Store) CreateServiceListing(ctx context.Context, create *ServiceListing) (*ServiceListing, error) {
	if create.Name == "" || create.Category == "" {
		return nil, errors.New("service listing requires name and category")
	}
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	listing, err := s.driver.CreateServiceListing(ctx, create)
	if err != nil {
		return nil, err
	}
	s.listingCache.Clear()
	return listing, nil
}

func (s *Store) ListServiceListings(ctx context.Context, find *FindServiceListing) ([]*ServiceListing, error) {
	key := listingCacheKey(find)
	if cached, ok := s.listingCache.Get(key); ok {
		return cached, nil
	}

	list, err := s.driver.ListServiceListings(ctx, find)
	if err != nil {
		return nil, err
	}
	s.listingCache.Set(key, list)
	return list, nil
}

func listingCacheKey(find *FindServiceListing) string {
	return fmt.Sprintf("%s|%s|%d",
		strings.ToLower(strings.TrimSpace(find.Query)),
		strings.ToLower(strings.TrimSpace(find.Location)),
		find.Limit)
}

// LikePattern turns a user query into a lower-cased LIKE pattern with the
// wildcard characters escaped by a backslash.
func LikePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}
