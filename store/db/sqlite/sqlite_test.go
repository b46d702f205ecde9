package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")}
	driver, err := NewDB(p)
	require.NoError(t, err)

	s := store.New(driver, p)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestNewDB_RequiresDSN(t *testing.T) {
	_, err := NewDB(&profile.Profile{})
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	v, err := s.GetDriver().SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.SchemaVersion, v)

	var rows int
	require.NoError(t, s.GetDriver().GetDB().QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetDriver().GetDB().ExecContext(ctx, "INSERT INTO schema_version (version, applied_ts) VALUES ('9.0.0', 4102444800)")
	require.NoError(t, err)
	assert.ErrorContains(t, s.Migrate(ctx), "newer")
}

func TestBookings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, b := range []*store.Booking{
		{UserID: "u1", ServiceName: "plumbing", ScheduledTs: 300},
		{UserID: "u1", ServiceName: "cleaning", Status: store.BookingStatusConfirmed, ScheduledTs: 100},
		{UserID: "u2", ServiceName: "tutoring", ScheduledTs: 200},
	} {
		created, err := s.CreateBooking(ctx, b)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.NotEmpty(t, created.UID)
		assert.NotZero(t, created.CreatedTs)
	}

	user := "u1"
	list, err := s.ListBookings(ctx, &store.FindBooking{UserID: &user})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cleaning", list[0].ServiceName)
	assert.Equal(t, store.BookingStatusPending, list[1].Status)

	status := store.BookingStatusConfirmed
	list, err = s.ListBookings(ctx, &store.FindBooking{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = s.ListBookings(ctx, &store.FindBooking{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.CreateBooking(ctx, &store.Booking{UserID: "u1"})
	assert.Error(t, err)
}

func TestServiceListings_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, l := range []*store.ServiceListing{
		{Name: "Pipe Pros", Category: "Plumbing", Location: "Austin", Rating: 4.2, PriceCents: 9000},
		{Name: "Drain Kings", Category: "plumbing", Location: "Dallas", Rating: 4.9, PriceCents: 12000},
		{Name: "Sparkle 100%", Category: "Cleaning", Location: "Austin", Rating: 4.5, PriceCents: 6000},
	} {
		_, err := s.CreateServiceListing(ctx, l)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		find     store.FindServiceListing
		expected []string
	}{
		{"category, rating order", store.FindServiceListing{Query: "PLUMB"}, []string{"Drain Kings", "Pipe Pros"}},
		{"name substring", store.FindServiceListing{Query: "sparkle"}, []string{"Sparkle 100%"}},
		{"location filter", store.FindServiceListing{Query: "plumbing", Location: "austin"}, []string{"Pipe Pros"}},
		{"wildcards are literal", store.FindServiceListing{Query: "%"}, []string{"Sparkle 100%"}},
		{"limit", store.FindServiceListing{Limit: 1}, []string{"Drain Kings"}},
		{"no match", store.FindServiceListing{Query: "roofing"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListServiceListings(ctx, &tt.find)
			require.NoError(t, err)
			names := make([]string, 0, len(list))
			for _, l := range list {
				names = append(names, l.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestServiceListings_CacheInvalidatedOnWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.ListServiceListings(ctx, &store.FindServiceListing{Query: "yoga"})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.CreateServiceListing(ctx, &store.ServiceListing{Name: "Zen Flow", Category: "Yoga", Rating: 5})
	require.NoError(t, err)

	list, err = s.ListServiceListings(ctx, &store.FindServiceListing{Query: "yoga"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
