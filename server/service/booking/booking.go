// Package booking adapts the store to the agent's booking and search queries.
package booking

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/loconomy/ai/agent"
	"github.com/hrygo/loconomy/store"
)

// DefaultSearchLimit caps listings returned per search.
const DefaultSearchLimit = 10

// Service answers the agent's booking lookups and service searches from the store.
type Service struct {
	store       *store.Store
	searchLimit int
}

var _ agent.BookingQueryService = (*Service)(nil)

// NewService creates a booking query service. searchLimit <= 0 uses DefaultSearchLimit.
func NewService(s *store.Store, searchLimit int) *Service {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &Service{store: s, searchLimit: searchLimit}
}

// GetUserBookings returns the user's bookings ordered by scheduled time.
func (s *Service) GetUserBookings(ctx context.Context, userID string) ([]agent.Booking, error) {
	if userID == "" {
		return []agent.Booking{}, nil
	}
	list, err := s.store.ListBookings(ctx, &store.FindBooking{UserID: &userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user bookings")
	}

	bookings := make([]agent.Booking, 0, len(list))
	for _, b := range list {
		bookings = append(bookings, convertBooking(b))
	}
	return bookings, nil
}

// SearchServices finds listings whose name or category matches serviceType,
// restricted to the caller's location when one is known.
func (s *Service) SearchServices(ctx context.Context, serviceType string, actx *agent.Context) ([]agent.ServiceListing, error) {
	find := &store.FindServiceListing{
		Query: strings.TrimSpace(serviceType),
		Limit: s.searchLimit,
	}
	if actx != nil {
		find.Location = actx.Location
	}

	list, err := s.store.ListServiceListings(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search services")
	}

	listings := make([]agent.ServiceListing, 0, len(list))
	for _, l := range list {
		listings = append(listings, convertListing(l))
	}
	return listings, nil
}

// CreateBooking records a pending booking for userID.
func (s *Service) CreateBooking(ctx context.Context, userID, serviceName string, scheduled time.Time) (agent.Booking, error) {
	b, err := s.store.CreateBooking(ctx, &store.Booking{
		UserID:      userID,
		ServiceName: serviceName,
		ScheduledTs: scheduled.Unix(),
	})
	if err != nil {
		return agent.Booking{}, errors.Wrap(err, "failed to create booking")
	}
	return convertBooking(b), nil
}

func convertBooking(b *store.Booking) agent.Booking {
	return agent.Booking{
		ID:      b.UID,
		Service: b.ServiceName,
		Status:  string(b.Status),
		Date:    time.Unix(b.ScheduledTs, 0).UTC(),
	}
}

func convertListing(l *store.ServiceListing) agent.ServiceListing {
	return agent.ServiceListing{
		ID:     l.UID,
		Name:   l.Name,
		Rating: l.Rating,
		Price:  float64(l.PriceCents) / 100,
	}
}
