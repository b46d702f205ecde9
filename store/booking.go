package store

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	UID         string
	UserID      string
	ServiceName string
	Status      BookingStatus
	ScheduledTs int64
	CreatedTs   int64
	ID          int32
}

type FindBooking struct {
	UserID *string
	Status *BookingStatus
	// Limit caps the result size. Zero means no limit.
	Limit int
}

type ServiceListing struct {
	UID        string
	Name       string
	Category   string
	Location   string
	Rating     float64
	PriceCents int64
	ID         int32
}

// FindServiceListing matches Query as a case-insensitive substring of the
// listing name or category. Location, when set, must match exactly
// (ignoring case). Results are ordered by rating, best first.
type FindServiceListing struct {
	Query    string
	Location string
	Limit    int
}
