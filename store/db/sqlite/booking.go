package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/loconomy/store"
)

func (d *DB) CreateBooking(ctx context.Context, create *store.Booking) (*store.Booking, error) {
	stmt := `INSERT INTO booking (uid, user_id, service_name, status, scheduled_ts, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.UserID, create.ServiceName, create.Status, create.ScheduledTs, create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create booking")
	}
	return create, nil
}

func (d *DB) ListBookings(ctx context.Context, find *store.FindBooking) ([]*store.Booking, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.Status != nil {
		where, args = append(where, "status = ?"), append(args, *find.Status)
	}

	query := `SELECT id, uid, user_id, service_name, status, scheduled_ts, created_ts
		FROM booking
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY scheduled_ts ASC, id ASC`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bookings")
	}
	defer rows.Close()

	list := make([]*store.Booking, 0)
	for rows.Next() {
		b := &store.Booking{}
		if err := rows.Scan(&b.ID, &b.UID, &b.UserID, &b.ServiceName, &b.Status, &b.ScheduledTs, &b.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan booking")
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate bookings")
	}
	return list, nil
}

func (d *DB) CreateServiceListing(ctx context.Context, create *store.ServiceListing) (*store.ServiceListing, error) {
	stmt := `INSERT INTO service_listing (uid, name, category, location, rating, price_cents)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.Name, create.Category, create.Location, create.Rating, create.PriceCents,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create service_listing")
	}
	return create, nil
}

func (d *DB) ListServiceListings(ctx context.Context, find *store.FindServiceListing) ([]*store.ServiceListing, error) {
	where, args := []string{"1 = 1"}, []any{}

	if q := strings.TrimSpace(find.Query); q != "" {
		pattern := store.LikePattern(q)
		where = append(where, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if loc := strings.TrimSpace(find.Location); loc != "" {
		where, args = append(where, "LOWER(location) = LOWER(?)"), append(args, loc)
	}

	query := `SELECT id, uid, name, category, location, rating, price_cents
		FROM service_listing
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY rating DESC, id ASC`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list service_listings")
	}
	defer rows.Close()

	list := make([]*store.ServiceListing, 0)
	for rows.Next() {
		l := &store.ServiceListing{}
		if err := rows.Scan(&l.ID, &l.UID, &l.Name, &l.Category, &l.Location, &l.Rating, &l.PriceCents); err != nil {
			return nil, errors.Wrap(err, "failed to scan service_listing")
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate service_listings")
	}
	return list, nil
}
