package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domainavailability "rigrent/internal/domain/availability"
	domainbooking "rigrent/internal/domain/booking"
	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/daterange"
)

const bookingColumns = `id, listing_id, owner_id, renter_id, renter_email, start_date, end_date, buffer_days, status,
	snapshot, message, license_attested, created_at, updated_at, decided_at, version`

type BookingRepository struct {
	q queryer
}

func NewBookingRepository(q queryer) *BookingRepository {
	return &BookingRepository{q: q}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, err
}

// Save inserts a new booking or updates the stored one if its version still
// equals b.Version.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	snapshot, err := json.Marshal(b.Snapshot)
	if err != nil {
		return err
	}
	var decidedAt sql.NullTime
	if b.DecidedAt != nil {
		decidedAt = sql.NullTime{Time: b.DecidedAt.UTC(), Valid: true}
	}
	next := b.Version + 1
	var res sql.Result
	if b.Version == 0 {
		res, err = r.q.ExecContext(ctx, `INSERT INTO bookings (`+bookingColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (id) DO NOTHING`,
			string(b.ID), string(b.ListingID), string(b.OwnerID), string(b.RenterID), b.RenterEmail,
			daterange.FormatDate(b.Start), daterange.FormatDate(b.End), b.BufferDays, string(b.Status),
			snapshot, b.Message, b.LicenseAttested, b.CreatedAt.UTC(), b.UpdatedAt.UTC(), decidedAt, next)
	} else {
		res, err = r.q.ExecContext(ctx, `UPDATE bookings SET
			status = $2, snapshot = $3, updated_at = $4, decided_at = $5, version = $6
			WHERE id = $1 AND version = $7`,
			string(b.ID), string(b.Status), snapshot, b.UpdatedAt.UTC(), decidedAt, next, b.Version)
	}
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = next
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renter domainbooking.RenterID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE renter_id = $1 ORDER BY created_at DESC, id`, string(renter))
}

// ListByOwner returns the owner's bookings; an empty status means all of them.
func (r *BookingRepository) ListByOwner(ctx context.Context, owner listings.OwnerID, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	if status == "" {
		return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE owner_id = $1 ORDER BY created_at DESC, id`, string(owner))
	}
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE owner_id = $1 AND status = $2 ORDER BY created_at DESC, id`,
		string(owner), string(status))
}

func (r *BookingRepository) ApprovedPeriods(ctx context.Context, listingID listings.ListingID) ([]domainavailability.BookedPeriod, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, start_date, end_date, buffer_days FROM bookings
		WHERE listing_id = $1 AND status = $2 ORDER BY start_date, id`,
		string(listingID), string(domainbooking.StatusApproved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domainavailability.BookedPeriod
	for rows.Next() {
		var p domainavailability.BookedPeriod
		if err := rows.Scan(&p.BookingID, &p.Start, &p.End, &p.BufferDays); err != nil {
			return nil, err
		}
		p.Start = asDate(p.Start)
		p.End = asDate(p.End)
		p.Approved = true
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domainbooking.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domainbooking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row rowScanner) (*domainbooking.Booking, error) {
	var (
		b                                domainbooking.Booking
		id, listingID, ownerID, renterID string
		status                           string
		snapshot                         []byte
		decidedAt                        sql.NullTime
	)
	err := row.Scan(&id, &listingID, &ownerID, &renterID, &b.RenterEmail, &b.Start, &b.End, &b.BufferDays, &status,
		&snapshot, &b.Message, &b.LicenseAttested, &b.CreatedAt, &b.UpdatedAt, &decidedAt, &b.Version)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &b.Snapshot); err != nil {
		return nil, fmt.Errorf("decode booking %s: %w", id, err)
	}
	b.ID = domainbooking.BookingID(id)
	b.ListingID = listings.ListingID(listingID)
	b.OwnerID = listings.OwnerID(ownerID)
	b.RenterID = domainbooking.RenterID(renterID)
	b.Status = domainbooking.Status(status)
	b.Start = asDate(b.Start)
	b.End = asDate(b.End)
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	if decidedAt.Valid {
		at := decidedAt.Time.UTC()
		b.DecidedAt = &at
	}
	return &b, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
