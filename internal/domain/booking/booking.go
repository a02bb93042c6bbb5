package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rigrent/internal/domain/availability"
	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/pricing"
	"rigrent/internal/domain/shared/daterange"
	"rigrent/internal/domain/shared/errs"
	"rigrent/internal/domain/shared/events"
)

var (
	ErrBookingNotFound   = errs.NotFound("booking_not_found", "booking: not found")
	ErrNotOwner          = errs.Forbidden("forbidden", "booking: only the listing owner may decide this booking")
	ErrNotRenter         = errs.Forbidden("forbidden", "booking: only the renter may cancel this booking")
	ErrNotParticipant    = errs.Forbidden("forbidden", "booking: not a participant of this booking")
	ErrInvalidTransition = errs.Conflict("invalid_transition", "booking: invalid state transition")
	ErrDateConflict      = errs.Conflict("conflict", "booking: dates overlap an approved booking")
	ErrConcurrentUpdate  = errs.Conflict("concurrent_update", "booking: modified concurrently")
	ErrAlreadyFinalized  = errs.Conflict("already_finalized", "booking: hours already finalized")
	ErrNotApproved       = errs.Conflict("not_approved", "booking: only approved bookings can be finalized")
	ErrNotHourlyOperator = errs.Validation("not_hourly_operator", "booking: finalization applies to hourly operator service only")
	ErrHoursOutOfRange   = errs.Validation("hours_out_of_range", "booking: hours must be between 1 and the service cap")
)

type BookingID string
type RenterID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return s, true
	}
	return "", false
}

// Snapshot is the pricing input frozen at request time. Later listing edits
// never reach it.
type Snapshot struct {
	Terms          pricing.Terms `json:"terms" bson:"terms"`
	EstimatedHours int           `json:"estimated_hours,omitempty" bson:"estimated_hours,omitempty"`
	FinalHours     int           `json:"final_hours,omitempty" bson:"final_hours,omitempty"`
	FinalizedAt    *time.Time    `json:"finalized_at,omitempty" bson:"finalized_at,omitempty"`
}

func (s Snapshot) Finalized() bool {
	return s.FinalizedAt != nil
}

// Booking is one renter's claim on a listing for the inclusive days
// [Start, End].
type Booking struct {
	ID              BookingID
	ListingID       listings.ListingID
	OwnerID         listings.OwnerID
	RenterID        RenterID
	RenterEmail     string
	Start           time.Time
	End             time.Time
	BufferDays      int
	Status          Status
	Snapshot        Snapshot
	Message         string
	LicenseAttested bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DecidedAt       *time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByRenter(ctx context.Context, renter RenterID) ([]*Booking, error)
	ListByOwner(ctx context.Context, owner listings.OwnerID, status Status) ([]*Booking, error)
	availability.PeriodSource
}

type CreateParams struct {
	ID              BookingID
	ListingID       listings.ListingID
	OwnerID         listings.OwnerID
	RenterID        RenterID
	RenterEmail     string
	Start           time.Time
	End             time.Time
	BufferDays      int
	Terms           pricing.Terms
	Message         string
	LicenseAttested bool
	CreatedAt       time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.ID == "" {
		return nil, errors.New("booking: id required")
	}
	if params.RenterID == "" {
		return nil, errors.New("booking: renter id required")
	}
	if params.BufferDays < 0 {
		params.BufferDays = 0
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		ListingID:       params.ListingID,
		OwnerID:         params.OwnerID,
		RenterID:        params.RenterID,
		RenterEmail:     params.RenterEmail,
		Start:           params.Start.UTC(),
		End:             params.End.UTC(),
		BufferDays:      params.BufferDays,
		Status:          StatusPending,
		Snapshot:        Snapshot{Terms: params.Terms},
		Message:         params.Message,
		LicenseAttested: params.LicenseAttested,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if b.Snapshot.Terms.Service.Hourly() {
		b.Snapshot.EstimatedHours = b.Snapshot.Terms.Service.Quantity
	}
	quote, err := b.Breakdown()
	if err != nil {
		return nil, err
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		ListingID: b.ListingID,
		RenterID:  b.RenterID,
		StartDate: daterange.FormatDate(b.Start),
		EndDate:   daterange.FormatDate(b.End),
		Total:     quote.Total,
		At:        now,
	})
	return b, nil
}

// Breakdown re-derives the charges from the frozen snapshot.
func (b *Booking) Breakdown() (pricing.Breakdown, error) {
	return pricing.Quote(b.Start, b.End, b.Snapshot.Terms)
}

// Range is the half-open probe [Start, End+1).
func (b *Booking) Range() daterange.DateRange {
	return daterange.DateRange{Start: b.Start, End: daterange.AddDays(b.End, 1)}
}

// Period is the calendar view of the booking.
func (b *Booking) Period() availability.BookedPeriod {
	return availability.BookedPeriod{
		BookingID:  string(b.ID),
		Start:      b.Start,
		End:        b.End,
		BufferDays: b.BufferDays,
		Approved:   b.Status == StatusApproved,
	}
}

// Approve moves a pending booking to approved after re-checking it against the
// listing's other approved bookings. The caller must hold the listing's
// calendar guard while reading others and saving.
func (b *Booking) Approve(owner listings.OwnerID, others []availability.BookedPeriod, now time.Time) error {
	if owner == "" || owner != b.OwnerID {
		return ErrNotOwner
	}
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	blocks := availability.BlockedIntervals(availability.Except(others, string(b.ID)))
	if conflict, found := availability.FirstConflict(b.Range(), blocks); found {
		return fmt.Errorf("%w: overlaps booking %s %s", ErrDateConflict, conflict.Reference, conflict.Range)
	}
	b.transition(StatusApproved, now)
	b.Record(BookingApproved{BookingID: b.ID, ListingID: b.ListingID, RenterID: b.RenterID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Reject(owner listings.OwnerID, reason string, now time.Time) error {
	if owner == "" || owner != b.OwnerID {
		return ErrNotOwner
	}
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	b.transition(StatusRejected, now)
	b.Record(BookingRejected{BookingID: b.ID, ListingID: b.ListingID, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(renter RenterID, now time.Time) error {
	if renter == "" || renter != b.RenterID {
		return ErrNotRenter
	}
	if b.Status != StatusPending {
		return ErrInvalidTransition
	}
	b.transition(StatusCancelled, now)
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// FinalizeHours replaces the hourly estimate with the actual hours worked.
// It succeeds at most once.
func (b *Booking) FinalizeHours(owner listings.OwnerID, hours, hourCap int, now time.Time) (pricing.Breakdown, error) {
	if owner == "" || owner != b.OwnerID {
		return pricing.Breakdown{}, ErrNotOwner
	}
	service := b.Snapshot.Terms.Service
	if service.Choice != listings.ServiceOperator || service.Unit != listings.UnitHour {
		return pricing.Breakdown{}, ErrNotHourlyOperator
	}
	if b.Snapshot.Finalized() {
		return pricing.Breakdown{}, ErrAlreadyFinalized
	}
	if b.Status != StatusApproved {
		return pricing.Breakdown{}, ErrNotApproved
	}
	if hours < 1 || (hourCap > 0 && hours > hourCap) {
		return pricing.Breakdown{}, ErrHoursOutOfRange
	}

	next := b.Snapshot
	next.Terms.Service.Quantity = hours
	next.Terms.Service.Final = true
	next.FinalHours = hours
	stamp := now.UTC()
	next.FinalizedAt = &stamp

	breakdown, err := pricing.Quote(b.Start, b.End, next.Terms)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	b.Snapshot = next
	b.UpdatedAt = stamp
	b.Record(HoursFinalized{BookingID: b.ID, Hours: hours, ServiceCharge: breakdown.ServiceCharge, Total: breakdown.Total, At: stamp})
	return breakdown, nil
}

// Participant reports whether user is the renter or the listing owner.
func (b *Booking) Participant(user string) bool {
	return user != "" && (user == string(b.RenterID) || user == string(b.OwnerID))
}

// Clone returns a deep copy without pending events.
func (b *Booking) Clone() *Booking {
	clone := *b
	if b.DecidedAt != nil {
		decided := *b.DecidedAt
		clone.DecidedAt = &decided
	}
	if b.Snapshot.FinalizedAt != nil {
		finalized := *b.Snapshot.FinalizedAt
		clone.Snapshot.FinalizedAt = &finalized
	}
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}

func (b *Booking) transition(to Status, now time.Time) {
	stamp := now.UTC()
	b.Status = to
	b.UpdatedAt = stamp
	b.DecidedAt = &stamp
}
