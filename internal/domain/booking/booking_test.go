package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigrent/internal/domain/availability"
	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/pricing"
	"rigrent/internal/domain/shared/daterange"
	"rigrent/internal/domain/shared/errs"
	"rigrent/internal/domain/shared/money"
)

var now = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := daterange.ParseDate(s)
	require.NoError(t, err)
	return d
}

func hourlyOperatorTerms() pricing.Terms {
	return pricing.Terms{
		DailyRate: money.Must(10000, "USD"),
		Service: pricing.Service{
			Choice:   listings.ServiceOperator,
			Unit:     listings.UnitHour,
			Rate:     money.Must(2500, "USD"),
			Quantity: 8,
		},
	}
}

func newBooking(t *testing.T, id, start, end string, terms pricing.Terms) *Booking {
	t.Helper()
	b, err := NewBooking(CreateParams{
		ID:         BookingID(id),
		ListingID:  "listing-1",
		OwnerID:    "owner-1",
		RenterID:   "renter-1",
		Start:      date(t, start),
		End:        date(t, end),
		BufferDays: 1,
		Terms:      terms,
		CreatedAt:  now,
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingStartsPending(t *testing.T) {
	b := newBooking(t, "b1", "2024-06-01", "2024-06-03", hourlyOperatorTerms())

	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 8, b.Snapshot.EstimatedHours)
	assert.Equal(t, "[2024-06-01, 2024-06-04)", b.Range().String())

	evts := b.PendingEvents()
	require.Len(t, evts, 1)
	requested, ok := evts[0].(BookingRequested)
	require.True(t, ok)
	assert.Equal(t, "2024-06-01", requested.StartDate)
	// 300 + 8*25 = 500, +10%
	assert.Equal(t, int64(55000), requested.Total.Amount)
}

func TestNewBookingRejectsUnpriceableTerms(t *testing.T) {
	terms := hourlyOperatorTerms()
	terms.Service.Quantity = 0
	_, err := NewBooking(CreateParams{
		ID: "b1", RenterID: "r", Start: date(t, "2024-06-01"), End: date(t, "2024-06-01"), Terms: terms, CreatedAt: now,
	})
	assert.ErrorIs(t, err, pricing.ErrHoursRequired)
}

func TestApproveGuards(t *testing.T) {
	b := newBooking(t, "b1", "2024-06-01", "2024-06-03", hourlyOperatorTerms())

	assert.ErrorIs(t, b.Approve("someone-else", nil, now), ErrNotOwner)
	assert.ErrorIs(t, b.Approve("", nil, now), errs.ErrForbidden)

	require.NoError(t, b.Approve("owner-1", nil, now))
	assert.Equal(t, StatusApproved, b.Status)
	require.NotNil(t, b.DecidedAt)

	assert.ErrorIs(t, b.Approve("owner-1", nil, now), ErrInvalidTransition)
	assert.ErrorIs(t, b.Reject("owner-1", "", now), ErrInvalidTransition)
	assert.ErrorIs(t, b.Cancel("renter-1", now), ErrInvalidTransition)
}

func TestApproveRechecksAvailability(t *testing.T) {
	b := newBooking(t, "b2", "2024-06-03", "2024-06-05", hourlyOperatorTerms())
	others := []availability.BookedPeriod{
		{BookingID: "b2", Start: date(t, "2024-06-03"), End: date(t, "2024-06-05"), Approved: true},
		{BookingID: "b1", Start: date(t, "2024-06-01"), End: date(t, "2024-06-03"), BufferDays: 1, Approved: true},
	}

	err := b.Approve("owner-1", others, now)
	assert.ErrorIs(t, err, ErrDateConflict)
	assert.Equal(t, "conflict", errs.ReasonOf(err))
	assert.Contains(t, err.Error(), "b1")
	assert.Equal(t, StatusPending, b.Status)
}

func TestApproveAllowsAbuttingBlock(t *testing.T) {
	b := newBooking(t, "b2", "2024-06-05", "2024-06-06", hourlyOperatorTerms())
	others := []availability.BookedPeriod{
		{BookingID: "b1", Start: date(t, "2024-06-01"), End: date(t, "2024-06-03"), BufferDays: 1, Approved: true},
	}
	assert.NoError(t, b.Approve("owner-1", others, now))
}

func TestRejectAndCancel(t *testing.T) {
	rejected := newBooking(t, "b1", "2024-06-01", "2024-06-01", hourlyOperatorTerms())
	assert.ErrorIs(t, rejected.Reject("renter-1", "", now), ErrNotOwner)
	require.NoError(t, rejected.Reject("owner-1", "maintenance", now))
	assert.Equal(t, StatusRejected, rejected.Status)

	cancelled := newBooking(t, "b2", "2024-06-01", "2024-06-01", hourlyOperatorTerms())
	assert.ErrorIs(t, cancelled.Cancel("owner-1", now), ErrNotRenter)
	require.NoError(t, cancelled.Cancel("renter-1", now))
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.ErrorIs(t, cancelled.Approve("owner-1", nil, now), ErrInvalidTransition)
}

func TestFinalizeHoursOnce(t *testing.T) {
	b := newBooking(t, "b1", "2024-06-01", "2024-06-03", hourlyOperatorTerms())

	_, err := b.FinalizeHours("owner-1", 5, 10, now)
	assert.ErrorIs(t, err, ErrNotApproved)

	require.NoError(t, b.Approve("owner-1", nil, now))

	_, err = b.FinalizeHours("owner-1", 11, 10, now)
	assert.ErrorIs(t, err, ErrHoursOutOfRange)
	_, err = b.FinalizeHours("owner-1", 0, 10, now)
	assert.ErrorIs(t, err, ErrHoursOutOfRange)
	_, err = b.FinalizeHours("renter-1", 5, 10, now)
	assert.ErrorIs(t, err, ErrNotOwner)

	breakdown, err := b.FinalizeHours("owner-1", 10, 10, now)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), breakdown.ServiceCharge.Amount)
	assert.False(t, breakdown.HourlyEstimate)
	assert.Equal(t, 8, b.Snapshot.EstimatedHours)
	assert.Equal(t, 10, b.Snapshot.FinalHours)
	require.True(t, b.Snapshot.Finalized())

	again, err := b.Breakdown()
	require.NoError(t, err)
	assert.Equal(t, breakdown, again)

	_, err = b.FinalizeHours("owner-1", 3, 10, now)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	after, err := b.Breakdown()
	require.NoError(t, err)
	assert.Equal(t, breakdown.Total, after.Total)
}

func TestFinalizeHoursRequiresHourlyOperator(t *testing.T) {
	terms := hourlyOperatorTerms()
	terms.Service.Unit = listings.UnitDay
	b := newBooking(t, "b1", "2024-06-01", "2024-06-03", terms)
	require.NoError(t, b.Approve("owner-1", nil, now))

	_, err := b.FinalizeHours("owner-1", 4, 10, now)
	assert.ErrorIs(t, err, ErrNotHourlyOperator)

	driver := hourlyOperatorTerms()
	driver.Service.Choice = listings.ServiceDriver
	d := newBooking(t, "b2", "2024-06-01", "2024-06-03", driver)
	require.NoError(t, d.Approve("owner-1", nil, now))
	_, err = d.FinalizeHours("owner-1", 4, 10, now)
	assert.ErrorIs(t, err, ErrNotHourlyOperator)
}

func TestCloneIsIndependent(t *testing.T) {
	b := newBooking(t, "b1", "2024-06-01", "2024-06-03", hourlyOperatorTerms())
	require.NoError(t, b.Approve("owner-1", nil, now))
	clone := b.Clone()
	assert.Empty(t, clone.PendingEvents())
	*clone.DecidedAt = clone.DecidedAt.Add(time.Hour)
	assert.NotEqual(t, *clone.DecidedAt, *b.DecidedAt)
}

func TestPeriodReflectsStatus(t *testing.T) {
	b := newBooking(t, "b1", "2024-06-01", "2024-06-03", hourlyOperatorTerms())
	assert.False(t, b.Period().Approved)
	require.NoError(t, b.Approve("owner-1", nil, now))
	p := b.Period()
	assert.True(t, p.Approved)
	assert.Equal(t, 1, p.BufferDays)
}
