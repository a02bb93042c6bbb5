package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigrent/internal/app/middleware"
	appoutbox "rigrent/internal/app/outbox"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/pricing"
	"rigrent/internal/domain/shared/money"
)

var now = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

func newListing(t *testing.T, id string) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:    domainlistings.ListingID(id),
		Owner: "owner-1",
		Terms: domainlistings.Terms{
			Title:     "Skid steer",
			Category:  "loader",
			DailyRate: money.Must(12000, "USD"),
		},
		Now: now,
	})
	require.NoError(t, err)
	return l
}

func newBooking(t *testing.T, id, listingID string, start time.Time) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: domainlistings.ListingID(listingID),
		OwnerID:   "owner-1",
		RenterID:  "renter-1",
		Start:     start,
		End:       start.AddDate(0, 0, 2),
		Terms:     pricing.Terms{DailyRate: money.Must(12000, "USD")},
		CreatedAt: now,
	})
	require.NoError(t, err)
	return b
}

func begin(t *testing.T, f Factory) uow.UnitOfWork {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return unit
}

func TestWritesAreInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}

	writer := begin(t, f)
	require.NoError(t, writer.Listings().Save(ctx, newListing(t, "l1")))

	reader := begin(t, f)
	_, err := reader.Listings().ByID(ctx, "l1")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)

	got, err := writer.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	require.NoError(t, writer.Commit(ctx))
	got, err = reader.Listings().ByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Skid steer", got.Title)
}

func TestRollbackDiscardsWritesAndEvents(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	f := Factory{Store: store}

	unit := begin(t, f)
	require.NoError(t, unit.Listings().Save(ctx, newListing(t, "l1")))
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e1", Name: "listing.created"}))
	require.NoError(t, unit.Rollback(ctx))

	assert.Empty(t, store.Outbox.Pending())
	_, err := begin(t, f).Listings().ByID(ctx, "l1")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
}

func TestStaleVersionLosesAtCommit(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	seed := begin(t, f)
	require.NoError(t, seed.Bookings().Save(ctx, newBooking(t, "b1", "l1", now)))
	require.NoError(t, seed.Commit(ctx))

	first, second := begin(t, f), begin(t, f)
	a, err := first.Bookings().ByID(ctx, "b1")
	require.NoError(t, err)
	b, err := second.Bookings().ByID(ctx, "b1")
	require.NoError(t, err)

	require.NoError(t, a.Cancel("renter-1", now))
	require.NoError(t, first.Bookings().Save(ctx, a))
	require.NoError(t, b.Reject("owner-1", "", now))
	require.NoError(t, second.Bookings().Save(ctx, b))

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), domainbooking.ErrConcurrentUpdate)

	stored, err := begin(t, f).Bookings().ByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCancelled, stored.Status)
}

func TestSaveRejectsStaleCopy(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	seed := begin(t, f)
	require.NoError(t, seed.Bookings().Save(ctx, newBooking(t, "b1", "l1", now)))
	require.NoError(t, seed.Commit(ctx))

	stale := newBooking(t, "b1", "l1", now)
	unit := begin(t, f)
	assert.ErrorIs(t, unit.Bookings().Save(ctx, stale), domainbooking.ErrConcurrentUpdate)
}

func TestCalendarLockIsHeldUntilUnitEnds(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}

	holder := begin(t, f)
	require.NoError(t, holder.Calendar().Lock(ctx, "l1"))
	require.NoError(t, holder.Calendar().Lock(ctx, "l1"), "re-entrant within a unit")

	waiter := begin(t, f)
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, waiter.Calendar().Lock(short, "l1"), context.DeadlineExceeded)

	require.NoError(t, waiter.Calendar().Lock(ctx, "l2"), "other listings are independent")

	acquired := make(chan error, 1)
	next, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	go func() { acquired <- next.Calendar().Lock(ctx, "l1") }()
	require.NoError(t, holder.Commit(ctx))
	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("lock was not released on commit")
	}
}

func TestApprovedPeriodsAndOwnerFilter(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	unit := begin(t, f)

	later := newBooking(t, "b2", "l1", now.AddDate(0, 1, 0))
	require.NoError(t, later.Approve("owner-1", nil, now))
	earlier := newBooking(t, "b1", "l1", now)
	require.NoError(t, earlier.Approve("owner-1", nil, now))
	pending := newBooking(t, "b3", "l1", now.AddDate(0, 2, 0))
	for _, b := range []*domainbooking.Booking{later, earlier, pending} {
		require.NoError(t, unit.Bookings().Save(ctx, b))
	}
	require.NoError(t, unit.Commit(ctx))

	reader := begin(t, f)
	periods, err := reader.Bookings().ApprovedPeriods(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "b1", periods[0].BookingID)
	assert.Equal(t, "b2", periods[1].BookingID)

	pendingOnly, err := reader.Bookings().ListByOwner(ctx, "owner-1", domainbooking.StatusPending)
	require.NoError(t, err)
	require.Len(t, pendingOnly, 1)
	assert.Equal(t, domainbooking.BookingID("b3"), pendingOnly[0].ID)

	all, err := reader.Bookings().ListByOwner(ctx, "owner-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOutboxRelayLifecycle(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	clock := now
	box.now = func() time.Time { return clock }
	box.append(appoutbox.EventRecord{ID: "e1", Name: "booking.requested", Payload: []byte(`{}`)})

	msg, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "e1", msg.ID)

	again, err := box.Claim(ctx, "w2")
	require.NoError(t, err)
	assert.Nil(t, again, "claimed records are not handed out twice")

	require.NoError(t, box.MarkFailed(ctx, "e1", clock.Add(time.Second), "broker down"))
	none, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, none)

	clock = clock.Add(2 * time.Second)
	retry, err := box.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, retry)
	assert.Equal(t, 1, retry.Attempts)

	require.NoError(t, box.MarkSent(ctx, "e1"))
	assert.Empty(t, box.Pending())
}

func TestIdempotencyStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	clock := now
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, middlewareRecord("k", now)))
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	clock = clock.Add(2 * time.Hour)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func middlewareRecord(key string, at time.Time) middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{Key: key, Payload: []byte(`{}`), OccurredAt: at}
}
