package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rigrent/internal/app/outbox"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/pricing"
	"rigrent/internal/domain/shared/money"
)

var bookingCols = []string{"id", "listing_id", "owner_id", "renter_id", "renter_email", "start_date", "end_date",
	"buffer_days", "status", "snapshot", "message", "license_attested", "created_at", "updated_at", "decided_at", "version"}

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *BookingRepository, func() *ListingRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, func() *BookingRepository { return NewBookingRepository(db) }, func() *ListingRepository { return NewListingRepository(db) }
}

func snapshotJSON(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(domainbooking.Snapshot{Terms: pricing.Terms{DailyRate: money.Must(10000, "USD")}})
	require.NoError(t, err)
	return raw
}

func TestBookingByID(t *testing.T) {
	mock, bookings, _ := newMock(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		decided := time.Date(2024, 5, 21, 8, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(bookingCols).AddRow("b-1", "rig-1", "owner-1", "renter-1", "r@example.com",
			time.Date(2024, 6, 1, 0, 0, 0, 0, time.FixedZone("", 0)), time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			1, "approved", snapshotJSON(t), "", true, decided, decided, decided, 2)
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").WithArgs("b-1").WillReturnRows(rows)

		b, err := bookings().ByID(ctx, "b-1")

		require.NoError(t, err)
		assert.Equal(t, domainbooking.StatusApproved, b.Status)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), b.Start)
		assert.Equal(t, int64(10000), b.Snapshot.Terms.DailyRate.Amount)
		require.NotNil(t, b.DecidedAt)
		assert.Equal(t, int64(2), b.Version)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").WithArgs("missing").WillReturnRows(sqlmock.NewRows(bookingCols))

		_, err := bookings().ByID(ctx, "missing")

		assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingSave(t *testing.T) {
	mock, bookings, _ := newMock(t)
	ctx := context.Background()
	b := &domainbooking.Booking{
		ID:        "b-1",
		ListingID: "rig-1",
		OwnerID:   "owner-1",
		RenterID:  "renter-1",
		Start:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:    domainbooking.StatusPending,
	}

	t.Run("InsertsNew", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO bookings").
			WithArgs("b-1", "rig-1", "owner-1", "renter-1", "", "2024-06-01", "2024-06-03", 0, "pending",
				sqlmock.AnyArg(), "", false, sqlmock.AnyArg(), sqlmock.AnyArg(), nil, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, bookings().Save(ctx, b))
		assert.Equal(t, int64(1), b.Version)
	})

	t.Run("StaleVersionConflicts", func(t *testing.T) {
		b.Status = domainbooking.StatusApproved
		mock.ExpectExec("UPDATE bookings SET").
			WithArgs("b-1", "approved", sqlmock.AnyArg(), sqlmock.AnyArg(), nil, int64(2), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := bookings().Save(ctx, b)

		assert.ErrorIs(t, err, domainbooking.ErrConcurrentUpdate)
		assert.Equal(t, int64(1), b.Version)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovedPeriods(t *testing.T) {
	mock, bookings, _ := newMock(t)
	rows := sqlmock.NewRows([]string{"id", "start_date", "end_date", "buffer_days"}).
		AddRow("b-1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), 1)
	mock.ExpectQuery("SELECT id, start_date, end_date, buffer_days FROM bookings").
		WithArgs("rig-1", "approved").
		WillReturnRows(rows)

	periods, err := bookings().ApprovedPeriods(context.Background(), "rig-1")

	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "b-1", periods[0].BookingID)
	assert.Equal(t, 1, periods[0].BufferDays)
	assert.True(t, periods[0].Approved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingSaveAndNotFound(t *testing.T) {
	mock, _, listings := newMock(t)
	ctx := context.Background()
	l := &domainlistings.Listing{
		ID:        "rig-1",
		Owner:     "owner-1",
		Title:     "Mini excavator",
		Category:  "excavator",
		State:     domainlistings.ListingDraft,
		DailyRate: money.Must(10000, "USD"),
		Deposit:   money.Must(20000, "USD"),
	}
	mock.ExpectExec("INSERT INTO listings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE listings SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM listings WHERE id = \\$1").WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	require.NoError(t, listings().Save(ctx, l))
	l.State = domainlistings.ListingPublished
	require.NoError(t, listings().Save(ctx, l))
	assert.Equal(t, int64(2), l.Version)

	_, err := listings().ByID(ctx, "gone")
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchQueryPlaceholders(t *testing.T) {
	query, args := searchQuery(domainlistings.SearchParams{Owner: "owner-1", OnlyPublished: true, Limit: 10, Offset: 20})

	assert.Contains(t, query, "WHERE owner_id = $1 AND state = $2")
	assert.Contains(t, query, "LIMIT $3 OFFSET $4")
	assert.Equal(t, []any{"owner-1", "PUBLISHED", 10, 20}, args)

	query, args = searchQuery(domainlistings.SearchParams{IDs: []domainlistings.ListingID{"a", "b"}, Limit: 5})
	assert.Contains(t, query, "id = ANY($1)")
	assert.Len(t, args, 3)
}

func TestUnitLocksCalendarOncePerListing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs("rig-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs("evt-1", "booking.approved", []byte(`{}`), sqlmock.AnyArg(), "b-1", []byte(`{}`), "NEW", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	unit, err := Factory{DB: db}.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Calendar().Lock(ctx, "rig-1"))
	require.NoError(t, unit.Calendar().Lock(ctx, "rig-1"))
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{
		ID: "evt-1", Name: "booking.approved", Payload: []byte(`{}`), Aggregate: "b-1", OccurredAt: time.Now(),
	}))
	require.NoError(t, unit.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxClaim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewOutboxStore(db)
	ctx := context.Background()
	cols := []string{"id", "name", "payload", "occurred_at", "aggregate", "headers", "attempts"}

	mock.ExpectQuery("UPDATE outbox_events SET state").WillReturnRows(sqlmock.NewRows(cols))
	msg, err := store.Claim(ctx, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, msg)

	mock.ExpectQuery("UPDATE outbox_events SET state").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("evt-1", "booking.requested", []byte(`{"a":1}`),
			time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "b-1", []byte(`{"traceparent":"00-x"}`), 2))
	msg, err = store.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "evt-1", msg.ID)
	assert.Equal(t, 2, msg.Attempts)
	assert.Equal(t, "00-x", msg.Headers["traceparent"])

	mock.ExpectExec("UPDATE outbox_events SET state = \\$2, sent_at").WithArgs("evt-1", "SENT", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.MarkSent(ctx, "evt-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, translateError(&pq.Error{Code: "40001"}), domainbooking.ErrConcurrentUpdate)
	assert.Equal(t, driver.ErrBadConn, translateError(driver.ErrBadConn))
	assert.NoError(t, translateError(nil))
}
