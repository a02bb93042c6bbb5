package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/lib/pq"

	appoutbox "rigrent/internal/app/outbox"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing database")

// Factory opens one database transaction per unit of work.
type Factory struct {
	DB *sql.DB
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	tx, err := f.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, err
	}
	return &Unit{
		tx:       tx,
		listings: NewListingRepository(tx),
		bookings: NewBookingRepository(tx),
		calendar: &calendarGuard{q: tx, held: make(map[domainlistings.ListingID]struct{})},
		outbox:   &OutboxStore{q: tx},
	}, nil
}

type Unit struct {
	tx *sql.Tx

	listings *ListingRepository
	bookings *BookingRepository
	calendar *calendarGuard
	outbox   *OutboxStore
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository         { return u.bookings }
func (u *Unit) Calendar() uow.CalendarGuard                { return u.calendar }
func (u *Unit) Outbox() appoutbox.Outbox                   { return u.outbox }

func (u *Unit) Commit(ctx context.Context) error {
	return translateError(u.tx.Commit())
}

func (u *Unit) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// calendarGuard takes a transaction scoped advisory lock per listing. A
// second unit locking the same listing waits until the first one ends.
type calendarGuard struct {
	q queryer

	mu   sync.Mutex
	held map[domainlistings.ListingID]struct{}
}

func (g *calendarGuard) Lock(ctx context.Context, listingID domainlistings.ListingID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[listingID]; ok {
		return nil
	}
	if _, err := g.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(listingID)); err != nil {
		return translateError(err)
	}
	g.held[listingID] = struct{}{}
	return nil
}

// translateError maps serialization failures and unique violations to the
// conflict handlers report for a lost race.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "23505":
			return domainbooking.ErrConcurrentUpdate
		}
	}
	return err
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
