package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "rigrent/internal/app/outbox"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
)

var (
	ErrUnitClosed = errors.New("memory: unit of work already finished")
	ErrReadOnly   = errors.New("memory: write in read-only unit of work")
)

// Store is the shared state behind every unit. Entities are cloned on the way
// in and out so callers never alias stored values.
type Store struct {
	mu       sync.RWMutex
	listings map[domainlistings.ListingID]*domainlistings.Listing
	bookings map[domainbooking.BookingID]*domainbooking.Booking

	locksMu sync.Mutex
	locks   map[domainlistings.ListingID]chan struct{}

	Outbox *Outbox
}

func NewStore() *Store {
	return &Store{
		listings: make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings: make(map[domainbooking.BookingID]*domainbooking.Booking),
		locks:    make(map[domainlistings.ListingID]chan struct{}),
		Outbox:   NewOutbox(),
	}
}

// Factory starts units over a Store.
type Factory struct {
	Store *Store
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin opens a unit that stages its writes until Commit. Saves are version
// checked again at commit time, so a unit that lost a race fails as a whole.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		store:    f.Store,
		readOnly: opts.ReadOnly,
		listings: make(map[domainlistings.ListingID]stagedListing),
		bookings: make(map[domainbooking.BookingID]stagedBooking),
		held:     make(map[domainlistings.ListingID]chan struct{}),
	}, nil
}

type stagedListing struct {
	value    *domainlistings.Listing
	expected int64
}

type stagedBooking struct {
	value    *domainbooking.Booking
	expected int64
}

type Unit struct {
	store    *Store
	readOnly bool

	mu       sync.Mutex
	done     bool
	listings map[domainlistings.ListingID]stagedListing
	bookings map[domainbooking.BookingID]stagedBooking
	records  []appoutbox.EventRecord
	held     map[domainlistings.ListingID]chan struct{}
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return &ListingRepository{unit: u}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return &BookingRepository{unit: u}
}

func (u *Unit) Calendar() uow.CalendarGuard {
	return calendarGuard{unit: u}
}

func (u *Unit) Outbox() appoutbox.Outbox {
	return stagedOutbox{unit: u}
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	defer u.releaseLocked()

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, staged := range u.listings {
		if current, ok := s.listings[id]; ok && current.Version != staged.expected {
			return domainlistings.ErrConcurrentUpdate
		} else if !ok && staged.expected != 0 {
			return domainlistings.ErrConcurrentUpdate
		}
	}
	for id, staged := range u.bookings {
		if current, ok := s.bookings[id]; ok && current.Version != staged.expected {
			return domainbooking.ErrConcurrentUpdate
		} else if !ok && staged.expected != 0 {
			return domainbooking.ErrConcurrentUpdate
		}
	}
	for id, staged := range u.listings {
		s.listings[id] = staged.value
	}
	for id, staged := range u.bookings {
		s.bookings[id] = staged.value
	}
	s.Outbox.append(u.records...)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	u.releaseLocked()
	return nil
}

func (u *Unit) releaseLocked() {
	for id, ch := range u.held {
		<-ch
		delete(u.held, id)
	}
}

// calendarGuard holds a per listing lock until the unit ends.
type calendarGuard struct {
	unit *Unit
}

func (g calendarGuard) Lock(ctx context.Context, listingID domainlistings.ListingID) error {
	u := g.unit
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	if _, ok := u.held[listingID]; ok {
		u.mu.Unlock()
		return nil
	}
	u.mu.Unlock()

	ch := u.store.lockFor(listingID)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		<-ch
		return ErrUnitClosed
	}
	u.held[listingID] = ch
	return nil
}

func (s *Store) lockFor(id domainlistings.ListingID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

type stagedOutbox struct {
	unit *Unit
}

func (o stagedOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.unit.mu.Lock()
	defer o.unit.mu.Unlock()
	if o.unit.done {
		return ErrUnitClosed
	}
	o.unit.records = append(o.unit.records, record)
	return nil
}

var (
	_ uow.UoWFactory    = Factory{}
	_ uow.UnitOfWork    = (*Unit)(nil)
	_ uow.CalendarGuard = calendarGuard{}
)
