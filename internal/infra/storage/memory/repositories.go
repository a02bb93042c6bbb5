package memory

import (
	"context"
	"sort"

	domainavailability "rigrent/internal/domain/availability"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
)

// ListingRepository reads through the unit's staged writes to the store.
type ListingRepository struct {
	unit *Unit
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	u := r.unit
	u.mu.Lock()
	if staged, ok := u.listings[id]; ok {
		u.mu.Unlock()
		return staged.value.Clone(), nil
	}
	u.mu.Unlock()

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	listing, ok := u.store.listings[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return listing.Clone(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	if staged, ok := u.listings[listing.ID]; ok {
		if staged.value.Version != listing.Version {
			return domainlistings.ErrConcurrentUpdate
		}
		u.listings[listing.ID] = stagedListing{value: listing.Clone(), expected: staged.expected}
		return nil
	}

	u.store.mu.RLock()
	current, exists := u.store.listings[listing.ID]
	u.store.mu.RUnlock()
	if (exists && current.Version != listing.Version) || (!exists && listing.Version != 0) {
		return domainlistings.ErrConcurrentUpdate
	}
	expected := listing.Version
	listing.Version++
	u.listings[listing.ID] = stagedListing{value: listing.Clone(), expected: expected}
	return nil
}

// Search orders by most recently updated, then id.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	opts := params.Normalized()
	all := r.unit.snapshotListings()
	matches := make([]*domainlistings.Listing, 0, len(all))
	for _, listing := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.Matches(listing) {
			matches = append(matches, listing)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].UpdatedAt.Equal(matches[j].UpdatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})
	return page(matches, opts.Offset, opts.Limit), nil
}

func page[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// BookingRepository reads through the unit's staged writes to the store.
type BookingRepository struct {
	unit *Unit
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	u := r.unit
	u.mu.Lock()
	if staged, ok := u.bookings[id]; ok {
		u.mu.Unlock()
		return staged.value.Clone(), nil
	}
	u.mu.Unlock()

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	b, ok := u.store.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	if staged, ok := u.bookings[b.ID]; ok {
		if staged.value.Version != b.Version {
			return domainbooking.ErrConcurrentUpdate
		}
		u.bookings[b.ID] = stagedBooking{value: b.Clone(), expected: staged.expected}
		return nil
	}

	u.store.mu.RLock()
	current, exists := u.store.bookings[b.ID]
	u.store.mu.RUnlock()
	if (exists && current.Version != b.Version) || (!exists && b.Version != 0) {
		return domainbooking.ErrConcurrentUpdate
	}
	expected := b.Version
	b.Version++
	u.bookings[b.ID] = stagedBooking{value: b.Clone(), expected: expected}
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renter domainbooking.RenterID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.RenterID == renter }), nil
}

func (r *BookingRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID, status domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool {
		return b.OwnerID == owner && (status == "" || b.Status == status)
	}), nil
}

// ApprovedPeriods returns the approved bookings of a listing by start date.
func (r *BookingRepository) ApprovedPeriods(ctx context.Context, listingID domainlistings.ListingID) ([]domainavailability.BookedPeriod, error) {
	matches := r.filter(func(b *domainbooking.Booking) bool {
		return b.ListingID == listingID && b.Status == domainbooking.StatusApproved
	})
	sort.Slice(matches, func(i, j int) bool { return matches[i].Start.Before(matches[j].Start) })
	periods := make([]domainavailability.BookedPeriod, 0, len(matches))
	for _, b := range matches {
		periods = append(periods, b.Period())
	}
	return periods, nil
}

// filter returns clones, newest first.
func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	all := r.unit.snapshotBookings()
	out := make([]*domainbooking.Booking, 0)
	for _, b := range all {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (u *Unit) snapshotListings() []*domainlistings.Listing {
	u.mu.Lock()
	staged := make(map[domainlistings.ListingID]*domainlistings.Listing, len(u.listings))
	for id, s := range u.listings {
		staged[id] = s.value.Clone()
	}
	u.mu.Unlock()

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0, len(u.store.listings)+len(staged))
	for id, l := range u.store.listings {
		if _, ok := staged[id]; ok {
			continue
		}
		out = append(out, l.Clone())
	}
	for _, l := range staged {
		out = append(out, l)
	}
	return out
}

func (u *Unit) snapshotBookings() []*domainbooking.Booking {
	u.mu.Lock()
	staged := make(map[domainbooking.BookingID]*domainbooking.Booking, len(u.bookings))
	for id, s := range u.bookings {
		staged[id] = s.value.Clone()
	}
	u.mu.Unlock()

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0, len(u.store.bookings)+len(staged))
	for id, b := range u.store.bookings {
		if _, ok := staged[id]; ok {
			continue
		}
		out = append(out, b.Clone())
	}
	for _, b := range staged {
		out = append(out, b)
	}
	return out
}

var (
	_ domainlistings.ListingRepository = (*ListingRepository)(nil)
	_ domainbooking.Repository         = (*BookingRepository)(nil)
)
