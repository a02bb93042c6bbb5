package uow

import (
	"context"

	"rigrent/internal/app/outbox"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Bookings() domainbooking.Repository
	Calendar() CalendarGuard
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CalendarGuard serializes calendar writes per listing. Once Lock returns, no
// other unit can approve a booking of the same listing until this unit ends.
type CalendarGuard interface {
	Lock(ctx context.Context, listingID domainlistings.ListingID) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
