package listings

import (
	"context"
	"log/slog"
	"strings"

	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
)

const (
	listHostListingsKey = "host.listings.list"
	getHostListingKey   = "host.listings.get"
	getListingKey       = "listings.get"
)

type ListHostListingsQuery struct {
	OwnerID string
	Limit   int
	Offset  int
}

func (q ListHostListingsQuery) Key() string { return listHostListingsKey }

func (q ListHostListingsQuery) ActorID() string { return q.OwnerID }

type ListHostListingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListHostListingsHandler) Handle(ctx context.Context, q ListHostListingsQuery) (dto.ListingCollection, error) {
	ownerID := strings.TrimSpace(q.OwnerID)
	if ownerID == "" {
		return dto.ListingCollection{}, errOwnerRequired
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	found, err := unit.Listings().Search(execCtx, domainlistings.SearchParams{
		Owner:  domainlistings.OwnerID(ownerID),
		Limit:  q.Limit,
		Offset: q.Offset,
	}.Normalized())
	if err != nil {
		return dto.ListingCollection{}, err
	}
	items := make([]dto.Listing, 0, len(found))
	for _, l := range found {
		items = append(items, dto.MapListing(l))
	}
	if h.Logger != nil {
		h.Logger.Debug("host listings listed", "owner_id", ownerID, "count", len(items))
	}
	return dto.ListingCollection{Items: items}, nil
}

type GetHostListingQuery struct {
	OwnerID   string
	ListingID string
}

func (q GetHostListingQuery) Key() string { return getHostListingKey }

func (q GetHostListingQuery) ActorID() string { return q.OwnerID }

type GetHostListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetHostListingHandler) Handle(ctx context.Context, q GetHostListingQuery) (dto.Listing, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := loadOwned(execCtx, unit, q.OwnerID, q.ListingID)
	if err != nil {
		return dto.Listing{}, err
	}
	return dto.MapListing(listing), nil
}

// GetListingQuery is the public view; drafts are not visible.
type GetListingQuery struct {
	ListingID string
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(strings.TrimSpace(q.ListingID)))
	if err != nil {
		return dto.Listing{}, err
	}
	if !listing.Published() {
		return dto.Listing{}, domainbooking.ErrListingUnavailable
	}
	return dto.MapListing(listing), nil
}

var (
	_ queries.Handler[ListHostListingsQuery, dto.ListingCollection] = (*ListHostListingsHandler)(nil)
	_ queries.Handler[GetHostListingQuery, dto.Listing]             = (*GetHostListingHandler)(nil)
	_ queries.Handler[GetListingQuery, dto.Listing]                 = (*GetListingHandler)(nil)
)
