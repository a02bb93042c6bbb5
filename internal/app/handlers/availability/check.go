package availability

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/uow"
	domainavailability "rigrent/internal/domain/availability"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/daterange"
	"rigrent/internal/domain/shared/errs"
)

const (
	checkAvailabilityKey      = "availability.check"
	checkAvailabilityBatchKey = "availability.check_batch"
	maxBatchListings          = 200
)

var (
	errNoListings      = errs.Validation("invalid_request", "availability: at least one listing id is required")
	errTooManyListings = errs.Validation("invalid_request", "availability: too many listing ids")
)

type CheckAvailabilityQuery struct {
	ListingID string
	StartDate string
	EndDate   string
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle answers available false for a well formed range that overlaps a
// blocked interval. Malformed ranges are errors, not unavailability.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	probe, err := daterange.Inclusive(q.StartDate, q.EndDate)
	if err != nil {
		return dto.Availability{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := publishedListing(execCtx, unit, q.ListingID)
	if err != nil {
		return dto.Availability{}, err
	}
	periods, err := unit.Bookings().ApprovedPeriods(execCtx, listing.ID)
	if err != nil {
		return dto.Availability{}, err
	}

	out := dto.Availability{
		ListingID: string(listing.ID),
		StartDate: daterange.FormatDate(probe.Start),
		EndDate:   daterange.FormatDate(probe.LastDay()),
		Available: true,
	}
	err = domainavailability.CheckRange(probe, domainavailability.BlockedIntervals(periods))
	switch {
	case errors.Is(err, domainavailability.ErrUnavailable):
		out.Available = false
	case err != nil:
		return dto.Availability{}, err
	}
	return out, nil
}

type CheckAvailabilityBatchQuery struct {
	ListingIDs []string
	StartDate  string
	EndDate    string
}

func (q CheckAvailabilityBatchQuery) Key() string { return checkAvailabilityBatchKey }

type CheckAvailabilityBatchHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

// Handle partitions the listings. A listing that is unknown, unpublished or
// whose calendar could not be read is reported as failed.
func (h *CheckAvailabilityBatchHandler) Handle(ctx context.Context, q CheckAvailabilityBatchQuery) (dto.AvailabilityBatch, error) {
	probe, err := daterange.Inclusive(q.StartDate, q.EndDate)
	if err != nil {
		return dto.AvailabilityBatch{}, err
	}
	ids := make([]domainlistings.ListingID, 0, len(q.ListingIDs))
	for _, raw := range q.ListingIDs {
		if id := strings.TrimSpace(raw); id != "" {
			ids = append(ids, domainlistings.ListingID(id))
		}
	}
	if len(ids) == 0 {
		return dto.AvailabilityBatch{}, errNoListings
	}
	if len(ids) > maxBatchListings {
		return dto.AvailabilityBatch{}, errTooManyListings
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AvailabilityBatch{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	found, err := unit.Listings().Search(execCtx, domainlistings.SearchParams{
		IDs:           ids,
		OnlyPublished: true,
		Limit:         maxBatchListings,
	})
	if err != nil {
		return dto.AvailabilityBatch{}, err
	}
	sources := make(map[domainlistings.ListingID]domainavailability.BlockSource, len(found))
	for _, listing := range found {
		periods, err := unit.Bookings().ApprovedPeriods(execCtx, listing.ID)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("calendar fetch failed", "listing_id", listing.ID, "err", err)
			}
			sources[listing.ID] = domainavailability.BlockSource{Err: err}
			continue
		}
		sources[listing.ID] = domainavailability.BlockSource{Blocks: domainavailability.BlockedIntervals(periods)}
	}

	result := domainavailability.Partition(probe, ids, sources)
	return dto.AvailabilityBatch{
		StartDate: daterange.FormatDate(probe.Start),
		EndDate:   daterange.FormatDate(probe.LastDay()),
		Available: idStrings(result.Available),
		Booked:    idStrings(result.Booked),
		Failed:    idStrings(result.Failed),
	}, nil
}

func publishedListing(ctx context.Context, unit uow.UnitOfWork, id string) (*domainlistings.Listing, error) {
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(strings.TrimSpace(id)))
	if err != nil {
		return nil, err
	}
	if !listing.Published() {
		return nil, domainbooking.ErrListingUnavailable
	}
	return listing, nil
}

func idStrings(ids []domainlistings.ListingID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

var _ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
var _ queries.Handler[CheckAvailabilityBatchQuery, dto.AvailabilityBatch] = (*CheckAvailabilityBatchHandler)(nil)
