package availability

import (
	"context"
	"log/slog"

	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/uow"
	domainavailability "rigrent/internal/domain/availability"
)

const getCalendarKey = "availability.calendar"

// GetCalendarQuery lists the blocked intervals of a listing so clients can
// grey out days before submitting a request.
type GetCalendarQuery struct {
	ListingID string
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := publishedListing(execCtx, unit, q.ListingID)
	if err != nil {
		return dto.Calendar{}, err
	}
	periods, err := unit.Bookings().ApprovedPeriods(execCtx, listing.ID)
	if err != nil {
		return dto.Calendar{}, err
	}
	blocks := domainavailability.BlockedIntervals(periods)
	if h.Logger != nil {
		h.Logger.Debug("calendar served", "listing_id", listing.ID, "blocks", len(blocks))
	}
	return dto.MapCalendar(string(listing.ID), blocks), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
