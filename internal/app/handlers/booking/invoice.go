package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/services/invoicing"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
)

const getInvoiceKey = "bookings.invoice"

// GetInvoiceQuery is answered for the renter and the listing owner only.
type GetInvoiceQuery struct {
	UserID    string
	BookingID string
}

func (q GetInvoiceQuery) Key() string { return getInvoiceKey }

func (q GetInvoiceQuery) ActorID() string { return q.UserID }

type GetInvoiceHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *GetInvoiceHandler) Handle(ctx context.Context, q GetInvoiceQuery) (dto.Invoice, error) {
	if strings.TrimSpace(q.BookingID) == "" {
		return dto.Invoice{}, errBookingRequired
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Invoice{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Invoice{}, err
	}
	if !b.Participant(strings.TrimSpace(q.UserID)) {
		return dto.Invoice{}, domainbooking.ErrNotParticipant
	}
	listing, err := unit.Listings().ByID(execCtx, b.ListingID)
	if err != nil && !errors.Is(err, domainlistings.ErrListingNotFound) {
		return dto.Invoice{}, err
	}
	inv, err := invoicing.Build(b, listing, time.Now())
	if err != nil {
		return dto.Invoice{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("invoice built", "booking_id", b.ID, "user_id", q.UserID)
	}
	return inv, nil
}

var _ queries.Handler[GetInvoiceQuery, dto.Invoice] = (*GetInvoiceHandler)(nil)
