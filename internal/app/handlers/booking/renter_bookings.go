package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/outbox"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
)

const (
	listRenterBookingsKey = "renter.bookings.list"
	cancelBookingKey      = "renter.bookings.cancel"
)

type ListRenterBookingsQuery struct {
	RenterID string
}

func (q ListRenterBookingsQuery) Key() string { return listRenterBookingsKey }

func (q ListRenterBookingsQuery) ActorID() string { return q.RenterID }

type ListRenterBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListRenterBookingsHandler) Handle(ctx context.Context, q ListRenterBookingsQuery) (dto.BookingCollection, error) {
	renterID := strings.TrimSpace(q.RenterID)
	if renterID == "" {
		return dto.BookingCollection{}, errRenterRequired
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByRenter(execCtx, domainbooking.RenterID(renterID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items, err := mapWithListings(execCtx, unit, bookings)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("renter bookings listed", "renter_id", renterID, "count", len(items))
	}
	return dto.BookingCollection{Items: items}, nil
}

type CancelBookingCommand struct {
	RenterID  string
	BookingID string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) ActorID() string { return c.RenterID }

func (c CancelBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return errBookingRequired
	}
	return nil
}

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*HostBookingActionResult, error) {
	renterID := domainbooking.RenterID(strings.TrimSpace(cmd.RenterID))
	if renterID == "" {
		return nil, errRenterRequired
	}
	var result HostBookingActionResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := b.Cancel(renterID, time.Now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := handlersupport.DrainEvents(ctx, unit, encoderOrDefault(h.Encoder), b); err != nil {
			return err
		}
		result = HostBookingActionResult{BookingID: string(b.ID), Status: string(b.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "booking_id", cmd.BookingID, "renter_id", renterID)
	}
	return &result, nil
}

var _ queries.Handler[ListRenterBookingsQuery, dto.BookingCollection] = (*ListRenterBookingsHandler)(nil)
var _ commands.Handler[CancelBookingCommand, *HostBookingActionResult] = (*CancelBookingHandler)(nil)
