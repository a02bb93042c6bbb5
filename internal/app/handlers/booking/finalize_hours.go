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
	"rigrent/internal/app/policies"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
)

const finalizeHoursKey = "host.bookings.finalize_hours"

type FinalizeHoursCommand struct {
	OwnerID   string
	BookingID string
	Hours     int
}

func (c FinalizeHoursCommand) Key() string { return finalizeHoursKey }

func (c FinalizeHoursCommand) ActorID() string { return c.OwnerID }

func (c FinalizeHoursCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return errBookingRequired
	}
	return nil
}

type FinalizeHoursResult struct {
	BookingID   string               `json:"booking_id"`
	FinalHours  int                  `json:"final_hours"`
	FinalizedAt time.Time            `json:"finalized_at"`
	Pricing     dto.PricingBreakdown `json:"pricing"`
}

// FinalizeHoursHandler bills the actual operator hours once. The save is
// version checked, so of two concurrent finalizations only one commits.
type FinalizeHoursHandler struct {
	UoWFactory uow.UoWFactory
	Platform   policies.Platform
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *FinalizeHoursHandler) Handle(ctx context.Context, cmd FinalizeHoursCommand) (*FinalizeHoursResult, error) {
	ownerID := domainlistings.OwnerID(strings.TrimSpace(cmd.OwnerID))
	if ownerID == "" {
		return nil, errOwnerRequired
	}
	var result FinalizeHoursResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if b.OwnerID != ownerID {
			return domainbooking.ErrNotOwner
		}
		listing, err := unit.Listings().ByID(ctx, b.ListingID)
		if err != nil {
			return err
		}
		hourCap := h.Platform.HourCap(listing.Services.Operator)

		breakdown, err := b.FinalizeHours(ownerID, cmd.Hours, hourCap, time.Now())
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := handlersupport.DrainEvents(ctx, unit, encoderOrDefault(h.Encoder), b); err != nil {
			return err
		}
		result = FinalizeHoursResult{
			BookingID:   string(b.ID),
			FinalHours:  b.Snapshot.FinalHours,
			FinalizedAt: *b.Snapshot.FinalizedAt,
			Pricing:     dto.MapBreakdown(breakdown),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("operator hours finalized", "booking_id", result.BookingID, "owner_id", ownerID, "hours", result.FinalHours)
	}
	return &result, nil
}

var _ commands.Handler[FinalizeHoursCommand, *FinalizeHoursResult] = (*FinalizeHoursHandler)(nil)
