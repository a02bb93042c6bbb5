package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/middleware"
	"rigrent/internal/app/outbox"
	"rigrent/internal/app/policies"
	"rigrent/internal/app/uow"
	domainavailability "rigrent/internal/domain/availability"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/pricing"
	"rigrent/internal/domain/shared/errs"
)

const requestBookingKey = "booking.request"

var (
	errRenterRequired  = errs.Validation("invalid_request", "booking: renter id is required")
	errListingRequired = errs.Validation("invalid_request", "booking: listing id is required")
	errBookingRequired = errs.Validation("invalid_request", "booking: booking id is required")
	errOwnerRequired   = errs.Validation("invalid_request", "booking: owner id is required")
)

// RequestBookingCommand carries the renter's selections. There is no amount
// field: every charge is computed from the listing.
type RequestBookingCommand struct {
	CommandID       string
	ListingID       string
	RenterID        string
	RenterEmail     string
	StartDate       string
	EndDate         string
	Delivery        bool
	Service         string
	Unit            string
	Hours           int
	LicenseAttested bool
	Message         string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) ActorID() string { return c.RenterID }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &dto.Booking{} }

func (c RequestBookingCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return errListingRequired
	}
	return nil
}

func (c RequestBookingCommand) selection() (pricing.Selection, error) {
	choice, err := domainlistings.ParseServiceChoice(c.Service)
	if err != nil {
		return pricing.Selection{}, err
	}
	unit, err := domainlistings.ParseBillingUnit(c.Unit)
	if err != nil {
		return pricing.Selection{}, err
	}
	return pricing.Selection{Delivery: c.Delivery, Service: choice, Unit: unit, Hours: c.Hours}, nil
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Platform   policies.Platform
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.Booking, error) {
	if strings.TrimSpace(cmd.RenterID) == "" {
		return nil, errRenterRequired
	}
	sel, err := cmd.selection()
	if err != nil {
		return nil, err
	}

	var result dto.Booking
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
		if err != nil {
			return err
		}
		screened, err := domainbooking.Screen(listing, domainbooking.Request{
			StartDate:       cmd.StartDate,
			EndDate:         cmd.EndDate,
			LicenseAttested: cmd.LicenseAttested,
			Selection:       sel,
		}, domainbooking.Rules{
			LicensedCategory: h.Platform.RequiresLicense(listing.Category),
			HourCap:          h.Platform.HourCap,
		}, func() ([]domainavailability.BookedPeriod, error) {
			return unit.Bookings().ApprovedPeriods(ctx, listing.ID)
		})
		if err != nil {
			return err
		}

		id := cmd.CommandID
		if id == "" {
			id = uuid.NewString()
		}
		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:              domainbooking.BookingID(id),
			ListingID:       listing.ID,
			OwnerID:         listing.Owner,
			RenterID:        domainbooking.RenterID(cmd.RenterID),
			RenterEmail:     strings.TrimSpace(cmd.RenterEmail),
			Start:           screened.Start,
			End:             screened.End,
			BufferDays:      listing.TurnaroundDays,
			Terms:           screened.Terms,
			Message:         strings.TrimSpace(cmd.Message),
			LicenseAttested: cmd.LicenseAttested,
			CreatedAt:       time.Now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := handlersupport.DrainEvents(ctx, unit, encoderOrDefault(h.Encoder), b); err != nil {
			return err
		}
		result = dto.MapBooking(b, listing)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking requested",
			"booking_id", result.ID,
			"listing_id", cmd.ListingID,
			"renter_id", cmd.RenterID,
			"start", result.StartDate,
			"end", result.EndDate)
	}
	return &result, nil
}

var _ commands.Handler[RequestBookingCommand, *dto.Booking] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
