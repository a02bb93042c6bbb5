package pricing

import (
	"context"
	"log/slog"
	"strings"

	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/policies"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	domainpricing "rigrent/internal/domain/pricing"
	"rigrent/internal/domain/shared/daterange"
)

const quoteKey = "pricing.quote"

// QuoteQuery prices a prospective rental. Like a booking request it carries
// selections only.
type QuoteQuery struct {
	ListingID string
	StartDate string
	EndDate   string
	Delivery  bool
	Service   string
	Unit      string
	Hours     int
}

func (q QuoteQuery) Key() string { return quoteKey }

type QuoteHandler struct {
	UoWFactory uow.UoWFactory
	Platform   policies.Platform
	Logger     *slog.Logger
}

// Handle returns the same breakdown a booking request for these inputs would
// freeze. Availability and rental length are not checked here.
func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.PricingBreakdown, error) {
	probe, err := daterange.Inclusive(q.StartDate, q.EndDate)
	if err != nil {
		return dto.PricingBreakdown{}, err
	}
	choice, err := domainlistings.ParseServiceChoice(q.Service)
	if err != nil {
		return dto.PricingBreakdown{}, err
	}
	unit, err := domainlistings.ParseBillingUnit(q.Unit)
	if err != nil {
		return dto.PricingBreakdown{}, err
	}

	uw, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PricingBreakdown{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := uw.Listings().ByID(execCtx, domainlistings.ListingID(strings.TrimSpace(q.ListingID)))
	if err != nil {
		return dto.PricingBreakdown{}, err
	}
	if !listing.Published() {
		return dto.PricingBreakdown{}, domainbooking.ErrListingUnavailable
	}

	sel, err := domainbooking.CheckSelection(listing, domainpricing.Selection{
		Delivery: q.Delivery,
		Service:  choice,
		Unit:     unit,
		Hours:    q.Hours,
	}, h.Platform.HourCap)
	if err != nil {
		return dto.PricingBreakdown{}, err
	}
	breakdown, err := domainpricing.Quote(probe.Start, probe.LastDay(), domainpricing.TermsFor(listing, sel))
	if err != nil {
		return dto.PricingBreakdown{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("quote computed", "listing_id", listing.ID, "days", breakdown.Days, "total", breakdown.Total.String())
	}
	return dto.MapBreakdown(breakdown), nil
}

var _ queries.Handler[QuoteQuery, dto.PricingBreakdown] = (*QuoteHandler)(nil)
