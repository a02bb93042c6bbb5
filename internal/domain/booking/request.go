package booking

import (
	"fmt"
	"time"

	"rigrent/internal/domain/availability"
	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/pricing"
	"rigrent/internal/domain/shared/daterange"
	"rigrent/internal/domain/shared/errs"
)

var (
	ErrListingUnavailable = errs.NotFound("listing_unavailable", "booking: listing is not open for requests")
	ErrLicenseRequired    = errs.Validation("license_required", "booking: a license is required unless the operator service is booked")
	ErrRentalTooShort     = errs.Validation("rental_too_short", "booking: rental is shorter than the listing minimum")
	ErrRentalTooLong      = errs.Validation("rental_too_long", "booking: rental is longer than the listing maximum")
	ErrDeliveryNotOffered = errs.Validation("delivery_not_offered", "booking: listing does not deliver")
	ErrDeliveryRequired   = errs.Validation("delivery_required", "booking: listing is delivery only")
	ErrServiceNotOffered  = errs.Validation("service_not_offered", "booking: service is not enabled for the requested unit")
	ErrServiceRateMissing = errs.Validation("service_rate_missing", "booking: service has no rate for the requested unit")
)

// Request is what a renter submits. It carries selections only, never amounts.
type Request struct {
	StartDate       string
	EndDate         string
	LicenseAttested bool
	Selection       pricing.Selection
}

// Rules are the platform inputs to screening.
type Rules struct {
	// LicensedCategory is true when the platform treats the listing's
	// category as license gated.
	LicensedCategory bool
	HourCap          func(listings.ServiceOffering) int
}

// Screened is an accepted request.
type Screened struct {
	Start time.Time
	End   time.Time
	Terms pricing.Terms
	Quote pricing.Breakdown
}

// Screen runs the request checks in order and stops at the first failure.
// periods is only called once the cheaper checks passed.
func Screen(l *listings.Listing, req Request, rules Rules, periods func() ([]availability.BookedPeriod, error)) (Screened, error) {
	if l == nil || !l.Published() {
		return Screened{}, ErrListingUnavailable
	}

	probe, err := daterange.Inclusive(req.StartDate, req.EndDate)
	if err != nil {
		return Screened{}, err
	}
	start, end := probe.Start, probe.LastDay()

	sel := req.Selection
	if sel.Service == "" {
		sel.Service = listings.ServiceNone
	}
	if rules.LicensedCategory && l.LicenseRequired && !req.LicenseAttested && sel.Service != listings.ServiceOperator {
		return Screened{}, fmt.Errorf("%w: %s", ErrLicenseRequired, l.LicenseType)
	}

	tooShort, tooLong := l.RentalDaysAllowed(daterange.InclusiveDays(start, end))
	if tooShort {
		return Screened{}, fmt.Errorf("%w: minimum is %d days", ErrRentalTooShort, l.MinRentalDays)
	}
	if tooLong {
		return Screened{}, fmt.Errorf("%w: maximum is %d days", ErrRentalTooLong, l.MaxRentalDays)
	}

	approved, err := periods()
	if err != nil {
		return Screened{}, err
	}
	if err := availability.CheckRange(probe, availability.BlockedIntervals(approved)); err != nil {
		return Screened{}, err
	}

	sel, err = CheckSelection(l, sel, rules.HourCap)
	if err != nil {
		return Screened{}, err
	}

	terms := pricing.TermsFor(l, sel)
	quote, err := pricing.Quote(start, end, terms)
	if err != nil {
		return Screened{}, err
	}
	return Screened{Start: start, End: end, Terms: terms, Quote: quote}, nil
}

// CheckSelection verifies the delivery and service choices against the
// listing and returns the normalized selection. hourCap may be nil, in which
// case the offering's own cap applies.
func CheckSelection(l *listings.Listing, sel pricing.Selection, hourCap func(listings.ServiceOffering) int) (pricing.Selection, error) {
	if sel.Service == "" {
		sel.Service = listings.ServiceNone
	}
	if sel.Delivery && !l.Delivery.Offered() {
		return pricing.Selection{}, ErrDeliveryNotOffered
	}
	if !sel.Delivery && l.Delivery.Required() {
		return pricing.Selection{}, ErrDeliveryRequired
	}
	if sel.Service == listings.ServiceNone {
		sel.Unit = ""
		sel.Hours = 0
		return sel, nil
	}
	if sel.Unit == "" {
		sel.Unit = listings.UnitDay
	}
	offering, ok := l.Services.Offering(sel.Service)
	if !ok || !offering.Enabled(sel.Unit) {
		return pricing.Selection{}, ErrServiceNotOffered
	}
	if !offering.Rate(sel.Unit).IsPositive() {
		return pricing.Selection{}, ErrServiceRateMissing
	}
	if sel.Unit == listings.UnitHour {
		limit := offering.MaxHours
		if hourCap != nil {
			limit = hourCap(offering)
		}
		if sel.Hours < 1 || (limit > 0 && sel.Hours > limit) {
			return pricing.Selection{}, fmt.Errorf("%w: 1..%d", ErrHoursOutOfRange, limit)
		}
	} else {
		sel.Hours = 0
	}
	return sel, nil
}
