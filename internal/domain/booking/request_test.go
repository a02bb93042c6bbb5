package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigrent/internal/domain/availability"
	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/pricing"
	"rigrent/internal/domain/shared/daterange"
	"rigrent/internal/domain/shared/money"
)

func excavator(t *testing.T, mutate func(*listings.Terms)) *listings.Listing {
	t.Helper()
	terms := listings.Terms{
		Title:           "Mini excavator",
		Category:        "excavator",
		TurnaroundDays:  1,
		MinRentalDays:   2,
		MaxRentalDays:   10,
		LicenseRequired: true,
		LicenseType:     "class B",
		DailyRate:       money.Must(15000, "USD"),
		Deposit:         money.Must(50000, "USD"),
		Delivery: listings.DeliveryConfig{
			Mode:            listings.DeliveryAvailable,
			Fee:             money.Must(5000, "USD"),
			DiscountEnabled: true,
			DiscountAmount:  money.Must(2000, "USD"),
		},
		Services: listings.Services{
			Operator: listings.ServiceOffering{
				DailyEnabled:  true,
				HourlyEnabled: true,
				DailyRate:     money.Must(8000, "USD"),
				HourlyRate:    money.Must(2500, "USD"),
				MaxHours:      40,
			},
		},
	}
	if mutate != nil {
		mutate(&terms)
	}
	l, err := listings.NewListing(listings.CreateListingParams{ID: "listing-1", Owner: "owner-1", Terms: terms, Now: now})
	require.NoError(t, err)
	require.NoError(t, l.Publish(now))
	return l
}

func noPeriods() ([]availability.BookedPeriod, error) { return nil, nil }

func licensed() Rules {
	return Rules{LicensedCategory: true, HourCap: func(o listings.ServiceOffering) int { return o.HourCap(100) }}
}

func TestScreenAcceptsAndPricesServerSide(t *testing.T) {
	l := excavator(t, nil)
	req := Request{
		StartDate: "2024-06-01",
		EndDate:   "2024-06-03",
		Selection: pricing.Selection{Delivery: true, Service: listings.ServiceOperator, Unit: listings.UnitDay},
	}

	out, err := Screen(l, req, licensed(), noPeriods)

	require.NoError(t, err)
	assert.Equal(t, date(t, "2024-06-01"), out.Start)
	assert.Equal(t, date(t, "2024-06-03"), out.End)
	assert.Equal(t, int64(79200), out.Quote.Total.Amount)
	assert.Equal(t, int64(3000), out.Quote.DeliveryCharge.Amount)
}

func TestScreenChecksInOrder(t *testing.T) {
	unpublished := excavator(t, nil)
	require.NoError(t, unpublished.Unpublish(now))

	failingPeriods := func() ([]availability.BookedPeriod, error) {
		return nil, errors.New("store down")
	}

	cases := []struct {
		name    string
		listing *listings.Listing
		req     Request
		periods func() ([]availability.BookedPeriod, error)
		want    error
	}{
		{
			name:    "unpublished listing wins over bad dates",
			listing: unpublished,
			req:     Request{StartDate: "bogus", EndDate: "2024-06-01"},
			want:    ErrListingUnavailable,
		},
		{
			name:    "bad date before license",
			listing: excavator(t, nil),
			req:     Request{StartDate: "2024-02-30", EndDate: "2024-03-02"},
			want:    daterange.ErrInvalidDate,
		},
		{
			name:    "inverted range",
			listing: excavator(t, nil),
			req:     Request{StartDate: "2024-06-05", EndDate: "2024-06-01"},
			want:    daterange.ErrInvertedRange,
		},
		{
			name:    "license before rental length",
			listing: excavator(t, nil),
			req:     Request{StartDate: "2024-06-01", EndDate: "2024-06-01"},
			want:    ErrLicenseRequired,
		},
		{
			name:    "too short",
			listing: excavator(t, nil),
			req:     Request{StartDate: "2024-06-01", EndDate: "2024-06-01", LicenseAttested: true},
			want:    ErrRentalTooShort,
		},
		{
			name:    "too long",
			listing: excavator(t, nil),
			req:     Request{StartDate: "2024-06-01", EndDate: "2024-06-20", LicenseAttested: true},
			want:    ErrRentalTooLong,
		},
		{
			name:    "periods fetched only after length checks",
			listing: excavator(t, nil),
			req:     Request{StartDate: "2024-06-01", EndDate: "2024-06-20", LicenseAttested: true},
			periods: failingPeriods,
			want:    ErrRentalTooLong,
		},
		{
			name:    "delivery not offered",
			listing: excavator(t, func(t *listings.Terms) { t.Delivery.Mode = listings.DeliveryPickupOnly }),
			req: Request{StartDate: "2024-06-01", EndDate: "2024-06-02", LicenseAttested: true,
				Selection: pricing.Selection{Delivery: true}},
			want: ErrDeliveryNotOffered,
		},
		{
			name:    "delivery only",
			listing: excavator(t, func(t *listings.Terms) { t.Delivery.Mode = listings.DeliveryOnly }),
			req:     Request{StartDate: "2024-06-01", EndDate: "2024-06-02", LicenseAttested: true},
			want:    ErrDeliveryRequired,
		},
		{
			name:    "driver not enabled",
			listing: excavator(t, nil),
			req: Request{StartDate: "2024-06-01", EndDate: "2024-06-02", LicenseAttested: true,
				Selection: pricing.Selection{Service: listings.ServiceDriver, Unit: listings.UnitDay}},
			want: ErrServiceNotOffered,
		},
		{
			name:    "hours above cap",
			listing: excavator(t, nil),
			req: Request{StartDate: "2024-06-01", EndDate: "2024-06-02",
				Selection: pricing.Selection{Service: listings.ServiceOperator, Unit: listings.UnitHour, Hours: 41}},
			want: ErrHoursOutOfRange,
		},
		{
			name:    "zero hours",
			listing: excavator(t, nil),
			req: Request{StartDate: "2024-06-01", EndDate: "2024-06-02",
				Selection: pricing.Selection{Service: listings.ServiceOperator, Unit: listings.UnitHour}},
			want: ErrHoursOutOfRange,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			periods := tc.periods
			if periods == nil {
				periods = noPeriods
			}
			_, err := Screen(tc.listing, tc.req, licensed(), periods)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestScreenRejectsBlockedDates(t *testing.T) {
	l := excavator(t, nil)
	approved := func() ([]availability.BookedPeriod, error) {
		return []availability.BookedPeriod{{
			BookingID:  "a",
			Start:      date(t, "2024-06-01"),
			End:        date(t, "2024-06-03"),
			BufferDays: 1,
			Approved:   true,
		}}, nil
	}

	_, err := Screen(l, Request{StartDate: "2024-06-03", EndDate: "2024-06-05", LicenseAttested: true}, licensed(), approved)
	assert.ErrorIs(t, err, availability.ErrUnavailable)

	_, err = Screen(l, Request{StartDate: "2024-06-04", EndDate: "2024-06-06", LicenseAttested: true}, licensed(), approved)
	assert.ErrorIs(t, err, availability.ErrUnavailable, "buffer day")

	_, err = Screen(l, Request{StartDate: "2024-06-05", EndDate: "2024-06-07", LicenseAttested: true}, licensed(), approved)
	assert.NoError(t, err)
}

func TestScreenLicenseRuleNeedsPlatformCategory(t *testing.T) {
	l := excavator(t, nil)
	req := Request{StartDate: "2024-06-01", EndDate: "2024-06-02"}

	_, err := Screen(l, req, Rules{}, noPeriods)
	assert.NoError(t, err)

	req.Selection = pricing.Selection{Service: listings.ServiceOperator, Unit: listings.UnitHour, Hours: 6}
	out, err := Screen(l, req, licensed(), noPeriods)
	require.NoError(t, err)
	assert.True(t, out.Quote.HourlyEstimate)
	assert.Equal(t, int64(15000), out.Quote.ServiceCharge.Amount)
}

func TestScreenUsesPlatformCapWhenOfferingHasNone(t *testing.T) {
	l := excavator(t, func(t *listings.Terms) { t.Services.Operator.MaxHours = 0 })
	req := Request{StartDate: "2024-06-01", EndDate: "2024-06-02",
		Selection: pricing.Selection{Service: listings.ServiceOperator, Unit: listings.UnitHour, Hours: 100}}

	_, err := Screen(l, req, licensed(), noPeriods)
	assert.NoError(t, err)

	req.Selection.Hours = 101
	_, err = Screen(l, req, licensed(), noPeriods)
	assert.ErrorIs(t, err, ErrHoursOutOfRange)
}
