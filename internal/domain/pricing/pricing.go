// Package pricing holds the one formula used for quotes, booking snapshots,
// invoices and hourly finalization.
package pricing

import (
	"time"

	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/daterange"
	"rigrent/internal/domain/shared/errs"
	"rigrent/internal/domain/shared/money"
)

// ServiceFeePercent is the platform fee applied to the pre-fee total.
const ServiceFeePercent = 10

var (
	ErrCurrencyUnset     = errs.Validation("currency_unset", "pricing: daily rate currency must be defined")
	ErrCurrencyMismatch  = errs.Validation("currency_mismatch", "pricing: all amounts must share the daily rate currency")
	ErrNegativeComponent = errs.Validation("negative_amount", "pricing: amounts cannot be negative")
	ErrHoursRequired     = errs.Validation("hours_required", "pricing: hourly service needs at least one hour")
	ErrUnknownService    = errs.Validation("unknown_service", "pricing: unknown service choice or unit")
)

// Delivery is the frozen delivery selection of a booking.
type Delivery struct {
	Selected        bool        `json:"selected" bson:"selected"`
	BaseFee         money.Money `json:"base_fee" bson:"base_fee"`
	DiscountEnabled bool        `json:"discount_enabled" bson:"discount_enabled"`
	DiscountAmount  money.Money `json:"discount_amount" bson:"discount_amount"`
}

// Service is the frozen service selection. Quantity is ignored for daily
// billing, where the service spans the whole rental. For hourly billing it is
// the estimated hours until Final is set.
type Service struct {
	Choice   listings.ServiceChoice `json:"choice" bson:"choice"`
	Unit     listings.BillingUnit   `json:"unit" bson:"unit"`
	Rate     money.Money            `json:"rate" bson:"rate"`
	Quantity int                    `json:"quantity" bson:"quantity"`
	Final    bool                   `json:"final" bson:"final"`
}

func (s Service) Hourly() bool {
	return s.Choice != listings.ServiceNone && s.Choice != "" && s.Unit == listings.UnitHour
}

// Terms is every pricing input besides the dates.
type Terms struct {
	DailyRate money.Money `json:"daily_rate" bson:"daily_rate"`
	Deposit   money.Money `json:"deposit" bson:"deposit"`
	Delivery  Delivery    `json:"delivery" bson:"delivery"`
	Service   Service     `json:"service" bson:"service"`
}

type Breakdown struct {
	Days             int
	DailyRate        money.Money
	DailySubtotal    money.Money
	DeliveryFee      money.Money
	DeliveryDiscount money.Money
	DeliveryCharge   money.Money
	ServiceChoice    listings.ServiceChoice
	ServiceUnit      listings.BillingUnit
	ServiceRate      money.Money
	ServiceQuantity  int
	ServiceCharge    money.Money
	AddOnCharge      money.Money
	PreFeeTotal      money.Money
	ServiceFee       money.Money
	Total            money.Money
	Deposit          money.Money
	TotalWithDeposit money.Money
	HourlyEstimate   bool
}

// Quote prices the inclusive rental [start, end] under terms.
func Quote(start, end time.Time, terms Terms) (Breakdown, error) {
	currency := terms.DailyRate.Currency
	if currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}
	days := daterange.InclusiveDays(start.UTC(), end.UTC())
	if days < 1 {
		return Breakdown{}, daterange.ErrInvertedRange
	}
	rate, err := normalize(currency, terms.DailyRate)
	if err != nil {
		return Breakdown{}, err
	}
	deposit, err := normalize(currency, terms.Deposit)
	if err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{
		Days:             days,
		DailyRate:        rate,
		DailySubtotal:    rate.Multiply(int64(days)),
		DeliveryFee:      money.Zero(currency),
		DeliveryDiscount: money.Zero(currency),
		DeliveryCharge:   money.Zero(currency),
		ServiceChoice:    listings.ServiceNone,
		ServiceRate:      money.Zero(currency),
		ServiceCharge:    money.Zero(currency),
		Deposit:          deposit,
	}

	service := terms.Service
	if service.Choice == "" {
		service.Choice = listings.ServiceNone
	}

	if terms.Delivery.Selected {
		if err := b.applyDelivery(currency, terms.Delivery, service.Choice != listings.ServiceNone); err != nil {
			return Breakdown{}, err
		}
	}
	if service.Choice != listings.ServiceNone {
		if err := b.applyService(currency, service); err != nil {
			return Breakdown{}, err
		}
	}

	b.AddOnCharge = mustAdd(b.DeliveryCharge, b.ServiceCharge)
	b.PreFeeTotal = mustAdd(b.DailySubtotal, b.AddOnCharge)
	b.ServiceFee = b.PreFeeTotal.Percent(ServiceFeePercent)
	b.Total = mustAdd(b.PreFeeTotal, b.ServiceFee)
	b.TotalWithDeposit = mustAdd(b.Total, b.Deposit)
	return b, nil
}

func (b *Breakdown) applyDelivery(currency string, d Delivery, withService bool) error {
	base, err := normalize(currency, d.BaseFee)
	if err != nil {
		return err
	}
	discount, err := normalize(currency, d.DiscountAmount)
	if err != nil {
		return err
	}
	b.DeliveryFee = base
	if d.DiscountEnabled && withService && base.IsPositive() && discount.IsPositive() {
		b.DeliveryDiscount = base.Min(discount)
	}
	charge, _ := base.Sub(b.DeliveryDiscount)
	b.DeliveryCharge = charge.ClampZero()
	return nil
}

func (b *Breakdown) applyService(currency string, s Service) error {
	rate, err := normalize(currency, s.Rate)
	if err != nil {
		return err
	}
	var quantity int
	switch s.Unit {
	case listings.UnitDay:
		quantity = b.Days
	case listings.UnitHour:
		if s.Quantity < 1 {
			return ErrHoursRequired
		}
		quantity = s.Quantity
		b.HourlyEstimate = !s.Final
	default:
		return ErrUnknownService
	}
	b.ServiceChoice = s.Choice
	b.ServiceUnit = s.Unit
	b.ServiceRate = rate
	b.ServiceQuantity = quantity
	b.ServiceCharge = rate.Multiply(int64(quantity))
	return nil
}

// normalize brings an amount into the quote currency. Unset zero amounts adopt
// it; anything else must already match.
func normalize(currency string, m money.Money) (money.Money, error) {
	if m.Amount < 0 {
		return money.Money{}, ErrNegativeComponent
	}
	if m.Currency == "" {
		if m.Amount != 0 {
			return money.Money{}, ErrCurrencyMismatch
		}
		return money.Zero(currency), nil
	}
	if m.Currency != currency {
		return money.Money{}, ErrCurrencyMismatch
	}
	return m, nil
}

// mustAdd is only called on normalized amounts of one currency.
func mustAdd(a, b money.Money) money.Money {
	sum, err := a.Add(b)
	if err != nil {
		panic(err)
	}
	return sum
}
