package pricing

import (
	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/money"
)

// Selection is what a renter chooses. It never carries amounts: prices always
// come from the listing.
type Selection struct {
	Delivery bool
	Service  listings.ServiceChoice
	Unit     listings.BillingUnit
	Hours    int
}

// TermsFor freezes the listing's current rates for a selection. The caller is
// responsible for checking the selection is allowed by the listing.
func TermsFor(l *listings.Listing, sel Selection) Terms {
	currency := l.Currency()
	terms := Terms{
		DailyRate: l.DailyRate,
		Deposit:   l.Deposit,
		Delivery: Delivery{
			BaseFee:        money.Zero(currency),
			DiscountAmount: money.Zero(currency),
		},
		Service: Service{Choice: listings.ServiceNone, Rate: money.Zero(currency)},
	}
	if sel.Delivery {
		terms.Delivery = Delivery{
			Selected:        true,
			BaseFee:         l.Delivery.Fee,
			DiscountEnabled: l.Delivery.DiscountEnabled,
			DiscountAmount:  l.Delivery.DiscountAmount,
		}
	}
	if offering, ok := l.Services.Offering(sel.Service); ok {
		unit := sel.Unit
		if unit == "" {
			unit = listings.UnitDay
		}
		terms.Service = Service{
			Choice: sel.Service,
			Unit:   unit,
			Rate:   offering.Rate(unit),
		}
		if unit == listings.UnitHour {
			terms.Service.Quantity = sel.Hours
		}
	}
	return terms
}

// Line is one row of a rendered invoice.
type Line struct {
	Label  string
	Amount money.Money
}

// Lines lists the breakdown in invoice order.
func (b Breakdown) Lines() []Line {
	lines := []Line{{Label: "Rental", Amount: b.DailySubtotal}}
	if b.DeliveryFee.IsPositive() {
		lines = append(lines, Line{Label: "Delivery", Amount: b.DeliveryFee})
		if b.DeliveryDiscount.IsPositive() {
			lines = append(lines, Line{Label: "Delivery discount", Amount: money.Money{Amount: -b.DeliveryDiscount.Amount, Currency: b.DeliveryDiscount.Currency}})
		}
	}
	if b.ServiceChoice != listings.ServiceNone && b.ServiceChoice != "" {
		lines = append(lines, Line{Label: serviceLabel(b.ServiceChoice), Amount: b.ServiceCharge})
	}
	lines = append(lines,
		Line{Label: "Service fee", Amount: b.ServiceFee},
		Line{Label: "Total", Amount: b.Total},
		Line{Label: "Deposit", Amount: b.Deposit},
		Line{Label: "Total with deposit", Amount: b.TotalWithDeposit},
	)
	return lines
}

func serviceLabel(choice listings.ServiceChoice) string {
	switch choice {
	case listings.ServiceDriver:
		return "Driver"
	case listings.ServiceDriverLabor:
		return "Driver and labor"
	case listings.ServiceOperator:
		return "Operator"
	}
	return string(choice)
}
