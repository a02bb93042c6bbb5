package dto

import (
	"time"

	"rigrent/internal/domain/pricing"
)

type InvoiceLine struct {
	Label  string   `json:"label"`
	Amount MoneyDTO `json:"amount"`
}

// Invoice fields come verbatim from the pricing breakdown of the booking.
type Invoice struct {
	Number       string           `json:"number"`
	BookingID    string           `json:"booking_id"`
	ListingTitle string           `json:"listing_title"`
	RenterID     string           `json:"renter_id"`
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	Status       string           `json:"status"`
	Lines        []InvoiceLine    `json:"lines"`
	Breakdown    PricingBreakdown `json:"breakdown"`
	IssuedAt     time.Time        `json:"issued_at"`
}

func MapInvoiceLines(lines []pricing.Line) []InvoiceLine {
	out := make([]InvoiceLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, InvoiceLine{Label: l.Label, Amount: MapMoney(l.Amount)})
	}
	return out
}
