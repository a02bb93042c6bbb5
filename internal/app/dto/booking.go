package dto

import (
	"time"

	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/daterange"
)

type BookingListingSnapshot struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type Booking struct {
	ID             string                 `json:"id"`
	Listing        BookingListingSnapshot `json:"listing"`
	RenterID       string                 `json:"renter_id"`
	StartDate      string                 `json:"start_date"`
	EndDate        string                 `json:"end_date"`
	BufferDays     int                    `json:"buffer_days"`
	Status         string                 `json:"status"`
	Message        string                 `json:"message,omitempty"`
	Pricing        *PricingBreakdown      `json:"pricing,omitempty"`
	EstimatedHours int                    `json:"estimated_hours,omitempty"`
	FinalHours     int                    `json:"final_hours,omitempty"`
	FinalizedAt    *time.Time             `json:"finalized_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	DecidedAt      *time.Time             `json:"decided_at,omitempty"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

// MapBooking renders a booking. listing may be nil when it was deleted.
func MapBooking(b *domainbooking.Booking, listing *domainlistings.Listing) Booking {
	out := Booking{
		ID:             string(b.ID),
		Listing:        BookingListingSnapshot{ID: string(b.ListingID)},
		RenterID:       string(b.RenterID),
		StartDate:      daterange.FormatDate(b.Start),
		EndDate:        daterange.FormatDate(b.End),
		BufferDays:     b.BufferDays,
		Status:         string(b.Status),
		Message:        b.Message,
		EstimatedHours: b.Snapshot.EstimatedHours,
		FinalHours:     b.Snapshot.FinalHours,
		FinalizedAt:    b.Snapshot.FinalizedAt,
		CreatedAt:      b.CreatedAt,
		DecidedAt:      b.DecidedAt,
	}
	if listing != nil {
		out.Listing.Title = listing.Title
		out.Listing.Category = listing.Category
	}
	if breakdown, err := b.Breakdown(); err == nil {
		mapped := MapBreakdown(breakdown)
		out.Pricing = &mapped
	}
	return out
}
