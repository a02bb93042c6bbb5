package booking

import (
	"time"

	"rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	RenterID  RenterID           `json:"renter_id"`
	StartDate string             `json:"start_date"`
	EndDate   string             `json:"end_date"`
	Total     money.Money        `json:"total"`
	At        time.Time          `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	RenterID  RenterID           `json:"renter_id"`
	At        time.Time          `json:"at"`
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return string(e.BookingID) }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	Reason    string             `json:"reason,omitempty"`
	At        time.Time          `json:"at"`
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	At        time.Time          `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type HoursFinalized struct {
	BookingID     BookingID   `json:"booking_id"`
	Hours         int         `json:"hours"`
	ServiceCharge money.Money `json:"service_charge"`
	Total         money.Money `json:"total"`
	At            time.Time   `json:"at"`
}

func (e HoursFinalized) EventName() string     { return "booking.hours_finalized" }
func (e HoursFinalized) AggregateID() string   { return string(e.BookingID) }
func (e HoursFinalized) OccurredAt() time.Time { return e.At }
