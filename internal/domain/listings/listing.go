package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"rigrent/internal/domain/shared/errs"
	"rigrent/internal/domain/shared/events"
	"rigrent/internal/domain/shared/money"
)

var (
	ErrRentalDaysRange  = errs.Validation("invalid_listing", "listings: min rental days must be <= max rental days")
	ErrRentalDays       = errs.Validation("invalid_listing", "listings: rental day bounds must be non-negative")
	ErrTurnaround       = errs.Validation("invalid_listing", "listings: turnaround days must be non-negative")
	ErrTitleRequired    = errs.Validation("invalid_listing", "listings: title is required")
	ErrCategory         = errs.Validation("invalid_listing", "listings: category is required")
	ErrDailyRate        = errs.Validation("invalid_listing", "listings: daily rate must be positive")
	ErrDeposit          = errs.Validation("invalid_listing", "listings: deposit must be non-negative")
	ErrLicenseType      = errs.Validation("invalid_listing", "listings: license type is required when a license is required")
	ErrInvalidState     = errs.Conflict("invalid_transition", "listings: invalid state transition")
	ErrListingNotFound  = errs.NotFound("listing_not_found", "listings: not found")
	ErrNotOwner         = errs.Forbidden("forbidden", "listings: only the owner may change this listing")
	ErrConcurrentUpdate = errs.Conflict("concurrent_update", "listings: modified concurrently")
)

type ListingID string
type OwnerID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingPublished ListingState = "PUBLISHED"
)

// Listing is a rentable piece of equipment. Only its owner may change it.
type Listing struct {
	ID              ListingID
	Owner           OwnerID
	Title           string
	Description     string
	Category        string
	State           ListingState
	TurnaroundDays  int
	MinRentalDays   int
	MaxRentalDays   int
	LicenseRequired bool
	LicenseType     string
	DailyRate       money.Money
	Deposit         money.Money
	Delivery        DeliveryConfig
	Services        Services
	Photos          []string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) ([]*Listing, error)
}

// Terms are the owner editable attributes of a listing.
type Terms struct {
	Title           string
	Description     string
	Category        string
	TurnaroundDays  int
	MinRentalDays   int
	MaxRentalDays   int
	LicenseRequired bool
	LicenseType     string
	DailyRate       money.Money
	Deposit         money.Money
	Delivery        DeliveryConfig
	Services        Services
	Photos          []string
}

type CreateListingParams struct {
	ID    ListingID
	Owner OwnerID
	Terms Terms
	Now   time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, errors.New("listings: owner is required")
	}
	terms, err := normalizeTerms(params.Terms)
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:        params.ID,
		Owner:     params.Owner,
		State:     ListingDraft,
		CreatedAt: now,
	}
	listing.apply(terms, now)
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, OwnerID: listing.Owner, Category: listing.Category, At: now})
	return listing, nil
}

// Update replaces the editable terms. Bookings keep their own frozen pricing
// snapshot, so rate changes never affect existing requests.
func (l *Listing) Update(terms Terms, now time.Time) error {
	normalized, err := normalizeTerms(terms)
	if err != nil {
		return err
	}
	l.apply(normalized, now.UTC())
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Publish(now time.Time) error {
	if l.State == ListingPublished {
		return nil
	}
	if _, err := normalizeTerms(l.terms()); err != nil {
		return err
	}
	l.State = ListingPublished
	l.UpdatedAt = now.UTC()
	l.Record(ListingPublishedEvent{ListingID: l.ID, OwnerID: l.Owner, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Unpublish(now time.Time) error {
	if l.State != ListingPublished {
		return ErrInvalidState
	}
	l.State = ListingDraft
	l.UpdatedAt = now.UTC()
	l.Record(ListingUnpublishedEvent{ListingID: l.ID, OwnerID: l.Owner, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Published() bool {
	return l.State == ListingPublished
}

func (l *Listing) OwnedBy(owner OwnerID) bool {
	return owner != "" && l.Owner == owner
}

// Currency is the currency every amount of the listing is expressed in.
func (l *Listing) Currency() string {
	return l.DailyRate.Currency
}

// RentalDaysAllowed checks an inclusive day count against the optional bounds.
// A zero bound is unbounded.
func (l *Listing) RentalDaysAllowed(days int) (tooShort, tooLong bool) {
	if l.MinRentalDays > 0 && days < l.MinRentalDays {
		return true, false
	}
	if l.MaxRentalDays > 0 && days > l.MaxRentalDays {
		return false, true
	}
	return false, false
}

// Clone returns a deep copy without pending events.
func (l *Listing) Clone() *Listing {
	clone := *l
	clone.Photos = append([]string(nil), l.Photos...)
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}

func (l *Listing) terms() Terms {
	return Terms{
		Title:           l.Title,
		Description:     l.Description,
		Category:        l.Category,
		TurnaroundDays:  l.TurnaroundDays,
		MinRentalDays:   l.MinRentalDays,
		MaxRentalDays:   l.MaxRentalDays,
		LicenseRequired: l.LicenseRequired,
		LicenseType:     l.LicenseType,
		DailyRate:       l.DailyRate,
		Deposit:         l.Deposit,
		Delivery:        l.Delivery,
		Services:        l.Services,
		Photos:          l.Photos,
	}
}

func (l *Listing) apply(t Terms, now time.Time) {
	l.Title = t.Title
	l.Description = t.Description
	l.Category = t.Category
	l.TurnaroundDays = t.TurnaroundDays
	l.MinRentalDays = t.MinRentalDays
	l.MaxRentalDays = t.MaxRentalDays
	l.LicenseRequired = t.LicenseRequired
	l.LicenseType = t.LicenseType
	l.DailyRate = t.DailyRate
	l.Deposit = t.Deposit
	l.Delivery = t.Delivery
	l.Services = t.Services
	l.Photos = append([]string(nil), t.Photos...)
	l.UpdatedAt = now
}

func normalizeTerms(t Terms) (Terms, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.ToLower(strings.TrimSpace(t.Category))
	t.LicenseType = strings.TrimSpace(t.LicenseType)
	if t.Title == "" {
		return Terms{}, ErrTitleRequired
	}
	if t.Category == "" {
		return Terms{}, ErrCategory
	}
	if t.TurnaroundDays < 0 {
		return Terms{}, ErrTurnaround
	}
	if t.MinRentalDays < 0 || t.MaxRentalDays < 0 {
		return Terms{}, ErrRentalDays
	}
	if t.MinRentalDays > 0 && t.MaxRentalDays > 0 && t.MinRentalDays > t.MaxRentalDays {
		return Terms{}, ErrRentalDaysRange
	}
	if !t.DailyRate.IsPositive() {
		return Terms{}, ErrDailyRate
	}
	currency := t.DailyRate.Currency
	if t.Deposit.Amount < 0 {
		return Terms{}, ErrDeposit
	}
	if t.Deposit.Currency == "" {
		t.Deposit = money.Zero(currency)
	}
	if t.LicenseRequired && t.LicenseType == "" {
		return Terms{}, ErrLicenseType
	}
	if t.Delivery.Mode == "" {
		t.Delivery.Mode = DeliveryPickupOnly
	}
	if t.Delivery.Fee.Currency == "" {
		t.Delivery.Fee.Currency = currency
	}
	if t.Delivery.DiscountAmount.Currency == "" {
		t.Delivery.DiscountAmount.Currency = currency
	}
	if err := t.Delivery.validate(); err != nil {
		return Terms{}, err
	}
	if t.Deposit.Currency != currency || t.Delivery.Fee.Currency != currency || t.Delivery.DiscountAmount.Currency != currency {
		return Terms{}, ErrRateCurrency
	}
	if err := t.Services.validate(currency); err != nil {
		return Terms{}, err
	}
	return t, nil
}
