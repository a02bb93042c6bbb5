package dto

import (
	"time"

	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/money"
)

type ServiceOffering struct {
	DailyEnabled  bool     `json:"daily_enabled"`
	HourlyEnabled bool     `json:"hourly_enabled"`
	DailyRate     MoneyDTO `json:"daily_rate"`
	HourlyRate    MoneyDTO `json:"hourly_rate"`
	MaxHours      int      `json:"max_hours"`
}

type Services struct {
	Driver      ServiceOffering `json:"driver"`
	DriverLabor ServiceOffering `json:"driver_labor"`
	Operator    ServiceOffering `json:"operator"`
}

type Delivery struct {
	Mode            string   `json:"mode"`
	Fee             MoneyDTO `json:"fee"`
	DiscountEnabled bool     `json:"discount_enabled"`
	DiscountAmount  MoneyDTO `json:"discount_amount"`
}

// Listing is the owner and renter facing view of a listing.
type Listing struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Published       bool      `json:"published"`
	TurnaroundDays  int       `json:"turnaround_days"`
	MinRentalDays   int       `json:"min_rental_days"`
	MaxRentalDays   int       `json:"max_rental_days"`
	LicenseRequired bool      `json:"license_required"`
	LicenseType     string    `json:"license_type,omitempty"`
	DailyRate       MoneyDTO  `json:"daily_rate"`
	Deposit         MoneyDTO  `json:"deposit"`
	Delivery        Delivery  `json:"delivery"`
	Services        Services  `json:"services"`
	Photos          []string  `json:"photos"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items []Listing `json:"items"`
}

func MapListing(l *domainlistings.Listing) Listing {
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	return Listing{
		ID:              string(l.ID),
		OwnerID:         string(l.Owner),
		Title:           l.Title,
		Description:     l.Description,
		Category:        l.Category,
		Published:       l.Published(),
		TurnaroundDays:  l.TurnaroundDays,
		MinRentalDays:   l.MinRentalDays,
		MaxRentalDays:   l.MaxRentalDays,
		LicenseRequired: l.LicenseRequired,
		LicenseType:     l.LicenseType,
		DailyRate:       MapMoney(l.DailyRate),
		Deposit:         MapMoney(l.Deposit),
		Delivery: Delivery{
			Mode:            string(l.Delivery.Mode),
			Fee:             MapMoney(l.Delivery.Fee),
			DiscountEnabled: l.Delivery.DiscountEnabled,
			DiscountAmount:  MapMoney(l.Delivery.DiscountAmount),
		},
		Services: Services{
			Driver:      mapOffering(l.Services.Driver),
			DriverLabor: mapOffering(l.Services.DriverLabor),
			Operator:    mapOffering(l.Services.Operator),
		},
		Photos:    photos,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func mapOffering(o domainlistings.ServiceOffering) ServiceOffering {
	return ServiceOffering{
		DailyEnabled:  o.DailyEnabled,
		HourlyEnabled: o.HourlyEnabled,
		DailyRate:     MapMoney(o.DailyRate),
		HourlyRate:    MapMoney(o.HourlyRate),
		MaxHours:      o.MaxHours,
	}
}

// ListingInput is the owner payload for creating or updating a listing.
// Amounts are in cents.
type ListingInput struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Category        string        `json:"category"`
	TurnaroundDays  int           `json:"turnaround_days"`
	MinRentalDays   int           `json:"min_rental_days"`
	MaxRentalDays   int           `json:"max_rental_days"`
	LicenseRequired bool          `json:"license_required"`
	LicenseType     string        `json:"license_type"`
	Currency        string        `json:"currency"`
	DailyRate       int64         `json:"daily_rate"`
	Deposit         int64         `json:"deposit"`
	Delivery        DeliveryInput `json:"delivery"`
	Services        ServicesInput `json:"services"`
	Photos          []string      `json:"photos"`
}

type DeliveryInput struct {
	Mode            string `json:"mode"`
	Fee             int64  `json:"fee"`
	DiscountEnabled bool   `json:"discount_enabled"`
	DiscountAmount  int64  `json:"discount_amount"`
}

type OfferingInput struct {
	DailyEnabled  bool  `json:"daily_enabled"`
	HourlyEnabled bool  `json:"hourly_enabled"`
	DailyRate     int64 `json:"daily_rate"`
	HourlyRate    int64 `json:"hourly_rate"`
	MaxHours      int   `json:"max_hours"`
}

type ServicesInput struct {
	Driver      OfferingInput `json:"driver"`
	DriverLabor OfferingInput `json:"driver_labor"`
	Operator    OfferingInput `json:"operator"`
}

// Terms converts the input using currency when the payload names none.
func (in ListingInput) Terms(defaultCurrency string) (domainlistings.Terms, error) {
	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	amount := func(cents int64) (money.Money, error) {
		return money.New(cents, currency)
	}
	daily, err := amount(in.DailyRate)
	if err != nil {
		return domainlistings.Terms{}, err
	}
	deposit, err := amount(in.Deposit)
	if err != nil {
		return domainlistings.Terms{}, err
	}
	fee, err := amount(in.Delivery.Fee)
	if err != nil {
		return domainlistings.Terms{}, err
	}
	discount, err := amount(in.Delivery.DiscountAmount)
	if err != nil {
		return domainlistings.Terms{}, err
	}
	offering := func(o OfferingInput) (domainlistings.ServiceOffering, error) {
		dailyRate, err := amount(o.DailyRate)
		if err != nil {
			return domainlistings.ServiceOffering{}, err
		}
		hourlyRate, err := amount(o.HourlyRate)
		if err != nil {
			return domainlistings.ServiceOffering{}, err
		}
		return domainlistings.ServiceOffering{
			DailyEnabled:  o.DailyEnabled,
			HourlyEnabled: o.HourlyEnabled,
			DailyRate:     dailyRate,
			HourlyRate:    hourlyRate,
			MaxHours:      o.MaxHours,
		}, nil
	}
	driver, err := offering(in.Services.Driver)
	if err != nil {
		return domainlistings.Terms{}, err
	}
	driverLabor, err := offering(in.Services.DriverLabor)
	if err != nil {
		return domainlistings.Terms{}, err
	}
	operator, err := offering(in.Services.Operator)
	if err != nil {
		return domainlistings.Terms{}, err
	}
	return domainlistings.Terms{
		Title:           in.Title,
		Description:     in.Description,
		Category:        in.Category,
		TurnaroundDays:  in.TurnaroundDays,
		MinRentalDays:   in.MinRentalDays,
		MaxRentalDays:   in.MaxRentalDays,
		LicenseRequired: in.LicenseRequired,
		LicenseType:     in.LicenseType,
		DailyRate:       daily,
		Deposit:         deposit,
		Delivery: domainlistings.DeliveryConfig{
			Mode:            domainlistings.DeliveryMode(in.Delivery.Mode),
			Fee:             fee,
			DiscountEnabled: in.Delivery.DiscountEnabled,
			DiscountAmount:  discount,
		},
		Services: domainlistings.Services{Driver: driver, DriverLabor: driverLabor, Operator: operator},
		Photos:   in.Photos,
	}, nil
}
