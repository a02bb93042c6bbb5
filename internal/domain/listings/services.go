package listings

import (
	"strings"

	"rigrent/internal/domain/shared/errs"
	"rigrent/internal/domain/shared/money"
)

var (
	ErrServiceRate     = errs.Validation("invalid_listing", "listings: enabled service needs a positive rate")
	ErrServiceMaxHours = errs.Validation("invalid_listing", "listings: service max hours must be non-negative")
	ErrDeliveryMode    = errs.Validation("invalid_listing", "listings: unknown delivery mode")
	ErrDeliveryFee     = errs.Validation("invalid_listing", "listings: delivery fee and discount must be non-negative")
	ErrRateCurrency    = errs.Validation("invalid_listing", "listings: all rates must use the listing currency")
	ErrUnknownService  = errs.Validation("unknown_service", "listings: unknown service choice")
	ErrUnknownUnit     = errs.Validation("unknown_unit", "listings: unknown billing unit")
)

// ServiceChoice names an optional owner-provided service.
type ServiceChoice string

const (
	ServiceNone        ServiceChoice = "none"
	ServiceDriver      ServiceChoice = "driver"
	ServiceDriverLabor ServiceChoice = "driver_labor"
	ServiceOperator    ServiceChoice = "operator"
)

// ParseServiceChoice accepts the wire names; an empty string means none.
func ParseServiceChoice(raw string) (ServiceChoice, error) {
	switch ServiceChoice(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ServiceNone:
		return ServiceNone, nil
	case ServiceDriver:
		return ServiceDriver, nil
	case ServiceDriverLabor:
		return ServiceDriverLabor, nil
	case ServiceOperator:
		return ServiceOperator, nil
	}
	return "", ErrUnknownService
}

// BillingUnit is how a service is charged.
type BillingUnit string

const (
	UnitDay  BillingUnit = "day"
	UnitHour BillingUnit = "hour"
)

func ParseBillingUnit(raw string) (BillingUnit, error) {
	switch BillingUnit(strings.ToLower(strings.TrimSpace(raw))) {
	case "", UnitDay:
		return UnitDay, nil
	case UnitHour:
		return UnitHour, nil
	}
	return "", ErrUnknownUnit
}

// ServiceOffering is the owner configuration of one service. Daily and hourly
// billing are toggled independently.
type ServiceOffering struct {
	DailyEnabled  bool        `json:"daily_enabled" bson:"daily_enabled"`
	HourlyEnabled bool        `json:"hourly_enabled" bson:"hourly_enabled"`
	DailyRate     money.Money `json:"daily_rate" bson:"daily_rate"`
	HourlyRate    money.Money `json:"hourly_rate" bson:"hourly_rate"`
	MaxHours      int         `json:"max_hours" bson:"max_hours"`
}

// Enabled reports whether the offering can be booked with the given unit.
func (o ServiceOffering) Enabled(unit BillingUnit) bool {
	switch unit {
	case UnitDay:
		return o.DailyEnabled
	case UnitHour:
		return o.HourlyEnabled
	}
	return false
}

// Rate returns the configured rate for unit.
func (o ServiceOffering) Rate(unit BillingUnit) money.Money {
	if unit == UnitHour {
		return o.HourlyRate
	}
	return o.DailyRate
}

// HourCap is the maximum billable hours, falling back to platformDefault when
// the owner left it unset.
func (o ServiceOffering) HourCap(platformDefault int) int {
	if o.MaxHours > 0 {
		return o.MaxHours
	}
	return platformDefault
}

func (o ServiceOffering) validate(currency string) error {
	if o.MaxHours < 0 {
		return ErrServiceMaxHours
	}
	if o.DailyEnabled && !o.DailyRate.IsPositive() {
		return ErrServiceRate
	}
	if o.HourlyEnabled && !o.HourlyRate.IsPositive() {
		return ErrServiceRate
	}
	for _, rate := range []money.Money{o.DailyRate, o.HourlyRate} {
		if rate.Amount != 0 && rate.Currency != currency {
			return ErrRateCurrency
		}
	}
	return nil
}

// Services groups the three independent service offerings of a listing.
type Services struct {
	Driver      ServiceOffering `json:"driver" bson:"driver"`
	DriverLabor ServiceOffering `json:"driver_labor" bson:"driver_labor"`
	Operator    ServiceOffering `json:"operator" bson:"operator"`
}

// Offering looks up the configuration for choice.
func (s Services) Offering(choice ServiceChoice) (ServiceOffering, bool) {
	switch choice {
	case ServiceDriver:
		return s.Driver, true
	case ServiceDriverLabor:
		return s.DriverLabor, true
	case ServiceOperator:
		return s.Operator, true
	}
	return ServiceOffering{}, false
}

func (s Services) validate(currency string) error {
	for _, o := range []ServiceOffering{s.Driver, s.DriverLabor, s.Operator} {
		if err := o.validate(currency); err != nil {
			return err
		}
	}
	return nil
}

// DeliveryMode tells whether the owner delivers the equipment.
type DeliveryMode string

const (
	DeliveryPickupOnly DeliveryMode = "pickup_only"
	DeliveryAvailable  DeliveryMode = "delivery_available"
	DeliveryOnly       DeliveryMode = "delivery_only"
)

// DeliveryConfig is the owner delivery pricing. The discount applies only when
// a service is booked alongside delivery.
type DeliveryConfig struct {
	Mode            DeliveryMode `json:"mode" bson:"mode"`
	Fee             money.Money  `json:"fee" bson:"fee"`
	DiscountEnabled bool         `json:"discount_enabled" bson:"discount_enabled"`
	DiscountAmount  money.Money  `json:"discount_amount" bson:"discount_amount"`
}

// Offered reports whether a renter may select delivery.
func (d DeliveryConfig) Offered() bool {
	return d.Mode == DeliveryAvailable || d.Mode == DeliveryOnly
}

// Required reports whether delivery is mandatory.
func (d DeliveryConfig) Required() bool {
	return d.Mode == DeliveryOnly
}

func (d DeliveryConfig) validate() error {
	switch d.Mode {
	case DeliveryPickupOnly, DeliveryAvailable, DeliveryOnly:
	default:
		return ErrDeliveryMode
	}
	if d.Fee.Amount < 0 || d.DiscountAmount.Amount < 0 {
		return ErrDeliveryFee
	}
	return nil
}
