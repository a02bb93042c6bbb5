package policies

import (
	"strings"

	domainlistings "rigrent/internal/domain/listings"
)

// DefaultMaxServiceHours caps hourly services whose owner set no cap.
const DefaultMaxServiceHours = 100

// Platform holds marketplace wide rules that are not owned by a listing.
type Platform struct {
	MaxServiceHours    int
	LicensedCategories []string
	Currency           string
}

// RequiresLicense reports whether renting equipment of category may need a
// renter license.
func (p Platform) RequiresLicense(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, c := range p.LicensedCategories {
		if strings.ToLower(strings.TrimSpace(c)) == category {
			return true
		}
	}
	return false
}

// HourCap is the listing cap for the offering or the platform ceiling.
func (p Platform) HourCap(o domainlistings.ServiceOffering) int {
	fallback := p.MaxServiceHours
	if fallback <= 0 {
		fallback = DefaultMaxServiceHours
	}
	return o.HourCap(fallback)
}

func (p Platform) DefaultCurrency() string {
	if p.Currency == "" {
		return "USD"
	}
	return p.Currency
}
