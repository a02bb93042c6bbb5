package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainlistings "rigrent/internal/domain/listings"
)

func TestRequiresLicense(t *testing.T) {
	p := Platform{LicensedCategories: []string{"Excavator", " crane "}}
	assert.True(t, p.RequiresLicense("excavator"))
	assert.True(t, p.RequiresLicense("CRANE"))
	assert.False(t, p.RequiresLicense("trailer"))
}

func TestHourCap(t *testing.T) {
	assert.Equal(t, DefaultMaxServiceHours, Platform{}.HourCap(domainlistings.ServiceOffering{}))
	assert.Equal(t, 40, Platform{MaxServiceHours: 40}.HourCap(domainlistings.ServiceOffering{}))
	assert.Equal(t, 8, Platform{MaxServiceHours: 40}.HourCap(domainlistings.ServiceOffering{MaxHours: 8}))
}
