package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigrent/internal/app/dto"
)

func TestTextInvoicePrintsGivenAmounts(t *testing.T) {
	inv := dto.Invoice{
		Number:       "INV-b-1",
		BookingID:    "b-1",
		ListingTitle: "Mini excavator",
		RenterID:     "renter-1",
		StartDate:    "2024-06-01",
		EndDate:      "2024-06-03",
		Status:       "approved",
		Lines: []dto.InvoiceLine{
			{Label: "Daily rental", Amount: dto.MoneyDTO{Display: "300.00 USD"}},
			{Label: "Service fee", Amount: dto.MoneyDTO{Display: "72.00 USD"}},
		},
		Breakdown: dto.PricingBreakdown{
			Days:             3,
			Total:            dto.MoneyDTO{Display: "792.00 USD"},
			Deposit:          dto.MoneyDTO{Display: "200.00 USD"},
			TotalWithDeposit: dto.MoneyDTO{Display: "992.00 USD"},
			HourlyEstimate:   true,
			ServiceQuantity:  8,
		},
		IssuedAt: time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC),
	}

	data, contentType, err := TextInvoice{}.Render(context.Background(), inv)

	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
	text := string(data)
	assert.Contains(t, text, "INVOICE INV-b-1")
	assert.Contains(t, text, "Rig:     Mini excavator")
	assert.Contains(t, text, "(3 days)")
	assert.Contains(t, text, "300.00 USD")
	assert.Contains(t, text, "792.00 USD")
	assert.Contains(t, text, "992.00 USD")
	assert.Contains(t, text, "estimated (8 h)")
	assert.Equal(t, ".txt", TextInvoice{}.Extension())
}

func TestTextInvoiceWithoutEstimate(t *testing.T) {
	data, _, err := TextInvoice{}.Render(context.Background(), dto.Invoice{Number: "INV-b-2"})

	require.NoError(t, err)
	assert.NotContains(t, string(data), "estimated")
	assert.NotContains(t, string(data), "Rig:")
}
