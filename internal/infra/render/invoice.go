// Package render formats invoices as plain text attachments.
package render

import (
	"bytes"
	"context"
	"text/template"

	"rigrent/internal/app/dto"
	"rigrent/internal/app/policies"
)

const invoiceTemplate = `INVOICE {{ .Number }}
Issued:  {{ .IssuedAt.Format "2006-01-02" }}
Booking: {{ .BookingID }} ({{ .Status }})
{{- if .ListingTitle }}
Rig:     {{ .ListingTitle }}
{{- end }}
Renter:  {{ .RenterID }}
Dates:   {{ .StartDate }} to {{ .EndDate }} ({{ .Breakdown.Days }} days)

{{ range .Lines }}{{ printf "%-28s %16s" .Label .Amount.Display }}
{{ end }}{{ printf "%-28s %16s" "Total" .Breakdown.Total.Display }}
{{ printf "%-28s %16s" "Deposit (refundable)" .Breakdown.Deposit.Display }}
{{ printf "%-28s %16s" "Due incl. deposit" .Breakdown.TotalWithDeposit.Display }}
{{- if .Breakdown.HourlyEstimate }}

Service hours are estimated ({{ .Breakdown.ServiceQuantity }} h). The final amount follows the confirmed hours.
{{- end }}
`

var invoiceTmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// TextInvoice prints the amounts carried by the invoice; it does no arithmetic.
type TextInvoice struct{}

func (TextInvoice) Render(_ context.Context, invoice dto.Invoice) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, invoice); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "text/plain; charset=utf-8", nil
}

func (TextInvoice) Extension() string { return ".txt" }

var _ policies.InvoiceRenderer = TextInvoice{}
