// Package invoicing builds invoices from a booking's frozen pricing snapshot
// and delivers them to the renter.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rigrent/internal/app/dto"
	"rigrent/internal/app/policies"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/daterange"
	"rigrent/internal/domain/shared/errs"
)

var (
	ErrNoRecipient = errs.Validation("no_recipient", "invoicing: booking has no renter email")
	ErrNotWired    = errors.New("invoicing: renderer and mailer are required")
)

// Build derives the invoice from the booking alone. Listing edits made after
// the request do not change any amount.
func Build(b *domainbooking.Booking, listing *domainlistings.Listing, issuedAt time.Time) (dto.Invoice, error) {
	breakdown, err := b.Breakdown()
	if err != nil {
		return dto.Invoice{}, err
	}
	inv := dto.Invoice{
		Number:    "INV-" + string(b.ID),
		BookingID: string(b.ID),
		RenterID:  string(b.RenterID),
		StartDate: daterange.FormatDate(b.Start),
		EndDate:   daterange.FormatDate(b.End),
		Status:    string(b.Status),
		Lines:     dto.MapInvoiceLines(breakdown.Lines()),
		Breakdown: dto.MapBreakdown(breakdown),
		IssuedAt:  issuedAt.UTC(),
	}
	if listing != nil {
		inv.ListingTitle = listing.Title
	}
	return inv, nil
}

type Service struct {
	Renderer  policies.InvoiceRenderer
	Documents policies.DocumentStore
	Mailer    policies.Mailer
	Logger    *slog.Logger
	Now       func() time.Time
}

// Delivery describes what was sent.
type Delivery struct {
	Invoice     dto.Invoice
	DocumentURL string
}

// SendApproval renders the invoice, archives it when a document store is
// configured and mails it to the renter.
func (s *Service) SendApproval(ctx context.Context, b *domainbooking.Booking, listing *domainlistings.Listing) (Delivery, error) {
	if s == nil || s.Renderer == nil || s.Mailer == nil {
		return Delivery{}, ErrNotWired
	}
	if b.RenterEmail == "" {
		return Delivery{}, ErrNoRecipient
	}
	inv, err := Build(b, listing, s.now())
	if err != nil {
		return Delivery{}, err
	}
	data, contentType, err := s.Renderer.Render(ctx, inv)
	if err != nil {
		return Delivery{}, fmt.Errorf("render invoice: %w", err)
	}
	filename := inv.Number + s.Renderer.Extension()

	out := Delivery{Invoice: inv}
	if s.Documents != nil {
		path := "invoices/" + string(b.ListingID) + "/" + filename
		stored, err := s.Documents.Put(ctx, path, data, contentType)
		if err != nil {
			return Delivery{}, fmt.Errorf("store invoice: %w", err)
		}
		out.DocumentURL = s.Documents.PublicURL(stored)
	}

	mail := policies.Mail{
		To:      b.RenterEmail,
		Subject: "Your booking " + inv.BookingID + " was approved",
		Text:    approvalText(inv, out.DocumentURL),
		Attachment: &policies.Attachment{
			Filename:    filename,
			ContentType: contentType,
			Data:        data,
		},
	}
	if err := s.Mailer.Send(ctx, mail); err != nil {
		return Delivery{}, fmt.Errorf("send invoice: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("invoice delivered", "booking_id", b.ID, "listing_id", b.ListingID, "document", out.DocumentURL)
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func approvalText(inv dto.Invoice, url string) string {
	text := fmt.Sprintf("Your rental of %s from %s to %s was approved.\nTotal: %s\nDeposit: %s\n",
		inv.ListingTitle, inv.StartDate, inv.EndDate, inv.Breakdown.Total.Display, inv.Breakdown.Deposit.Display)
	if inv.Breakdown.HourlyEstimate {
		text += "Service hours are an estimate; the owner will confirm the final hours.\n"
	}
	if url != "" {
		text += "Invoice: " + url + "\n"
	}
	return text
}
