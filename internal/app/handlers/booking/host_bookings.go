package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/outbox"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/services/invoicing"
	"rigrent/internal/app/uow"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/errs"
)

const (
	listHostBookingsKey    = "host.bookings.list"
	approveHostBookingKey  = "host.bookings.approve"
	rejectHostBookingKey   = "host.bookings.reject"
	allStatusesFilterValue = "all"
)

var errUnknownStatus = errs.Validation("invalid_status", "booking: unknown status filter")

type ListHostBookingsQuery struct {
	OwnerID string
	Status  string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

func (q ListHostBookingsQuery) ActorID() string { return q.OwnerID }

type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.BookingCollection, error) {
	ownerID := strings.TrimSpace(q.OwnerID)
	if ownerID == "" {
		return dto.BookingCollection{}, errOwnerRequired
	}
	statusFilter := strings.ToLower(strings.TrimSpace(q.Status))
	if statusFilter == "" {
		statusFilter = string(domainbooking.StatusPending)
	}
	var status domainbooking.Status
	if statusFilter != allStatusesFilterValue {
		parsed, ok := domainbooking.ParseStatus(statusFilter)
		if !ok {
			return dto.BookingCollection{}, errUnknownStatus
		}
		status = parsed
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByOwner(execCtx, domainlistings.OwnerID(ownerID), status)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items, err := mapWithListings(execCtx, unit, bookings)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	if h.Logger != nil {
		h.Logger.Debug("host bookings listed", "owner_id", ownerID, "count", len(items), "status", statusFilter)
	}
	return dto.BookingCollection{Items: items}, nil
}

// mapWithListings renders bookings newest first, loading each listing once.
func mapWithListings(ctx context.Context, unit uow.UnitOfWork, bookings []*domainbooking.Booking) ([]dto.Booking, error) {
	cache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		listing, seen := cache[b.ListingID]
		if !seen {
			loaded, err := unit.Listings().ByID(ctx, b.ListingID)
			if err != nil && !errors.Is(err, domainlistings.ErrListingNotFound) {
				return nil, err
			}
			cache[b.ListingID] = loaded
			listing = loaded
		}
		items = append(items, dto.MapBooking(b, listing))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

type ApproveHostBookingCommand struct {
	OwnerID   string
	BookingID string
}

func (c ApproveHostBookingCommand) Key() string { return approveHostBookingKey }

func (c ApproveHostBookingCommand) ActorID() string { return c.OwnerID }

func (c ApproveHostBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return errBookingRequired
	}
	return nil
}

type RejectHostBookingCommand struct {
	OwnerID   string
	BookingID string
	Reason    string
}

func (c RejectHostBookingCommand) Key() string { return rejectHostBookingKey }

func (c RejectHostBookingCommand) ActorID() string { return c.OwnerID }

func (c RejectHostBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return errBookingRequired
	}
	return nil
}

type HostBookingActionResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// ApprovalResult reports the committed approval and, separately, whether the
// renter was notified. Notified false never means the approval failed.
type ApprovalResult struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	Notified    bool   `json:"notified"`
	NotifyError string `json:"notify_error,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}

// ApprovalNotifier delivers the invoice of an approved booking.
type ApprovalNotifier interface {
	SendApproval(ctx context.Context, b *domainbooking.Booking, listing *domainlistings.Listing) (invoicing.Delivery, error)
}

type ApproveHostBookingHandler struct {
	UoWFactory uow.UoWFactory
	Notifier   ApprovalNotifier
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

// Handle approves under the listing's calendar guard: the approved set is
// read, checked and written in one unit so two conflicting approvals cannot
// both commit. The notification runs after commit.
func (h *ApproveHostBookingHandler) Handle(ctx context.Context, cmd ApproveHostBookingCommand) (*ApprovalResult, error) {
	ownerID := domainlistings.OwnerID(strings.TrimSpace(cmd.OwnerID))
	if ownerID == "" {
		return nil, errOwnerRequired
	}
	result := &ApprovalResult{BookingID: cmd.BookingID}
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if b.OwnerID != ownerID {
			return domainbooking.ErrNotOwner
		}
		if err := unit.Calendar().Lock(ctx, b.ListingID); err != nil {
			return err
		}
		others, err := unit.Bookings().ApprovedPeriods(ctx, b.ListingID)
		if err != nil {
			return err
		}
		if err := b.Approve(ownerID, others, time.Now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := handlersupport.DrainEvents(ctx, unit, encoderOrDefault(h.Encoder), b); err != nil {
			return err
		}
		result.Status = string(b.Status)

		listing, err := unit.Listings().ByID(ctx, b.ListingID)
		if err != nil && !errors.Is(err, domainlistings.ErrListingNotFound) {
			return err
		}
		approved := b.Clone()
		uow.AfterCommit(ctx, func(hookCtx context.Context) {
			h.notify(hookCtx, approved, listing, result)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host booking approved", "booking_id", cmd.BookingID, "owner_id", ownerID)
	}
	return result, nil
}

func (h *ApproveHostBookingHandler) notify(ctx context.Context, b *domainbooking.Booking, listing *domainlistings.Listing, result *ApprovalResult) {
	if h.Notifier == nil {
		result.NotifyError = invoicing.ErrNotWired.Error()
		return
	}
	delivery, err := h.Notifier.SendApproval(ctx, b, listing)
	if err != nil {
		result.NotifyError = err.Error()
		if h.Logger != nil {
			h.Logger.Warn("approval notification failed", "booking_id", b.ID, "err", err)
		}
		return
	}
	result.Notified = true
	result.DocumentURL = delivery.DocumentURL
	if h.Logger != nil {
		h.Logger.Info("renter notified of approval", "booking_id", b.ID, "document", delivery.DocumentURL)
	}
}

type RejectHostBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RejectHostBookingHandler) Handle(ctx context.Context, cmd RejectHostBookingCommand) (*HostBookingActionResult, error) {
	ownerID := domainlistings.OwnerID(strings.TrimSpace(cmd.OwnerID))
	if ownerID == "" {
		return nil, errOwnerRequired
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "owner-rejected"
	}

	var result HostBookingActionResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := b.Reject(ownerID, reason, time.Now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := handlersupport.DrainEvents(ctx, unit, encoderOrDefault(h.Encoder), b); err != nil {
			return err
		}
		result = HostBookingActionResult{BookingID: string(b.ID), Status: string(b.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host booking rejected", "booking_id", cmd.BookingID, "owner_id", ownerID, "reason", reason)
	}
	return &result, nil
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

var _ queries.Handler[ListHostBookingsQuery, dto.BookingCollection] = (*ListHostBookingsHandler)(nil)
var _ commands.Handler[ApproveHostBookingCommand, *ApprovalResult] = (*ApproveHostBookingHandler)(nil)
var _ commands.Handler[RejectHostBookingCommand, *HostBookingActionResult] = (*RejectHostBookingHandler)(nil)
var _ ApprovalNotifier = (*invoicing.Service)(nil)
