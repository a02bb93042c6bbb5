package listings

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	handlersupport "rigrent/internal/app/handlers/support"
	"rigrent/internal/app/outbox"
	"rigrent/internal/app/policies"
	"rigrent/internal/app/uow"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/domain/shared/errs"
)

const (
	createHostListingKey    = "host.listings.create"
	updateHostListingKey    = "host.listings.update"
	publishHostListingKey   = "host.listings.publish"
	unpublishHostListingKey = "host.listings.unpublish"
)

var (
	errOwnerRequired   = errs.Validation("invalid_request", "listings: owner id is required")
	errListingRequired = errs.Validation("invalid_request", "listings: listing id is required")
)

type CreateHostListingCommand struct {
	OwnerID string
	Payload dto.ListingInput
}

func (c CreateHostListingCommand) Key() string { return createHostListingKey }

func (c CreateHostListingCommand) ActorID() string { return c.OwnerID }

type CreateHostListingHandler struct {
	Platform policies.Platform
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

// Handle creates a draft listing. It expects the unit from the transaction
// middleware.
func (h *CreateHostListingHandler) Handle(ctx context.Context, cmd CreateHostListingCommand) (*dto.Listing, error) {
	ownerID := strings.TrimSpace(cmd.OwnerID)
	if ownerID == "" {
		return nil, errOwnerRequired
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	terms, err := cmd.Payload.Terms(h.Platform.DefaultCurrency())
	if err != nil {
		return nil, err
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:    domainlistings.ListingID(uuid.NewString()),
		Owner: domainlistings.OwnerID(ownerID),
		Terms: terms,
		Now:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := handlersupport.DrainEvents(ctx, unit, encoderOrDefault(h.Encoder), listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host listing created", "listing_id", listing.ID, "owner_id", ownerID)
	}
	result := dto.MapListing(listing)
	return &result, nil
}

type UpdateHostListingCommand struct {
	OwnerID   string
	ListingID string
	Payload   dto.ListingInput
}

func (c UpdateHostListingCommand) Key() string { return updateHostListingKey }

func (c UpdateHostListingCommand) ActorID() string { return c.OwnerID }

func (c UpdateHostListingCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return errListingRequired
	}
	return nil
}

type UpdateHostListingHandler struct {
	Platform policies.Platform
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

// Handle replaces the editable terms. Existing bookings keep their frozen
// pricing.
func (h *UpdateHostListingHandler) Handle(ctx context.Context, cmd UpdateHostListingCommand) (*dto.Listing, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	listing, err := loadOwned(ctx, unit, cmd.OwnerID, cmd.ListingID)
	if err != nil {
		return nil, err
	}
	terms, err := cmd.Payload.Terms(listing.Currency())
	if err != nil {
		return nil, err
	}
	if err := listing.Update(terms, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := handlersupport.DrainEvents(ctx, unit, encoderOrDefault(h.Encoder), listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host listing updated", "listing_id", listing.ID, "owner_id", cmd.OwnerID)
	}
	result := dto.MapListing(listing)
	return &result, nil
}

type PublishHostListingCommand struct {
	OwnerID   string
	ListingID string
}

func (c PublishHostListingCommand) Key() string { return publishHostListingKey }

func (c PublishHostListingCommand) ActorID() string { return c.OwnerID }

func (c PublishHostListingCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return errListingRequired
	}
	return nil
}

type PublishHostListingHandler struct {
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *PublishHostListingHandler) Handle(ctx context.Context, cmd PublishHostListingCommand) (*dto.Listing, error) {
	return changeState(ctx, cmd.OwnerID, cmd.ListingID, h.Encoder, h.Logger, "host listing published", (*domainlistings.Listing).Publish)
}

type UnpublishHostListingCommand struct {
	OwnerID   string
	ListingID string
}

func (c UnpublishHostListingCommand) Key() string { return unpublishHostListingKey }

func (c UnpublishHostListingCommand) ActorID() string { return c.OwnerID }

func (c UnpublishHostListingCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return errListingRequired
	}
	return nil
}

type UnpublishHostListingHandler struct {
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *UnpublishHostListingHandler) Handle(ctx context.Context, cmd UnpublishHostListingCommand) (*dto.Listing, error) {
	return changeState(ctx, cmd.OwnerID, cmd.ListingID, h.Encoder, h.Logger, "host listing unpublished", (*domainlistings.Listing).Unpublish)
}

func changeState(ctx context.Context, ownerID, listingID string, enc outbox.EventEncoder, logger *slog.Logger, msg string, apply func(*domainlistings.Listing, time.Time) error) (*dto.Listing, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	listing, err := loadOwned(ctx, unit, ownerID, listingID)
	if err != nil {
		return nil, err
	}
	if err := apply(listing, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := handlersupport.DrainEvents(ctx, unit, encoderOrDefault(enc), listing); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info(msg, "listing_id", listing.ID, "owner_id", ownerID)
	}
	result := dto.MapListing(listing)
	return &result, nil
}

// loadOwned hides listings of other owners behind forbidden.
func loadOwned(ctx context.Context, unit uow.UnitOfWork, ownerID, listingID string) (*domainlistings.Listing, error) {
	owner := domainlistings.OwnerID(strings.TrimSpace(ownerID))
	if owner == "" {
		return nil, errOwnerRequired
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(strings.TrimSpace(listingID)))
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(owner) {
		return nil, domainlistings.ErrNotOwner
	}
	return listing, nil
}

func encoderOrDefault(enc outbox.EventEncoder) outbox.EventEncoder {
	if enc != nil {
		return enc
	}
	return outbox.JSONEventEncoder{}
}

var (
	_ commands.Handler[CreateHostListingCommand, *dto.Listing]    = (*CreateHostListingHandler)(nil)
	_ commands.Handler[UpdateHostListingCommand, *dto.Listing]    = (*UpdateHostListingHandler)(nil)
	_ commands.Handler[PublishHostListingCommand, *dto.Listing]   = (*PublishHostListingHandler)(nil)
	_ commands.Handler[UnpublishHostListingCommand, *dto.Listing] = (*UnpublishHostListingHandler)(nil)
)
