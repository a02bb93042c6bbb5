package listings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	"rigrent/internal/app/middleware"
	"rigrent/internal/app/policies"
	domainbooking "rigrent/internal/domain/booking"
	domainlistings "rigrent/internal/domain/listings"
	"rigrent/internal/infra/storage/memory"
)

func bus(f memory.Factory) commands.Bus {
	b := commands.NewInMemoryBus()
	platform := policies.Platform{Currency: "USD"}
	commands.RegisterHandler[CreateHostListingCommand, *dto.Listing](b, createHostListingKey, &CreateHostListingHandler{Platform: platform})
	commands.RegisterHandler[UpdateHostListingCommand, *dto.Listing](b, updateHostListingKey, &UpdateHostListingHandler{Platform: platform})
	commands.RegisterHandler[PublishHostListingCommand, *dto.Listing](b, publishHostListingKey, &PublishHostListingHandler{})
	commands.RegisterHandler[UnpublishHostListingCommand, *dto.Listing](b, unpublishHostListingKey, &UnpublishHostListingHandler{})
	return middleware.ChainCommands(b, middleware.Transaction(f, nil))
}

func input() dto.ListingInput {
	return dto.ListingInput{
		Title:          "Scissor lift",
		Category:       "lift",
		TurnaroundDays: 2,
		DailyRate:      9000,
		Deposit:        30000,
		Delivery:       dto.DeliveryInput{Mode: "delivery_available", Fee: 4000},
		Services: dto.ServicesInput{
			Operator: dto.OfferingInput{HourlyEnabled: true, HourlyRate: 2500, MaxHours: 8},
		},
	}
}

func TestListingLifecycle(t *testing.T) {
	ctx := context.Background()
	f := memory.Factory{Store: memory.NewStore()}
	b := bus(f)

	created, err := commands.Dispatch[CreateHostListingCommand, *dto.Listing](ctx, b, CreateHostListingCommand{OwnerID: "owner-1", Payload: input()})
	require.NoError(t, err)
	assert.False(t, created.Published)
	assert.Equal(t, "USD", created.DailyRate.Currency)

	public := &GetListingHandler{UoWFactory: f}
	_, err = public.Handle(ctx, GetListingQuery{ListingID: created.ID})
	assert.ErrorIs(t, err, domainbooking.ErrListingUnavailable, "drafts are hidden")

	_, err = commands.Dispatch[PublishHostListingCommand, *dto.Listing](ctx, b, PublishHostListingCommand{OwnerID: "owner-2", ListingID: created.ID})
	assert.ErrorIs(t, err, domainlistings.ErrNotOwner)

	published, err := commands.Dispatch[PublishHostListingCommand, *dto.Listing](ctx, b, PublishHostListingCommand{OwnerID: "owner-1", ListingID: created.ID})
	require.NoError(t, err)
	assert.True(t, published.Published)

	view, err := public.Handle(ctx, GetListingQuery{ListingID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, 8, view.Services.Operator.MaxHours)

	changed := input()
	changed.DailyRate = 9500
	changed.MinRentalDays = 3
	changed.MaxRentalDays = 2
	_, err = commands.Dispatch[UpdateHostListingCommand, *dto.Listing](ctx, b, UpdateHostListingCommand{OwnerID: "owner-1", ListingID: created.ID, Payload: changed})
	assert.ErrorIs(t, err, domainlistings.ErrRentalDaysRange)

	changed.MaxRentalDays = 0
	updated, err := commands.Dispatch[UpdateHostListingCommand, *dto.Listing](ctx, b, UpdateHostListingCommand{OwnerID: "owner-1", ListingID: created.ID, Payload: changed})
	require.NoError(t, err)
	assert.Equal(t, int64(9500), updated.DailyRate.Amount)

	_, err = commands.Dispatch[UnpublishHostListingCommand, *dto.Listing](ctx, b, UnpublishHostListingCommand{OwnerID: "owner-1", ListingID: created.ID})
	require.NoError(t, err)
	_, err = commands.Dispatch[UnpublishHostListingCommand, *dto.Listing](ctx, b, UnpublishHostListingCommand{OwnerID: "owner-1", ListingID: created.ID})
	assert.ErrorIs(t, err, domainlistings.ErrInvalidState)

	mine, err := (&ListHostListingsHandler{UoWFactory: f}).Handle(ctx, ListHostListingsQuery{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)

	theirs, err := (&ListHostListingsHandler{UoWFactory: f}).Handle(ctx, ListHostListingsQuery{OwnerID: "owner-2"})
	require.NoError(t, err)
	assert.Empty(t, theirs.Items)

	_, err = (&GetHostListingHandler{UoWFactory: f}).Handle(ctx, GetHostListingQuery{OwnerID: "owner-2", ListingID: created.ID})
	assert.ErrorIs(t, err, domainlistings.ErrNotOwner)

	events := f.Store.Outbox.Pending()
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "listing.created")
	assert.Contains(t, names, "listing.published")
}
