package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/queries"
	"rigrent/internal/infra/storage/memory"
)

func TestEveryUseCaseIsRegistered(t *testing.T) {
	cmds := commands.NewInMemoryBus()
	qs := queries.NewInMemoryBus()
	deps := Deps{UoWFactory: memory.Factory{Store: memory.NewStore()}}

	RegisterCommands(cmds, deps)
	RegisterQueries(qs, deps)

	assert.Equal(t, []string{
		"booking.request",
		"host.bookings.approve",
		"host.bookings.finalize_hours",
		"host.bookings.reject",
		"host.listings.create",
		"host.listings.publish",
		"host.listings.unpublish",
		"host.listings.update",
		"renter.bookings.cancel",
	}, cmds.Keys())
	assert.Equal(t, []string{
		"availability.calendar",
		"availability.check",
		"availability.check_batch",
		"bookings.invoice",
		"host.bookings.list",
		"host.listings.get",
		"host.listings.list",
		"listings.get",
		"pricing.quote",
		"renter.bookings.list",
	}, qs.Keys())
}
