// Package registry binds every use case to the command and query buses.
package registry

import (
	"log/slog"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	availabilityapp "rigrent/internal/app/handlers/availability"
	bookingapp "rigrent/internal/app/handlers/booking"
	listingapp "rigrent/internal/app/handlers/listings"
	pricingapp "rigrent/internal/app/handlers/pricing"
	"rigrent/internal/app/outbox"
	"rigrent/internal/app/policies"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/uow"
)

type Deps struct {
	UoWFactory uow.UoWFactory
	Platform   policies.Platform
	Notifier   bookingapp.ApprovalNotifier
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func RegisterCommands(bus *commands.InMemoryBus, d Deps) {
	commands.RegisterHandler[bookingapp.RequestBookingCommand, *dto.Booking](bus, bookingapp.RequestBookingCommand{}.Key(),
		&bookingapp.RequestBookingHandler{UoWFactory: d.UoWFactory, Platform: d.Platform, Encoder: d.Encoder, Logger: d.Logger})
	commands.RegisterHandler[bookingapp.ApproveHostBookingCommand, *bookingapp.ApprovalResult](bus, bookingapp.ApproveHostBookingCommand{}.Key(),
		&bookingapp.ApproveHostBookingHandler{UoWFactory: d.UoWFactory, Notifier: d.Notifier, Encoder: d.Encoder, Logger: d.Logger})
	commands.RegisterHandler[bookingapp.RejectHostBookingCommand, *bookingapp.HostBookingActionResult](bus, bookingapp.RejectHostBookingCommand{}.Key(),
		&bookingapp.RejectHostBookingHandler{UoWFactory: d.UoWFactory, Encoder: d.Encoder, Logger: d.Logger})
	commands.RegisterHandler[bookingapp.CancelBookingCommand, *bookingapp.HostBookingActionResult](bus, bookingapp.CancelBookingCommand{}.Key(),
		&bookingapp.CancelBookingHandler{UoWFactory: d.UoWFactory, Encoder: d.Encoder, Logger: d.Logger})
	commands.RegisterHandler[bookingapp.FinalizeHoursCommand, *bookingapp.FinalizeHoursResult](bus, bookingapp.FinalizeHoursCommand{}.Key(),
		&bookingapp.FinalizeHoursHandler{UoWFactory: d.UoWFactory, Platform: d.Platform, Encoder: d.Encoder, Logger: d.Logger})

	commands.RegisterHandler[listingapp.CreateHostListingCommand, *dto.Listing](bus, listingapp.CreateHostListingCommand{}.Key(),
		&listingapp.CreateHostListingHandler{Platform: d.Platform, Encoder: d.Encoder, Logger: d.Logger})
	commands.RegisterHandler[listingapp.UpdateHostListingCommand, *dto.Listing](bus, listingapp.UpdateHostListingCommand{}.Key(),
		&listingapp.UpdateHostListingHandler{Platform: d.Platform, Encoder: d.Encoder, Logger: d.Logger})
	commands.RegisterHandler[listingapp.PublishHostListingCommand, *dto.Listing](bus, listingapp.PublishHostListingCommand{}.Key(),
		&listingapp.PublishHostListingHandler{Encoder: d.Encoder, Logger: d.Logger})
	commands.RegisterHandler[listingapp.UnpublishHostListingCommand, *dto.Listing](bus, listingapp.UnpublishHostListingCommand{}.Key(),
		&listingapp.UnpublishHostListingHandler{Encoder: d.Encoder, Logger: d.Logger})
}

func RegisterQueries(bus *queries.InMemoryBus, d Deps) {
	queries.RegisterHandler[availabilityapp.CheckAvailabilityQuery, dto.Availability](bus, availabilityapp.CheckAvailabilityQuery{}.Key(),
		&availabilityapp.CheckAvailabilityHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler[availabilityapp.CheckAvailabilityBatchQuery, dto.AvailabilityBatch](bus, availabilityapp.CheckAvailabilityBatchQuery{}.Key(),
		&availabilityapp.CheckAvailabilityBatchHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler[availabilityapp.GetCalendarQuery, dto.Calendar](bus, availabilityapp.GetCalendarQuery{}.Key(),
		&availabilityapp.GetCalendarHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler[pricingapp.QuoteQuery, dto.PricingBreakdown](bus, pricingapp.QuoteQuery{}.Key(),
		&pricingapp.QuoteHandler{UoWFactory: d.UoWFactory, Platform: d.Platform, Logger: d.Logger})

	queries.RegisterHandler[listingapp.GetListingQuery, dto.Listing](bus, listingapp.GetListingQuery{}.Key(),
		&listingapp.GetListingHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[listingapp.GetHostListingQuery, dto.Listing](bus, listingapp.GetHostListingQuery{}.Key(),
		&listingapp.GetHostListingHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler[listingapp.ListHostListingsQuery, dto.ListingCollection](bus, listingapp.ListHostListingsQuery{}.Key(),
		&listingapp.ListHostListingsHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})

	queries.RegisterHandler[bookingapp.ListHostBookingsQuery, dto.BookingCollection](bus, bookingapp.ListHostBookingsQuery{}.Key(),
		&bookingapp.ListHostBookingsHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler[bookingapp.ListRenterBookingsQuery, dto.BookingCollection](bus, bookingapp.ListRenterBookingsQuery{}.Key(),
		&bookingapp.ListRenterBookingsHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	queries.RegisterHandler[bookingapp.GetInvoiceQuery, dto.Invoice](bus, bookingapp.GetInvoiceQuery{}.Key(),
		&bookingapp.GetInvoiceHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
}
