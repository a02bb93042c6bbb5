package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	bookingapp "rigrent/internal/app/handlers/booking"
	"rigrent/internal/app/queries"
)

// BookingHandler serves the renter side of bookings.
type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID       string `json:"listing_id" binding:"required"`
	StartDate       string `json:"start_date" binding:"required"`
	EndDate         string `json:"end_date" binding:"required"`
	Delivery        bool   `json:"delivery"`
	Service         string `json:"service"`
	Unit            string `json:"service_unit"`
	Hours           int    `json:"hours"`
	LicenseAttested bool   `json:"license_attested"`
	Message         string `json:"message"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		RenterID:        user.ID,
		RenterEmail:     user.Email,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Delivery:        req.Delivery,
		Service:         req.Service,
		Unit:            req.Unit,
		Hours:           req.Hours,
		LicenseAttested: req.LicenseAttested,
		Message:         req.Message,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/bookings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := bookingapp.CancelBookingCommand{RenterID: user.ID, BookingID: strings.TrimSpace(c.Param("id"))}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.HostBookingActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Mine(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.ListRenterBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.ListRenterBookingsQuery{RenterID: user.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Invoice(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.GetInvoiceQuery{UserID: user.ID, BookingID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[bookingapp.GetInvoiceQuery, dto.Invoice](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
