package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	bookingapp "rigrent/internal/app/handlers/booking"
	"rigrent/internal/app/queries"
)

type HostBookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type rejectBookingRequest struct {
	Reason string `json:"reason"`
}

type finalizeHoursRequest struct {
	Hours int `json:"hours"`
}

func (h HostBookingHandler) List(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	query := bookingapp.ListHostBookingsQuery{
		OwnerID: owner.ID,
		Status:  c.Query("status"),
	}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Approve answers 200 even when the renter could not be notified; the body
// carries notified=false in that case.
func (h HostBookingHandler) Approve(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := bookingapp.ApproveHostBookingCommand{
		OwnerID:   owner.ID,
		BookingID: strings.TrimSpace(c.Param("id")),
	}
	result, err := commands.Dispatch[bookingapp.ApproveHostBookingCommand, *bookingapp.ApprovalResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostBookingHandler) Reject(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	var req rejectBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	cmd := bookingapp.RejectHostBookingCommand{
		OwnerID:   owner.ID,
		BookingID: strings.TrimSpace(c.Param("id")),
		Reason:    strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[bookingapp.RejectHostBookingCommand, *bookingapp.HostBookingActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostBookingHandler) FinalizeHours(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	var req finalizeHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.FinalizeHoursCommand{
		OwnerID:   owner.ID,
		BookingID: strings.TrimSpace(c.Param("id")),
		Hours:     req.Hours,
	}
	result, err := commands.Dispatch[bookingapp.FinalizeHoursCommand, *bookingapp.FinalizeHoursResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostBookingHTTP = HostBookingHandler{}
