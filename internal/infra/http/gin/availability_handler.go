package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rigrent/internal/app/dto"
	availabilityapp "rigrent/internal/app/handlers/availability"
	"rigrent/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type batchAvailabilityRequest struct {
	ListingIDs []string `json:"listing_ids" binding:"required"`
	StartDate  string   `json:"start_date" binding:"required"`
	EndDate    string   `json:"end_date" binding:"required"`
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	query := availabilityapp.CheckAvailabilityQuery{
		ListingID: c.Param("id"),
		StartDate: c.Query("start"),
		EndDate:   c.Query("end"),
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Batch(c *gin.Context) {
	var req batchAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.CheckAvailabilityBatchQuery{
		ListingIDs: req.ListingIDs,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityBatchQuery, dto.AvailabilityBatch](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetCalendarQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
