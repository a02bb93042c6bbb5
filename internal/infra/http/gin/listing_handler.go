package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rigrent/internal/app/dto"
	listingapp "rigrent/internal/app/handlers/listings"
	pricingapp "rigrent/internal/app/handlers/pricing"
	"rigrent/internal/app/queries"
)

// ListingHandler serves the public listing page and its price quote.
type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type quoteRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Delivery  bool   `json:"delivery"`
	Service   string `json:"service"`
	Unit      string `json:"service_unit"`
	Hours     int    `json:"hours"`
}

func (h ListingHandler) Get(c *gin.Context) {
	result, err := queries.Ask[listingapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, listingapp.GetListingQuery{ListingID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	query := pricingapp.QuoteQuery{
		ListingID: c.Param("id"),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Delivery:  req.Delivery,
		Service:   req.Service,
		Unit:      req.Unit,
		Hours:     req.Hours,
	}
	result, err := queries.Ask[pricingapp.QuoteQuery, dto.PricingBreakdown](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}
