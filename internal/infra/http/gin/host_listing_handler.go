package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	listingapp "rigrent/internal/app/handlers/listings"
	"rigrent/internal/app/queries"
)

type HostListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h HostListingHandler) List(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	limit := parseIntWithDefault(c.Query("limit"), 20)
	page := parseIntWithDefault(c.Query("page"), 1)
	offset := parseInt(c.Query("offset"))
	if offset == 0 && page > 1 {
		offset = (page - 1) * limit
	}
	query := listingapp.ListHostListingsQuery{OwnerID: owner.ID, Limit: limit, Offset: offset}
	result, err := queries.Ask[listingapp.ListHostListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Create(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.CreateHostListingCommand{OwnerID: owner.ID, Payload: req}
	result, err := commands.Dispatch[listingapp.CreateHostListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/host/listings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h HostListingHandler) Get(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	query := listingapp.GetHostListingQuery{OwnerID: owner.ID, ListingID: c.Param("id")}
	result, err := queries.Ask[listingapp.GetHostListingQuery, dto.Listing](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Update(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.UpdateHostListingCommand{OwnerID: owner.ID, ListingID: c.Param("id"), Payload: req}
	result, err := commands.Dispatch[listingapp.UpdateHostListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Publish(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := listingapp.PublishHostListingCommand{OwnerID: owner.ID, ListingID: c.Param("id")}
	result, err := commands.Dispatch[listingapp.PublishHostListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Unpublish(c *gin.Context) {
	owner, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := listingapp.UnpublishHostListingCommand{OwnerID: owner.ID, ListingID: c.Param("id")}
	result, err := commands.Dispatch[listingapp.UnpublishHostListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseIntWithDefault(raw string, fallback int) int {
	value := parseInt(raw)
	if value == 0 {
		return fallback
	}
	return value
}

var _ HostListingHTTP = HostListingHandler{}
