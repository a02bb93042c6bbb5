package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rigrent/internal/infra/config"
	"rigrent/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Cancel(c *gin.Context)
	Mine(c *gin.Context)
	Invoice(c *gin.Context)
}

type HostBookingHTTP interface {
	List(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	FinalizeHours(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
	Batch(c *gin.Context)
	Calendar(c *gin.Context)
}

type ListingHTTP interface {
	Get(c *gin.Context)
	Quote(c *gin.Context)
}

type HostListingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Publish(c *gin.Context)
	Unpublish(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	HostBooking    HostBookingHTTP
	Availability   AvailabilityHTTP
	Listing        ListingHTTP
	HostListing    HostListingHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter wires middleware and routes without binding an address.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(obsMW.RequestID())
	router.Use(obsMW.Recovery())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Location",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Check)
		api.GET("/listings/:id/calendar", h.Availability.Calendar)
		api.POST("/listings/availability", h.Availability.Batch)
	}
	if h.Listing != nil {
		api.GET("/listings/:id", h.Listing.Get)
		api.POST("/listings/:id/quote", h.Listing.Quote)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.GET("/bookings/:id/invoice", h.Booking.Invoice)
		api.GET("/me/bookings", h.Booking.Mine)
	}
	if h.HostBooking != nil {
		hostBookings := api.Group("/host/bookings")
		hostBookings.GET("", h.HostBooking.List)
		hostBookings.POST("/:id/approve", h.HostBooking.Approve)
		hostBookings.POST("/:id/reject", h.HostBooking.Reject)
		hostBookings.POST("/:id/finalize-hours", h.HostBooking.FinalizeHours)
	}
	if h.HostListing != nil {
		hostListings := api.Group("/host/listings")
		hostListings.GET("", h.HostListing.List)
		hostListings.POST("", h.HostListing.Create)
		hostListings.GET("/:id", h.HostListing.Get)
		hostListings.PUT("/:id", h.HostListing.Update)
		hostListings.POST("/:id/publish", h.HostListing.Publish)
		hostListings.POST("/:id/unpublish", h.HostListing.Unpublish)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
