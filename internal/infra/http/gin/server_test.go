package ginserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/dto"
	bookingapp "rigrent/internal/app/handlers/booking"
	"rigrent/internal/app/middleware"
	"rigrent/internal/app/policies"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/registry"
	"rigrent/internal/domain/shared/errs"
	"rigrent/internal/infra/obs"
	"rigrent/internal/infra/storage/memory"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	factory := memory.Factory{Store: memory.NewStore()}

	deps := registry.Deps{UoWFactory: factory, Platform: policies.Platform{Currency: "USD", MaxServiceHours: 12}}

	cmdBus := commands.NewInMemoryBus()
	registry.RegisterCommands(cmdBus, deps)
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(middleware.ShapeValidator{}),
		middleware.Transaction(factory, nil),
	)
	qBus := queries.NewInMemoryBus()
	registry.RegisterQueries(qBus, deps)
	qs := middleware.ChainQueries(qBus,
		middleware.QueryAuthorization(middleware.RequireActor{}),
		middleware.QueryValidation(middleware.ShapeValidator{}),
	)

	return NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:        BookingHandler{Commands: cmds, Queries: qs},
		HostBooking:    HostBookingHandler{Commands: cmds, Queries: qs},
		Availability:   AvailabilityHandler{Queries: qs},
		Listing:        ListingHandler{Queries: qs},
		HostListing:    HostListingHandler{Commands: cmds, Queries: qs},
		AuthMiddleware: JWTAuth{Secret: testSecret}.Handle,
	})
}

func token(t *testing.T, sub string, ttl time.Duration) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func call(t *testing.T, r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user, time.Hour))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func publishedListing(t *testing.T, r http.Handler) string {
	t.Helper()
	w := call(t, r, http.MethodPost, "/api/v1/host/listings", "owner-1", dto.ListingInput{
		Title:          "Mini excavator",
		Category:       "excavator",
		TurnaroundDays: 1,
		DailyRate:      15000,
		Deposit:        20000,
		Delivery:       dto.DeliveryInput{Mode: "delivery_available", Fee: 5000, DiscountEnabled: true, DiscountAmount: 2000},
		Services: dto.ServicesInput{
			Operator: dto.OfferingInput{DailyEnabled: true, DailyRate: 8000, HourlyEnabled: true, HourlyRate: 2500},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	listing := decode[dto.Listing](t, w)
	assert.Equal(t, "/api/v1/host/listings/"+listing.ID, w.Header().Get("Location"))

	w = call(t, r, http.MethodPost, "/api/v1/host/listings/"+listing.ID+"/publish", "owner-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return listing.ID
}

func TestBookingFlowOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	listingID := publishedListing(t, r)

	w := call(t, r, http.MethodPost, "/api/v1/listings/"+listingID+"/quote", "", map[string]any{
		"start_date": "2030-06-01", "end_date": "2030-06-03", "delivery": true, "service": "operator",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(79200), decode[dto.PricingBreakdown](t, w).Total.Amount)

	w = call(t, r, http.MethodPost, "/api/v1/bookings", "renter-1", map[string]any{
		"listing_id": listingID, "start_date": "2030-06-01", "end_date": "2030-06-03", "delivery": true, "service": "operator",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode[dto.Booking](t, w)
	assert.Equal(t, "pending", booking.Status)

	w = call(t, r, http.MethodGet, "/api/v1/listings/"+listingID+"/availability?start=2030-06-02&end=2030-06-02", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.Availability](t, w).Available, "pending requests do not block")

	w = call(t, r, http.MethodPost, "/api/v1/host/bookings/"+booking.ID+"/approve", "renter-1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/host/bookings/"+booking.ID+"/approve", "owner-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approval := decode[bookingapp.ApprovalResult](t, w)
	assert.Equal(t, "approved", approval.Status)
	assert.False(t, approval.Notified)
	assert.NotEmpty(t, approval.NotifyError)

	w = call(t, r, http.MethodGet, "/api/v1/listings/"+listingID+"/availability?start=2030-06-04&end=2030-06-04", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[dto.Availability](t, w).Available, "turnaround day stays blocked")

	w = call(t, r, http.MethodPost, "/api/v1/listings/availability", "", map[string]any{
		"listing_ids": []string{listingID, "nope"}, "start_date": "2030-06-05", "end_date": "2030-06-06",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	batch := decode[dto.AvailabilityBatch](t, w)
	assert.Equal(t, []string{listingID}, batch.Available)
	assert.Equal(t, []string{"nope"}, batch.Failed)

	w = call(t, r, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/cancel", "renter-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "approved bookings cannot be cancelled")

	w = call(t, r, http.MethodGet, "/api/v1/bookings/"+booking.ID+"/invoice", "renter-1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = call(t, r, http.MethodGet, "/api/v1/bookings/"+booking.ID+"/invoice", "someone-else", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodGet, "/api/v1/host/bookings?status=approved", "owner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.BookingCollection](t, w).Items, 1)

	w = call(t, r, http.MethodGet, "/api/v1/me/bookings", "renter-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[dto.BookingCollection](t, w).Items, 1)
}

func TestRequestRejectionsCarryReasons(t *testing.T) {
	r := newTestRouter(t)
	listingID := publishedListing(t, r)

	w := call(t, r, http.MethodPost, "/api/v1/bookings", "renter-1", map[string]any{
		"listing_id": listingID, "start_date": "2030-06-05", "end_date": "2030-06-01",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "inverted_range", decode[errorBody](t, w).Reason)

	w = call(t, r, http.MethodPost, "/api/v1/bookings", "renter-1", map[string]any{
		"listing_id": listingID, "start_date": "2030-06-01", "end_date": "2030-06-01", "service": "operator", "service_unit": "hour", "hours": 13,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "hours_out_of_range", decode[errorBody](t, w).Reason)

	w = call(t, r, http.MethodPost, "/api/v1/bookings", "renter-1", map[string]any{
		"listing_id": "missing", "start_date": "2030-06-01", "end_date": "2030-06-01",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/bookings", "renter-1", map[string]any{"listing_id": listingID})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, reasonInvalidRequest, decode[errorBody](t, w).Reason)
}

func TestAuthentication(t *testing.T) {
	r := newTestRouter(t)

	w := call(t, r, http.MethodGet, "/api/v1/me/bookings", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, reasonUnauthenticated, decode[errorBody](t, w).Reason)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "renter-1", -time.Minute))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "expired token")

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "renter-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "wrong signature")
}

func TestDevHeadersWithoutSecret(t *testing.T) {
	r := gin.New()
	r.Use(JWTAuth{}.Handle)
	r.GET("/who", func(c *gin.Context) {
		p, ok := requireUser(c)
		if !ok {
			return
		}
		c.String(http.StatusOK, p.ID)
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(devUserHeader, "dev-user")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev-user", w.Body.String())
}

func TestStatusFor(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          errs.Validation("x", "x"),
		http.StatusForbidden:           errs.Forbidden("x", "x"),
		http.StatusUnauthorized:        middleware.ErrUnauthenticated,
		http.StatusNotFound:            errs.NotFound("x", "x"),
		http.StatusConflict:            errs.Conflict("x", "x"),
		http.StatusBadGateway:          errs.New(errs.ErrUpstream, "x", "x"),
		http.StatusInternalServerError: assert.AnError,
	}
	for want, err := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
