package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/export"
	"shareit/internal/models"
	"shareit/internal/repository"
	"shareit/internal/service"
	"shareit/internal/worker"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type apiEnv struct {
	svc     Services
	server  *HTTPServer
	handler http.Handler
}

func newAPIEnv(t *testing.T, cfg config.APIConfig, writes *WriteLimiter) *apiEnv {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := domain.ClockFunc(func() time.Time { return testNow })
	bus := events.NewEventBus(&logger)
	users := service.NewUserService(db, &logger)
	items := service.NewItemService(db, users, bus, &logger)
	bookings := service.NewBookingService(db, users, items, clock, bus, &logger)

	svc := Services{Bookings: bookings, Users: users, Items: items}
	server := NewHTTPServer(cfg, svc, writes, &logger)
	server.clock = clock
	return &apiEnv{svc: svc, server: server, handler: server.Handler()}
}

func (e *apiEnv) do(t *testing.T, method, path string, actorID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if actorID != 0 {
		req.Header.Set(config.DefaultHeaderUserID, strconv.FormatInt(actorID, 10))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *apiEnv) createUser(t *testing.T, name string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/users", 0, createUserRequest{Name: name, Email: name + "@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.User](t, rec).ID
}

func (e *apiEnv) createItem(t *testing.T, ownerID int64, available bool) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/items", ownerID, map[string]any{"name": "drill", "description": "cordless", "available": available})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Item](t, rec).ID
}

func (e *apiEnv) createBooking(t *testing.T, bookerID, itemID int64, start, end time.Time) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/bookings", bookerID, createBookingRequest{ItemID: itemID, Start: start, End: end})
}

func enabledAPI() config.APIConfig {
	return config.APIConfig{Enabled: true, HTTP: config.APIHTTPConfig{Enabled: true}}
}

func TestHTTP_BookingLifecycle(t *testing.T) {
	env := newAPIEnv(t, enabledAPI(), nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	stranger := env.createUser(t, "stranger")
	item := env.createItem(t, owner, true)

	rec := env.createBooking(t, booker, item, testNow.Add(day), testNow.Add(2*day))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[models.Booking](t, rec)
	assert.Equal(t, models.StatusWaiting, booking.Status)
	assert.Equal(t, booker, booking.BookerID)

	path := fmt.Sprintf("/bookings/%d", booking.ID)

	rec = env.do(t, http.MethodPatch, path+"?approved=true", booker, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, path+"?approved=maybe", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, path+"?approved=true", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusApproved, decode[models.Booking](t, rec).Status)

	rec = env.do(t, http.MethodPatch, path+"?approved=false", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, path, booker, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, path, owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, path, stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/bookings?state=FUTURE", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Booking](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/bookings/owner?state=waiting", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Booking](t, rec))

	rec = env.do(t, http.MethodGet, "/bookings/owner", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Booking](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/bookings?state=BOGUS", booker, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown booking state: BOGUS")

	itemPath := fmt.Sprintf("/items/%d", item)
	rec = env.do(t, http.MethodGet, itemPath, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ownerView := decode[models.ItemSummary](t, rec)
	require.NotNil(t, ownerView.NextBooking)
	assert.Equal(t, booking.ID, ownerView.NextBooking.ID)
	assert.Nil(t, ownerView.LastBooking)

	rec = env.do(t, http.MethodGet, itemPath, booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bookerView := decode[models.ItemSummary](t, rec)
	assert.Nil(t, bookerView.NextBooking)
	assert.Equal(t, item, bookerView.Item.ID)
}

func TestHTTP_CreateBookingErrors(t *testing.T) {
	env := newAPIEnv(t, enabledAPI(), nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	available := env.createItem(t, owner, true)
	unavailable := env.createItem(t, owner, false)

	tests := []struct {
		name   string
		actor  int64
		item   int64
		start  time.Time
		end    time.Time
		status int
	}{
		{"UnknownUser", 999, available, testNow.Add(day), testNow.Add(2 * day), http.StatusNotFound},
		{"StartAfterEnd", booker, available, testNow.Add(2 * day), testNow.Add(day), http.StatusBadRequest},
		{"StartEqualsEnd", booker, available, testNow.Add(day), testNow.Add(day), http.StatusBadRequest},
		{"UnknownItem", booker, 999, testNow.Add(day), testNow.Add(2 * day), http.StatusNotFound},
		{"Unavailable", booker, unavailable, testNow.Add(day), testNow.Add(2 * day), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.createBooking(t, tt.actor, tt.item, tt.start, tt.end)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	t.Run("MissingActor", func(t *testing.T) {
		rec := env.createBooking(t, 0, available, testNow.Add(day), testNow.Add(2*day))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownField", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/bookings", booker, map[string]any{"item_id": available, "bogus": 1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTP_Users(t *testing.T) {
	env := newAPIEnv(t, enabledAPI(), nil)
	id := env.createUser(t, "ann")

	rec := env.do(t, http.MethodPost, "/users", 0, createUserRequest{Name: "other", Email: "ann@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/users", 0, createUserRequest{Name: "x", Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/users/%d", id), 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ann", decode[models.User](t, rec).Name)

	rec = env.do(t, http.MethodGet, "/users/404", 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/users/abc", 0, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_ItemAvailability(t *testing.T) {
	env := newAPIEnv(t, enabledAPI(), nil)
	owner := env.createUser(t, "owner")
	other := env.createUser(t, "other")
	item := env.createItem(t, owner, true)
	path := fmt.Sprintf("/items/%d", item)

	rec := env.do(t, http.MethodPatch, path, other, updateItemRequest{Available: new(bool)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, path, owner, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, path, owner, updateItemRequest{Available: new(bool)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Item](t, rec).Available)

	rec = env.createBooking(t, other, item, testNow.Add(day), testNow.Add(2*day))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/items", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[map[string][]models.Item](t, rec)
	assert.Len(t, listed["items"], 1)
}

func TestHTTP_Pagination(t *testing.T) {
	env := newAPIEnv(t, enabledAPI(), nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	item := env.createItem(t, owner, true)

	for i := 1; i <= 3; i++ {
		start := testNow.Add(time.Duration(i) * day)
		rec := env.createBooking(t, booker, item, start, start.Add(time.Hour))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/bookings?from=1&size=1", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]models.Booking](t, rec)
	require.Len(t, page, 1)
	assert.True(t, page[0].Start.Equal(testNow.Add(2*day)))

	rec = env.do(t, http.MethodGet, "/bookings?from=10", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Booking](t, rec))

	rec = env.do(t, http.MethodGet, "/bookings?from=-1", booker, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_ExportOwnerBookings(t *testing.T) {
	env := newAPIEnv(t, enabledAPI(), nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	item := env.createItem(t, owner, true)
	rec := env.createBooking(t, booker, item, testNow.Add(day), testNow.Add(2*day))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/bookings/owner/export?state=waiting", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bookings_waiting_2030-06-01.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rec = env.do(t, http.MethodGet, "/bookings/owner/export?state=nope", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_WriteLimit(t *testing.T) {
	limiter := NewWriteLimiter(repository.NewMemoryRateLimiter(), config.BookingConfig{WriteLimit: 2, WriteWindow: 60}, nil)
	env := newAPIEnv(t, enabledAPI(), limiter)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")

	// item creation counts against the owner, not the booker
	item := env.createItem(t, owner, true)

	for i := 0; i < 2; i++ {
		rec := env.createBooking(t, booker, item, testNow.Add(day), testNow.Add(2*day))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := env.createBooking(t, booker, item, testNow.Add(day), testNow.Add(2*day))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// reads are not limited
	rec = env.do(t, http.MethodGet, "/bookings", booker, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTP_RequestIDAndHealth(t *testing.T) {
	env := newAPIEnv(t, enabledAPI(), nil)

	rec := env.do(t, http.MethodGet, healthPath, 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, limiterOff, decode[map[string]string](t, rec)["write_limiter"])

	req := httptest.NewRequest(http.MethodGet, healthPath, nil)
	req.Header.Set(requestIDHeader, "req-1")
	out := httptest.NewRecorder()
	env.handler.ServeHTTP(out, req)
	assert.Equal(t, "req-1", out.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodDelete, "/bookings/1", 1, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type failingCounter struct{}

func (failingCounter) CheckRateLimit(context.Context, int64, int, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestHTTP_HealthReportsLimiterFallback(t *testing.T) {
	logger := zerolog.Nop()
	policy := worker.RetryPolicy{InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 2}
	failover := repository.NewFailoverRateLimiter(failingCounter{}, repository.NewMemoryRateLimiter(), policy, &logger)
	limiter := NewWriteLimiter(failover, config.BookingConfig{WriteLimit: 5, WriteWindow: 60}, nil)
	env := newAPIEnv(t, enabledAPI(), limiter)

	rec := env.do(t, http.MethodGet, healthPath, 0, nil)
	assert.Equal(t, limiterPrimary, decode[map[string]string](t, rec)["write_limiter"])

	owner := env.createUser(t, "owner")
	env.createItem(t, owner, true)

	rec = env.do(t, http.MethodGet, healthPath, 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, limiterFallback, decode[map[string]string](t, rec)["write_limiter"])
}

func TestHTTP_JWTActor(t *testing.T) {
	cfg := enabledAPI()
	cfg.Auth.JWTSecret = "top-secret"
	env := newAPIEnv(t, cfg, nil)
	owner := env.createUser(t, "owner")

	// the plain header is not trusted once tokens are on
	rec := env.do(t, http.MethodGet, "/items", owner, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := IssueToken("top-secret", owner, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set(authorizationHeader, bearerPrefix+token)
	out := httptest.NewRecorder()
	env.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
}
