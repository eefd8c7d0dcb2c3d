package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"innkeeper/internal/config"
	"innkeeper/internal/docstore"
	"innkeeper/internal/events"
	"innkeeper/internal/fetch"
	"innkeeper/internal/models"
	"innkeeper/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv   *Server
	store *docstore.MemoryStore
}

func newTestServer(t *testing.T, extra func(deps *Deps)) *testServer {
	t.Helper()

	store := docstore.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	fetchers := fetch.New(store)
	bus := events.NewBus()

	payments := service.NewPaymentService(store, fetchers, bus, nil, false, &logger)
	deps := Deps{
		Reader:     service.NewAggregator(store, fetchers, payments, time.Second, &logger),
		Bookings:   service.NewBookingService(store, bus, nil, true, &logger),
		Payments:   payments,
		Rooms:      service.NewRoomService(store, fetchers, nil, &logger),
		Categories: service.NewCategoryService(store, nil, &logger),
		Users:      service.NewUserService(store, nil, &logger),
		Hotels:     service.NewHotelService(store),
	}
	if extra != nil {
		extra(&deps)
	}

	cfg := config.APIConfig{
		Enabled:   true,
		Port:      8080,
		RateLimit: config.APIRateLimitConfig{RPS: 1000, Burst: 1000},
	}

	return &testServer{srv: NewServer(cfg, deps, &logger), store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) add(t *testing.T, collection string, doc any) string {
	t.Helper()
	id, err := ts.store.Add(context.Background(), collection, doc)
	require.NoError(t, err)
	return id
}

func (ts *testServer) seedBooking(t *testing.T) string {
	t.Helper()

	userID := ts.add(t, models.CollectionUsers, models.User{UserName: "mira", Email: "mira@example.com"})
	categoryID := ts.add(t, models.CollectionCategories, models.Category{CategoryName: "Deluxe"})
	roomID := ts.add(t, models.CollectionRooms, models.Room{
		CategoryID: categoryID,
		RoomNo:     "101",
		Price:      1000,
		Status:     models.RoomStatusAvailable,
	})
	return ts.add(t, models.CollectionBookings, models.Booking{
		UserID:       userID,
		RoomIDs:      []string{roomID},
		Status:       models.BookingStatusPending,
		CheckInDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC),
	})
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListBookingsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	bookingID := ts.seedBooking(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/bookings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Bookings []models.BookingSummary `json:"bookings"`
	}
	decodeInto(t, rec, &resp)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, bookingID, resp.Bookings[0].ID)
	assert.Equal(t, "mira", resp.Bookings[0].UserName)
	assert.Equal(t, "101", resp.Bookings[0].RoomNumber)
	assert.Equal(t, 1000.0, resp.Bookings[0].TotalAmount)
	assert.Equal(t, models.PaymentStatusPending, resp.Bookings[0].PaymentStatus)
}

func TestBookingDetailEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	bookingID := ts.seedBooking(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/bookings/"+bookingID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail models.BookingDetail
	decodeInto(t, rec, &detail)
	assert.Equal(t, bookingID, detail.ID)
	assert.Equal(t, "mira", detail.GuestName)

	rec = ts.do(t, http.MethodGet, "/api/v1/bookings/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	bookingID := ts.seedBooking(t)

	rec := ts.do(t, http.MethodPatch, "/api/v1/bookings/"+bookingID+"/status",
		map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code)

	raw, err := ts.store.Get(context.Background(), models.CollectionBookings, bookingID)
	require.NoError(t, err)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(raw, &booking))
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

	rec = ts.do(t, http.MethodPatch, "/api/v1/bookings/"+bookingID+"/status",
		map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/bookings/nope/status",
		map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)
	bookingID := ts.seedBooking(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/payments",
		map[string]any{"amount": 1200, "paymentType": "Card"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "exceeds the room-derived total")

	rec = ts.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/payments",
		map[string]any{"amount": 400, "paymentType": "Card"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var payment models.Payment
	decodeInto(t, rec, &payment)
	assert.Equal(t, "Advance 1", payment.Label)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)

	rec = ts.do(t, http.MethodGet, "/api/v1/bookings/"+bookingID+"/payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Payments []models.Payment `json:"payments"`
	}
	decodeInto(t, rec, &history)
	require.Len(t, history.Payments, 1)

	rec = ts.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/payments/settle",
		map[string]string{"paymentType": "Cash"})
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeInto(t, rec, &payment)
	assert.Equal(t, models.PaymentLabelFinal, payment.Label)
	assert.Equal(t, 600.0, payment.PaidAmount)

	rec = ts.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/payments/settle",
		map[string]string{"paymentType": "Cash"})
	assert.Equal(t, http.StatusConflict, rec.Code, "booking already settled")
}

func TestRejectPaymentEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	bookingID := ts.seedBooking(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/payments",
		map[string]any{"amount": 400, "paymentType": "Card"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var payment models.Payment
	decodeInto(t, rec, &payment)

	rec = ts.do(t, http.MethodPost, "/api/v1/payments/"+payment.ID+"/reject", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/payments/nope/reject", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoomEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/rooms",
		models.Room{RoomNo: "201", Price: 1500})
	require.Equal(t, http.StatusCreated, rec.Code)

	var room models.Room
	decodeInto(t, rec, &room)
	assert.Equal(t, models.RoomStatusAvailable, room.Status)

	rec = ts.do(t, http.MethodPatch, "/api/v1/rooms/"+room.ID,
		map[string]any{"price": 1800})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rooms []models.ResolvedRoom `json:"rooms"`
	}
	decodeInto(t, rec, &list)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, 1800.0, list.Rooms[0].Price)

	rec = ts.do(t, http.MethodPatch, "/api/v1/rooms/nope", map[string]any{"price": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/rooms/"+room.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCategoryEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/categories", map[string]string{"name": "Suite"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var category models.Category
	decodeInto(t, rec, &category)
	assert.Equal(t, "Suite", category.CategoryName)

	rec = ts.do(t, http.MethodPatch, "/api/v1/categories/"+category.ID,
		map[string]string{"name": "Junior Suite"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/categories/"+category.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUserEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)
	userID := ts.add(t, models.CollectionUsers, models.User{UserName: "mira"})

	rec := ts.do(t, http.MethodGet, "/api/v1/users/"+userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/v1/users/"+userID,
		map[string]any{"address": "12 Shore Rd"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/users/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnapshotEndpoint(t *testing.T) {
	state := &fakeState{seq: 7, rows: []models.BookingSummary{{ID: "bk-1"}}}
	ts := newTestServer(t, func(deps *Deps) { deps.State = state })

	rec := ts.do(t, http.MethodGet, "/api/v1/bookings/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sequence uint64                  `json:"sequence"`
		Bookings []models.BookingSummary `json:"bookings"`
	}
	decodeInto(t, rec, &resp)
	assert.Equal(t, uint64(7), resp.Sequence)
	require.Len(t, resp.Bookings, 1)

	ts = newTestServer(t, nil)
	rec = ts.do(t, http.MethodGet, "/api/v1/bookings/snapshot", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReportEndpoints(t *testing.T) {
	reports := &fakeReports{}
	ts := newTestServer(t, func(deps *Deps) { deps.Reports = reports })

	rec := ts.do(t, http.MethodPost, "/api/v1/reports/export", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, reports.exports)

	rec = ts.do(t, http.MethodPost, "/api/v1/reports/push", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, reports.snapshots)

	reports.err = errors.New("queue full")
	rec = ts.do(t, http.MethodPost, "/api/v1/reports/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ts = newTestServer(t, nil)
	rec = ts.do(t, http.MethodPost, "/api/v1/reports/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type fakeState struct {
	seq  uint64
	rows []models.BookingSummary
}

func (f *fakeState) Snapshot() []models.BookingSummary { return f.rows }
func (f *fakeState) Sequence() uint64                  { return f.seq }

type fakeReports struct {
	snapshots int
	exports   int
	err       error
}

func (f *fakeReports) EnqueueSnapshot(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.snapshots++
	return nil
}

func (f *fakeReports) EnqueueExport(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.exports++
	return nil
}
