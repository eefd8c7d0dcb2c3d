// Package api exposes the admin dashboard over HTTP with API-key auth
// and per-client rate limiting.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"innkeeper/internal/config"
	"innkeeper/internal/docstore"
	"innkeeper/internal/domain"
	"innkeeper/internal/metrics"
	"innkeeper/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Deps collects everything the HTTP surface serves from.
type Deps struct {
	Reader     domain.BookingReader
	Bookings   domain.BookingWriter
	Payments   domain.PaymentOperations
	Rooms      *service.RoomService
	Categories *service.CategoryService
	Users      *service.UserService
	Hotels     *service.HotelService
	State      domain.BookingStateReader
	Reports    domain.ReportWorker
}

// Server is the admin HTTP API.
type Server struct {
	cfg    config.APIConfig
	deps   Deps
	server *http.Server
	logger *zerolog.Logger
}

func NewServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *Server {
	srv := &Server{cfg: cfg, deps: deps, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)

	mux.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("GET /api/v1/bookings/snapshot", srv.handleSnapshot)
	mux.HandleFunc("GET /api/v1/bookings/{id}", srv.handleBookingDetail)
	mux.HandleFunc("PATCH /api/v1/bookings/{id}/status", srv.handleBookingStatus)
	mux.HandleFunc("GET /api/v1/bookings/{id}/payments", srv.handlePaymentHistory)
	mux.HandleFunc("POST /api/v1/bookings/{id}/payments", srv.handleAddPayment)
	mux.HandleFunc("POST /api/v1/bookings/{id}/payments/settle", srv.handleSettle)

	mux.HandleFunc("GET /api/v1/payments", srv.handleListPayments)
	mux.HandleFunc("POST /api/v1/payments/{id}/reject", srv.handleRejectPayment)

	mux.HandleFunc("GET /api/v1/rooms", srv.handleListRooms)
	mux.HandleFunc("POST /api/v1/rooms", srv.handleAddRoom)
	mux.HandleFunc("PATCH /api/v1/rooms/{id}", srv.handleUpdateRoom)
	mux.HandleFunc("DELETE /api/v1/rooms/{id}", srv.handleDeleteRoom)
	mux.HandleFunc("GET /api/v1/rooms/{id}/bookings", srv.handleRoomBookings)

	mux.HandleFunc("GET /api/v1/categories", srv.handleListCategories)
	mux.HandleFunc("POST /api/v1/categories", srv.handleAddCategory)
	mux.HandleFunc("PATCH /api/v1/categories/{id}", srv.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/v1/categories/{id}", srv.handleDeleteCategory)

	mux.HandleFunc("GET /api/v1/users", srv.handleListUsers)
	mux.HandleFunc("GET /api/v1/users/{id}", srv.handleGetUser)
	mux.HandleFunc("PATCH /api/v1/users/{id}", srv.handleUpdateUser)
	mux.HandleFunc("DELETE /api/v1/users/{id}", srv.handleDeleteUser)

	mux.HandleFunc("GET /api/v1/hotels", srv.handleListHotels)
	mux.HandleFunc("GET /api/v1/hotels/{id}", srv.handleGetHotel)

	mux.HandleFunc("POST /api/v1/reports/export", srv.handleExportReport)
	mux.HandleFunc("POST /api/v1/reports/push", srv.handlePushReport)

	auth := NewHTTPAuth(cfg)
	handler := srv.loggingMiddleware(auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler exposes the full middleware chain for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	if s.logger != nil {
		s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	}
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

const requestIDHeader = "x-request-id"

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	base := zerolog.Nop()
	if s.logger != nil {
		base = s.logger.With().Str("component", "http").Logger()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.IncHTTP(endpoint)

		base.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", remoteHost(r)).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP statuses. Unknown
// errors become opaque 500s; the details stay in the log.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrExceedsBalance),
		errors.Is(err, docstore.ErrFilterTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadySettled),
		errors.Is(err, service.ErrAlreadyRejected):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPartialUpdate):
		// The caller must learn which writes landed, so this one keeps
		// its message.
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		if s.logger != nil {
			s.logger.Error().Err(err).Msg("request failed")
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
