package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"innkeeper/internal/docstore"
	"innkeeper/internal/domain"
	"innkeeper/internal/events"
	"innkeeper/internal/fetch"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

// PaymentService owns the payment history of bookings: rollups for the
// list screens, the ordered history for the audit view, and the write
// path (partial payments, settlement, rejection).
type PaymentService struct {
	store             docstore.Store
	fetchers          *fetch.Fetchers
	bus               domain.EventPublisher
	audit             domain.AuditSink
	rejectedDominates bool
	now               func() time.Time
	logger            *zerolog.Logger
}

func NewPaymentService(
	store docstore.Store,
	fetchers *fetch.Fetchers,
	bus domain.EventPublisher,
	audit domain.AuditSink,
	rejectedDominates bool,
	logger *zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		store:             store,
		fetchers:          fetchers,
		bus:               bus,
		audit:             audit,
		rejectedDominates: rejectedDominates,
		now:               time.Now,
		logger:            logger,
	}
}

// DerivePaymentStatus computes a booking's reconciled payment status.
//
// Paid short-circuits as soon as the cumulative paid amount covers the
// effective total. Otherwise the latest row's Rejected status wins;
// with rejectedDominates any Rejected row forces the overall status.
func DerivePaymentStatus(paid, total float64, statusesByDate []string, rejectedDominates bool) string {
	if paid >= total {
		return models.PaymentStatusPaid
	}

	if rejectedDominates {
		for _, s := range statusesByDate {
			if s == models.PaymentStatusRejected {
				return models.PaymentStatusRejected
			}
		}
	} else if n := len(statusesByDate); n > 0 && statusesByDate[n-1] == models.PaymentStatusRejected {
		return models.PaymentStatusRejected
	}

	return models.PaymentStatusPending
}

// StatusFor applies the configured rejection precedence.
func (s *PaymentService) StatusFor(paid, total float64, statusesByDate []string) string {
	return DerivePaymentStatus(paid, total, statusesByDate, s.rejectedDominates)
}

// RollupByBookingIDs aggregates payment rows per booking, chunking the
// bookingId filter at the store's cap. Rows fold in paymentDate order.
// StatedTotal keeps the last row's totalAmount for the payments screen;
// it is never used as a source of truth.
func (s *PaymentService) RollupByBookingIDs(ctx context.Context, bookingIDs []string) (map[string]models.PaymentRollup, error) {
	out := make(map[string]models.PaymentRollup)
	ids := dedupeIDs(bookingIDs)
	if len(ids) == 0 {
		return out, nil
	}

	grouped := make(map[string][]models.Payment)
	for _, chunk := range chunkIDs(ids, docstore.MaxInValues) {
		raws, err := s.store.Query(ctx, models.CollectionPayments, docstore.FieldIn("bookingId", chunk))
		if err != nil {
			return nil, fmt.Errorf("fetch payments batch: %w", err)
		}
		rows, err := docstore.DecodeAll[models.Payment](raws)
		if err != nil {
			return nil, fmt.Errorf("fetch payments batch: %w", err)
		}
		for _, row := range rows {
			grouped[row.BookingID] = append(grouped[row.BookingID], row)
		}
	}

	for bookingID, rows := range grouped {
		sortPayments(rows)

		rollup := models.PaymentRollup{BookingID: bookingID}
		for _, row := range rows {
			rollup.PaidAmount += row.PaidAmount
			rollup.StatedTotal = row.TotalAmount
			rollup.Statuses = append(rollup.Statuses, row.Status)
			if !row.PaymentDate.IsZero() {
				rollup.PaymentDates = append(rollup.PaymentDates, row.PaymentDate)
			}
			if row.ReceiptPath != "" {
				rollup.ReceiptPaths = append(rollup.ReceiptPaths, row.ReceiptPath)
			}
		}
		out[bookingID] = rollup
	}
	return out, nil
}

// HistoryByBookingID returns the full unaggregated history, ordered by
// payment date ascending.
func (s *PaymentService) HistoryByBookingID(ctx context.Context, bookingID string) ([]models.Payment, error) {
	raws, err := s.store.Query(ctx, models.CollectionPayments, docstore.FieldEquals("bookingId", bookingID))
	if err != nil {
		return nil, fmt.Errorf("fetch payment history: %w", err)
	}

	rows, err := docstore.DecodeAll[models.Payment](raws)
	if err != nil {
		return nil, fmt.Errorf("fetch payment history: %w", err)
	}
	sortPayments(rows)
	return rows, nil
}

// ListPayments builds the payments overview: one row per booking with
// its rollup figures. Here paymentStatus is the screen's historical
// rule (anything paid at all shows Paid) and totalAmount is the stated
// payment-row figure, both kept for fidelity with the original screen.
func (s *PaymentService) ListPayments(ctx context.Context) ([]models.PaymentListEntry, error) {
	raws, err := s.store.List(ctx, models.CollectionBookings)
	if err != nil {
		return nil, fmt.Errorf("list bookings for payments: %w", err)
	}
	bookings, err := docstore.DecodeAll[models.Booking](raws)
	if err != nil {
		return nil, fmt.Errorf("list bookings for payments: %w", err)
	}

	bookingIDs := make([]string, 0, len(bookings))
	userIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		bookingIDs = append(bookingIDs, b.ID)
		userIDs = append(userIDs, b.UserID)
	}

	users, err := s.fetchers.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	rollups, err := s.RollupByBookingIDs(ctx, bookingIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]models.PaymentListEntry, 0, len(bookings))
	for _, b := range bookings {
		rollup := rollups[b.ID]

		status := models.PaymentStatusPending
		if rollup.PaidAmount > 0 {
			status = models.PaymentStatusPaid
		}

		entries = append(entries, models.PaymentListEntry{
			BookingID:     b.ID,
			GuestName:     userName(users, b.UserID),
			CheckIn:       b.CheckInDate,
			CheckOut:      b.CheckOutDate,
			PaidAmount:    rollup.PaidAmount,
			TotalAmount:   rollup.StatedTotal,
			PaymentStatus: status,
			BookingStatus: b.RawStatus(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CheckIn.Equal(entries[j].CheckIn) {
			return entries[i].CheckIn.Before(entries[j].CheckIn)
		}
		return entries[i].BookingID < entries[j].BookingID
	})
	return entries, nil
}

// AddPayment appends a payment row. The amount must fit the remaining
// balance against the room-derived total, and the booking's payment
// state must not be terminal. The label sequences automatically:
// "Final Payment" when this row completes the total, otherwise
// "Advance N" counted from prior advance rows.
func (s *PaymentService) AddPayment(ctx context.Context, bookingID string, amount float64, paymentType string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	total, err := s.effectiveTotal(ctx, booking.RoomIDs)
	if err != nil {
		return nil, err
	}

	history, err := s.HistoryByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var paid float64
	statuses := make([]string, 0, len(history))
	advances := 0
	for _, row := range history {
		paid += row.PaidAmount
		statuses = append(statuses, row.Status)
		if strings.HasPrefix(row.Label, models.PaymentLabelAdvancePrefix) {
			advances++
		}
	}

	switch s.StatusFor(paid, total, statuses) {
	case models.PaymentStatusPaid:
		return nil, ErrAlreadySettled
	case models.PaymentStatusRejected:
		return nil, ErrAlreadyRejected
	}

	remaining := total - paid
	if amount > remaining {
		return nil, fmt.Errorf("%w: remaining %.2f, requested %.2f", ErrExceedsBalance, remaining, amount)
	}

	if paymentType == "" {
		paymentType = models.PaymentTypeCash
	}

	row := models.Payment{
		BookingID:   bookingID,
		PaidAmount:  amount,
		TotalAmount: total,
		PaymentType: paymentType,
		PaymentDate: s.now(),
	}
	if paid+amount >= total {
		row.Label = models.PaymentLabelFinal
		row.Status = models.PaymentStatusPaid
	} else {
		row.Label = fmt.Sprintf("%s %d", models.PaymentLabelAdvancePrefix, advances+1)
		row.Status = models.PaymentStatusPending
	}

	id, err := s.store.Add(ctx, models.CollectionPayments, row)
	if err != nil {
		return nil, fmt.Errorf("add payment: %w", err)
	}
	row.ID = id

	eventType := events.EventPaymentAdded
	if row.Status == models.PaymentStatusPaid {
		eventType = events.EventPaymentCompleted
	}
	s.publish(eventType, events.PaymentEventPayload{
		PaymentID:  row.ID,
		BookingID:  bookingID,
		Label:      row.Label,
		PaidAmount: row.PaidAmount,
		Status:     row.Status,
	})
	s.record(ctx, "payment.add", models.CollectionPayments, row.ID,
		fmt.Sprintf("%s %.2f for booking %s", row.Label, amount, bookingID))

	return &row, nil
}

// SettleRemaining books the outstanding balance in a single final
// payment, the "Mark Paid" action of the dashboard.
func (s *PaymentService) SettleRemaining(ctx context.Context, bookingID, paymentType string) (*models.Payment, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	total, err := s.effectiveTotal(ctx, booking.RoomIDs)
	if err != nil {
		return nil, err
	}

	rollups, err := s.RollupByBookingIDs(ctx, []string{bookingID})
	if err != nil {
		return nil, err
	}

	remaining := total - rollups[bookingID].PaidAmount
	if remaining <= 0 {
		return nil, ErrAlreadySettled
	}
	return s.AddPayment(ctx, bookingID, remaining, paymentType)
}

// RejectPayment marks one row Rejected. A booking that already
// reconciles to Paid refuses the rejection: paid is terminal.
func (s *PaymentService) RejectPayment(ctx context.Context, paymentID string) error {
	raw, err := s.store.Get(ctx, models.CollectionPayments, paymentID)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrPaymentNotFound
	}
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}

	var row models.Payment
	if err := docstore.Decode(raw, &row); err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if row.Status == models.PaymentStatusRejected {
		return ErrAlreadyRejected
	}

	booking, err := s.getBooking(ctx, row.BookingID)
	if err == nil {
		total, terr := s.effectiveTotal(ctx, booking.RoomIDs)
		if terr != nil {
			return terr
		}
		rollups, rerr := s.RollupByBookingIDs(ctx, []string{row.BookingID})
		if rerr != nil {
			return rerr
		}
		rollup := rollups[row.BookingID]
		if s.StatusFor(rollup.PaidAmount, total, rollup.Statuses) == models.PaymentStatusPaid {
			return ErrAlreadySettled
		}
	}

	if err := s.store.Update(ctx, models.CollectionPayments, paymentID, map[string]any{
		"status": models.PaymentStatusRejected,
	}); err != nil {
		return fmt.Errorf("reject payment: %w", err)
	}

	s.publish(events.EventPaymentRejected, events.PaymentEventPayload{
		PaymentID: paymentID,
		BookingID: row.BookingID,
		Status:    models.PaymentStatusRejected,
	})
	s.record(ctx, "payment.reject", models.CollectionPayments, paymentID, "")
	return nil
}

func (s *PaymentService) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	raw, err := s.store.Get(ctx, models.CollectionBookings, bookingID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}

	var booking models.Booking
	if err := docstore.Decode(raw, &booking); err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return &booking, nil
}

// effectiveTotal recomputes the booking total from current room prices.
// Unresolvable rooms contribute nothing; they are skipped, not errors.
func (s *PaymentService) effectiveTotal(ctx context.Context, roomIDs []string) (float64, error) {
	rooms, err := s.fetchers.RoomsByIDs(ctx, roomIDs)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, id := range roomIDs {
		if room, ok := rooms[id]; ok {
			total += room.Price
		}
	}
	return total, nil
}

func (s *PaymentService) publish(eventType string, payload events.PaymentEventPayload) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", payload.BookingID).Msg("publish event error")
	}
}

func (s *PaymentService) record(ctx context.Context, action, entity, entityID, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entity, entityID, detail); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("audit record error")
	}
}

func sortPayments(rows []models.Payment) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].PaymentDate.Equal(rows[j].PaymentDate) {
			return rows[i].PaymentDate.Before(rows[j].PaymentDate)
		}
		return rows[i].ID < rows[j].ID
	})
}

func userName(users map[string]models.User, id string) string {
	if u, ok := users[id]; ok {
		return u.DisplayName()
	}
	return models.FallbackGuestName
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkIDs(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	return append(out, ids)
}
