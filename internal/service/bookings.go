package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"innkeeper/internal/docstore"
	"innkeeper/internal/domain"
	"innkeeper/internal/events"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

// BookingService performs booking status transitions. Confirming a
// booking also flips its rooms to Booked; by default the whole
// transition is applied as one atomic batch.
type BookingService struct {
	store         docstore.Store
	bus           domain.EventPublisher
	audit         domain.AuditSink
	atomicUpdates bool
	logger        *zerolog.Logger
}

func NewBookingService(
	store docstore.Store,
	bus domain.EventPublisher,
	audit domain.AuditSink,
	atomicUpdates bool,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		store:         store,
		bus:           bus,
		audit:         audit,
		atomicUpdates: atomicUpdates,
		logger:        logger,
	}
}

// UpdateStatus moves a booking to confirmed or rejected. Statuses are
// stored lowercase; display capitalization happens in the view layer.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != models.BookingStatusConfirmed && status != models.BookingStatusRejected {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if status == models.BookingStatusConfirmed && len(booking.RoomIDs) > 0 {
		return s.ConfirmWithRooms(ctx, bookingID, booking.RoomIDs)
	}

	err = s.store.Update(ctx, models.CollectionBookings, bookingID, map[string]any{
		"status": status,
	})
	if err != nil {
		return fmt.Errorf("update booking %s: %w", bookingID, err)
	}

	s.publishStatus(booking, status)
	s.record(ctx, "booking.status", models.CollectionBookings, bookingID, status)
	return nil
}

// ConfirmWithRooms confirms the booking and marks every given room as
// Booked. With atomic updates enabled the writes are applied as one
// batch; otherwise they apply sequentially and a mid-sequence failure
// surfaces as ErrPartialUpdate naming what already took effect.
func (s *BookingService) ConfirmWithRooms(ctx context.Context, bookingID string, roomIDs []string) error {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if s.atomicUpdates {
		writes := make([]docstore.Write, 0, len(roomIDs)+1)
		writes = append(writes, docstore.Write{
			Collection: models.CollectionBookings,
			ID:         bookingID,
			Fields:     map[string]any{"status": models.BookingStatusConfirmed},
		})
		for _, roomID := range roomIDs {
			writes = append(writes, docstore.Write{
				Collection: models.CollectionRooms,
				ID:         roomID,
				Fields:     map[string]any{"status": models.RoomStatusBooked},
			})
		}
		if err := s.store.ApplyWrites(ctx, writes); err != nil {
			return fmt.Errorf("confirm booking %s: %w", bookingID, err)
		}
	} else {
		if err := s.confirmSequential(ctx, bookingID, roomIDs); err != nil {
			return err
		}
	}

	s.publishStatus(booking, models.BookingStatusConfirmed)
	s.record(ctx, "booking.confirm", models.CollectionBookings, bookingID,
		fmt.Sprintf("rooms=%s", strings.Join(roomIDs, ",")))
	return nil
}

// confirmSequential applies the booking write first and the room writes
// one by one. There is no rollback; callers get ErrPartialUpdate with
// the applied and failed targets spelled out.
func (s *BookingService) confirmSequential(ctx context.Context, bookingID string, roomIDs []string) error {
	err := s.store.Update(ctx, models.CollectionBookings, bookingID, map[string]any{
		"status": models.BookingStatusConfirmed,
	})
	if err != nil {
		return fmt.Errorf("confirm booking %s: %w", bookingID, err)
	}

	applied := []string{"booking " + bookingID}
	for _, roomID := range roomIDs {
		err := s.store.Update(ctx, models.CollectionRooms, roomID, map[string]any{
			"status": models.RoomStatusBooked,
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Error().Err(err).
					Str("booking_id", bookingID).
					Str("room_id", roomID).
					Strs("applied", applied).
					Msg("room update failed mid-confirmation")
			}
			return fmt.Errorf("%w: applied [%s], failed on room %s: %v",
				ErrPartialUpdate, strings.Join(applied, ", "), roomID, err)
		}
		applied = append(applied, "room "+roomID)
	}
	return nil
}

func (s *BookingService) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	raw, err := s.store.Get(ctx, models.CollectionBookings, bookingID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	var b models.Booking
	if err := docstore.Decode(raw, &b); err != nil {
		return nil, fmt.Errorf("decode booking %s: %w", bookingID, err)
	}
	return &b, nil
}

func (s *BookingService) publishStatus(booking *models.Booking, status string) {
	eventType := events.EventBookingConfirmed
	if status == models.BookingStatusRejected {
		eventType = events.EventBookingRejected
	}
	if s.bus == nil {
		return
	}
	err := s.bus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Status:    status,
		RoomIDs:   booking.RoomIDs,
		CheckIn:   booking.CheckInDate,
		CheckOut:  booking.CheckOutDate,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("publish booking event")
	}
}

func (s *BookingService) record(ctx context.Context, action, entity, entityID, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entity, entityID, detail); err != nil && s.logger != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
