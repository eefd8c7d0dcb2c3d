package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"innkeeper/internal/docstore"
	"innkeeper/internal/domain"
	"innkeeper/internal/fetch"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

// RoomService manages the room inventory.
type RoomService struct {
	store    docstore.Store
	fetchers *fetch.Fetchers
	audit    domain.AuditSink
	logger   *zerolog.Logger
}

func NewRoomService(store docstore.Store, fetchers *fetch.Fetchers, audit domain.AuditSink, logger *zerolog.Logger) *RoomService {
	return &RoomService{store: store, fetchers: fetchers, audit: audit, logger: logger}
}

// ListRooms returns every room with its category and hotel names
// joined in, sorted by room number then id.
func (s *RoomService) ListRooms(ctx context.Context) ([]models.ResolvedRoom, error) {
	raws, err := s.store.List(ctx, models.CollectionRooms)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms, err := docstore.DecodeAll[models.Room](raws)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	resolved, err := s.fetchers.RoomsWithCategoryAndHotel(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	out := make([]models.ResolvedRoom, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomNo != out[j].RoomNo {
			return out[i].RoomNo < out[j].RoomNo
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AddRoom stores a new room. Missing status and property type get the
// inventory defaults.
func (s *RoomService) AddRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	if room.RoomNo == "" {
		return nil, fmt.Errorf("room number is required")
	}
	if room.Price < 0 {
		return nil, fmt.Errorf("room price must not be negative")
	}
	if room.Status == "" {
		room.Status = models.RoomStatusAvailable
	}
	if room.PropertyType == "" {
		room.PropertyType = models.PropertyTypeOwned
	}

	id, err := s.store.Add(ctx, models.CollectionRooms, map[string]any{
		"hotelId":      room.HotelID,
		"categoryId":   room.CategoryID,
		"roomNo":       room.RoomNo,
		"price":        room.Price,
		"status":       room.Status,
		"propertyType": room.PropertyType,
	})
	if err != nil {
		return nil, fmt.Errorf("add room: %w", err)
	}
	room.ID = id

	s.record(ctx, "room.add", models.CollectionRooms, id, room.RoomNo)
	return &room, nil
}

// UpdateRoom merges the given fields into an existing room document.
func (s *RoomService) UpdateRoom(ctx context.Context, roomID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := s.store.Update(ctx, models.CollectionRooms, roomID, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("update room %s: %w", roomID, err)
	}

	s.record(ctx, "room.update", models.CollectionRooms, roomID, "")
	return nil
}

// DeleteRoom removes the room document. Bookings referencing it keep
// their id; the read path degrades them to fallback labels. Deleting
// an absent room is a no-op.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	if err := s.store.Delete(ctx, models.CollectionRooms, roomID); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}

	s.record(ctx, "room.delete", models.CollectionRooms, roomID, "")
	return nil
}

// RoomBookings lists the bookings that include the given room, sorted
// by check-in date.
func (s *RoomService) RoomBookings(ctx context.Context, roomID string) ([]models.Booking, error) {
	raws, err := s.store.Query(ctx, models.CollectionBookings, docstore.ArrayContains("roomId", roomID))
	if err != nil {
		return nil, fmt.Errorf("bookings for room %s: %w", roomID, err)
	}
	bookings, err := docstore.DecodeAll[models.Booking](raws)
	if err != nil {
		return nil, fmt.Errorf("bookings for room %s: %w", roomID, err)
	}
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CheckInDate.Equal(bookings[j].CheckInDate) {
			return bookings[i].CheckInDate.Before(bookings[j].CheckInDate)
		}
		return bookings[i].ID < bookings[j].ID
	})
	return bookings, nil
}

func (s *RoomService) record(ctx context.Context, action, entity, entityID, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entity, entityID, detail); err != nil && s.logger != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
