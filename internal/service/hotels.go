package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"innkeeper/internal/docstore"
	"innkeeper/internal/models"
)

// HotelService exposes the hotel directory. The dashboard only reads
// hotels; they are provisioned out of band.
type HotelService struct {
	store docstore.Store
}

func NewHotelService(store docstore.Store) *HotelService {
	return &HotelService{store: store}
}

func (s *HotelService) ListHotels(ctx context.Context) ([]models.Hotel, error) {
	raws, err := s.store.List(ctx, models.CollectionHotels)
	if err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	hotels, err := docstore.DecodeAll[models.Hotel](raws)
	if err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	sort.Slice(hotels, func(i, j int) bool {
		if hotels[i].HotelName != hotels[j].HotelName {
			return hotels[i].HotelName < hotels[j].HotelName
		}
		return hotels[i].ID < hotels[j].ID
	})
	return hotels, nil
}

func (s *HotelService) GetHotel(ctx context.Context, hotelID string) (*models.Hotel, error) {
	raw, err := s.store.Get(ctx, models.CollectionHotels, hotelID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("hotel %s: %w", hotelID, docstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get hotel %s: %w", hotelID, err)
	}
	var h models.Hotel
	if err := docstore.Decode(raw, &h); err != nil {
		return nil, fmt.Errorf("decode hotel %s: %w", hotelID, err)
	}
	return &h, nil
}
