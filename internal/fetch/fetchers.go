// Package fetch batch-loads entities by id list, respecting the
// store's cap on "in" filter cardinality by chunking. Missing ids are
// absent from the result maps; callers substitute fallback labels.
package fetch

import (
	"context"
	"fmt"

	"innkeeper/internal/docstore"
	"innkeeper/internal/models"
)

type Fetchers struct {
	store docstore.Store
}

func New(store docstore.Store) *Fetchers {
	return &Fetchers{store: store}
}

// RoomsByIDs returns id→room for every id that resolves. Schema gaps
// (empty roomNo, status, propertyType) are filled with display defaults
// the way the dashboard always rendered them.
func (f *Fetchers) RoomsByIDs(ctx context.Context, ids []string) (map[string]models.Room, error) {
	rooms, err := byIDs[models.Room](ctx, f.store, models.CollectionRooms, ids, func(r models.Room) string { return r.ID })
	if err != nil {
		return nil, err
	}

	for id, r := range rooms {
		if r.RoomNo == "" {
			r.RoomNo = models.FallbackNA
		}
		if r.Status == "" {
			r.Status = models.RoomStatusAvailable
		}
		if r.PropertyType == "" {
			r.PropertyType = models.PropertyTypeOwned
		}
		rooms[id] = r
	}
	return rooms, nil
}

func (f *Fetchers) UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	return byIDs[models.User](ctx, f.store, models.CollectionUsers, ids, func(u models.User) string { return u.ID })
}

func (f *Fetchers) CategoriesByIDs(ctx context.Context, ids []string) (map[string]models.Category, error) {
	return byIDs[models.Category](ctx, f.store, models.CollectionCategories, ids, func(c models.Category) string { return c.ID })
}

func (f *Fetchers) HotelsByIDs(ctx context.Context, ids []string) (map[string]models.Hotel, error) {
	return byIDs[models.Hotel](ctx, f.store, models.CollectionHotels, ids, func(h models.Hotel) string { return h.ID })
}

// RoomsWithCategory resolves rooms and joins in category names, with
// "Unknown" for categories that no longer exist.
func (f *Fetchers) RoomsWithCategory(ctx context.Context, ids []string) (map[string]models.ResolvedRoom, error) {
	return f.resolveRooms(ctx, ids, false)
}

// RoomsWithCategoryAndHotel additionally joins hotel names; used by the
// detail view only, the list view never shows hotels.
func (f *Fetchers) RoomsWithCategoryAndHotel(ctx context.Context, ids []string) (map[string]models.ResolvedRoom, error) {
	return f.resolveRooms(ctx, ids, true)
}

func (f *Fetchers) resolveRooms(ctx context.Context, ids []string, withHotel bool) (map[string]models.ResolvedRoom, error) {
	rooms, err := f.RoomsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return map[string]models.ResolvedRoom{}, nil
	}

	var categoryIDs, hotelIDs []string
	for _, r := range rooms {
		if r.CategoryID != "" {
			categoryIDs = append(categoryIDs, r.CategoryID)
		}
		if withHotel && r.HotelID != "" {
			hotelIDs = append(hotelIDs, r.HotelID)
		}
	}

	categories, err := f.CategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}

	var hotels map[string]models.Hotel
	if withHotel {
		hotels, err = f.HotelsByIDs(ctx, hotelIDs)
		if err != nil {
			return nil, err
		}
	}

	out := make(map[string]models.ResolvedRoom, len(rooms))
	for id, r := range rooms {
		resolved := models.ResolvedRoom{Room: r, CategoryName: models.FallbackUnknown}
		if c, ok := categories[r.CategoryID]; ok && c.CategoryName != "" {
			resolved.CategoryName = c.CategoryName
		}
		if withHotel {
			resolved.HotelName = models.FallbackUnknown
			if h, ok := hotels[r.HotelID]; ok && h.HotelName != "" {
				resolved.HotelName = h.HotelName
			}
		}
		out[id] = resolved
	}
	return out, nil
}

// byIDs is the chunked id-list fetch shared by every entity type. An
// empty id list returns an empty map without touching the store.
func byIDs[T any](ctx context.Context, store docstore.Store, collection string, ids []string, idOf func(T) string) (map[string]T, error) {
	ids = dedupe(ids)
	out := make(map[string]T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	for _, chunk := range chunks(ids, docstore.MaxInValues) {
		raws, err := store.Query(ctx, collection, docstore.DocumentIDIn(chunk))
		if err != nil {
			return nil, fmt.Errorf("fetch %s batch: %w", collection, err)
		}
		for _, raw := range raws {
			var v T
			if err := docstore.Decode(raw, &v); err != nil {
				return nil, fmt.Errorf("fetch %s batch: %w", collection, err)
			}
			out[idOf(v)] = v
		}
	}
	return out, nil
}

// dedupe drops empty and repeated ids, preserving first-seen order.
func dedupe(ids []string) []string {
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

func chunks(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	return append(out, ids)
}
