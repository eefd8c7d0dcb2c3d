package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"innkeeper/internal/docstore"
	"innkeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how many queries reach the underlying store.
type countingStore struct {
	docstore.Store
	queries int
}

func (c *countingStore) Query(ctx context.Context, collection string, filter docstore.Filter) ([]json.RawMessage, error) {
	c.queries++
	return c.Store.Query(ctx, collection, filter)
}

func TestRoomsByIDsChunking(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()

	ids := make([]string, 0, 23)
	for i := 0; i < 23; i++ {
		id, err := mem.Add(ctx, models.CollectionRooms, models.Room{RoomNo: fmt.Sprintf("%d", 100+i), Price: 100})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	store := &countingStore{Store: mem}
	f := New(store)

	rooms, err := f.RoomsByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, rooms, 23)
	assert.Equal(t, 3, store.queries, "23 ids must split into 10+10+3")
}

func TestByIDsEdgeCases(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()
	store := &countingStore{Store: mem}
	f := New(store)

	t.Run("EmptyInputSkipsStore", func(t *testing.T) {
		rooms, err := f.RoomsByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, rooms)
		assert.Zero(t, store.queries)
	})

	t.Run("DuplicatesAndBlanksCollapse", func(t *testing.T) {
		id, err := mem.Add(ctx, models.CollectionRooms, models.Room{RoomNo: "101"})
		require.NoError(t, err)

		store.queries = 0
		rooms, err := f.RoomsByIDs(ctx, []string{id, "", id, id})
		require.NoError(t, err)
		assert.Len(t, rooms, 1)
		assert.Equal(t, 1, store.queries)
	})

	t.Run("MissingIDsAbsent", func(t *testing.T) {
		users, err := f.UsersByIDs(ctx, []string{"nobody"})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("RoomDisplayDefaults", func(t *testing.T) {
		id, err := mem.Add(ctx, models.CollectionRooms, models.Room{Price: 500})
		require.NoError(t, err)

		rooms, err := f.RoomsByIDs(ctx, []string{id})
		require.NoError(t, err)
		r := rooms[id]
		assert.Equal(t, models.FallbackNA, r.RoomNo)
		assert.Equal(t, models.RoomStatusAvailable, r.Status)
		assert.Equal(t, models.PropertyTypeOwned, r.PropertyType)
	})
}

func TestRoomsWithCategory(t *testing.T) {
	mem := docstore.NewMemoryStore()
	ctx := context.Background()
	f := New(mem)

	catID, err := mem.Add(ctx, models.CollectionCategories, models.Category{CategoryName: "Deluxe"})
	require.NoError(t, err)
	hotelID, err := mem.Add(ctx, models.CollectionHotels, models.Hotel{HotelName: "Seaside"})
	require.NoError(t, err)

	r1, err := mem.Add(ctx, models.CollectionRooms, models.Room{RoomNo: "101", CategoryID: catID, HotelID: hotelID, Price: 1000})
	require.NoError(t, err)
	r2, err := mem.Add(ctx, models.CollectionRooms, models.Room{RoomNo: "102", CategoryID: "deleted-cat", HotelID: "deleted-hotel", Price: 1500})
	require.NoError(t, err)

	t.Run("CategoryJoin", func(t *testing.T) {
		rooms, err := f.RoomsWithCategory(ctx, []string{r1, r2})
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, "Deluxe", rooms[r1].CategoryName)
		assert.Equal(t, models.FallbackUnknown, rooms[r2].CategoryName)
		assert.Empty(t, rooms[r1].HotelName, "list path never joins hotels")
	})

	t.Run("CategoryAndHotelJoin", func(t *testing.T) {
		rooms, err := f.RoomsWithCategoryAndHotel(ctx, []string{r1, r2})
		require.NoError(t, err)
		assert.Equal(t, "Seaside", rooms[r1].HotelName)
		assert.Equal(t, models.FallbackUnknown, rooms[r2].HotelName)
	})

	t.Run("NoRooms", func(t *testing.T) {
		rooms, err := f.RoomsWithCategory(ctx, []string{"missing"})
		require.NoError(t, err)
		assert.Empty(t, rooms)
	})
}
