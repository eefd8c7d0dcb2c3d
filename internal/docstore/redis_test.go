package docstore

import (
	"context"
	"testing"
	"time"

	"innkeeper/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestRedisStoreCRUD(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("AddGetUpdateDelete", func(t *testing.T) {
		id, err := store.Add(ctx, models.CollectionRooms, models.Room{RoomNo: "201", Price: 1500, Status: models.RoomStatusAvailable})
		require.NoError(t, err)

		raw, err := store.Get(ctx, models.CollectionRooms, id)
		require.NoError(t, err)
		var room models.Room
		require.NoError(t, Decode(raw, &room))
		assert.Equal(t, id, room.ID)
		assert.Equal(t, float64(1500), room.Price)

		require.NoError(t, store.Update(ctx, models.CollectionRooms, id, map[string]any{"price": 1800}))
		raw, err = store.Get(ctx, models.CollectionRooms, id)
		require.NoError(t, err)
		require.NoError(t, Decode(raw, &room))
		assert.Equal(t, float64(1800), room.Price)
		assert.Equal(t, "201", room.RoomNo, "unrelated fields survive a merge")

		require.NoError(t, store.Delete(ctx, models.CollectionRooms, id))
		_, err = store.Get(ctx, models.CollectionRooms, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := store.Update(ctx, models.CollectionRooms, "ghost", map[string]any{"price": 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		_, err := store.Add(ctx, models.CollectionHotels, models.Hotel{HotelName: "Seaside"})
		require.NoError(t, err)
		_, err = store.Add(ctx, models.CollectionHotels, models.Hotel{HotelName: "Alpine"})
		require.NoError(t, err)

		raws, err := store.List(ctx, models.CollectionHotels)
		require.NoError(t, err)
		assert.Len(t, raws, 2)
	})
}

func TestRedisStoreQuery(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	id1, err := store.Add(ctx, models.CollectionPayments, models.Payment{BookingID: "bk-1", PaidAmount: 500})
	require.NoError(t, err)
	_, err = store.Add(ctx, models.CollectionPayments, models.Payment{BookingID: "bk-2", PaidAmount: 700})
	require.NoError(t, err)

	t.Run("DocumentIDIn", func(t *testing.T) {
		raws, err := store.Query(ctx, models.CollectionPayments, DocumentIDIn([]string{id1, "missing"}))
		require.NoError(t, err)
		require.Len(t, raws, 1, "missing ids are absent, not errors")
	})

	t.Run("FieldEquals", func(t *testing.T) {
		raws, err := store.Query(ctx, models.CollectionPayments, FieldEquals("bookingId", "bk-2"))
		require.NoError(t, err)
		require.Len(t, raws, 1)

		var p models.Payment
		require.NoError(t, Decode(raws[0], &p))
		assert.Equal(t, float64(700), p.PaidAmount)
	})

	t.Run("ArrayContains", func(t *testing.T) {
		_, err := store.Add(ctx, models.CollectionBookings, models.Booking{RoomIDs: []string{"r7"}})
		require.NoError(t, err)

		raws, err := store.Query(ctx, models.CollectionBookings, ArrayContains("roomId", "r7"))
		require.NoError(t, err)
		assert.Len(t, raws, 1)
	})

	t.Run("InFilterCap", func(t *testing.T) {
		ids := make([]string, MaxInValues+1)
		for i := range ids {
			ids[i] = "x"
		}
		_, err := store.Query(ctx, models.CollectionPayments, DocumentIDIn(ids))
		assert.ErrorIs(t, err, ErrFilterTooLarge)
	})
}

func TestRedisStoreApplyWrites(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	bookingID, err := store.Add(ctx, models.CollectionBookings, models.Booking{Status: models.BookingStatusPending})
	require.NoError(t, err)
	roomID, err := store.Add(ctx, models.CollectionRooms, models.Room{Status: models.RoomStatusAvailable})
	require.NoError(t, err)

	err = store.ApplyWrites(ctx, []Write{
		{Collection: models.CollectionBookings, ID: bookingID, Fields: map[string]any{"status": models.BookingStatusConfirmed}},
		{Collection: models.CollectionRooms, ID: roomID, Fields: map[string]any{"status": models.RoomStatusBooked}},
	})
	require.NoError(t, err)

	raw, err := store.Get(ctx, models.CollectionRooms, roomID)
	require.NoError(t, err)
	var room models.Room
	require.NoError(t, Decode(raw, &room))
	assert.Equal(t, models.RoomStatusBooked, room.Status)

	// A batch with a missing target fails before any write happens.
	err = store.ApplyWrites(ctx, []Write{
		{Collection: models.CollectionBookings, ID: bookingID, Fields: map[string]any{"status": models.BookingStatusRejected}},
		{Collection: models.CollectionRooms, ID: "ghost", Fields: map[string]any{"status": models.RoomStatusBooked}},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err = store.Get(ctx, models.CollectionBookings, bookingID)
	require.NoError(t, err)
	var b models.Booking
	require.NoError(t, Decode(raw, &b))
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
}

func TestRedisStoreSubscribe(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	ch, stop, err := store.Subscribe(ctx, models.CollectionBookings)
	require.NoError(t, err)
	defer stop()

	id, err := store.Add(ctx, models.CollectionBookings, models.Booking{Status: models.BookingStatusPending})
	require.NoError(t, err)

	select {
	case change := <-ch:
		assert.Equal(t, id, change.ID)
		assert.Equal(t, ChangeAdded, change.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
}
