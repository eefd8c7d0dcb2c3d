package service

import (
	"context"
	"testing"
	"time"

	"innkeeper/internal/docstore"
	"innkeeper/internal/events"
	"innkeeper/internal/fetch"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// env wires the service layer onto an in-memory store with a stepping
// clock, so payment rows get distinct, ordered dates.
type env struct {
	store    *docstore.MemoryStore
	bus      *events.Bus
	fetchers *fetch.Fetchers
	payments *PaymentService
	bookings *BookingService
	agg      *Aggregator

	base time.Time
	step time.Duration
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := docstore.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	fetchers := fetch.New(store)
	bus := events.NewBus()

	e := &env{
		store:    store,
		bus:      bus,
		fetchers: fetchers,
		base:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	e.payments = NewPaymentService(store, fetchers, bus, nil, false, &logger)
	e.payments.now = e.tick
	e.bookings = NewBookingService(store, bus, nil, true, &logger)
	e.agg = NewAggregator(store, fetchers, e.payments, time.Second, &logger)
	return e
}

func (e *env) tick() time.Time {
	e.step += time.Minute
	return e.base.Add(e.step)
}

func (e *env) addUser(t *testing.T, u models.User) string {
	t.Helper()
	id, err := e.store.Add(context.Background(), models.CollectionUsers, u)
	require.NoError(t, err)
	return id
}

func (e *env) addCategory(t *testing.T, name string) string {
	t.Helper()
	id, err := e.store.Add(context.Background(), models.CollectionCategories, models.Category{CategoryName: name})
	require.NoError(t, err)
	return id
}

func (e *env) addHotel(t *testing.T, name string) string {
	t.Helper()
	id, err := e.store.Add(context.Background(), models.CollectionHotels, models.Hotel{HotelName: name})
	require.NoError(t, err)
	return id
}

func (e *env) addRoom(t *testing.T, room models.Room) string {
	t.Helper()
	id, err := e.store.Add(context.Background(), models.CollectionRooms, room)
	require.NoError(t, err)
	return id
}

func (e *env) addBooking(t *testing.T, b models.Booking) string {
	t.Helper()
	id, err := e.store.Add(context.Background(), models.CollectionBookings, b)
	require.NoError(t, err)
	return id
}

func (e *env) addPayment(t *testing.T, p models.Payment) string {
	t.Helper()
	if p.PaymentDate.IsZero() {
		p.PaymentDate = e.tick()
	}
	id, err := e.store.Add(context.Background(), models.CollectionPayments, p)
	require.NoError(t, err)
	return id
}

// collectEvents records every published event of the given types.
func (e *env) collectEvents(types ...string) *[]events.Event {
	var got []events.Event
	e.bus.SubscribeAll(types, func(ev *events.Event) error {
		got = append(got, *ev)
		return nil
	})
	return &got
}
