package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"innkeeper/internal/docstore"
	"innkeeper/internal/fetch"
	"innkeeper/internal/metrics"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

// Aggregator joins booking documents with their rooms, categories,
// hotels, users, and payment rollups into display-ready view models.
// It only reads; failure to resolve a reference degrades that one
// booking's fields instead of failing the pass.
type Aggregator struct {
	store    docstore.Store
	fetchers *fetch.Fetchers
	payments *PaymentService
	timeout  time.Duration
	logger   *zerolog.Logger
}

func NewAggregator(
	store docstore.Store,
	fetchers *fetch.Fetchers,
	payments *PaymentService,
	timeout time.Duration,
	logger *zerolog.Logger,
) *Aggregator {
	if timeout <= 0 {
		timeout = models.DefaultAggregationTimeoutSeconds * time.Second
	}
	return &Aggregator{
		store:    store,
		fetchers: fetchers,
		payments: payments,
		timeout:  timeout,
		logger:   logger,
	}
}

// ListBookings runs the full aggregation pass over every booking.
func (a *Aggregator) ListBookings(ctx context.Context) ([]models.BookingSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	defer func() { metrics.ObserveAggregation(time.Since(started)) }()

	raws, err := a.store.List(ctx, models.CollectionBookings)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	bookings, err := docstore.DecodeAll[models.Booking](raws)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	var userIDs, roomIDs, bookingIDs []string
	for _, b := range bookings {
		userIDs = append(userIDs, b.UserID)
		roomIDs = append(roomIDs, b.RoomIDs...)
		bookingIDs = append(bookingIDs, b.ID)
	}

	// The three entity families fan out concurrently and join on the
	// whole set; one failing fetch fails the pass (the partial result
	// would silently mislabel every booking).
	var (
		wg      sync.WaitGroup
		users   map[string]models.User
		rooms   map[string]models.ResolvedRoom
		rollups map[string]models.PaymentRollup

		usersErr, roomsErr, rollupsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		users, usersErr = a.fetchers.UsersByIDs(ctx, userIDs)
	}()
	go func() {
		defer wg.Done()
		rooms, roomsErr = a.fetchers.RoomsWithCategory(ctx, roomIDs)
	}()
	go func() {
		defer wg.Done()
		rollups, rollupsErr = a.payments.RollupByBookingIDs(ctx, bookingIDs)
	}()
	wg.Wait()

	if err := errors.Join(usersErr, roomsErr, rollupsErr); err != nil {
		return nil, fmt.Errorf("aggregate bookings: %w", err)
	}

	summaries := make([]models.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		summaries = append(summaries, a.buildSummary(b, users, rooms, rollups))
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CheckIn.Equal(summaries[j].CheckIn) {
			return summaries[i].CheckIn.Before(summaries[j].CheckIn)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

func (a *Aggregator) buildSummary(
	b models.Booking,
	users map[string]models.User,
	rooms map[string]models.ResolvedRoom,
	rollups map[string]models.PaymentRollup,
) models.BookingSummary {
	resolved := resolveInOrder(b.RoomIDs, rooms)

	var total float64
	roomNos := make([]string, 0, len(resolved))
	categories := make([]string, 0, len(resolved))
	for _, r := range resolved {
		total += r.Price
		roomNos = append(roomNos, r.RoomNo)
		categories = append(categories, r.CategoryName)
	}

	var user *models.User
	if u, ok := users[b.UserID]; ok {
		user = &u
	}

	rollup := rollups[b.ID]

	return models.BookingSummary{
		ID:            b.ID,
		UserName:      user.DisplayName(),
		Email:         orFallback(user.ContactEmail(), models.FallbackNA),
		Number:        orFallback(user.Phone(), models.FallbackDash),
		RoomNumber:    joinOrFallback(roomNos, models.FallbackNA),
		Category:      joinOrFallback(categories, models.FallbackNA),
		RoomCount:     len(resolved),
		CheckIn:       b.CheckInDate,
		CheckOut:      b.CheckOutDate,
		RawStatus:     b.RawStatus(),
		BookingStatus: b.StatusLabel(),
		PaymentStatus: a.payments.StatusFor(rollup.PaidAmount, total, rollup.Statuses),
		TotalAmount:   total,
		PaidAmount:    rollup.PaidAmount,
	}
}

// GetBookingDetail aggregates a single booking, joining hotels in
// addition to the list-path entities. Returns nil when the booking
// does not exist.
func (a *Aggregator) GetBookingDetail(ctx context.Context, bookingID string) (*models.BookingDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.store.Get(ctx, models.CollectionBookings, bookingID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	var b models.Booking
	if err := docstore.Decode(raw, &b); err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	var (
		wg      sync.WaitGroup
		users   map[string]models.User
		rooms   map[string]models.ResolvedRoom
		rollups map[string]models.PaymentRollup

		usersErr, roomsErr, rollupsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		users, usersErr = a.fetchers.UsersByIDs(ctx, []string{b.UserID})
	}()
	go func() {
		defer wg.Done()
		rooms, roomsErr = a.fetchers.RoomsWithCategoryAndHotel(ctx, b.RoomIDs)
	}()
	go func() {
		defer wg.Done()
		rollups, rollupsErr = a.payments.RollupByBookingIDs(ctx, []string{b.ID})
	}()
	wg.Wait()

	if err := errors.Join(usersErr, roomsErr, rollupsErr); err != nil {
		return nil, fmt.Errorf("aggregate booking %s: %w", bookingID, err)
	}

	resolved := resolveInOrder(b.RoomIDs, rooms)
	var total float64
	roomNos := make([]string, 0, len(resolved))
	for _, r := range resolved {
		total += r.Price
		roomNos = append(roomNos, r.RoomNo)
	}

	var user *models.User
	if u, ok := users[b.UserID]; ok {
		user = &u
	}

	rollup := rollups[b.ID]

	detail := &models.BookingDetail{
		ID:             b.ID,
		RawStatus:      b.RawStatus(),
		BookingStatus:  b.StatusLabel(),
		GuestName:      user.DisplayName(),
		Email:          orFallback(user.ContactEmail(), models.FallbackDash),
		Number:         orFallback(user.Phone(), models.FallbackDash),
		RoomNumbers:    joinOrFallback(roomNos, models.FallbackNA),
		RoomsDetails:   resolved,
		TotalAmount:    total,
		PaidAmount:     rollup.PaidAmount,
		PaymentStatus:  a.payments.StatusFor(rollup.PaidAmount, total, rollup.Statuses),
		PaymentReceipt: rollup.LatestReceipt(),
		CheckIn:        b.CheckInDate,
		CheckOut:       b.CheckOutDate,
		Persons:        b.Persons,
		PaymentMethod:  orFallback(b.PaymentMethod, models.FallbackDash),
		AdminID:        orFallback(b.AdminID, models.FallbackDash),
		SecondaryEmail: orFallback(b.SecondaryEmail, models.FallbackDash),
		Gender:         models.FallbackDash,
		Address:        models.FallbackDash,
	}

	if user != nil {
		detail.Gender = orFallback(user.Gender, models.FallbackDash)
		detail.Address = orFallback(user.Address, models.FallbackDash)
		detail.DOB = user.DOB
	}
	if latest := rollup.LatestPaymentDate(); !latest.IsZero() {
		detail.PaymentDate = &latest
	}

	return detail, nil
}

// resolveInOrder keeps the booking's own room order and silently drops
// ids that no longer resolve.
func resolveInOrder(roomIDs []string, rooms map[string]models.ResolvedRoom) []models.ResolvedRoom {
	out := make([]models.ResolvedRoom, 0, len(roomIDs))
	for _, id := range roomIDs {
		if r, ok := rooms[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func orFallback(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func joinOrFallback(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}
