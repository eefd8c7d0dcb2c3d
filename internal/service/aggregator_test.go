package service

import (
	"context"
	"testing"
	"time"

	"innkeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBookingsJoinsEverything(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	categoryID := e.addCategory(t, "Deluxe")
	room1 := e.addRoom(t, models.Room{RoomNo: "101", Price: 1000, CategoryID: categoryID})
	room2 := e.addRoom(t, models.Room{RoomNo: "102", Price: 1500, CategoryID: categoryID})
	userID := e.addUser(t, models.User{UserName: "mira", Email: "mira@example.com", Number: "555-0101"})

	checkIn := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	bookingID := e.addBooking(t, models.Booking{
		UserID:      userID,
		RoomIDs:     []string{room1, room2},
		Status:      "confirmed",
		CheckInDate: checkIn,
	})
	e.addPayment(t, models.Payment{
		BookingID: bookingID, PaidAmount: 1000, TotalAmount: 2500,
		Status: models.PaymentStatusPending,
	})

	rows, err := e.agg.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "mira", row.UserName)
	assert.Equal(t, "mira@example.com", row.Email)
	assert.Equal(t, "555-0101", row.Number)
	assert.Equal(t, "101, 102", row.RoomNumber)
	assert.Equal(t, "Deluxe, Deluxe", row.Category)
	assert.Equal(t, 2, row.RoomCount)
	assert.Equal(t, 2500.0, row.TotalAmount)
	assert.Equal(t, 1000.0, row.PaidAmount)
	assert.Equal(t, models.PaymentStatusPending, row.PaymentStatus)
	assert.Equal(t, "confirmed", row.RawStatus)
	assert.Equal(t, "Confirmed", row.BookingStatus)
}

func TestListBookingsSortedByCheckIn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	late := e.addBooking(t, models.Booking{CheckInDate: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)})
	early := e.addBooking(t, models.Booking{CheckInDate: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)})

	rows, err := e.agg.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, early, rows[0].ID)
	assert.Equal(t, late, rows[1].ID)
}

// A booking whose rooms were deleted degrades to fallback labels and a
// zero total, which reconciles to Paid with nothing owed.
func TestListBookingsDanglingRoomReference(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.addBooking(t, models.Booking{RoomIDs: []string{"gone"}})

	rows, err := e.agg.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, models.FallbackNA, row.RoomNumber)
	assert.Equal(t, models.FallbackNA, row.Category)
	assert.Equal(t, 0, row.RoomCount)
	assert.Equal(t, 0.0, row.TotalAmount)
	assert.Equal(t, models.PaymentStatusPaid, row.PaymentStatus)
	assert.Equal(t, models.FallbackGuestName, row.UserName)
	assert.Equal(t, models.FallbackNA, row.Email)
	assert.Equal(t, models.FallbackDash, row.Number)
	assert.Equal(t, "pending", row.RawStatus)
}

// Two passes over unchanged data produce the same rows.
func TestListBookingsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	categoryID := e.addCategory(t, "Standard")
	roomID := e.addRoom(t, models.Room{RoomNo: "201", Price: 700, CategoryID: categoryID})
	e.addBooking(t, models.Booking{RoomIDs: []string{roomID}})

	first, err := e.agg.ListBookings(ctx)
	require.NoError(t, err)
	second, err := e.agg.ListBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetBookingDetail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	hotelID := e.addHotel(t, "Seaside")
	categoryID := e.addCategory(t, "Suite")
	roomID := e.addRoom(t, models.Room{RoomNo: "301", Price: 2000, CategoryID: categoryID, HotelID: hotelID})
	userID := e.addUser(t, models.User{FullName: "Arun Rai", UserEmail: "arun@example.com", Gender: "male", Address: "12 Hill Rd"})

	bookingID := e.addBooking(t, models.Booking{
		UserID:        userID,
		RoomIDs:       []string{roomID},
		Status:        "confirmed",
		Persons:       2,
		PaymentMethod: "Online",
	})
	paymentDate := e.tick()
	e.addPayment(t, models.Payment{
		BookingID: bookingID, PaidAmount: 500, TotalAmount: 2000,
		Status: models.PaymentStatusPending, PaymentDate: paymentDate,
		ReceiptPath: "receipts/adv1.jpg",
	})

	detail, err := e.agg.GetBookingDetail(ctx, bookingID)
	require.NoError(t, err)
	require.NotNil(t, detail)

	assert.Equal(t, "Arun Rai", detail.GuestName)
	assert.Equal(t, "arun@example.com", detail.Email)
	assert.Equal(t, models.FallbackDash, detail.Number)
	assert.Equal(t, "male", detail.Gender)
	assert.Equal(t, "12 Hill Rd", detail.Address)
	assert.Equal(t, "301", detail.RoomNumbers)
	require.Len(t, detail.RoomsDetails, 1)
	assert.Equal(t, "Suite", detail.RoomsDetails[0].CategoryName)
	assert.Equal(t, "Seaside", detail.RoomsDetails[0].HotelName)
	assert.Equal(t, 2000.0, detail.TotalAmount)
	assert.Equal(t, 500.0, detail.PaidAmount)
	assert.Equal(t, models.PaymentStatusPending, detail.PaymentStatus)
	assert.Equal(t, "receipts/adv1.jpg", detail.PaymentReceipt)
	require.NotNil(t, detail.PaymentDate)
	assert.True(t, paymentDate.Equal(*detail.PaymentDate))
	assert.Equal(t, 2, detail.Persons)
	assert.Equal(t, "Online", detail.PaymentMethod)
	assert.Equal(t, models.FallbackDash, detail.AdminID)
}

func TestGetBookingDetailMissing(t *testing.T) {
	e := newEnv(t)

	detail, err := e.agg.GetBookingDetail(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, detail)
}
