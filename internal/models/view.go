package models

import "time"

// BookingSummary is the denormalized row for the bookings list screen.
// Everything here is joined at read time; nothing is stored back.
type BookingSummary struct {
	ID            string    `json:"id"`
	UserName      string    `json:"userName"`
	Email         string    `json:"email"`
	Number        string    `json:"number"`
	RoomNumber    string    `json:"roomNumber"`
	Category      string    `json:"category"`
	RoomCount     int       `json:"roomCount"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	RawStatus     string    `json:"rawStatus"`
	BookingStatus string    `json:"bookingStatus"`
	PaymentStatus string    `json:"paymentStatus"`
	TotalAmount   float64   `json:"totalAmount"`
	PaidAmount    float64   `json:"paidAmount"`
}

// BookingDetail is the full projection for the booking details screen.
type BookingDetail struct {
	ID             string         `json:"id"`
	RawStatus      string         `json:"rawStatus"`
	BookingStatus  string         `json:"bookingStatus"`
	GuestName      string         `json:"guestName"`
	Email          string         `json:"email"`
	Number         string         `json:"number"`
	Gender         string         `json:"gender"`
	DOB            *time.Time     `json:"dob,omitempty"`
	Address        string         `json:"address"`
	RoomNumbers    string         `json:"roomNumbers"`
	RoomsDetails   []ResolvedRoom `json:"roomsDetails"`
	TotalAmount    float64        `json:"totalAmount"`
	PaidAmount     float64        `json:"paidAmount"`
	PaymentStatus  string         `json:"paymentStatus"`
	PaymentDate    *time.Time     `json:"paymentDate,omitempty"`
	PaymentReceipt string         `json:"paymentReceipt,omitempty"`
	CheckIn        time.Time      `json:"checkIn"`
	CheckOut       time.Time      `json:"checkOut"`
	Persons        int            `json:"persons"`
	PaymentMethod  string         `json:"paymentMethod"`
	AdminID        string         `json:"adminId"`
	SecondaryEmail string         `json:"secondaryEmail"`
}

// PaymentListEntry is the row for the payments overview screen. Its
// totalAmount is the stated (payment-row) figure, kept as-is for that
// screen; the bookings screens use the room-derived total instead.
type PaymentListEntry struct {
	BookingID     string    `json:"bookingId"`
	GuestName     string    `json:"guestName"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	PaidAmount    float64   `json:"paidAmount"`
	TotalAmount   float64   `json:"totalAmount"`
	PaymentStatus string    `json:"paymentStatus"`
	BookingStatus string    `json:"bookingStatus"`
}
