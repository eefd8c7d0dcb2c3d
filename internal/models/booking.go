package models

import (
	"time"
	"unicode"
	"unicode/utf8"
)

// Booking is the stored document from the "bookings" collection.
// Field names follow the external schema and must not be renamed.
type Booking struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	RoomIDs        []string  `json:"roomId"`
	Status         string    `json:"status"`
	CheckInDate    time.Time `json:"checkInDate"`
	CheckOutDate   time.Time `json:"checkOutDate"`
	Persons        int       `json:"persons"`
	PaymentMethod  string    `json:"paymentMethod"`
	SecondaryEmail string    `json:"secondaryEmail"`
	AdminID        string    `json:"adminId"`
}

// RawStatus returns the stored status, defaulting to pending when the
// guest-facing system left it empty.
func (b *Booking) RawStatus() string {
	if b.Status == "" {
		return BookingStatusPending
	}
	return b.Status
}

// StatusLabel capitalizes the first letter of the raw status. No other
// normalization happens; "confirmed" becomes "Confirmed".
func (b *Booking) StatusLabel() string {
	return Capitalize(b.RawStatus())
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
