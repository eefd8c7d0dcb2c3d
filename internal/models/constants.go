package models

// Booking statuses are stored lowercase; the guest-facing system writes
// them that way and the dashboard only capitalizes for display.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusRejected  = "rejected"
)

const (
	RoomStatusAvailable   = "Available"
	RoomStatusBooked      = "Booked"
	RoomStatusMaintenance = "Maintenance"
	RoomStatusCleaning    = "Cleaning"
)

const (
	PropertyTypeOwned     = "Owned"
	PropertyTypePartnered = "Partnered"
)

const (
	PaymentStatusPending  = "Pending"
	PaymentStatusPaid     = "Paid"
	PaymentStatusRejected = "Rejected"
)

const (
	PaymentLabelFinal         = "Final Payment"
	PaymentLabelAdvancePrefix = "Advance"
	PaymentTypeCash           = "Cash"
)

// Collection names of the external document store. The schema is fixed;
// note the singular/camel-case mix is inherited, not ours to normalize.
const (
	CollectionBookings   = "bookings"
	CollectionRooms      = "rooms"
	CollectionCategories = "roomCategory"
	CollectionHotels     = "hotel"
	CollectionUsers      = "users"
	CollectionPayments   = "payment"
)

// Fallback display values for unresolvable references.
const (
	FallbackGuestName = "Guest"
	FallbackUnknown   = "Unknown"
	FallbackNA        = "N/A"
	FallbackDash      = "--"
)

const (
	// WorkerQueueSize is the report worker's task queue capacity.
	WorkerQueueSize = 1000

	// DefaultAggregationTimeoutSeconds bounds one full aggregation pass.
	DefaultAggregationTimeoutSeconds = 15
)
