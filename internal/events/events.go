package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingRejected  = "booking_rejected"
	EventPaymentAdded     = "payment_added"
	EventPaymentCompleted = "payment_completed"
	EventPaymentRejected  = "payment_rejected"
)

// BookingEventPayload carries the booking snapshot event consumers need
// without re-reading the store.
type BookingEventPayload struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id,omitempty"`
	Status    string    `json:"status"`
	RoomIDs   []string  `json:"room_ids,omitempty"`
	CheckIn   time.Time `json:"check_in,omitempty"`
	CheckOut  time.Time `json:"check_out,omitempty"`
	ChangedBy string    `json:"changed_by,omitempty"`
}

// PaymentEventPayload describes one payment-history mutation.
type PaymentEventPayload struct {
	PaymentID  string  `json:"payment_id"`
	BookingID  string  `json:"booking_id"`
	Label      string  `json:"label,omitempty"`
	PaidAmount float64 `json:"paid_amount,omitempty"`
	Status     string  `json:"status"`
}

// Event is a lightweight domain event with a JSON payload.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Handler reacts to an event. Handlers run synchronously on the
// publisher's goroutine; anything slow must hand off internally.
type Handler func(event *Event) error

// Bus is an in-process pub/sub fan-out.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers the handler for several event types at once.
func (b *Bus) SubscribeAll(eventTypes []string, handler Handler) {
	for _, et := range eventTypes {
		b.Subscribe(et, handler)
	}
}

// Publish delivers the event to every subscriber of its type. Handler
// errors are swallowed; a failed consumer never fails the producer.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes it.
func (b *Bus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
