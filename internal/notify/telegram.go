// Package notify pushes booking and payment events to the admin
// Telegram chat.
package notify

import (
	"encoding/json"
	"fmt"

	"innkeeper/internal/domain"
	"innkeeper/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Notifier turns bus events into admin chat messages. Delivery is
// best-effort; a failed send is logged and dropped.
type Notifier struct {
	sender      domain.TelegramSender
	adminChatID int64
	logger      *zerolog.Logger
}

func NewNotifier(sender domain.TelegramSender, adminChatID int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		sender:      sender,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// BindEvents subscribes the notifier to the booking and payment events
// the admin chat cares about.
func (n *Notifier) BindEvents(bus *events.Bus) {
	bus.SubscribeAll([]string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingRejected,
	}, n.handleBookingEvent)

	bus.Subscribe(events.EventPaymentCompleted, n.handlePaymentEvent)
}

func (n *Notifier) handleBookingEvent(e *events.Event) error {
	var payload events.BookingEventPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		n.logError(err, e.Type)
		return err
	}

	var text string
	switch e.Type {
	case events.EventBookingCreated:
		text = fmt.Sprintf("🆕 New booking %s\nCheck-in: %s\nCheck-out: %s",
			payload.BookingID,
			payload.CheckIn.Format("02.01.2006"),
			payload.CheckOut.Format("02.01.2006"))
	case events.EventBookingConfirmed:
		text = fmt.Sprintf("✅ Booking %s confirmed", payload.BookingID)
		if len(payload.RoomIDs) > 0 {
			text += fmt.Sprintf(" (%d room(s) reserved)", len(payload.RoomIDs))
		}
	case events.EventBookingRejected:
		text = fmt.Sprintf("❌ Booking %s rejected", payload.BookingID)
	default:
		return nil
	}

	return n.send(text, e.Type)
}

func (n *Notifier) handlePaymentEvent(e *events.Event) error {
	var payload events.PaymentEventPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		n.logError(err, e.Type)
		return err
	}

	text := fmt.Sprintf("💰 Booking %s fully paid\n%s: %.2f",
		payload.BookingID, payload.Label, payload.PaidAmount)
	return n.send(text, e.Type)
}

func (n *Notifier) send(text, eventType string) error {
	msg := tgbotapi.NewMessage(n.adminChatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		n.logError(err, eventType)
		return err
	}
	return nil
}

func (n *Notifier) logError(err error, eventType string) {
	if n.logger == nil {
		return
	}
	n.logger.Error().Err(err).
		Str("event_type", eventType).
		Msg("failed to deliver admin notification")
}
