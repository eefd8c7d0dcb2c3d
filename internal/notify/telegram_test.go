package notify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"innkeeper/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func newTestNotifier(sender *fakeSender) (*Notifier, *events.Bus) {
	logger := zerolog.Nop()
	n := NewNotifier(sender, 777, &logger)
	bus := events.NewBus()
	n.BindEvents(bus)
	return n, bus
}

func TestBookingCreatedNotification(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestNotifier(sender)

	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{
		BookingID: "bk-1",
		Status:    "pending",
		CheckIn:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:  time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC),
	}))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(777), msg.ChatID)
	assert.Contains(t, msg.Text, "bk-1")
	assert.Contains(t, msg.Text, "01.07.2025")
	assert.Contains(t, msg.Text, "04.07.2025")
}

func TestBookingConfirmedNotification(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestNotifier(sender)

	require.NoError(t, bus.PublishJSON(events.EventBookingConfirmed, events.BookingEventPayload{
		BookingID: "bk-2",
		Status:    "confirmed",
		RoomIDs:   []string{"room-1", "room-2"},
	}))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "bk-2 confirmed")
	assert.Contains(t, sender.sent[0].Text, "2 room(s)")
}

func TestBookingRejectedNotification(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestNotifier(sender)

	require.NoError(t, bus.PublishJSON(events.EventBookingRejected, events.BookingEventPayload{
		BookingID: "bk-3",
		Status:    "rejected",
	}))

	require.Len(t, sender.sent, 1)
	assert.True(t, strings.Contains(sender.sent[0].Text, "bk-3 rejected"))
}

func TestPaymentCompletedNotification(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestNotifier(sender)

	require.NoError(t, bus.PublishJSON(events.EventPaymentCompleted, events.PaymentEventPayload{
		PaymentID:  "pay-1",
		BookingID:  "bk-4",
		Label:      "Final Payment",
		PaidAmount: 600,
		Status:     "Paid",
	}))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "bk-4 fully paid")
	assert.Contains(t, sender.sent[0].Text, "Final Payment: 600.00")
}

func TestPaymentAddedDoesNotNotify(t *testing.T) {
	sender := &fakeSender{}
	_, bus := newTestNotifier(sender)

	require.NoError(t, bus.PublishJSON(events.EventPaymentAdded, events.PaymentEventPayload{
		BookingID: "bk-5",
	}))

	assert.Empty(t, sender.sent, "partial payments stay quiet")
}

func TestSendFailureIsSwallowedByBus(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	_, bus := newTestNotifier(sender)

	require.NoError(t, bus.PublishJSON(events.EventBookingRejected, events.BookingEventPayload{
		BookingID: "bk-6",
	}))

	assert.Len(t, sender.sent, 1, "send was attempted despite the error")
}
