package domain

import (
	"context"

	"innkeeper/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BookingReader produces the denormalized read models for the bookings
// screens. Pure reads; all mutation goes through BookingWriter.
type BookingReader interface {
	ListBookings(ctx context.Context) ([]models.BookingSummary, error)
	GetBookingDetail(ctx context.Context, bookingID string) (*models.BookingDetail, error)
}

// BookingWriter performs booking status transitions.
type BookingWriter interface {
	UpdateStatus(ctx context.Context, bookingID, status string) error
	ConfirmWithRooms(ctx context.Context, bookingID string, roomIDs []string) error
}

// PaymentOperations covers reconciliation reads and the payment write
// path for a booking's payment history.
type PaymentOperations interface {
	RollupByBookingIDs(ctx context.Context, bookingIDs []string) (map[string]models.PaymentRollup, error)
	HistoryByBookingID(ctx context.Context, bookingID string) ([]models.Payment, error)
	ListPayments(ctx context.Context) ([]models.PaymentListEntry, error)
	AddPayment(ctx context.Context, bookingID string, amount float64, paymentType string) (*models.Payment, error)
	SettleRemaining(ctx context.Context, bookingID, paymentType string) (*models.Payment, error)
	RejectPayment(ctx context.Context, paymentID string) error
}

// EventPublisher is the in-process bus write side.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// AuditSink records administrative actions. Failures must not abort
// the action being recorded.
type AuditSink interface {
	Record(ctx context.Context, action, entity, entityID, detail string) error
}

// SheetsWriter pushes the current booking snapshot to a spreadsheet.
type SheetsWriter interface {
	ReplaceBookingsSheet(ctx context.Context, rows []models.BookingSummary) error
}

// ReportWorker accepts background report tasks.
type ReportWorker interface {
	EnqueueSnapshot(ctx context.Context) error
	EnqueueExport(ctx context.Context) error
}

// TelegramSender is the minimal bot API surface the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BookingStateReader exposes the realtime view-model snapshot kept by
// the sync bridge.
type BookingStateReader interface {
	Snapshot() []models.BookingSummary
	Sequence() uint64
}
