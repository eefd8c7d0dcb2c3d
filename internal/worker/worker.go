// Package worker runs background report tasks off a channel queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"innkeeper/internal/domain"
	"innkeeper/internal/events"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

const (
	TaskSnapshot = "snapshot"
	TaskExport   = "export"
)

// Task is one unit of report work.
type Task struct {
	Type      string
	CreatedAt time.Time
}

// SheetsClient is the spreadsheet push surface the worker needs.
type SheetsClient interface {
	ReplaceBookingsSheet(ctx context.Context, rows []models.BookingSummary) error
}

// SnapshotExporter writes the snapshot to a local file.
type SnapshotExporter interface {
	Export(ctx context.Context, rows []models.BookingSummary) (string, error)
}

// ReportWorker consumes report tasks, re-reads the booking snapshot
// per task, and pushes it to the configured sinks with retry/backoff.
// A nil sink disables its task type.
type ReportWorker struct {
	reader      domain.BookingReader
	sheets      SheetsClient
	exporter    SnapshotExporter
	retryPolicy RetryPolicy
	queue       chan Task
	logger      *zerolog.Logger
}

func NewReportWorker(
	reader domain.BookingReader,
	sheets SheetsClient,
	exporter SnapshotExporter,
	retry RetryPolicy,
	logger *zerolog.Logger,
) *ReportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ReportWorker{
		reader:      reader,
		sheets:      sheets,
		exporter:    exporter,
		retryPolicy: retry,
		queue:       make(chan Task, models.WorkerQueueSize),
		logger:      logger,
	}
}

// EnqueueSnapshot schedules a spreadsheet push.
func (w *ReportWorker) EnqueueSnapshot(ctx context.Context) error {
	return w.enqueue(Task{Type: TaskSnapshot, CreatedAt: time.Now()})
}

// EnqueueExport schedules an xlsx export.
func (w *ReportWorker) EnqueueExport(ctx context.Context) error {
	return w.enqueue(Task{Type: TaskExport, CreatedAt: time.Now()})
}

func (w *ReportWorker) enqueue(task Task) error {
	select {
	case w.queue <- task:
		return nil
	default:
		return errors.New("report queue is full")
	}
}

// BindEvents schedules a spreadsheet push after every booking or
// payment mutation.
func (w *ReportWorker) BindEvents(bus *events.Bus) {
	bus.SubscribeAll([]string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingRejected,
		events.EventPaymentAdded,
		events.EventPaymentCompleted,
		events.EventPaymentRejected,
	}, func(e *events.Event) error {
		return w.EnqueueSnapshot(context.Background())
	})
}

// Start launches the main loop; stops when ctx is done.
func (w *ReportWorker) Start(ctx context.Context) {
	if w.logger != nil {
		w.logger.Info().Msg("report worker started")
		defer w.logger.Info().Msg("report worker stopped")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.processTask(ctx, task)
		}
	}
}

// processTask retries with backoff until success, exhaustion, or
// context cancellation. A task that exhausts its retries is dropped;
// the next mutation enqueues a fresh snapshot anyway.
func (w *ReportWorker) processTask(ctx context.Context, task Task) {
	for attempt := 1; ; attempt++ {
		err := w.handleTask(ctx, task)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		if attempt >= w.retryPolicy.MaxRetries {
			if w.logger != nil {
				w.logger.Error().Err(err).
					Str("task_type", task.Type).
					Int("attempts", attempt).
					Msg("report task dropped after retries")
			}
			return
		}

		delay := w.retryPolicy.NextDelay(attempt)
		if w.logger != nil {
			w.logger.Warn().Err(err).
				Str("task_type", task.Type).
				Int("attempt", attempt).
				Dur("retry_in", delay).
				Msg("report task failed, retrying")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (w *ReportWorker) handleTask(ctx context.Context, task Task) error {
	rows, err := w.reader.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("read booking snapshot: %w", err)
	}

	switch task.Type {
	case TaskSnapshot:
		if w.sheets == nil {
			return nil
		}
		return w.sheets.ReplaceBookingsSheet(ctx, rows)
	case TaskExport:
		if w.exporter == nil {
			return nil
		}
		_, err := w.exporter.Export(ctx, rows)
		return err
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}
