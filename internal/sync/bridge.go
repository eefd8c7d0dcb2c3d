package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"sync/atomic"
	"time"

	"innkeeper/internal/docstore"
	"innkeeper/internal/domain"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

// Bridge watches the bookings and payment collections and re-aggregates
// on every change. Each notification spawns an independent pass; the
// BookingState discards results that finish out of order.
type Bridge struct {
	store   docstore.Store
	reader  domain.BookingReader
	state   *BookingState
	timeout time.Duration
	logger  *zerolog.Logger

	seq     atomic.Uint64
	passes  stdsync.WaitGroup
	stopped atomic.Bool
}

func NewBridge(
	store docstore.Store,
	reader domain.BookingReader,
	state *BookingState,
	timeout time.Duration,
	logger *zerolog.Logger,
) *Bridge {
	if timeout <= 0 {
		timeout = models.DefaultAggregationTimeoutSeconds * time.Second
	}
	return &Bridge{
		store:   store,
		reader:  reader,
		state:   state,
		timeout: timeout,
		logger:  logger,
	}
}

// State exposes the snapshot container the bridge writes into.
func (b *Bridge) State() *BookingState {
	return b.state
}

// Run subscribes, primes the state with an initial pass, and then
// re-aggregates on every change until ctx is cancelled. Blocks.
func (b *Bridge) Run(ctx context.Context) error {
	bookingCh, stopBookings, err := b.store.Subscribe(ctx, models.CollectionBookings)
	if err != nil {
		return fmt.Errorf("subscribe bookings: %w", err)
	}
	defer stopBookings()

	paymentCh, stopPayments, err := b.store.Subscribe(ctx, models.CollectionPayments)
	if err != nil {
		return fmt.Errorf("subscribe payments: %w", err)
	}
	defer stopPayments()

	b.startPass(ctx)

	for {
		select {
		case <-ctx.Done():
			b.passes.Wait()
			return ctx.Err()
		case _, ok := <-bookingCh:
			if !ok {
				b.passes.Wait()
				return nil
			}
			b.startPass(ctx)
		case _, ok := <-paymentCh:
			if !ok {
				b.passes.Wait()
				return nil
			}
			b.startPass(ctx)
		}
	}
}

// Close stops accepting new passes. In-flight passes finish; Run exits
// via its subscription channels or context.
func (b *Bridge) Close() {
	b.stopped.Store(true)
	b.passes.Wait()
}

func (b *Bridge) startPass(ctx context.Context) {
	if b.stopped.Load() {
		return
	}
	seq := b.seq.Add(1)

	b.passes.Add(1)
	go func() {
		defer b.passes.Done()

		passCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		rows, err := b.reader.ListBookings(passCtx)
		if err != nil {
			if b.logger != nil {
				b.logger.Error().Err(err).Uint64("seq", seq).Msg("aggregation pass failed")
			}
			return
		}

		if !b.state.Apply(seq, rows) && b.logger != nil {
			b.logger.Debug().Uint64("seq", seq).Msg("discarded stale aggregation pass")
		}
	}()
}
