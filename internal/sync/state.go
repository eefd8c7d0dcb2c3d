// Package sync keeps a live, denormalized booking snapshot in step
// with the document store. Change notifications trigger full
// aggregation passes; completed passes land in a BookingState under a
// last-completed-wins rule.
package sync

import (
	stdsync "sync"

	"innkeeper/internal/metrics"
	"innkeeper/internal/models"
)

// BookingState holds the latest applied aggregation result. Writers
// race; only a pass newer than the applied one lands. Readers always
// see a complete snapshot, never a partial one.
type BookingState struct {
	mu       stdsync.RWMutex
	rows     []models.BookingSummary
	applied  uint64
	nextSub  int
	subs     map[int]chan []models.BookingSummary
}

func NewBookingState() *BookingState {
	return &BookingState{subs: make(map[int]chan []models.BookingSummary)}
}

// Apply installs the pass result if its sequence is newer than the
// applied one. Sequences start at 1; zero means nothing applied yet.
// Returns false when the result is stale and discarded.
func (s *BookingState) Apply(seq uint64, rows []models.BookingSummary) bool {
	s.mu.Lock()
	if seq <= s.applied {
		s.mu.Unlock()
		metrics.IncStaleDrop()
		return false
	}
	s.applied = seq
	s.rows = rows

	notify := make([]chan []models.BookingSummary, 0, len(s.subs))
	for _, ch := range s.subs {
		notify = append(notify, ch)
	}
	s.mu.Unlock()

	for _, ch := range notify {
		select {
		case ch <- rows:
		default:
			// Slow subscriber keeps its previous snapshot; the next
			// apply will offer a fresher one anyway.
		}
	}
	return true
}

// Snapshot returns the applied rows. The slice is shared; callers must
// not mutate it.
func (s *BookingState) Snapshot() []models.BookingSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

// Sequence returns the sequence number of the applied pass, zero before
// any pass completed.
func (s *BookingState) Sequence() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied
}

// Subscribe delivers each applied snapshot. The unsubscribe func must
// be called exactly once.
func (s *BookingState) Subscribe() (<-chan []models.BookingSummary, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.nextSub
	s.nextSub++
	ch := make(chan []models.BookingSummary, 1)
	s.subs[key] = ch

	var once stdsync.Once
	unsub := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[key]; ok {
				delete(s.subs, key)
				close(sub)
			}
		})
	}
	return ch, unsub
}
