package webhookmonitor

import (
	"context"
	"sync"
	"time"
)

// ring is a fixed-capacity buffer that drops its oldest entry when full.
type ring[T any] struct {
	items []T
	limit int
}

func newRing[T any](limit int) ring[T] {
	return ring[T]{items: make([]T, 0, limit), limit: limit}
}

func (r *ring[T]) push(v T) {
	if len(r.items) == r.limit {
		copy(r.items, r.items[1:])
		r.items = r.items[:r.limit-1]
	}
	r.items = append(r.items, v)
}

func (r *ring[T]) snapshot() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// MemoryStore keeps monitor state in process memory behind a mutex.
type MemoryStore struct {
	mu         sync.Mutex
	total      int64
	successful int64
	failed     int64
	received   int64
	byType     map[string]int64
	lastEvent  time.Time
	samples    ring[float64]
	errors     ring[ErrorEntry]
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.clear()
	return s
}

func (s *MemoryStore) Append(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.At.After(s.lastEvent) {
		s.lastEvent = ev.At
	}

	switch ev.Outcome {
	case OutcomeReceived:
		s.received++
		return nil
	case OutcomeSuccess:
		s.successful++
		s.samples.push(float64(ev.ProcessingTime) / float64(time.Millisecond))
	case OutcomeError:
		s.failed++
		s.errors.push(ErrorEntry{EventType: ev.Type, Message: ev.Error, Data: ev.Data, At: ev.At})
	default:
		return nil
	}
	s.total++
	s.byType[ev.Type]++
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Total:        s.total,
		Successful:   s.successful,
		Failed:       s.failed,
		Received:     s.received,
		ByType:       make(map[string]int64, len(s.byType)),
		SamplesMs:    s.samples.snapshot(),
		RecentErrors: s.errors.snapshot(),
	}
	for k, v := range s.byType {
		st.ByType[k] = v
	}
	if !s.lastEvent.IsZero() {
		last := s.lastEvent
		st.LastEventAt = &last
	}
	return st, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}

func (s *MemoryStore) clear() {
	s.total, s.successful, s.failed, s.received = 0, 0, 0, 0
	s.byType = map[string]int64{}
	s.lastEvent = time.Time{}
	s.samples = newRing[float64](MaxProcessingSamples)
	s.errors = newRing[ErrorEntry](MaxRecentErrors)
}
