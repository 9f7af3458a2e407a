package webhookmonitor

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v2/log"
)

const (
	defaultCacheTTL = 5 * time.Second
	silenceWindow   = 24 * time.Hour

	IssueNoEvents = "No webhook events recorded"
	IssueSilence  = "No webhooks received in the last 24 hours"
)

// HealthLevel is the coarse health verdict.
type HealthLevel string

const (
	HealthHealthy  HealthLevel = "healthy"
	HealthWarning  HealthLevel = "warning"
	HealthCritical HealthLevel = "critical"
)

func (l HealthLevel) rank() int {
	switch l {
	case HealthCritical:
		return 2
	case HealthWarning:
		return 1
	default:
		return 0
	}
}

func worse(a, b HealthLevel) HealthLevel {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

type MetricsSnapshot struct {
	PeriodHours         int              `json:"period_hours"`
	TotalEvents         int64            `json:"total_events"`
	SuccessfulEvents    int64            `json:"successful_events"`
	FailedEvents        int64            `json:"failed_events"`
	ReceivedEvents      int64            `json:"received_events"`
	ErrorRatePct        float64          `json:"error_rate_pct"`
	AvgProcessingTimeMs float64          `json:"avg_processing_time_ms"`
	LastEventAt         *time.Time       `json:"last_event_at,omitempty"`
	EventsByType        map[string]int64 `json:"events_by_type"`
	RecentErrors        []ErrorEntry     `json:"recent_errors"`
}

type HealthStatus struct {
	Status       HealthLevel `json:"status"`
	ErrorRatePct float64     `json:"error_rate_pct"`
	Issues       []string    `json:"issues"`
}

// Config tunes a Monitor. Zero values pick defaults.
type Config struct {
	CacheTTL time.Duration
	Now      func() time.Time
}

type cachedSnapshot struct {
	snapshot  MetricsSnapshot
	expiresAt time.Time
}

// Monitor records webhook outcomes into a Store and derives metrics and health.
type Monitor struct {
	store    Store
	now      func() time.Time
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[int]cachedSnapshot
	// generation is bumped by Reset; snapshots loaded under an older
	// generation are not cached.
	generation uint64

	set        *metrics.Set
	received   *metrics.Counter
	successful *metrics.Counter
	failed     *metrics.Counter
	duration   *metrics.Histogram
}

func New(store Store, cfg Config) *Monitor {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	set := metrics.NewSet()
	return &Monitor{
		store:      store,
		now:        cfg.Now,
		cacheTTL:   cfg.CacheTTL,
		cache:      map[int]cachedSnapshot{},
		set:        set,
		received:   set.NewCounter(`webhook_events_total{outcome="received"}`),
		successful: set.NewCounter(`webhook_events_total{outcome="success"}`),
		failed:     set.NewCounter(`webhook_events_total{outcome="error"}`),
		duration:   set.NewHistogram(`webhook_processing_duration_seconds`),
	}
}

// Record stores one event. Store failures are logged, never returned, so the
// webhook response path is not coupled to monitoring availability.
func (m *Monitor) Record(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = m.now()
	}
	if ev.Type == "" {
		ev.Type = "unknown"
	}

	switch ev.Outcome {
	case OutcomeReceived:
		m.received.Inc()
	case OutcomeSuccess:
		m.successful.Inc()
		m.duration.Update(ev.ProcessingTime.Seconds())
	case OutcomeError:
		m.failed.Inc()
		log.Warnf("[WebhookMonitor] %s failed: %s", ev.Type, ev.Error)
	default:
		log.Errorf("[WebhookMonitor] Ignoring event %s with unknown outcome %q", ev.Type, ev.Outcome)
		return
	}

	if err := m.store.Append(ctx, ev); err != nil {
		log.Errorf("[WebhookMonitor] Failed to store %s/%s event: %v", ev.Type, ev.Outcome, err)
	}
}

// RecordSuccess is shorthand for a successful event.
func (m *Monitor) RecordSuccess(ctx context.Context, eventType string, processing time.Duration, data map[string]any) {
	m.Record(ctx, Event{Type: eventType, Outcome: OutcomeSuccess, ProcessingTime: processing, Data: data})
}

// RecordError is shorthand for a failed event.
func (m *Monitor) RecordError(ctx context.Context, eventType string, err error, data map[string]any) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	m.Record(ctx, Event{Type: eventType, Outcome: OutcomeError, Error: msg, Data: data})
}

// Metrics returns counters and derived rates. Recent errors are limited to the
// last windowHours; counters cover everything since the last reset.
func (m *Monitor) Metrics(ctx context.Context, windowHours int) (MetricsSnapshot, error) {
	if windowHours <= 0 {
		windowHours = 24
	}
	now := m.now()

	m.mu.Lock()
	if c, ok := m.cache[windowHours]; ok && now.Before(c.expiresAt) {
		m.mu.Unlock()
		return c.snapshot, nil
	}
	gen := m.generation
	m.mu.Unlock()

	st, err := m.store.Load(ctx)
	if err != nil {
		return MetricsSnapshot{}, err
	}
	snap := buildSnapshot(st, windowHours, now)

	m.mu.Lock()
	if m.generation == gen {
		m.cache[windowHours] = cachedSnapshot{snapshot: snap, expiresAt: now.Add(m.cacheTTL)}
	}
	m.mu.Unlock()
	return snap, nil
}

func buildSnapshot(st State, windowHours int, now time.Time) MetricsSnapshot {
	snap := MetricsSnapshot{
		PeriodHours:      windowHours,
		TotalEvents:      st.Successful + st.Failed,
		SuccessfulEvents: st.Successful,
		FailedEvents:     st.Failed,
		ReceivedEvents:   st.Received,
		LastEventAt:      st.LastEventAt,
		EventsByType:     st.ByType,
		RecentErrors:     []ErrorEntry{},
	}
	if snap.EventsByType == nil {
		snap.EventsByType = map[string]int64{}
	}
	if snap.TotalEvents > 0 {
		snap.ErrorRatePct = round2(float64(snap.FailedEvents) / float64(snap.TotalEvents) * 100)
	}
	if len(st.SamplesMs) > 0 {
		var sum float64
		for _, v := range st.SamplesMs {
			sum += v
		}
		snap.AvgProcessingTimeMs = round2(sum / float64(len(st.SamplesMs)))
	}

	cutoff := now.Add(-time.Duration(windowHours) * time.Hour)
	for _, e := range st.RecentErrors {
		if !e.At.Before(cutoff) {
			snap.RecentErrors = append(snap.RecentErrors, e)
		}
	}
	return snap
}

// Health derives a verdict from the current counters.
func (m *Monitor) Health(ctx context.Context) (HealthStatus, error) {
	snap, err := m.Metrics(ctx, 24)
	if err != nil {
		return HealthStatus{}, err
	}
	return evaluateHealth(snap, m.now()), nil
}

func evaluateHealth(snap MetricsSnapshot, now time.Time) HealthStatus {
	h := HealthStatus{Status: HealthHealthy, ErrorRatePct: snap.ErrorRatePct, Issues: []string{}}

	switch rate := snap.ErrorRatePct; {
	case rate > 50:
		h.Status = HealthCritical
		h.Issues = append(h.Issues, fmt.Sprintf("High error rate: %s%%", formatPct(rate)))
	case rate >= 10:
		h.Status = HealthWarning
		h.Issues = append(h.Issues, fmt.Sprintf("Elevated error rate: %s%%", formatPct(rate)))
	}

	switch {
	case snap.LastEventAt == nil && snap.TotalEvents == 0 && snap.ReceivedEvents == 0:
		h.Status = worse(h.Status, HealthWarning)
		h.Issues = append(h.Issues, IssueNoEvents)
	case snap.LastEventAt != nil && now.Sub(*snap.LastEventAt) > silenceWindow:
		h.Status = worse(h.Status, HealthWarning)
		h.Issues = append(h.Issues, IssueSilence)
	}
	return h
}

// Reset clears all counters and buffers. It is only ever an operator action.
func (m *Monitor) Reset(ctx context.Context) error {
	if err := m.store.Reset(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.generation++
	m.cache = map[int]cachedSnapshot{}
	m.mu.Unlock()

	m.received.Set(0)
	m.successful.Set(0)
	m.failed.Set(0)
	m.duration.Reset()
	log.Info("[WebhookMonitor] Counters reset")
	return nil
}

// WritePrometheus writes the process-local counters in Prometheus text format.
func (m *Monitor) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatPct(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
