package webhookmonitor

import (
	"context"
	"time"
)

const (
	MaxRecentErrors      = 20
	MaxProcessingSamples = 100
)

// Outcome is the processing stage an event reports.
type Outcome string

const (
	OutcomeReceived Outcome = "received"
	OutcomeSuccess  Outcome = "success"
	OutcomeError    Outcome = "error"
)

// Event is one observation recorded by the webhook pipeline.
type Event struct {
	Type           string
	Outcome        Outcome
	Data           map[string]any
	ProcessingTime time.Duration
	Error          string
	At             time.Time
}

// ErrorEntry is a recent failure kept in the error ring buffer.
type ErrorEntry struct {
	EventType string         `json:"event_type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	At        time.Time      `json:"timestamp"`
}

// State is the raw accumulated monitor state.
// Total counts finished events only, so Total == Successful + Failed.
type State struct {
	Total        int64
	Successful   int64
	Failed       int64
	Received     int64
	ByType       map[string]int64
	LastEventAt  *time.Time
	SamplesMs    []float64
	RecentErrors []ErrorEntry
}

// Store holds monitor state. Implementations must apply Append atomically.
type Store interface {
	Append(ctx context.Context, ev Event) error
	Load(ctx context.Context) (State, error)
	Reset(ctx context.Context) error
}
