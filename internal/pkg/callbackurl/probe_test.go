package callbackurl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbeStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		accessible bool
	}{
		{"ok", http.StatusOK, true},
		{"no content", http.StatusNoContent, true},
		{"not found", http.StatusNotFound, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"server error", http.StatusInternalServerError, false},
		{"unavailable", http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			res := NewProber(srv.Client()).Probe(context.Background(), srv.URL)
			assert.Equal(t, tt.accessible, res.Accessible)
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, http.MethodHead, res.TestMethod)
			assert.Empty(t, res.Error)
		})
	}
}

func TestProbeFallsBackToOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := NewProber(srv.Client()).Probe(context.Background(), srv.URL)

	assert.True(t, res.Accessible)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, http.MethodOptions, res.TestMethod)
}

func TestProbeNotImplementedThenServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := NewProber(srv.Client()).Probe(context.Background(), srv.URL)

	assert.False(t, res.Accessible)
	assert.Equal(t, http.MethodOptions, res.TestMethod)
}

func TestProbeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewProber(nil).Probe(context.Background(), url)

	assert.False(t, res.Accessible)
	assert.NotEmpty(t, res.Error)
	assert.Zero(t, res.StatusCode)
}

func TestProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewProber(srv.Client())
	p.Timeout = 50 * time.Millisecond
	res := p.Probe(context.Background(), srv.URL)

	assert.False(t, res.Accessible)
	assert.NotEmpty(t, res.Error)
}
