package callbackurl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		environment env.Environment
		url         string
		valid       bool
		warnings    int
	}{
		{"malformed", env.Production, "::not a url", false, 0},
		{"missing scheme", env.Production, "events.example.com/webhooks/payment", false, 0},
		{"ftp scheme", env.Development, "ftp://events.example.com/webhooks/payment", false, 0},
		{"https production", env.Production, "https://events.example.com/webhooks/payment", true, 0},
		{"http production", env.Production, "http://events.example.com/webhooks/payment", false, 0},
		{"loopback production", env.Production, "https://127.0.0.1/webhooks/payment", false, 0},
		{"localhost unknown env", env.Unknown, "https://localhost/webhooks/payment", false, 0},
		{"http development", env.Development, "http://events.example.com/webhooks/payment", true, 1},
		{"localhost development", env.Development, "http://localhost:8080/webhooks/payment", true, 2},
		{"other path", env.Production, "https://events.example.com/hooks", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(Config{Environment: tt.environment})
			res := r.Validate(context.Background(), tt.url, false)
			assert.Equal(t, tt.valid, res.Valid, "errors: %v", res.Errors)
			assert.Len(t, res.Warnings, tt.warnings, "warnings: %v", res.Warnings)
			assert.Nil(t, res.Accessible)
		})
	}
}

func TestValidateWithProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewResolver(Config{Environment: env.Development})
	res := r.Validate(context.Background(), srv.URL+WebhookPath, true)

	assert.True(t, res.Valid)
	require.NotNil(t, res.Accessible)
	assert.True(t, *res.Accessible)
	require.NotNil(t, res.Probe)
	assert.Equal(t, http.MethodHead, res.Probe.TestMethod)
}

func TestValidateProbeFailureIsWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewResolver(Config{Environment: env.Development})
	res := r.Validate(context.Background(), srv.URL+WebhookPath, true)

	assert.True(t, res.Valid)
	require.NotNil(t, res.Accessible)
	assert.False(t, *res.Accessible)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "status 502")
}

func TestValidateSkipsProbeWhenInvalid(t *testing.T) {
	r := NewResolver(Config{Environment: env.Production})
	res := r.Validate(context.Background(), "http://localhost/webhooks/payment", true)

	assert.False(t, res.Valid)
	assert.Nil(t, res.Accessible)
	assert.Len(t, res.Errors, 2)
}
