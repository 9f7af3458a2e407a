package callbackurl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventFox/internal/pkg/env"
	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
)

func tunnelAPI(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveTestingIsDeterministic(t *testing.T) {
	r := NewResolver(Config{Environment: env.Testing, PublicDomain: "events.example.com", TunnelURL: "https://abc.tunnel.dev"})

	for i := 0; i < 3; i++ {
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, TestingURL, got)
	}
}

func TestResolveDevelopment(t *testing.T) {
	t.Run("explicit tunnel url", func(t *testing.T) {
		r := NewResolver(Config{Environment: env.Development, TunnelURL: "https://abc.tunnel.dev/"})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "https://abc.tunnel.dev/webhooks/payment", got)
	})

	t.Run("tunnel api prefers https", func(t *testing.T) {
		srv := tunnelAPI(t, `{"tunnels":[{"public_url":"http://abc.tunnel.dev","proto":"http"},{"public_url":"https://abc.tunnel.dev","proto":"https"}]}`)
		r := NewResolver(Config{Environment: env.Development, TunnelAPIURL: srv.URL, PublicDomain: "events.example.com"})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "https://abc.tunnel.dev/webhooks/payment", got)
	})

	t.Run("tunnel api http only", func(t *testing.T) {
		srv := tunnelAPI(t, `{"tunnels":[{"public_url":"http://abc.tunnel.dev","proto":"http"}]}`)
		r := NewResolver(Config{Environment: env.Development, TunnelAPIURL: srv.URL})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "http://abc.tunnel.dev/webhooks/payment", got)
	})

	t.Run("public domain fallback", func(t *testing.T) {
		srv := tunnelAPI(t, `{"tunnels":[]}`)
		r := NewResolver(Config{Environment: env.Development, TunnelAPIURL: srv.URL, PublicDomain: "dev.example.com"})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "https://dev.example.com/webhooks/payment", got)
	})

	t.Run("local address when nothing is configured", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		r := NewResolver(Config{Environment: env.Development, TunnelAPIURL: srv.URL, LocalBaseURL: "http://127.0.0.1:4000"})
		res, err := r.ResolveSource(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:4000/webhooks/payment", res.URL)
		assert.Equal(t, SourceLocalFallback, res.Source)
		assert.False(t, res.Source.Tunnel())
	})

	t.Run("bare local host keeps http", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		r := NewResolver(Config{Environment: env.Development, TunnelAPIURL: srv.URL, LocalBaseURL: "localhost:8080"})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/webhooks/payment", got)
	})

	t.Run("default local address", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		r := NewResolver(Config{Environment: env.Development, TunnelAPIURL: srv.URL})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, DefaultLocalBaseURL+WebhookPath, got)
	})
}

func TestResolveSource(t *testing.T) {
	srv := tunnelAPI(t, `{"tunnels":[{"public_url":"https://abc.tunnel.dev","proto":"https"}]}`)
	empty := tunnelAPI(t, `{"tunnels":[]}`)

	tests := []struct {
		name   string
		cfg    Config
		source Source
		tunnel bool
	}{
		{"testing", Config{Environment: env.Testing}, SourceFixed, false},
		{"tunnel override", Config{Environment: env.Development, TunnelURL: "https://abc.tunnel.dev"}, SourceTunnelOverride, true},
		{"tunnel api", Config{Environment: env.Development, TunnelAPIURL: srv.URL}, SourceTunnelAPI, true},
		{"dev public domain", Config{Environment: env.Development, TunnelAPIURL: empty.URL, PublicDomain: "dev.example.com"}, SourcePublicDomain, false},
		{"explicit setting", Config{Environment: env.Production, WebhookURL: func() string { return "https://hooks.example.com/x" }}, SourceExplicitSetting, false},
		{"prod public domain", Config{Environment: env.Production, PublicDomain: "events.example.com"}, SourcePublicDomain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewResolver(tt.cfg).ResolveSource(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.source, res.Source)
			assert.Equal(t, tt.tunnel, res.Source.Tunnel())
		})
	}
}

func TestResolveProduction(t *testing.T) {
	t.Run("explicit setting wins", func(t *testing.T) {
		r := NewResolver(Config{
			Environment:  env.Production,
			PublicDomain: "events.example.com",
			WebhookURL:   func() string { return "https://hooks.example.com/custom" },
		})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "https://hooks.example.com/custom", got)
	})

	t.Run("public domain", func(t *testing.T) {
		r := NewResolver(Config{Environment: env.Production, PublicDomain: "https://events.example.com/", WebhookURL: func() string { return "" }})
		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "https://events.example.com/webhooks/payment", got)
	})

	t.Run("unknown environment behaves like production", func(t *testing.T) {
		r := NewResolver(Config{Environment: env.Unknown, TunnelURL: "https://abc.tunnel.dev", LocalBaseURL: "http://localhost:4000"})
		_, err := r.Resolve(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, payment.ErrConfigurationMissing))
		assert.Equal(t, http.StatusInternalServerError, payment.HTTPStatus(err))
	})
}
