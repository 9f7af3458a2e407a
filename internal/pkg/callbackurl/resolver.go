package callbackurl

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
)

const (
	// WebhookPath is where the payment webhook handler is mounted.
	WebhookPath = constants.PaymentWebhookRoute
	// TestingURL is returned in the testing environment so resolution never
	// depends on the host.
	TestingURL          = "https://webhooks.test.invalid" + WebhookPath
	DefaultTunnelAPIURL = "http://127.0.0.1:4040/api/tunnels"
	DefaultLocalBaseURL = "http://localhost:4000"

	tunnelAPITimeout = 2 * time.Second
)

// Source names where a resolved webhook URL came from.
type Source string

const (
	SourceFixed           Source = "fixed"
	SourceTunnelOverride  Source = "tunnel_override"
	SourceTunnelAPI       Source = "tunnel_api"
	SourcePublicDomain    Source = "public_domain"
	SourceLocalFallback   Source = "local_fallback"
	SourceExplicitSetting Source = "explicit_setting"
)

// Tunnel reports whether the URL points at a local-to-public relay.
func (s Source) Tunnel() bool {
	return s == SourceTunnelOverride || s == SourceTunnelAPI
}

// Resolution is a resolved webhook URL and its origin.
type Resolution struct {
	URL    string `json:"url"`
	Source Source `json:"source"`
}

// Config is the input of a Resolver.
type Config struct {
	Environment  env.Environment
	PublicDomain string
	TunnelURL    string
	TunnelAPIURL string
	// LocalBaseURL is the address the server listens on, used as the last
	// development fallback.
	LocalBaseURL string
	// WebhookURL returns the explicit webhook URL setting, if any.
	WebhookURL func() string
	HTTPClient *http.Client
}

// ConfigFromEnv reads the resolver configuration from the process environment.
func ConfigFromEnv(webhookURL func() string) Config {
	return Config{
		Environment:  env.Detect(),
		PublicDomain: strings.TrimSpace(env.GetEnv("PUBLIC_DOMAIN", "")),
		TunnelURL:    strings.TrimSpace(env.GetEnv("WEBHOOK_TUNNEL_URL", "")),
		TunnelAPIURL: strings.TrimSpace(env.GetEnv("TUNNEL_API_URL", DefaultTunnelAPIURL)),
		LocalBaseURL: fmt.Sprintf("http://%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")),
		WebhookURL:   webhookURL,
	}
}

// Resolver determines the externally reachable webhook URL for the current environment.
type Resolver struct {
	cfg    Config
	prober *Prober
}

func NewResolver(cfg Config) *Resolver {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.TunnelAPIURL == "" {
		cfg.TunnelAPIURL = DefaultTunnelAPIURL
	}
	if cfg.LocalBaseURL == "" {
		cfg.LocalBaseURL = DefaultLocalBaseURL
	}
	return &Resolver{cfg: cfg, prober: NewProber(cfg.HTTPClient)}
}

func (r *Resolver) Environment() env.Environment {
	return r.cfg.Environment
}

func (r *Resolver) Prober() *Prober {
	return r.prober
}

// PublicDomainSet reports whether an external base URL is configured.
func (r *Resolver) PublicDomainSet() bool {
	return strings.TrimSpace(r.cfg.PublicDomain) != ""
}

// Resolve returns the webhook URL or ErrConfigurationMissing.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	res, err := r.ResolveSource(ctx)
	return res.URL, err
}

// ResolveSource is Resolve plus the origin of the URL.
func (r *Resolver) ResolveSource(ctx context.Context) (Resolution, error) {
	switch r.cfg.Environment {
	case env.Testing:
		return Resolution{URL: TestingURL, Source: SourceFixed}, nil
	case env.Development:
		return r.resolveDevelopment(ctx), nil
	default:
		return r.resolveProduction()
	}
}

// resolveDevelopment never fails: without a tunnel it falls back to the
// public domain, then to the local listen address.
func (r *Resolver) resolveDevelopment(ctx context.Context) Resolution {
	if r.cfg.TunnelURL != "" {
		return Resolution{URL: withWebhookPath(r.cfg.TunnelURL), Source: SourceTunnelOverride}
	}

	tunnel, err := r.discoverTunnel(ctx)
	if err == nil && tunnel != "" {
		return Resolution{URL: withWebhookPath(tunnel), Source: SourceTunnelAPI}
	}
	if err != nil {
		log.Infof("[CallbackURL] Tunnel API %s not usable: %v", r.cfg.TunnelAPIURL, err)
	}

	if r.PublicDomainSet() {
		log.Warnf("[CallbackURL] No tunnel found, falling back to PUBLIC_DOMAIN; the payment provider probably cannot reach it")
		return Resolution{URL: withWebhookPath(baseURL(r.cfg.PublicDomain, "https")), Source: SourcePublicDomain}
	}

	local := withWebhookPath(baseURL(r.cfg.LocalBaseURL, "http"))
	log.Warnf("[CallbackURL] No tunnel and no PUBLIC_DOMAIN, using local address %s; payment webhooks will not arrive", local)
	return Resolution{URL: local, Source: SourceLocalFallback}
}

func (r *Resolver) resolveProduction() (Resolution, error) {
	if r.cfg.WebhookURL != nil {
		if explicit := strings.TrimSpace(r.cfg.WebhookURL()); explicit != "" {
			return Resolution{URL: explicit, Source: SourceExplicitSetting}, nil
		}
	}
	if r.PublicDomainSet() {
		return Resolution{URL: withWebhookPath(baseURL(r.cfg.PublicDomain, "https")), Source: SourcePublicDomain}, nil
	}
	return Resolution{}, fmt.Errorf("%w: set the payment webhook URL or PUBLIC_DOMAIN", payment.ErrConfigurationMissing)
}

// baseURL accepts a bare host or a full origin; bare hosts get scheme.
func baseURL(host, scheme string) string {
	d := strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.Contains(d, "://") {
		return d
	}
	return scheme + "://" + d
}

func withWebhookPath(base string) string {
	b := strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.HasSuffix(b, WebhookPath) {
		return b
	}
	return b + WebhookPath
}
