package webhookdiag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/callbackurl"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
)

const payloadTestTimeout = 4 * time.Second

// Config wires the collaborators of Diagnostics.
type Config struct {
	Resolver *callbackurl.Resolver
	Settings func() models.PaymentSettings
	Provider payment.Provider
	// ProviderConfigured reports whether provider credentials are present.
	ProviderConfigured func() bool
	HTTPClient         *http.Client
	Now                func() time.Time
}

// Diagnostics runs operator-triggered end-to-end checks of the webhook setup.
type Diagnostics struct {
	cfg Config
}

func New(cfg Config) *Diagnostics {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Settings == nil {
		cfg.Settings = models.GetPaymentSettings
	}
	return &Diagnostics{cfg: cfg}
}

// PayloadTestResult is the outcome of posting a signed test payload to the webhook URL.
type PayloadTestResult struct {
	URL            string    `json:"url"`
	Success        bool      `json:"success"`
	Signed         bool      `json:"signed"`
	StatusCode     int       `json:"status_code,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Error          string    `json:"error,omitempty"`
	TestedAt       time.Time `json:"tested_at"`
}

type ChecklistItem struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Report is the combined diagnostics outcome.
type Report struct {
	Timestamp       time.Time                `json:"timestamp"`
	Environment     string                   `json:"environment"`
	WebhookURL      *string                  `json:"webhook_url"`
	URLSource       callbackurl.Source       `json:"url_source,omitempty"`
	URLError        string                   `json:"url_error,omitempty"`
	Accessibility   *callbackurl.ProbeResult `json:"accessibility,omitempty"`
	PayloadTest     *PayloadTestResult       `json:"payload_test,omitempty"`
	Checklist       []ChecklistItem          `json:"checklist"`
	Recommendations []string                 `json:"recommendations"`
}

// Run resolves the webhook URL, probes it and posts a signed test payload.
// Resolution failures end up as recommendations, never as an error.
func (d *Diagnostics) Run(ctx context.Context) Report {
	settings := d.cfg.Settings()
	rep := Report{
		Timestamp:       d.cfg.Now(),
		Environment:     d.cfg.Resolver.Environment().String(),
		Checklist:       []ChecklistItem{},
		Recommendations: []string{},
	}

	resolved, urlErr := d.cfg.Resolver.ResolveSource(ctx)
	if urlErr != nil {
		rep.URLError = urlErr.Error()
		log.Warnf("[Diagnostics] Webhook URL resolution failed: %v", urlErr)
	} else {
		webhookURL := resolved.URL
		rep.WebhookURL = &webhookURL
		rep.URLSource = resolved.Source
		access, payload := d.probe(ctx, webhookURL, settings.WebhookSecret)
		rep.Accessibility = &access
		rep.PayloadTest = &payload
	}

	rep.Checklist = d.checklist(settings, rep.WebhookURL)
	rep.Recommendations = d.recommendations(rep, settings)
	return rep
}

// TestAccessibility runs only the liveness and payload probes against the resolved URL.
func (d *Diagnostics) TestAccessibility(ctx context.Context) (*callbackurl.ProbeResult, *PayloadTestResult, error) {
	webhookURL, err := d.cfg.Resolver.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	access, payload := d.probe(ctx, webhookURL, d.cfg.Settings().WebhookSecret)
	return &access, &payload, nil
}

func (d *Diagnostics) probe(ctx context.Context, webhookURL, secret string) (callbackurl.ProbeResult, PayloadTestResult) {
	var (
		access  callbackurl.ProbeResult
		payload PayloadTestResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		access = d.cfg.Resolver.Prober().Probe(gctx, webhookURL)
		return nil
	})
	g.Go(func() error {
		payload = d.sendTestPayload(gctx, webhookURL, secret)
		return nil
	})
	_ = g.Wait()
	return access, payload
}

// sendTestPayload posts a payload flagged as test, so the handler authenticates
// and acknowledges it without touching any registration.
func (d *Diagnostics) sendTestPayload(ctx context.Context, webhookURL, secret string) PayloadTestResult {
	res := PayloadTestResult{URL: webhookURL, TestedAt: d.cfg.Now()}

	body, err := json.Marshal(map[string]any{
		"type":       payment.TestEventType,
		"test":       true,
		"deliveryId": "diag-" + uuid.New().String(),
		"timestamp":  res.TestedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, payloadTestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(payment.SignatureHeader, payment.SignPayload(body, secret))
		res.Signed = true
	}

	start := time.Now()
	resp, err := d.cfg.HTTPClient.Do(req)
	res.ResponseTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	res.StatusCode = resp.StatusCode
	res.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !res.Success {
		res.Error = fmt.Sprintf("endpoint answered %d", resp.StatusCode)
	}
	return res
}

func (d *Diagnostics) providerConfigured() bool {
	if d.cfg.ProviderConfigured == nil {
		return d.cfg.Provider != nil
	}
	return d.cfg.ProviderConfigured()
}

// checklist inspects configuration only; it makes no network calls.
func (d *Diagnostics) checklist(settings models.PaymentSettings, webhookURL *string) []ChecklistItem {
	items := []ChecklistItem{
		{Name: "provider_api_configured", OK: d.providerConfigured()},
		{Name: "webhooks_enabled", OK: settings.WebhooksEnabled},
		{Name: "explicit_webhook_url_set", OK: strings.TrimSpace(settings.WebhookURL) != "", Detail: settings.WebhookURL},
		{Name: "public_domain_set", OK: d.cfg.Resolver.PublicDomainSet()},
		{Name: "webhook_secret_configured", OK: settings.WebhookSecret != ""},
		{Name: "supported_currencies", OK: len(settings.SupportedCurrencies) > 0, Detail: strings.Join(settings.SupportedCurrencies, ",")},
	}

	if webhookURL != nil {
		v := d.cfg.Resolver.Validate(context.Background(), *webhookURL, false)
		items = append(items, ChecklistItem{Name: "webhook_url_valid", OK: v.Valid, Detail: strings.Join(v.Errors, "; ")})
	}
	return items
}

// recommendations applies independent rules; any number may fire together.
func (d *Diagnostics) recommendations(rep Report, settings models.PaymentSettings) []string {
	out := []string{}
	environment := d.cfg.Resolver.Environment()

	if rep.WebhookURL == nil {
		out = append(out, "Configure PUBLIC_DOMAIN or an explicit webhook URL ("+rep.URLError+")")
	}
	if settings.WebhookSecret == "" {
		out = append(out, "Set PAYMENT_WEBHOOK_SECRET so notifications can be authenticated")
	}
	if !settings.WebhooksEnabled {
		out = append(out, "Payment webhooks are disabled; enable them in the payment settings")
	}
	if !d.providerConfigured() {
		out = append(out, "Set PAYMENT_API_BASE_URL and PAYMENT_API_KEY so payment status can be verified")
	}
	if rep.Accessibility != nil && !rep.Accessibility.Accessible {
		out = append(out, "The webhook URL is not reachable; check DNS, TLS and firewall rules")
	}
	if rep.PayloadTest != nil && !rep.PayloadTest.Success {
		out = append(out, "The webhook endpoint rejected a test payload: "+rep.PayloadTest.Error)
	}
	if environment == env.Development && rep.WebhookURL != nil && !rep.URLSource.Tunnel() {
		out = append(out, "No tunnel detected; start an HTTPS tunnel or set WEBHOOK_TUNNEL_URL so the payment provider can reach this machine")
	}
	if environment.Strict() && rep.WebhookURL != nil {
		if u, err := url.Parse(*rep.WebhookURL); err == nil {
			if u.Scheme != "https" {
				out = append(out, "Use an HTTPS webhook URL in production; payment notifications must not travel unencrypted")
			}
			if callbackurl.IsLoopbackHost(u.Hostname()) {
				out = append(out, "The webhook URL points to a local address; set PUBLIC_DOMAIN or an explicit webhook URL the provider can reach")
			}
		}
	}
	return out
}
