package callbackurl

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationResult reports whether a URL can serve as the webhook endpoint.
type ValidationResult struct {
	URL        string       `json:"url"`
	Valid      bool         `json:"valid"`
	Accessible *bool        `json:"accessible,omitempty"`
	Probe      *ProbeResult `json:"probe,omitempty"`
	Errors     []string     `json:"errors"`
	Warnings   []string     `json:"warnings"`
}

// Validate checks the URL format against the environment's rules and, when
// probe is set, whether it answers. A failed probe is only a warning.
func (r *Resolver) Validate(ctx context.Context, rawURL string, probe bool) ValidationResult {
	res := ValidationResult{URL: strings.TrimSpace(rawURL), Errors: []string{}, Warnings: []string{}}

	u, err := url.Parse(res.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		res.Errors = append(res.Errors, "Invalid URL format")
		return res
	}

	strict := r.cfg.Environment.Strict()
	if u.Scheme != "https" {
		if strict {
			res.Errors = append(res.Errors, "Webhook URL must use HTTPS")
		} else {
			res.Warnings = append(res.Warnings, "Webhook URL does not use HTTPS")
		}
	}
	if IsLoopbackHost(u.Hostname()) {
		if strict {
			res.Errors = append(res.Errors, "Webhook URL must not point to a local address")
		} else {
			res.Warnings = append(res.Warnings, "Local address is not reachable by the payment provider")
		}
	}
	if !strings.HasSuffix(strings.TrimRight(u.Path, "/"), WebhookPath) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("URL path does not end with %s", WebhookPath))
	}

	res.Valid = len(res.Errors) == 0
	if !res.Valid || !probe {
		return res
	}

	pr := r.prober.Probe(ctx, res.URL)
	res.Probe = &pr
	res.Accessible = &pr.Accessible
	if !pr.Accessible {
		reason := pr.Error
		if reason == "" {
			reason = fmt.Sprintf("status %d", pr.StatusCode)
		}
		res.Warnings = append(res.Warnings, "URL is not accessible: "+reason)
	}
	return res
}

// IsLoopbackHost reports whether host only resolves on this machine.
func IsLoopbackHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}
