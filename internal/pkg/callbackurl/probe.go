package callbackurl

import (
	"context"
	"net/http"
	"time"
)

// ProbeTimeout bounds each liveness request.
const ProbeTimeout = 4 * time.Second

// ProbeResult is the outcome of one liveness probe.
type ProbeResult struct {
	URL            string    `json:"url"`
	Accessible     bool      `json:"accessible"`
	StatusCode     int       `json:"status_code,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	TestMethod     string    `json:"test_method"`
	Error          string    `json:"error,omitempty"`
	TestedAt       time.Time `json:"tested_at"`
}

// Prober checks whether a URL answers at all. It never sends a payload.
type Prober struct {
	Client  *http.Client
	Timeout time.Duration
	Now     func() time.Time
}

func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{}
	}
	return &Prober{Client: client, Timeout: ProbeTimeout, Now: time.Now}
}

// Probe sends HEAD and falls back to OPTIONS when HEAD is not supported.
// 2xx, 404 and 405 count as reachable.
func (p *Prober) Probe(ctx context.Context, rawURL string) ProbeResult {
	res := p.try(ctx, http.MethodHead, rawURL)
	if res.Error == "" && (res.StatusCode == http.StatusMethodNotAllowed || res.StatusCode == http.StatusNotImplemented) {
		res = p.try(ctx, http.MethodOptions, rawURL)
	}
	return res
}

func (p *Prober) try(ctx context.Context, method, rawURL string) ProbeResult {
	res := ProbeResult{URL: rawURL, TestMethod: method, TestedAt: p.Now()}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = ProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	req.Header.Set("User-Agent", "EventFox-WebhookProbe/1.0")

	start := time.Now()
	resp, err := p.Client.Do(req)
	res.ResponseTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.Accessible = reachableStatus(resp.StatusCode)
	return res
}

func reachableStatus(code int) bool {
	return (code >= 200 && code < 300) || code == http.StatusNotFound || code == http.StatusMethodNotAllowed
}
