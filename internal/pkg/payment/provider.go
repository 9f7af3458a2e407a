package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

const (
	defaultProviderTimeout = 4 * time.Second
	maxProviderBody        = 1 << 20
)

// Provider is the remote query capability of the payment provider.
type Provider interface {
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}

// ProviderError is a non-2xx answer or a transport failure from the provider.
type ProviderError struct {
	StatusCode int
	Body       string
	err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v", e.err)
	}
	return fmt.Sprintf("%v: status=%d body=%s", e.err, e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.err }

// Retryable reports whether repeating the same call may succeed.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type ProviderClient struct {
	APIBaseURL string
	APIKey     string

	HTTPClient *http.Client
}

func NewProviderClientFromEnv() *ProviderClient {
	return &ProviderClient{
		APIBaseURL: strings.TrimRight(strings.TrimSpace(env.GetEnv("PAYMENT_API_BASE_URL", "")), "/"),
		APIKey:     strings.TrimSpace(env.GetEnv("PAYMENT_API_KEY", "")),
		HTTPClient: &http.Client{
			Timeout: defaultProviderTimeout,
		},
	}
}

// Configured reports whether credentials and endpoint are present.
func (c *ProviderClient) Configured() bool {
	return c.APIBaseURL != "" && c.APIKey != ""
}

func (c *ProviderClient) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	id := strings.TrimSpace(invoiceID)
	if id == "" {
		return nil, ErrMissingIdentifiers
	}
	var out Invoice
	if err := c.do(ctx, http.MethodGet, "/invoices/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		out.ID = id
	}
	return &out, nil
}

func (c *ProviderClient) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	if req.Metadata == nil {
		req.Metadata = map[string]any{}
	}
	if _, ok := req.Metadata["requestId"]; !ok {
		req.Metadata["requestId"] = uuid.New().String()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var out Invoice
	if err := c.do(ctx, http.MethodPost, "/invoices", body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("payment provider returned an invoice without id")
	}
	return &out, nil
}

func (c *ProviderClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	if !c.Configured() {
		return fmt.Errorf("%w: PAYMENT_API_BASE_URL/PAYMENT_API_KEY are not configured", ErrConfigurationMissing)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "token "+c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &ProviderError{err: classifyTransportError(err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pe := &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody), err: ErrRemoteUnavailable}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			pe.err = fmt.Errorf("%w: provider rejected credentials", ErrConfigurationMissing)
		}
		return pe
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody), err: fmt.Errorf("%w: undecodable provider response: %v", ErrRemoteUnavailable, err)}
	}
	return nil
}

func (c *ProviderClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultProviderTimeout}
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrRemoteQueryTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
}
