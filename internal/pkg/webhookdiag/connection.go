package webhookdiag

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
)

var requestValidator = validator.New()

// ConnectionResult is the outcome of a provider credential check.
type ConnectionResult struct {
	Success        bool   `json:"success"`
	Configured     bool   `json:"configured"`
	InvoiceID      string `json:"invoice_id,omitempty"`
	CheckoutLink   string `json:"checkout_link,omitempty"`
	Amount         string `json:"amount,omitempty"`
	Currency       string `json:"currency,omitempty"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	Error          string `json:"error,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
}

// TestConnection creates the smallest invoice the settings allow to confirm
// that the provider accepts the configured credentials.
func (d *Diagnostics) TestConnection(ctx context.Context) ConnectionResult {
	res := ConnectionResult{Configured: d.providerConfigured()}
	if !res.Configured || d.cfg.Provider == nil {
		res.Error = "payment provider credentials are not configured"
		res.ErrorKind = payment.Kind(payment.ErrConfigurationMissing)
		return res
	}

	settings := d.cfg.Settings()
	if len(settings.SupportedCurrencies) == 0 {
		res.Error = "no supported currency configured"
		res.ErrorKind = payment.Kind(payment.ErrConfigurationMissing)
		return res
	}

	req := payment.InvoiceRequest{
		OrderID:  fmt.Sprintf("conn-test-%d", d.cfg.Now().Unix()),
		Amount:   settings.MinAmount,
		Currency: settings.SupportedCurrencies[0],
		Metadata: map[string]any{"test": true},
	}
	if err := requestValidator.Struct(req); err != nil {
		res.Error = err.Error()
		res.ErrorKind = payment.Kind(payment.ErrConfigurationMissing)
		return res
	}
	if !req.Amount.IsPositive() || (settings.MaxAmount.IsPositive() && req.Amount.GreaterThan(settings.MaxAmount)) {
		res.Error = "minimum amount is outside the configured bounds"
		res.ErrorKind = payment.Kind(payment.ErrConfigurationMissing)
		return res
	}
	res.Amount = req.Amount.StringFixed(2)
	res.Currency = req.Currency

	start := time.Now()
	inv, err := d.cfg.Provider.CreateInvoice(ctx, req)
	res.ResponseTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		log.Warnf("[Diagnostics] Provider connection test failed: %v", err)
		res.Error = err.Error()
		res.ErrorKind = payment.Kind(err)
		return res
	}

	res.Success = true
	res.InvoiceID = inv.ID
	res.CheckoutLink = inv.CheckoutLink
	log.Infof("[Diagnostics] Provider connection test created invoice %s", inv.ID)
	return res
}
