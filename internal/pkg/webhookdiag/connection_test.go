package webhookdiag

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventFox/internal/pkg/callbackurl"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
	"github.com/ManuelReschke/EventFox/internal/pkg/payment"
)

type stubProvider struct {
	got payment.InvoiceRequest
	err error
}

func (p *stubProvider) GetInvoice(context.Context, string) (*payment.Invoice, error) {
	return nil, payment.ErrRemoteUnavailable
}

func (p *stubProvider) CreateInvoice(_ context.Context, req payment.InvoiceRequest) (*payment.Invoice, error) {
	p.got = req
	if p.err != nil {
		return nil, p.err
	}
	return &payment.Invoice{ID: "INV-TEST", CheckoutLink: "https://pay.example.test/i/INV-TEST"}, nil
}

func testResolver() *callbackurl.Resolver {
	return callbackurl.NewResolver(callbackurl.Config{Environment: env.Testing})
}

func TestTestConnectionCreatesMinimalInvoice(t *testing.T) {
	provider := &stubProvider{}

	res := newDiagnostics(testResolver(), testSettings(), provider).TestConnection(context.Background())

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "INV-TEST", res.InvoiceID)
	assert.Equal(t, "1.00", res.Amount)
	assert.Equal(t, "EUR", res.Currency)
	assert.True(t, decimal.RequireFromString("1.00").Equal(provider.got.Amount))
	assert.Equal(t, true, provider.got.Metadata["test"])
}

func TestTestConnectionNotConfigured(t *testing.T) {
	res := newDiagnostics(testResolver(), testSettings(), nil).TestConnection(context.Background())

	assert.False(t, res.Success)
	assert.False(t, res.Configured)
	assert.Equal(t, "configuration_missing", res.ErrorKind)
}

func TestTestConnectionBoundsChecked(t *testing.T) {
	settings := testSettings()
	settings.MinAmount = decimal.RequireFromString("200.00")
	provider := &stubProvider{}

	res := newDiagnostics(testResolver(), settings, provider).TestConnection(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, "", provider.got.OrderID)
}

func TestTestConnectionProviderFailure(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("%w: provider rejected credentials", payment.ErrConfigurationMissing)}

	res := newDiagnostics(testResolver(), testSettings(), provider).TestConnection(context.Background())

	assert.False(t, res.Success)
	assert.True(t, res.Configured)
	assert.Equal(t, "configuration_missing", res.ErrorKind)
}
