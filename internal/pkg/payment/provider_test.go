package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProviderURL = "https://pay.example.test/api/v1"

func newTestProviderClient() *ProviderClient {
	return &ProviderClient{
		APIBaseURL: testProviderURL,
		APIKey:     "api-key",
		HTTPClient: &http.Client{},
	}
}

func TestProviderClientGetInvoice(t *testing.T) {
	defer gock.Off()

	gock.New(testProviderURL).
		Get("/invoices/INV-1").
		MatchHeader("Authorization", "^token api-key$").
		Reply(200).
		JSON(map[string]any{
			"id":            "INV-1",
			"orderId":       "ORD-7",
			"status":        "Confirmed",
			"amount":        "25.50",
			"currency":      "EUR",
			"transactionId": "tx-1",
		})

	inv, err := newTestProviderClient().GetInvoice(context.Background(), "INV-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-7", inv.OrderID)
	assert.Equal(t, "Confirmed", inv.Status)
	assert.True(t, decimal.RequireFromString("25.50").Equal(inv.Amount))
	assert.True(t, gock.IsDone())
}

func TestProviderClientGetInvoice_ServerError(t *testing.T) {
	defer gock.Off()

	gock.New(testProviderURL).
		Get("/invoices/INV-2").
		Reply(502).
		BodyString("bad gateway")

	_, err := newTestProviderClient().GetInvoice(context.Background(), "INV-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteUnavailable))

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 502, pe.StatusCode)
	assert.True(t, pe.Retryable())
}

func TestProviderClientGetInvoice_Unauthorized(t *testing.T) {
	defer gock.Off()

	gock.New(testProviderURL).
		Get("/invoices/INV-3").
		Reply(401)

	_, err := newTestProviderClient().GetInvoice(context.Background(), "INV-3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigurationMissing))

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.False(t, pe.Retryable())
}

func TestProviderClientCreateInvoice(t *testing.T) {
	defer gock.Off()

	gock.New(testProviderURL).
		Post("/invoices").
		MatchType("json").
		Reply(200).
		JSON(map[string]any{"id": "INV-NEW", "status": "New", "amount": "1", "currency": "EUR"})

	inv, err := newTestProviderClient().CreateInvoice(context.Background(), InvoiceRequest{
		OrderID:  "diag-1",
		Amount:   decimal.NewFromInt(1),
		Currency: "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-NEW", inv.ID)
}

func TestProviderClientNotConfigured(t *testing.T) {
	c := &ProviderClient{}
	_, err := c.GetInvoice(context.Background(), "INV-1")
	assert.True(t, errors.Is(err, ErrConfigurationMissing))
	assert.False(t, c.Configured())
}
