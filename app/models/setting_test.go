package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPaymentSettings() PaymentSettings {
	return PaymentSettings{
		WebhookURL:          "https://events.example.com/webhooks/payment",
		WebhooksEnabled:     true,
		SupportedCurrencies: []string{"EUR", "USD"},
		MinAmount:           decimal.RequireFromString("1.00"),
		MaxAmount:           decimal.RequireFromString("500.00"),
	}
}

func TestPaymentSettingsValidate(t *testing.T) {
	require.NoError(t, validPaymentSettings().Validate())

	tests := []struct {
		name   string
		mutate func(*PaymentSettings)
	}{
		{"bad url", func(s *PaymentSettings) { s.WebhookURL = "not a url" }},
		{"no currencies", func(s *PaymentSettings) { s.SupportedCurrencies = nil }},
		{"lowercase currency", func(s *PaymentSettings) { s.SupportedCurrencies = []string{"eur"} }},
		{"long currency", func(s *PaymentSettings) { s.SupportedCurrencies = []string{"EURO"} }},
		{"zero min", func(s *PaymentSettings) { s.MinAmount = decimal.Zero }},
		{"max below min", func(s *PaymentSettings) { s.MaxAmount = decimal.RequireFromString("0.50") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validPaymentSettings()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestPaymentSettingsApply(t *testing.T) {
	s := validPaymentSettings()
	s.WebhookSecret = "from-env"

	require.NoError(t, s.apply(SettingPaymentWebhookSecret, ""))
	assert.Equal(t, "from-env", s.WebhookSecret)

	require.NoError(t, s.apply(SettingPaymentWebhooksEnabled, "false"))
	assert.False(t, s.WebhooksEnabled)

	require.NoError(t, s.apply(SettingSupportedCurrencies, " chf, eur ,"))
	assert.Equal(t, []string{"CHF", "EUR"}, s.SupportedCurrencies)

	require.NoError(t, s.apply(SettingMaxAmount, "99.5"))
	assert.True(t, decimal.RequireFromString("99.5").Equal(s.MaxAmount))

	assert.Error(t, s.apply(SettingMinAmount, "abc"))
}

func TestPaymentSettingsSupportsCurrency(t *testing.T) {
	s := validPaymentSettings()
	assert.True(t, s.SupportsCurrency(" eur"))
	assert.False(t, s.SupportsCurrency("GBP"))
}

func TestGetPaymentSettingsReturnsCopy(t *testing.T) {
	SetPaymentSettings(validPaymentSettings())

	got := GetPaymentSettings()
	got.SupportedCurrencies[0] = "XXX"

	assert.Equal(t, "EUR", GetPaymentSettings().SupportedCurrencies[0])
}
