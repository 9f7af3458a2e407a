package payment

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

// DefaultSettingsFromEnv builds the payment settings used before any database
// override is loaded.
func DefaultSettingsFromEnv() models.PaymentSettings {
	currencies := models.ParseCurrencyList(env.GetEnv("PAYMENT_SUPPORTED_CURRENCIES", "EUR"))
	return models.PaymentSettings{
		WebhookSecret:       strings.TrimSpace(env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")),
		WebhookURL:          strings.TrimSpace(env.GetEnv("PAYMENT_WEBHOOK_URL", "")),
		WebhooksEnabled:     env.GetBool("PAYMENT_WEBHOOKS_ENABLED", true),
		SupportedCurrencies: currencies,
		MinAmount:           envDecimal("PAYMENT_MIN_AMOUNT", "1.00"),
		MaxAmount:           envDecimal("PAYMENT_MAX_AMOUNT", "10000.00"),
	}
}

func envDecimal(key, def string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(env.GetEnv(key, def)))
	if err != nil {
		return decimal.RequireFromString(def)
	}
	return d
}

// CurrentSettings reads the webhook part of the in-memory payment settings.
func CurrentSettings() Settings {
	s := models.GetPaymentSettings()
	return Settings{WebhookSecret: s.WebhookSecret, WebhooksEnabled: s.WebhooksEnabled}
}

// PolicyFor returns the unverified-acceptance policy of an environment.
func PolicyFor(e env.Environment) Policy {
	return Policy{AllowUnverified: !e.Strict()}
}
