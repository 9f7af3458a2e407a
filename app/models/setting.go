package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, decimal, list
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	SettingPaymentWebhookSecret   = "payment_webhook_secret"
	SettingPaymentWebhookURL      = "payment_webhook_url"
	SettingPaymentWebhooksEnabled = "payment_webhooks_enabled"
	SettingSupportedCurrencies    = "payment_supported_currencies"
	SettingMinAmount              = "payment_min_amount"
	SettingMaxAmount              = "payment_max_amount"
)

// PaymentSettings holds the operator-editable payment configuration.
// Values loaded from the database override the defaults passed in.
type PaymentSettings struct {
	WebhookSecret       string          `json:"-"`
	WebhookURL          string          `json:"webhook_url" validate:"omitempty,url,max=2048"`
	WebhooksEnabled     bool            `json:"webhooks_enabled"`
	SupportedCurrencies []string        `json:"supported_currencies" validate:"required,min=1,dive,len=3,uppercase"`
	MinAmount           decimal.Decimal `json:"min_amount"`
	MaxAmount           decimal.Decimal `json:"max_amount"`
}

var (
	paymentSettings   *PaymentSettings
	paymentSettingsMu sync.RWMutex

	settingsValidator = validator.New()
)

// GetPaymentSettings returns a copy of the current payment settings.
func GetPaymentSettings() PaymentSettings {
	paymentSettingsMu.RLock()
	defer paymentSettingsMu.RUnlock()
	if paymentSettings == nil {
		return PaymentSettings{}
	}
	cp := *paymentSettings
	cp.SupportedCurrencies = append([]string(nil), paymentSettings.SupportedCurrencies...)
	return cp
}

// SetPaymentSettings replaces the in-memory settings without touching the database.
func SetPaymentSettings(s PaymentSettings) {
	paymentSettingsMu.Lock()
	defer paymentSettingsMu.Unlock()
	paymentSettings = &s
}

// LoadPaymentSettings loads settings from database into memory
func LoadPaymentSettings(db *gorm.DB, defaults PaymentSettings) error {
	var settings []Setting
	if err := db.Where("setting_key LIKE ?", "payment_%").Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := defaults
	for _, setting := range settings {
		if err := loaded.apply(setting.Key, setting.Value); err != nil {
			return fmt.Errorf("invalid setting %s: %w", setting.Key, err)
		}
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	SetPaymentSettings(loaded)
	return nil
}

func (s *PaymentSettings) apply(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case SettingPaymentWebhookSecret:
		if value != "" {
			s.WebhookSecret = value
		}
	case SettingPaymentWebhookURL:
		s.WebhookURL = value
	case SettingPaymentWebhooksEnabled:
		s.WebhooksEnabled = value == "true"
	case SettingSupportedCurrencies:
		s.SupportedCurrencies = ParseCurrencyList(value)
	case SettingMinAmount, SettingMaxAmount:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return err
		}
		if key == SettingMinAmount {
			s.MinAmount = d
		} else {
			s.MaxAmount = d
		}
	}
	return nil
}

// SavePaymentSettings saves current settings to database
func SavePaymentSettings(db *gorm.DB, settings PaymentSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]string{
		SettingPaymentWebhookURL:      settings.WebhookURL,
		SettingPaymentWebhooksEnabled: fmt.Sprintf("%t", settings.WebhooksEnabled),
		SettingSupportedCurrencies:    strings.Join(settings.SupportedCurrencies, ","),
		SettingMinAmount:              settings.MinAmount.String(),
		SettingMaxAmount:              settings.MaxAmount.String(),
	}
	if settings.WebhookSecret != "" {
		settingsMap[SettingPaymentWebhookSecret] = settings.WebhookSecret
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for key, value := range settingsMap {
			var setting Setting
			result := tx.Where("setting_key = ?", key).First(&setting)
			if result.Error != nil {
				if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
					return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
				}
				setting = Setting{Key: key, Value: value, Type: getSettingType(key)}
				if err := tx.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
				continue
			}
			setting.Value = value
			if err := tx.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	SetPaymentSettings(settings)
	return nil
}

// getSettingType returns the type of a setting based on its key
func getSettingType(key string) string {
	switch key {
	case SettingPaymentWebhooksEnabled:
		return "boolean"
	case SettingMinAmount, SettingMaxAmount:
		return "decimal"
	case SettingSupportedCurrencies:
		return "list"
	default:
		return "string"
	}
}

// Validate validates the settings
func (s PaymentSettings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		return err
	}
	if !s.MinAmount.IsPositive() {
		return errors.New("min_amount must be positive")
	}
	if s.MaxAmount.LessThan(s.MinAmount) {
		return errors.New("max_amount must not be below min_amount")
	}
	return nil
}

// SupportsCurrency reports whether the currency is accepted for payments.
func (s PaymentSettings) SupportsCurrency(currency string) bool {
	c := strings.ToUpper(strings.TrimSpace(currency))
	for _, sc := range s.SupportedCurrencies {
		if sc == c {
			return true
		}
	}
	return false
}

// ParseCurrencyList splits a comma separated list into upper-case codes.
func ParseCurrencyList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if c := strings.ToUpper(strings.TrimSpace(part)); c != "" {
			out = append(out, c)
		}
	}
	return out
}
