package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Registration is an attendee's registration for an event. Only the payment
// columns are written by the payment webhook pipeline.
type Registration struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	EventID              uint            `gorm:"index;not null" json:"event_id"`
	Name                 string          `gorm:"type:varchar(255);not null" json:"name"`
	Email                string          `gorm:"type:varchar(255);not null;index" json:"email"`
	OrderID              string          `gorm:"type:varchar(191);not null;uniqueIndex" json:"order_id"`
	InvoiceID            string          `gorm:"type:varchar(191);not null;default:'';index" json:"invoice_id"`
	PaymentStatus        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentProviderState string          `gorm:"type:varchar(64);not null;default:''" json:"payment_provider_state"`
	TransactionID        string          `gorm:"type:varchar(191);not null;default:''" json:"transaction_id"`
	AmountPaid           decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_paid"`
	Currency             string          `gorm:"type:varchar(3);not null;default:''" json:"currency"`
	PaymentConfirmedAt   *time.Time      `gorm:"type:timestamp;default:null" json:"payment_confirmed_at,omitempty"`
	ConfirmationSentAt   *time.Time      `gorm:"type:timestamp;default:null" json:"confirmation_sent_at,omitempty"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
