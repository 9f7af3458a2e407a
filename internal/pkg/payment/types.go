package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the canonical payment state stored on a registration.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusRefunded  Status = "refunded"
	StatusUnknown   Status = "unknown"
)

// Terminal reports whether no further provider transition is expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusCancelled, StatusExpired, StatusRefunded:
		return true
	default:
		return false
	}
}

// WebhookNotification is one inbound delivery. It lives for a single processing call.
type WebhookNotification struct {
	RawPayload []byte
	Signature  string
	DeliveryID string
	ReceivedAt time.Time
}

// VerifiedPayment is the provider-confirmed payment state handed to the order collaborator.
type VerifiedPayment struct {
	InvoiceID         string          `json:"invoice_id"`
	OrderID           string          `json:"order_id"`
	Status            Status          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	TransactionID     string          `json:"transaction_id"`
	RawProviderStatus string          `json:"raw_provider_status"`
}

// ApplyOutcome describes what the order collaborator did with a VerifiedPayment.
type ApplyOutcome struct {
	Changed        bool
	PreviousStatus Status
	Notified       bool
}

// Result is the tagged outcome of one notification.
type Result struct {
	Success    bool
	Verified   bool
	Test       bool
	Duplicate  bool
	InvoiceID  string
	OrderID    string
	Status     Status
	Applied    bool
	HTTPStatus int
	Err        error
}

// Invoice is the provider's view of a payment attempt.
type Invoice struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"orderId"`
	Status           string          `json:"status"`
	AdditionalStatus string          `json:"additionalStatus,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	TransactionID    string          `json:"transactionId,omitempty"`
	CheckoutLink     string          `json:"checkoutLink,omitempty"`
	CreatedAt        int64           `json:"createdTime,omitempty"`
}

// InvoiceRequest is the body of an invoice creation call.
type InvoiceRequest struct {
	OrderID  string          `json:"orderId" validate:"required,max=191"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,len=3"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}
