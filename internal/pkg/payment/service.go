package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/EventFox/app/models"
)

// DefaultProviderName tags webhook log rows when no provider name is configured.
const DefaultProviderName = "payment"

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	ProviderEventID string
	EventType       string
	InvoiceID       string
	PayloadJSON     string
	SignatureValid  bool
}

// Notifier tells the attendee that their payment went through.
type Notifier interface {
	SendPaymentConfirmation(ctx context.Context, reg *models.Registration, vp VerifiedPayment) error
}

// Service applies verified payments to registrations and keeps the webhook log.
type Service struct {
	repo     Repository
	notifier Notifier
	provider string
	now      func() time.Time
}

// NewService creates a payment service from an injected repository.
func NewService(repo Repository, notifier Notifier, providerName string) *Service {
	p := strings.ToLower(strings.TrimSpace(providerName))
	if p == "" {
		p = DefaultProviderName
	}
	return &Service{repo: repo, notifier: notifier, provider: p, now: time.Now}
}

// NewServiceFromDB creates a payment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, notifier Notifier, providerName string) *Service {
	return NewService(NewRepository(db), notifier, providerName)
}

// ApplyVerifiedPayment stores the provider-confirmed status on the registration.
// A status equal to the stored one changes nothing and sends nothing.
func (s *Service) ApplyVerifiedPayment(ctx context.Context, vp VerifiedPayment) (ApplyOutcome, error) {
	orderID := strings.TrimSpace(vp.OrderID)
	if orderID == "" {
		return ApplyOutcome{}, ErrMissingIdentifiers
	}

	reg, err := s.repo.FindRegistrationByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplyOutcome{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return ApplyOutcome{}, err
	}

	prev := Status(reg.PaymentStatus)
	outcome := ApplyOutcome{PreviousStatus: prev}
	if prev == vp.Status {
		return outcome, nil
	}
	// A late "pending" must not undo a final state.
	if prev.Terminal() && !vp.Status.Terminal() {
		log.Infof("[PaymentWebhook] Keeping %s for order %s, provider reported %s", prev, orderID, vp.Status)
		return outcome, nil
	}

	now := s.now()
	updates := map[string]interface{}{
		"invoice_id":             vp.InvoiceID,
		"payment_provider_state": truncate(vp.RawProviderStatus, 64),
	}
	if vp.TransactionID != "" {
		updates["transaction_id"] = vp.TransactionID
	}
	if vp.Status == StatusConfirmed {
		updates["amount_paid"] = vp.Amount
		updates["currency"] = vp.Currency
		updates["payment_confirmed_at"] = &now
	}

	changed, err := s.repo.TransitionPaymentStatus(orderID, vp.Status, updates)
	if err != nil {
		return outcome, err
	}
	if !changed {
		return outcome, nil
	}
	outcome.Changed = true
	log.Infof("[PaymentWebhook] Order %s payment %s -> %s", orderID, prev, vp.Status)

	if vp.Status == StatusConfirmed && s.notifier != nil {
		outcome.Notified = s.sendConfirmation(ctx, reg, vp, now)
	}
	return outcome, nil
}

func (s *Service) sendConfirmation(ctx context.Context, reg *models.Registration, vp VerifiedPayment, now time.Time) bool {
	claimed, err := s.repo.ClaimConfirmationEmail(reg.ID, now)
	if err != nil {
		log.Errorf("[PaymentWebhook] Could not claim confirmation mail for registration %d: %v", reg.ID, err)
		return false
	}
	if !claimed {
		return false
	}
	if err := s.notifier.SendPaymentConfirmation(ctx, reg, vp); err != nil {
		log.Errorf("[PaymentWebhook] Confirmation mail for registration %d failed: %v", reg.ID, err)
		return false
	}
	return true
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(_ context.Context, in WebhookEventInput) (bool, uint, error) {
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Provider:        s.provider,
		ProviderEventID: truncate(eventID, 191),
		EventType:       truncate(strings.TrimSpace(in.EventType), 100),
		InvoiceID:       truncate(strings.TrimSpace(in.InvoiceID), 191),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	created, stored, err := s.repo.CreateWebhookEventIfNotExists(event)
	if err != nil {
		return false, 0, err
	}
	return created, stored.ID, nil
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// PurgeWebhookEvents deletes log rows older than retention.
func (s *Service) PurgeWebhookEvents(ctx context.Context, retention time.Duration) (int64, error) {
	_ = ctx
	if retention <= 0 {
		return 0, errors.New("retention must be positive")
	}
	return s.repo.PurgeWebhookEventsBefore(s.now().Add(-retention))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
