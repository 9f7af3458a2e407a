package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/internal/pkg/webhookmonitor"
)

const (
	defaultQueryAttempts = 3
	defaultQueryTimeout  = 4 * time.Second
)

// Applier is the order collaborator. Re-applying a stored status must be a no-op.
type Applier interface {
	ApplyVerifiedPayment(ctx context.Context, vp VerifiedPayment) (ApplyOutcome, error)
}

// Recorder receives every pipeline outcome.
type Recorder interface {
	Record(ctx context.Context, ev webhookmonitor.Event)
}

// EventLog keeps an audit trail of deliveries. It is optional.
type EventLog interface {
	RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (created bool, id uint, err error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingErr error) error
}

// Settings is the runtime webhook configuration read on every delivery.
type Settings struct {
	WebhookSecret   string
	WebhooksEnabled bool
}

// Policy decides what happens to notifications that could not be verified
// because no secret is configured.
type Policy struct {
	AllowUnverified bool
}

type ReconcilerConfig struct {
	Provider Provider
	Applier  Applier
	Recorder Recorder
	EventLog EventLog
	Settings func() Settings
	Policy   Policy

	QueryAttempts int
	QueryTimeout  time.Duration
	NewBackOff    func() backoff.BackOff
	Now           func() time.Time
}

// Reconciler turns a provider notification into an applied VerifiedPayment.
type Reconciler struct {
	cfg ReconcilerConfig
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.QueryAttempts <= 0 {
		cfg.QueryAttempts = defaultQueryAttempts
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}
	if cfg.NewBackOff == nil {
		cfg.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = time.Second
			b.MaxElapsedTime = 0
			return b
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Settings == nil {
		cfg.Settings = func() Settings { return Settings{WebhooksEnabled: true} }
	}
	return &Reconciler{cfg: cfg}
}

// HandleNotification runs parse, authenticate, extract, re-query, classify and
// apply. It never panics on bad input and always records the outcome.
func (r *Reconciler) HandleNotification(ctx context.Context, n WebhookNotification) Result {
	start := r.cfg.Now()
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = start
	}
	eventType := defaultEventType
	r.record(ctx, webhookmonitor.Event{Type: eventType, Outcome: webhookmonitor.OutcomeReceived, At: n.ReceivedAt})

	res, eventType, logID := r.process(ctx, n)
	res.HTTPStatus = HTTPStatus(res.Err)
	res.Success = res.Err == nil

	data := map[string]any{"invoice_id": res.InvoiceID, "order_id": res.OrderID, "verified": res.Verified}
	if res.Err != nil {
		data["kind"] = Kind(res.Err)
		r.record(ctx, webhookmonitor.Event{Type: eventType, Outcome: webhookmonitor.OutcomeError, Error: res.Err.Error(), Data: data})
		log.Warnf("[PaymentWebhook] %s rejected with %d: %v", eventType, res.HTTPStatus, res.Err)
	} else {
		data["status"] = string(res.Status)
		r.record(ctx, webhookmonitor.Event{Type: eventType, Outcome: webhookmonitor.OutcomeSuccess, ProcessingTime: r.cfg.Now().Sub(start), Data: data})
	}

	if logID != 0 {
		if err := r.cfg.EventLog.MarkWebhookProcessed(ctx, logID, res.Err); err != nil {
			log.Errorf("[PaymentWebhook] Failed to mark webhook event %d processed: %v", logID, err)
		}
	}
	return res
}

func (r *Reconciler) process(ctx context.Context, n WebhookNotification) (Result, string, uint) {
	eventType := defaultEventType
	settings := r.cfg.Settings()
	if !settings.WebhooksEnabled {
		return Result{Err: ErrWebhooksDisabled}, eventType, 0
	}

	body, err := parseNotification(n.RawPayload)
	if err != nil {
		return Result{Err: err}, "payment.malformed", 0
	}
	eventType = body.EventType()

	verification := VerifySignature(n.RawPayload, n.Signature, settings.WebhookSecret)
	res := Result{Verified: verification.OK, InvoiceID: body.InvoiceID(), OrderID: body.OrderID()}

	logID := r.logDelivery(ctx, n, body, eventType, verification.OK, &res)

	if !verification.OK {
		if !verification.Unverified() {
			res.Err = fmt.Errorf("%w: %s", ErrAuthentication, verification.Reason)
			return res, eventType, logID
		}
		if !r.cfg.Policy.AllowUnverified {
			res.Err = fmt.Errorf("%w: no webhook secret configured", ErrAuthentication)
			return res, eventType, logID
		}
		log.Warnf("[PaymentWebhook] Processing unverified %s notification, no webhook secret configured", eventType)
	}

	if body.IsTest() {
		res.Test = true
		return res, TestEventType, logID
	}

	if res.InvoiceID == "" || res.OrderID == "" {
		res.Err = fmt.Errorf("%w: invoice=%q order=%q", ErrMissingIdentifiers, res.InvoiceID, res.OrderID)
		return res, eventType, logID
	}

	inv, err := r.queryInvoice(ctx, res.InvoiceID)
	if err != nil {
		res.Err = err
		return res, eventType, logID
	}

	vp := r.verifiedPayment(res.InvoiceID, res.OrderID, inv)
	if claimed := body.ClaimedStatus(); claimed != "" && ClassifyStatus(claimed) != vp.Status {
		log.Infof("[PaymentWebhook] Invoice %s claimed %q, provider reports %q", vp.InvoiceID, claimed, vp.RawProviderStatus)
	}
	res.OrderID = vp.OrderID
	res.Status = vp.Status

	outcome, err := r.cfg.Applier.ApplyVerifiedPayment(ctx, vp)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			res.Err = err
		} else {
			res.Err = fmt.Errorf("%w: %v", ErrApplyFailed, err)
		}
		return res, eventType, logID
	}
	res.Applied = outcome.Changed
	return res, eventType, logID
}

func (r *Reconciler) logDelivery(ctx context.Context, n WebhookNotification, body *notificationBody, eventType string, signatureValid bool, res *Result) uint {
	if r.cfg.EventLog == nil {
		return 0
	}
	deliveryID := strings.TrimSpace(n.DeliveryID)
	if deliveryID == "" {
		deliveryID = body.DeliveryID()
	}
	created, id, err := r.cfg.EventLog.RecordWebhookEvent(ctx, WebhookEventInput{
		ProviderEventID: deliveryID,
		EventType:       eventType,
		InvoiceID:       res.InvoiceID,
		PayloadJSON:     string(n.RawPayload),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		log.Errorf("[PaymentWebhook] Failed to log webhook delivery: %v", err)
		return 0
	}
	res.Duplicate = !created
	return id
}

// queryInvoice asks the provider for the current invoice state, retrying
// transient failures a bounded number of times.
func (r *Reconciler) queryInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	if r.cfg.Provider == nil {
		return nil, fmt.Errorf("%w: payment provider is not configured", ErrConfigurationMissing)
	}

	var inv *Invoice
	attempt := 0
	operation := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
		defer cancel()

		got, err := r.cfg.Provider.GetInvoice(attemptCtx, invoiceID)
		if err == nil {
			inv = got
			return nil
		}
		var pe *ProviderError
		if errors.As(err, &pe) && !pe.Retryable() {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrConfigurationMissing) || errors.Is(err, ErrMissingIdentifiers) {
			return backoff.Permanent(err)
		}
		log.Warnf("[PaymentWebhook] Invoice %s lookup attempt %d failed: %v", invoiceID, attempt, err)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.cfg.NewBackOff(), uint64(r.cfg.QueryAttempts-1)), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		switch Kind(err) {
		case "remote_query_timeout", "remote_unavailable", "configuration_missing":
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
	}
	return inv, nil
}

func (r *Reconciler) verifiedPayment(invoiceID, orderID string, inv *Invoice) VerifiedPayment {
	status, raw := statusFromInvoice(inv)
	if providerOrder := strings.TrimSpace(inv.OrderID); providerOrder != "" && providerOrder != orderID {
		log.Warnf("[PaymentWebhook] Invoice %s belongs to order %q, notification named %q; using provider value", invoiceID, providerOrder, orderID)
		orderID = providerOrder
	}
	return VerifiedPayment{
		InvoiceID:         invoiceID,
		OrderID:           orderID,
		Status:            status,
		Amount:            inv.Amount,
		Currency:          strings.ToUpper(strings.TrimSpace(inv.Currency)),
		TransactionID:     strings.TrimSpace(inv.TransactionID),
		RawProviderStatus: raw,
	}
}

func (r *Reconciler) record(ctx context.Context, ev webhookmonitor.Event) {
	if r.cfg.Recorder != nil {
		r.cfg.Recorder.Record(ctx, ev)
	}
}
