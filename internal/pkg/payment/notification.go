package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const defaultEventType = "payment.notification"

// TestEventType is the event type of synthetic diagnostics payloads.
const TestEventType = "payment.webhook_test"

// notificationBody is the parsed form of an inbound payload. Providers disagree
// on key casing and nesting, so identifiers are looked up in several places.
type notificationBody struct {
	fields map[string]any
}

func parseNotification(raw []byte) (*notificationBody, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}
	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &notificationBody{fields: fields}, nil
}

func (n *notificationBody) EventType() string {
	if v := n.lookup("type", "event", "eventType"); v != "" {
		return v
	}
	return defaultEventType
}

func (n *notificationBody) IsTest() bool {
	v, ok := n.fields["test"].(bool)
	return ok && v
}

func (n *notificationBody) InvoiceID() string {
	return n.lookup("invoiceId", "invoice_id", "invoice")
}

func (n *notificationBody) OrderID() string {
	if v := n.lookup("orderId", "order_id"); v != "" {
		return v
	}
	if md, ok := n.fields["metadata"].(map[string]any); ok {
		return stringField(md, "orderId", "order_id")
	}
	return ""
}

func (n *notificationBody) DeliveryID() string {
	return n.lookup("deliveryId", "delivery_id")
}

func (n *notificationBody) ClaimedStatus() string {
	return n.lookup("status")
}

// lookup checks the top level first, then a nested "data" object.
func (n *notificationBody) lookup(keys ...string) string {
	if v := stringField(n.fields, keys...); v != "" {
		return v
	}
	if data, ok := n.fields["data"].(map[string]any); ok {
		return stringField(data, keys...)
	}
	return ""
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strings.TrimSpace(fmt.Sprintf("%.0f", v))
		}
	}
	return ""
}
