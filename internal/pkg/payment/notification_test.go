package payment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotification_Malformed(t *testing.T) {
	for _, raw := range []string{"not json", "", "   ", `["a"]`, `"str"`, `{"invoiceId":`} {
		_, err := parseNotification([]byte(raw))
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrMalformedPayload), raw)
	}
}

func TestParseNotification_Identifiers(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		invoice string
		order   string
		typ     string
	}{
		{name: "camel case", raw: `{"type":"InvoiceSettled","invoiceId":"INV-1","orderId":"ORD-1"}`, invoice: "INV-1", order: "ORD-1", typ: "InvoiceSettled"},
		{name: "snake case", raw: `{"invoice_id":"INV-2","order_id":"ORD-2"}`, invoice: "INV-2", order: "ORD-2", typ: defaultEventType},
		{name: "metadata order", raw: `{"invoiceId":"INV-3","metadata":{"orderId":"ORD-3"}}`, invoice: "INV-3", order: "ORD-3", typ: defaultEventType},
		{name: "nested data", raw: `{"event":"invoice.paid","data":{"invoice":"INV-4","order_id":42}}`, invoice: "INV-4", order: "42", typ: "invoice.paid"},
		{name: "blank values", raw: `{"invoiceId":"  ","orderId":""}`, invoice: "", order: "", typ: defaultEventType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := parseNotification([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.invoice, n.InvoiceID())
			assert.Equal(t, tt.order, n.OrderID())
			assert.Equal(t, tt.typ, n.EventType())
		})
	}
}

func TestParseNotification_TestFlag(t *testing.T) {
	n, err := parseNotification([]byte(`{"test":true,"type":"payment.webhook_test"}`))
	require.NoError(t, err)
	assert.True(t, n.IsTest())

	n, err = parseNotification([]byte(`{"test":"true"}`))
	require.NoError(t, err)
	assert.False(t, n.IsTest())
}
