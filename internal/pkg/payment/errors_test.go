package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrMalformedPayload, http.StatusBadRequest},
		{fmt.Errorf("decode: %w", ErrMalformedPayload), http.StatusBadRequest},
		{ErrAuthentication, http.StatusUnauthorized},
		{ErrMissingIdentifiers, http.StatusBadRequest},
		{ErrRemoteQueryTimeout, http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{ErrRemoteUnavailable, http.StatusServiceUnavailable},
		{ErrConfigurationMissing, http.StatusInternalServerError},
		{ErrInvalidURLFormat, http.StatusBadRequest},
		{ErrApplyFailed, http.StatusInternalServerError},
		{ErrWebhooksDisabled, http.StatusServiceUnavailable},
		{ErrOrderNotFound, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "%v", tt.err)
	}
}

func TestEveryKindHasStatus(t *testing.T) {
	errs := []error{
		nil, ErrMalformedPayload, ErrAuthentication, ErrMissingIdentifiers,
		ErrRemoteQueryTimeout, ErrRemoteUnavailable, ErrConfigurationMissing,
		ErrInvalidURLFormat, ErrApplyFailed, ErrWebhooksDisabled, ErrOrderNotFound,
		errors.New("x"),
	}
	for _, err := range errs {
		_, ok := kindToStatus[Kind(err)]
		assert.True(t, ok, "kind %q has no status", Kind(err))
	}
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(ErrRemoteQueryTimeout))
	assert.True(t, Transient(ErrRemoteUnavailable))
	assert.False(t, Transient(ErrMalformedPayload))
	assert.False(t, Transient(ErrAuthentication))
	assert.False(t, Transient(nil))
}
