package payment

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrMalformedPayload     = errors.New("malformed payload")
	ErrAuthentication       = errors.New("authentication failed")
	ErrMissingIdentifiers   = errors.New("missing invoice or order identifier")
	ErrRemoteQueryTimeout   = errors.New("payment provider query timed out")
	ErrRemoteUnavailable    = errors.New("payment provider unavailable")
	ErrConfigurationMissing = errors.New("configuration error")
	ErrInvalidURLFormat     = errors.New("invalid url format")
	ErrApplyFailed          = errors.New("applying verified payment failed")
	ErrWebhooksDisabled     = errors.New("payment webhooks are disabled")
	ErrOrderNotFound        = errors.New("no local registration for order")
)

// Kind classifies an error into a stable snake_case code used in responses and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrAuthentication):
		return "authentication_failure"
	case errors.Is(err, ErrMissingIdentifiers):
		return "missing_identifiers"
	case errors.Is(err, ErrRemoteQueryTimeout), errors.Is(err, context.DeadlineExceeded):
		return "remote_query_timeout"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, ErrConfigurationMissing):
		return "configuration_missing"
	case errors.Is(err, ErrInvalidURLFormat):
		return "invalid_url_format"
	case errors.Is(err, ErrApplyFailed):
		return "apply_failed"
	case errors.Is(err, ErrWebhooksDisabled):
		return "webhooks_disabled"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	default:
		return "internal"
	}
}

// kindToStatus holds the response code for every kind Kind can return.
var kindToStatus = map[string]int{
	"":                       http.StatusOK,
	"malformed_payload":      http.StatusBadRequest,
	"authentication_failure": http.StatusUnauthorized,
	"missing_identifiers":    http.StatusBadRequest,
	"remote_query_timeout":   http.StatusGatewayTimeout,
	"remote_unavailable":     http.StatusServiceUnavailable,
	"configuration_missing":  http.StatusInternalServerError,
	"invalid_url_format":     http.StatusBadRequest,
	"apply_failed":           http.StatusInternalServerError,
	"webhooks_disabled":      http.StatusServiceUnavailable,
	"order_not_found":        http.StatusUnprocessableEntity,
	"internal":               http.StatusInternalServerError,
}

// HTTPStatus maps an error to the status code returned to the provider.
// 2xx stops provider retries, 4xx means "do not retry", 5xx asks for a retry.
func HTTPStatus(err error) int {
	if s, ok := kindToStatus[Kind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Transient reports whether the provider should redeliver the notification later.
func Transient(err error) bool {
	return HTTPStatus(err) >= http.StatusInternalServerError
}
