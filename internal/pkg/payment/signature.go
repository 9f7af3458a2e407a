package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	// SignatureHeader carries the provider's HMAC of the raw body.
	SignatureHeader = "X-Webhook-Signature"
	SignaturePrefix = "sha256="
)

const (
	ReasonUnverified        = "unverified"
	ReasonMissingSignature  = "missing signature"
	ReasonInvalidFormat     = "invalid format"
	ReasonSignatureMismatch = "signature mismatch"
)

// VerificationResult is the outcome of a signature check.
type VerificationResult struct {
	OK     bool
	Reason string
}

// Unverified reports that no secret was configured, so nothing was checked.
func (r VerificationResult) Unverified() bool {
	return !r.OK && r.Reason == ReasonUnverified
}

// VerifySignature checks signatureHeader against HMAC-SHA256(secret, payload).
// The payload must be the raw request body, not a re-encoded copy.
func VerifySignature(payload []byte, signatureHeader, secret string) VerificationResult {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return VerificationResult{Reason: ReasonUnverified}
	}
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return VerificationResult{Reason: ReasonMissingSignature}
	}
	if !strings.HasPrefix(sig, SignaturePrefix) {
		return VerificationResult{Reason: ReasonInvalidFormat}
	}

	provided, err := hex.DecodeString(sig[len(SignaturePrefix):])
	if err != nil || len(provided) != sha256.Size {
		return VerificationResult{Reason: ReasonInvalidFormat}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return VerificationResult{Reason: ReasonSignatureMismatch}
	}
	return VerificationResult{OK: true}
}

// SignPayload returns the header value a provider would send for payload.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(secret)))
	mac.Write(payload)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
