package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const signaturePrefix = "sha256="

var (
	// ErrNoSecret is returned when no shared secret is configured and
	// unsigned traffic has not been explicitly allowed.
	ErrNoSecret = errors.New("webhook secret not configured")
	// ErrBadSignature is returned for missing, malformed, or mismatched
	// signature headers.
	ErrBadSignature = errors.New("webhook signature mismatch")
)

// Verifier authenticates inbound deliveries by recomputing the HMAC-SHA256
// of the raw body and comparing it to the signature header in constant time.
type Verifier struct {
	secret        []byte
	allowUnsigned bool
}

// NewVerifier builds a verifier. allowUnsigned skips verification entirely
// and must only be enabled for local development; config.Load refuses the
// combination outside the development environment.
func NewVerifier(secret string, allowUnsigned bool) *Verifier {
	return &Verifier{secret: []byte(secret), allowUnsigned: allowUnsigned}
}

// Unsigned reports whether the verifier accepts unsigned traffic.
func (v *Verifier) Unsigned() bool {
	return v.allowUnsigned
}

// Verify checks the signature header against the exact raw body bytes.
// With no secret configured the default is to reject.
func (v *Verifier) Verify(body []byte, header string) error {
	if v.allowUnsigned {
		return nil
	}
	if len(v.secret) == 0 {
		return ErrNoSecret
	}
	if !strings.HasPrefix(header, signaturePrefix) {
		return ErrBadSignature
	}
	received, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), received) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the signature header value for a body. Used by tests and
// local tooling that replays captured deliveries.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
