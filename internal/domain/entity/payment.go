package entity

import (
	"encoding/base64"
	"strings"
	"time"
)

// PaymentEvent is a processed payment-provider notification. EventID is
// unique, which makes top-ups idempotent under webhook retries.
type PaymentEvent struct {
	EventID      string    `json:"event_id"`
	Email        string    `json:"email"`
	CreditsAdded int       `json:"credits_added"`
	CreatedAt    time.Time `json:"created_at"`
}

// PaymentNotification is a verified "checkout completed" message
type PaymentNotification struct {
	EventID string
	Email   string
	Paid    bool
}

// Stripe keeps a client_reference_id only when it is at most 200 of
// [A-Za-z0-9_-]; an email never qualifies, so it travels base64url encoded.
const (
	clientReferencePrefix = "qq_"
	maxClientReference    = 200
)

// EncodeClientReference turns an account email into a checkout reference.
// It returns "" when the encoded form would be too long to survive.
func EncodeClientReference(email string) string {
	ref := clientReferencePrefix + base64.RawURLEncoding.EncodeToString([]byte(email))
	if len(ref) > maxClientReference {
		return ""
	}
	return ref
}

// DecodeClientReference recovers the email from a checkout reference
func DecodeClientReference(ref string) (string, bool) {
	encoded, ok := strings.CutPrefix(strings.TrimSpace(ref), clientReferencePrefix)
	if !ok || encoded == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}
