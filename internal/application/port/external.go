package port

import (
	"context"
	"io"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

// InvoiceExtractor turns free job text into structured invoice data.
// Failures are one of entity.ErrEmptyInput, entity.ErrExtractionFailed or
// entity.ErrMalformedResponse (wrapped).
type InvoiceExtractor interface {
	Extract(ctx context.Context, jobDetails string) (*entity.InvoiceDocumentRequest, error)
}

// Transcriber converts recorded speech to text
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// IdentityProvider runs the OAuth authorization-code flow with PKCE
type IdentityProvider interface {
	AuthCodeURL(state, verifier string) string
	NewVerifier() string
	// Exchange trades the callback code for the verified user email
	Exchange(ctx context.Context, code, verifier string) (string, error)
}

// PaymentWebhook verifies and decodes payment-provider notifications
type PaymentWebhook interface {
	// ParseCheckout returns nil, nil for events that are not checkout completions
	ParseCheckout(payload []byte, signatureHeader string) (*entity.PaymentNotification, error)
}
