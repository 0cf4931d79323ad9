package payment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
)

const eventCheckoutCompleted = "checkout.session.completed"

// StripeWebhook implements port.PaymentWebhook for Stripe Checkout
type StripeWebhook struct {
	secret    string
	tolerance time.Duration
	logger    *zap.Logger
}

// NewStripeWebhook creates a verifier for the given endpoint signing secret
func NewStripeWebhook(secret string, tolerance time.Duration, logger *zap.Logger) *StripeWebhook {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &StripeWebhook{
		secret:    secret,
		tolerance: tolerance,
		logger:    logger,
	}
}

// ParseCheckout verifies the Stripe-Signature header and decodes a
// completed checkout. Other event types return nil, nil.
func (w *StripeWebhook) ParseCheckout(payload []byte, signatureHeader string) (*entity.PaymentNotification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, w.secret,
		webhook.ConstructEventOptions{
			Tolerance:                w.tolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		w.logger.Warn("Rejected webhook", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidSignature, err)
	}

	if event.Type != eventCheckoutCompleted {
		w.logger.Debug("Ignoring webhook event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)))
		return nil, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("webhook event %s has no data", event.ID)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	email, ok := entity.DecodeClientReference(session.ClientReferenceID)
	if !ok && session.ClientReferenceID != "" {
		w.logger.Warn("Unrecognised client reference",
			zap.String("event_id", event.ID),
			zap.String("client_reference_id", session.ClientReferenceID))
	}
	if email == "" {
		email = session.CustomerEmail
	}
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}

	return &entity.PaymentNotification{
		EventID: event.ID,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Paid: session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired,
	}, nil
}

// Verify interface compliance
var _ port.PaymentWebhook = (*StripeWebhook)(nil)
