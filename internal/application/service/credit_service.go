package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
	"github.com/garyjia/quickquote/pkg/utils"
)

// CreditPolicy holds the credit amounts granted and sold
type CreditPolicy struct {
	SignupCredits       int
	TopUpCredits        int
	TopUpPlan           string
	LowBalanceThreshold int
	PaymentLink         string
}

// DefaultCreditPolicy returns the standard grant and top-up amounts
func DefaultCreditPolicy() CreditPolicy {
	return CreditPolicy{
		SignupCredits:       2,
		TopUpCredits:        400,
		TopUpPlan:           entity.PlanProMonthly,
		LowBalanceThreshold: 10,
	}
}

// AccountView is what a signed-in user sees of their ledger row
type AccountView struct {
	Email       string `json:"email"`
	Credits     int    `json:"credits"`
	Plan        string `json:"plan"`
	LowBalance  bool   `json:"low_balance"`
	PaymentLink string `json:"payment_link,omitempty"`
}

// CreditService manages the credit ledger and payment top-ups
type CreditService interface {
	// Account returns the caller's balance, creating the account on first use
	Account(ctx context.Context, email string) (*AccountView, error)
	// ApplyPayment credits a verified checkout once per event id. applied
	// is false for unpaid sessions and replays.
	ApplyPayment(ctx context.Context, n *entity.PaymentNotification) (applied bool, err error)
}

type creditServiceImpl struct {
	accounts  port.AccountRepository
	events    port.PaymentEventRepository
	txManager port.TransactionManager
	policy    CreditPolicy
	logger    Logger
}

// NewCreditService creates a new CreditService
func NewCreditService(
	accounts port.AccountRepository,
	events port.PaymentEventRepository,
	txManager port.TransactionManager,
	policy CreditPolicy,
	logger Logger,
) CreditService {
	return &creditServiceImpl{
		accounts:  accounts,
		events:    events,
		txManager: txManager,
		policy:    policy,
		logger:    logger,
	}
}

// Account returns the caller's balance view
func (s *creditServiceImpl) Account(ctx context.Context, email string) (*AccountView, error) {
	account, err := s.accounts.GetOrCreate(ctx, email, s.policy.SignupCredits)
	if err != nil {
		s.logger.Error("Failed to load account", "error", err, "email", email)
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	return &AccountView{
		Email:       account.Email,
		Credits:     account.Credits,
		Plan:        account.Plan,
		LowBalance:  account.Credits < s.policy.LowBalanceThreshold,
		PaymentLink: s.paymentLink(account.Email),
	}, nil
}

// paymentLink personalises the checkout link so the webhook can resolve
// the account from client_reference_id
func (s *creditServiceImpl) paymentLink(email string) string {
	if s.policy.PaymentLink == "" {
		return ""
	}
	u, err := url.Parse(s.policy.PaymentLink)
	if err != nil {
		return s.policy.PaymentLink
	}
	q := u.Query()
	if ref := entity.EncodeClientReference(email); ref != "" {
		q.Set("client_reference_id", ref)
	}
	q.Set("prefilled_email", email)
	u.RawQuery = q.Encode()
	return u.String()
}

// ApplyPayment credits a verified checkout completion
func (s *creditServiceImpl) ApplyPayment(ctx context.Context, n *entity.PaymentNotification) (bool, error) {
	if n == nil {
		return false, nil
	}
	email := strings.ToLower(strings.TrimSpace(n.Email))
	// Events without a usable identity are acknowledged uncredited.
	if email == "" {
		s.logger.Error("Payment without identity, not credited", "event_id", n.EventID)
		return false, nil
	}
	if err := utils.ValidateEmail(email); err != nil {
		s.logger.Error("Payment with unusable identity, not credited", "event_id", n.EventID, "error", err)
		return false, nil
	}
	if !n.Paid {
		s.logger.Info("Ignoring unpaid checkout", "event_id", n.EventID, "email", email)
		return false, nil
	}

	applied := false
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		inserted, err := s.events.Record(txCtx, &entity.PaymentEvent{
			EventID:      n.EventID,
			Email:        email,
			CreditsAdded: s.policy.TopUpCredits,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to record payment event: %w", err)
		}
		if !inserted {
			return nil
		}

		if _, err := s.accounts.GetOrCreate(txCtx, email, s.policy.SignupCredits); err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		if err := s.accounts.AddCredits(txCtx, email, s.policy.TopUpCredits, s.policy.TopUpPlan); err != nil {
			return fmt.Errorf("failed to add credits: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to apply payment", "error", err, "event_id", n.EventID, "email", email)
		return false, err
	}

	if applied {
		s.logger.Info("Credits added", "event_id", n.EventID, "email", email, "credits", s.policy.TopUpCredits)
	} else {
		s.logger.Info("Duplicate payment event acknowledged", "event_id", n.EventID)
	}
	return applied, nil
}
