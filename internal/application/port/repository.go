package port

import (
	"context"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

// AccountRepository defines the credit ledger operations
type AccountRepository interface {
	// GetOrCreate returns the account, creating it with the signup grant if unknown
	GetOrCreate(ctx context.Context, email string, signupCredits int) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	// Debit removes one credit; it fails with entity.ErrInsufficientCredits on an empty balance
	Debit(ctx context.Context, email string) error
	// AddCredits adds n credits; a non-empty plan replaces the current one
	AddCredits(ctx context.Context, email string, n int, plan string) error
}

// GenerationRepository defines persistence operations for Generation
type GenerationRepository interface {
	Create(ctx context.Context, gen *entity.Generation) error
	GetByID(ctx context.Context, id string) (*entity.Generation, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]*entity.Generation, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// PaymentEventRepository records processed payment notifications
type PaymentEventRepository interface {
	// Record stores the event; inserted is false when it was already present
	Record(ctx context.Context, event *entity.PaymentEvent) (inserted bool, err error)
}

// TransactionManager runs a function inside a database transaction. The
// transaction travels in the context passed to fn.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
