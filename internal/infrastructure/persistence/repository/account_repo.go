package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
	"github.com/garyjia/quickquote/internal/infrastructure/persistence/sqlite"
)

// AccountRepository implements port.AccountRepository on the user_credits table
type AccountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB, logger *zap.Logger) port.AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

// GetOrCreate returns the account for email, inserting it with signupCredits
// on the plan "free" when it does not exist yet
func (r *AccountRepository) GetOrCreate(ctx context.Context, email string, signupCredits int) (*entity.Account, error) {
	query := `
		INSERT OR IGNORE INTO user_credits (email, credits, plan)
		VALUES (?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, email, signupCredits, entity.PlanFree)
	if err != nil {
		r.logger.Error("Failed to create account", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if n, _ := result.RowsAffected(); n > 0 {
		r.logger.Info("Account created",
			zap.String("email", email),
			zap.Int("credits", signupCredits))
	}

	return r.GetByEmail(ctx, email)
}

// GetByEmail retrieves an account; it returns entity.ErrAccountNotFound when missing
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	query := `
		SELECT email, credits, plan, created_at, updated_at
		FROM user_credits
		WHERE email = ?
	`

	var account entity.Account
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, email).Scan(
		&account.Email,
		&account.Credits,
		&account.Plan,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrAccountNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get account", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// Debit removes one credit in a single conditional update
func (r *AccountRepository) Debit(ctx context.Context, email string) error {
	query := `
		UPDATE user_credits
		SET credits = credits - 1, updated_at = CURRENT_TIMESTAMP
		WHERE email = ? AND credits > 0
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, email)
	if err != nil {
		r.logger.Error("Failed to debit account", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("failed to debit account: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return entity.ErrInsufficientCredits
	}

	return nil
}

// AddCredits tops up the balance; an empty plan leaves the plan unchanged
func (r *AccountRepository) AddCredits(ctx context.Context, email string, n int, plan string) error {
	query := `
		UPDATE user_credits
		SET credits = credits + ?,
			plan = COALESCE(NULLIF(?, ''), plan),
			updated_at = CURRENT_TIMESTAMP
		WHERE email = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, n, plan, email)
	if err != nil {
		r.logger.Error("Failed to add credits",
			zap.String("email", email),
			zap.Int("credits", n),
			zap.Error(err))
		return fmt.Errorf("failed to add credits: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrAccountNotFound
	}

	return nil
}

// Verify interface compliance
var _ port.AccountRepository = (*AccountRepository)(nil)
