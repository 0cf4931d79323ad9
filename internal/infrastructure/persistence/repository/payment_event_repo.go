package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/domain/entity"
	"github.com/garyjia/quickquote/internal/infrastructure/persistence/sqlite"
)

// PaymentEventRepository implements port.PaymentEventRepository
type PaymentEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentEventRepository creates a new payment event repository
func NewPaymentEventRepository(db *sql.DB, logger *zap.Logger) port.PaymentEventRepository {
	return &PaymentEventRepository{
		db:     db,
		logger: logger,
	}
}

// Record inserts the event unless its id was already processed
func (r *PaymentEventRepository) Record(ctx context.Context, event *entity.PaymentEvent) (bool, error) {
	query := `
		INSERT OR IGNORE INTO payment_events (event_id, email, credits_added)
		VALUES (?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		event.EventID,
		event.Email,
		event.CreditsAdded,
	)
	if err != nil {
		r.logger.Error("Failed to record payment event",
			zap.String("event_id", event.EventID),
			zap.Error(err))
		return false, fmt.Errorf("failed to record payment event: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n > 0, nil
}

// Verify interface compliance
var _ port.PaymentEventRepository = (*PaymentEventRepository)(nil)
