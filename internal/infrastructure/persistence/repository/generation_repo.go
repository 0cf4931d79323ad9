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

// GenerationRepository implements port.GenerationRepository
type GenerationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewGenerationRepository creates a new generation repository
func NewGenerationRepository(db *sql.DB, logger *zap.Logger) port.GenerationRepository {
	return &GenerationRepository{
		db:     db,
		logger: logger,
	}
}

const generationColumns = `
	id, email, company_name, client_name, item_count, skip_count,
	grand_total, storage_path, status, created_at
`

// Create creates a new generation record
func (r *GenerationRepository) Create(ctx context.Context, gen *entity.Generation) error {
	query := `
		INSERT INTO invoice_generations (
			id, email, company_name, client_name, item_count, skip_count,
			grand_total, storage_path, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		gen.ID,
		gen.Email,
		gen.CompanyName,
		gen.ClientName,
		gen.ItemCount,
		gen.SkipCount,
		gen.GrandTotal,
		gen.StoragePath,
		gen.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create generation", zap.String("id", gen.ID), zap.Error(err))
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return nil
}

// GetByID retrieves a generation; it returns entity.ErrGenerationNotFound when missing
func (r *GenerationRepository) GetByID(ctx context.Context, id string) (*entity.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM invoice_generations WHERE id = ?`

	gen, err := scanGeneration(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrGenerationNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get generation", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}

	return gen, nil
}

// ListByEmail returns a user's generations, newest first
func (r *GenerationRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*entity.Generation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + generationColumns + `
		FROM invoice_generations
		WHERE email = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, email, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list generations", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var generations []*entity.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, gen)
	}

	return generations, rows.Err()
}

// UpdateStatus updates the status of a generation
func (r *GenerationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE invoice_generations SET status = ? WHERE id = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update generation status", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update generation status: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return entity.ErrGenerationNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGeneration(s scanner) (*entity.Generation, error) {
	var gen entity.Generation
	err := s.Scan(
		&gen.ID,
		&gen.Email,
		&gen.CompanyName,
		&gen.ClientName,
		&gen.ItemCount,
		&gen.SkipCount,
		&gen.GrandTotal,
		&gen.StoragePath,
		&gen.Status,
		&gen.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// Verify interface compliance
var _ port.GenerationRepository = (*GenerationRepository)(nil)
