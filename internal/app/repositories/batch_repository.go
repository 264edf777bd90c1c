package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/dberrors"
)

const batchesNameYearKey = "batches_name_year_key"

// BatchRepository handles batch database operations
type BatchRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(db *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a batch
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	sql, args, err := r.sb.Insert("batches").
		Columns("name", "year").
		Values(batch.Name, batch.Year).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create batch query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&batch.ID, &batch.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, batchesNameYearKey) {
			return apperrors.ErrBatchAlreadyExists
		}
		return fmt.Errorf("error creating batch: %w", err)
	}
	return nil
}

// GetByID retrieves a batch
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*models.Batch, error) {
	var b models.Batch
	err := r.db.QueryRow(ctx, `SELECT id, name, year, created_at FROM batches WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Year, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBatchNotFound
		}
		return nil, fmt.Errorf("error getting batch: %w", err)
	}
	return &b, nil
}

// List returns all batches, newest year first
func (r *BatchRepository) List(ctx context.Context) ([]*models.Batch, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, year, created_at FROM batches ORDER BY year DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("error listing batches: %w", err)
	}
	defer rows.Close()

	batches := []*models.Batch{}
	for rows.Next() {
		var b models.Batch
		if err := rows.Scan(&b.ID, &b.Name, &b.Year, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}

// Update renames a batch or changes its year
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch) error {
	sql, args, err := r.sb.Update("batches").
		Set("name", batch.Name).
		Set("year", batch.Year).
		Where(squirrel.Eq{"id": batch.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update batch query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, batchesNameYearKey) {
			return apperrors.ErrBatchAlreadyExists
		}
		return fmt.Errorf("error updating batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrBatchNotFound
	}
	return nil
}

// Delete removes a batch; its subjects and sessions cascade
func (r *BatchRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrBatchNotFound
	}
	return nil
}

// Count counts batches
func (r *BatchRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM batches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting batches: %w", err)
	}
	return n, nil
}
