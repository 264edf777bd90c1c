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

const subjectsCodeKey = "subjects_code_key"

// SubjectFilter narrows subject listings
type SubjectFilter struct {
	BatchID   *int64
	TeacherID *int64
}

// SubjectRepository handles subject database operations
type SubjectRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSubjectRepository creates a new SubjectRepository
func NewSubjectRepository(db *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SubjectRepository) selectSubjects() squirrel.SelectBuilder {
	return r.sb.Select("sub.id", "sub.name", "sub.code", "sub.batch_id", "b.name").
		From("subjects sub").
		Join("batches b ON b.id = sub.batch_id")
}

func scanSubject(row pgx.Row) (*models.Subject, error) {
	var s models.Subject
	if err := row.Scan(&s.ID, &s.Name, &s.Code, &s.BatchID, &s.BatchName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSubjectNotFound
		}
		return nil, err
	}
	return &s, nil
}

func mapSubjectWriteError(err error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, subjectsCodeKey):
		return apperrors.ErrSubjectAlreadyExists
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrBatchNotFound
	}
	return err
}

// Create inserts a subject
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	sql, args, err := r.sb.Insert("subjects").
		Columns("name", "code", "batch_id").
		Values(subject.Name, subject.Code, subject.BatchID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create subject query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&subject.ID); err != nil {
		if mapped := mapSubjectWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("error creating subject: %w", err)
	}
	return nil
}

// GetByID retrieves a subject with its batch name
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	sql, args, err := r.selectSubjects().Where(squirrel.Eq{"sub.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get subject query: %w", err)
	}
	return scanSubject(r.db.QueryRow(ctx, sql, args...))
}

// List returns subjects, optionally for one batch or one teacher
func (r *SubjectRepository) List(ctx context.Context, filter SubjectFilter) ([]*models.Subject, error) {
	q := r.selectSubjects()
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"sub.batch_id": *filter.BatchID})
	}
	if filter.TeacherID != nil {
		q = q.Join("teacher_subjects ts ON ts.subject_id = sub.id").
			Where(squirrel.Eq{"ts.teacher_id": *filter.TeacherID})
	}

	sql, args, err := q.OrderBy("sub.code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list subjects query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing subjects: %w", err)
	}
	defer rows.Close()

	subjects := []*models.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// Update saves a subject
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	sql, args, err := r.sb.Update("subjects").
		Set("name", subject.Name).
		Set("code", subject.Code).
		Set("batch_id", subject.BatchID).
		Where(squirrel.Eq{"id": subject.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update subject query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if mapped := mapSubjectWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("error updating subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSubjectNotFound
	}
	return nil
}

// Delete removes a subject
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSubjectNotFound
	}
	return nil
}

// Count counts subjects
func (r *SubjectRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM subjects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting subjects: %w", err)
	}
	return n, nil
}
