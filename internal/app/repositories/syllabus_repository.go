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

// SyllabusFilter narrows syllabus listings
type SyllabusFilter struct {
	BatchID   *int64
	TeacherID *int64
}

// SyllabusRepository handles syllabus documents
type SyllabusRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSyllabusRepository creates a new SyllabusRepository
func NewSyllabusRepository(db *pgxpool.Pool) *SyllabusRepository {
	return &SyllabusRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SyllabusRepository) selectSyllabi() squirrel.SelectBuilder {
	return r.sb.Select("sy.id", "sy.subject_id", "sy.batch_id", "sy.title", "sy.file_path", "sy.file_name",
		"sy.uploaded_by", "sy.uploaded_at", "sub.name", "sub.code", "b.name").
		From("syllabi sy").
		Join("subjects sub ON sub.id = sy.subject_id").
		Join("batches b ON b.id = sy.batch_id")
}

func scanSyllabus(row pgx.Row) (*models.Syllabus, error) {
	var s models.Syllabus
	err := row.Scan(&s.ID, &s.SubjectID, &s.BatchID, &s.Title, &s.FilePath, &s.FileName,
		&s.UploadedBy, &s.UploadedAt, &s.SubjectName, &s.SubjectCode, &s.BatchName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSyllabusNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Upsert stores the syllabus of a subject and batch, replacing any previous
// one. It returns the file path that was replaced, if any.
func (r *SyllabusRepository) Upsert(ctx context.Context, s *models.Syllabus) (string, error) {
	var previous string
	err := r.db.QueryRow(ctx, `SELECT file_path FROM syllabi WHERE subject_id = $1 AND batch_id = $2`,
		s.SubjectID, s.BatchID).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("error reading current syllabus: %w", err)
	}

	sql, args, err := r.sb.Insert("syllabi").
		Columns("subject_id", "batch_id", "title", "file_path", "file_name", "uploaded_by", "uploaded_at").
		Values(s.SubjectID, s.BatchID, s.Title, s.FilePath, s.FileName, s.UploadedBy, squirrel.Expr("NOW()")).
		Suffix(`ON CONFLICT ON CONSTRAINT syllabi_subject_batch_key DO UPDATE SET
			title = EXCLUDED.title, file_path = EXCLUDED.file_path, file_name = EXCLUDED.file_name,
			uploaded_by = EXCLUDED.uploaded_by, uploaded_at = EXCLUDED.uploaded_at
			RETURNING id, uploaded_at`).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build upsert syllabus query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.UploadedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return "", apperrors.NewBadRequestError("subject or batch does not exist")
		}
		return "", fmt.Errorf("error saving syllabus: %w", err)
	}
	if previous == s.FilePath {
		previous = ""
	}
	return previous, nil
}

// GetByID retrieves a syllabus
func (r *SyllabusRepository) GetByID(ctx context.Context, id int64) (*models.Syllabus, error) {
	sql, args, err := r.selectSyllabi().Where(squirrel.Eq{"sy.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get syllabus query: %w", err)
	}
	return scanSyllabus(r.db.QueryRow(ctx, sql, args...))
}

// Delete removes a syllabus row
func (r *SyllabusRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM syllabi WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting syllabus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSyllabusNotFound
	}
	return nil
}

// List returns syllabi for a batch, for a teacher's subjects, or all
func (r *SyllabusRepository) List(ctx context.Context, filter SyllabusFilter) ([]*models.Syllabus, error) {
	q := r.selectSyllabi()
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"sy.batch_id": *filter.BatchID})
	}
	if filter.TeacherID != nil {
		q = q.Join("teacher_subjects ts ON ts.subject_id = sy.subject_id").
			Where(squirrel.Eq{"ts.teacher_id": *filter.TeacherID})
	}

	sql, args, err := q.OrderBy("b.name", "sub.code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list syllabi query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing syllabi: %w", err)
	}
	defer rows.Close()

	list := []*models.Syllabus{}
	for rows.Next() {
		s, err := scanSyllabus(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
