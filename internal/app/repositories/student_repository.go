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

const studentSelectColumns = "s.id, s.user_id, s.roll_number, s.batch_id, " +
	"u.id, u.email, u.first_name, u.last_name, u.role_type, u.is_active, u.created_at, u.updated_at, " +
	"b.id, b.name, b.year"

// StudentRepository handles student profiles
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StudentRepository) selectStudents() squirrel.SelectBuilder {
	return r.sb.Select(studentSelectColumns).
		From("students s").
		Join("users u ON u.id = s.user_id").
		LeftJoin("batches b ON b.id = s.batch_id")
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var (
		s         models.Student
		u         models.User
		batchID   *int64
		batchName *string
		batchYear *int
	)
	err := row.Scan(&s.ID, &s.UserID, &s.RollNumber, &s.BatchID,
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.RoleType, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		&batchID, &batchName, &batchYear)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, err
	}
	s.User = &u
	if batchID != nil {
		s.Batch = &models.Batch{ID: *batchID, Name: *batchName, Year: *batchYear}
	}
	return &s, nil
}

func (r *StudentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Student, error) {
	sql, args, err := r.selectStudents().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}
	return scanStudent(r.db.QueryRow(ctx, sql, args...))
}

// GetByID retrieves a student with user and batch
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"s.id": id})
}

// GetByUserID retrieves the student profile of a user
func (r *StudentRepository) GetByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	return r.getOne(ctx, squirrel.Eq{"s.user_id": userID})
}

// ListByBatch lists the students of a batch ordered by roll number
func (r *StudentRepository) ListByBatch(ctx context.Context, batchID int64) ([]*models.Student, error) {
	sql, args, err := r.selectStudents().
		Where(squirrel.Eq{"s.batch_id": batchID}).
		OrderBy("s.roll_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Update saves roll number and batch
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	sql, args, err := r.sb.Update("students").
		Set("roll_number", student.RollNumber).
		Set("batch_id", student.BatchID).
		Where(squirrel.Eq{"id": student.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, studentsRollKey):
			return apperrors.ErrRollNumberExists
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.ErrBatchNotFound
		}
		return fmt.Errorf("error updating student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// CountByBatch counts students in a batch
func (r *StudentRepository) CountByBatch(ctx context.Context, batchID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE batch_id = $1`, batchID).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return n, nil
}
