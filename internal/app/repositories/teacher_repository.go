package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/db"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/dberrors"
)

// TeacherRepository handles teacher profiles and their subject assignments
type TeacherRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTeacherRepository creates a new TeacherRepository
func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TeacherRepository) selectTeachers() squirrel.SelectBuilder {
	return r.sb.Select("t.id", "t.user_id", "u.id", "u.email", "u.first_name", "u.last_name",
		"u.role_type", "u.is_active", "u.created_at", "u.updated_at").
		From("teachers t").
		Join("users u ON u.id = t.user_id")
}

func scanTeacher(row pgx.Row) (*models.Teacher, error) {
	var (
		t models.Teacher
		u models.User
	)
	err := row.Scan(&t.ID, &t.UserID, &u.ID, &u.Email, &u.FirstName, &u.LastName,
		&u.RoleType, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTeacherNotFound
		}
		return nil, err
	}
	t.User = &u
	return &t, nil
}

func (r *TeacherRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Teacher, error) {
	sql, args, err := r.selectTeachers().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get teacher query: %w", err)
	}
	return scanTeacher(r.db.QueryRow(ctx, sql, args...))
}

// GetByID retrieves a teacher with its user
func (r *TeacherRepository) GetByID(ctx context.Context, id int64) (*models.Teacher, error) {
	return r.getOne(ctx, squirrel.Eq{"t.id": id})
}

// GetByUserID retrieves the teacher profile of a user
func (r *TeacherRepository) GetByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	return r.getOne(ctx, squirrel.Eq{"t.user_id": userID})
}

// List returns all teachers ordered by name
func (r *TeacherRepository) List(ctx context.Context) ([]*models.Teacher, error) {
	sql, args, err := r.selectTeachers().OrderBy("u.last_name", "u.first_name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list teachers query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing teachers: %w", err)
	}
	defer rows.Close()

	teachers := []*models.Teacher{}
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// SetSubjects replaces the subjects a teacher teaches
func (r *TeacherRepository) SetSubjects(ctx context.Context, teacherID int64, subjectIDs []int64) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
			return fmt.Errorf("error clearing teacher subjects: %w", err)
		}
		if len(subjectIDs) == 0 {
			return nil
		}

		insert := r.sb.Insert("teacher_subjects").Columns("teacher_id", "subject_id")
		for _, id := range subjectIDs {
			insert = insert.Values(teacherID, id)
		}
		sql, args, err := insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
		if err != nil {
			return fmt.Errorf("failed to build assign subjects query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			if dberrors.IsForeignKeyViolation(err) {
				return apperrors.ErrSubjectNotFound
			}
			return fmt.Errorf("error assigning subjects: %w", err)
		}
		return nil
	})
}

// TeachesSubject reports whether the teacher is assigned the subject
func (r *TeacherRepository) TeachesSubject(ctx context.Context, teacherID, subjectID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM teacher_subjects WHERE teacher_id = $1 AND subject_id = $2)`,
		teacherID, subjectID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("error checking teacher subject: %w", err)
	}
	return ok, nil
}
