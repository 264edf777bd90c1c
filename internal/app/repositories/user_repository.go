package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/db"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/dberrors"
	"github.com/yigit/attendance/internal/pkg/logger"
)

const (
	usersEmailKey       = "users_email_key"
	studentsRollKey     = "students_roll_number_key"
	userSelectColumns   = "u.id, u.email, u.password, u.first_name, u.last_name, u.role_type, u.is_active, u.last_login_at, u.created_at, u.updated_at"
	defaultUserPageSize = 20
)

// UserListParams filters the admin user listing
type UserListParams struct {
	Role   *models.RoleType
	Search string
	Offset uint64
	Limit  uint64
}

// UserRepository handles users and the creation of their role profiles
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.RoleType,
		&u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) insertUser(ctx context.Context, q db.DBTX, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password", "first_name", "last_name", "role_type", "is_active").
		Values(user.Email, user.Password, user.FirstName, user.LastName, user.RoleType, user.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	err = q.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, usersEmailKey) {
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) insertStudent(ctx context.Context, q db.DBTX, student *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("user_id", "batch_id", "roll_number").
		Values(student.UserID, student.BatchID, student.RollNumber).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&student.ID); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, studentsRollKey):
			return apperrors.ErrRollNumberExists
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.ErrBatchNotFound
		}
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// CreateStudent inserts the user and its student profile in one transaction
func (r *UserRepository) CreateStudent(ctx context.Context, user *models.User, student *models.Student) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.insertUser(ctx, tx, user); err != nil {
			return err
		}
		student.UserID = user.ID
		return r.insertStudent(ctx, tx, student)
	})
}

// CreateTeacher inserts the user and its teacher profile in one transaction
func (r *UserRepository) CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.insertUser(ctx, tx, user); err != nil {
			return err
		}
		teacher.UserID = user.ID
		err := tx.QueryRow(ctx, `INSERT INTO teachers (user_id) VALUES ($1) RETURNING id`, user.ID).Scan(&teacher.ID)
		if err != nil {
			return fmt.Errorf("error creating teacher: %w", err)
		}
		return nil
	})
}

// CreateAdmin inserts an admin user
func (r *UserRepository) CreateAdmin(ctx context.Context, user *models.User) error {
	return r.insertUser(ctx, r.db, user)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	sql, args, err := r.sb.Select(userSelectColumns).From("users u").Where(squirrel.Eq{"u.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, sql, args...))
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := r.sb.Select(userSelectColumns).From("users u").Where(squirrel.Eq{"u.email": email}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, sql, args...))
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// List returns one page of users and the total count
func (r *UserRepository) List(ctx context.Context, params UserListParams) ([]*models.User, int64, error) {
	where := squirrel.And{}
	if params.Role != nil {
		where = append(where, squirrel.Eq{"u.role_type": *params.Role})
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"u.email": pattern},
			squirrel.ILike{"u.first_name": pattern},
			squirrel.ILike{"u.last_name": pattern},
		})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("users u").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	limit := params.Limit
	if limit == 0 {
		limit = defaultUserPageSize
	}
	sql, args, err := r.sb.Select(userSelectColumns).From("users u").Where(where).
		OrderBy("u.role_type", "u.last_name", "u.first_name").
		Offset(params.Offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Update saves identity fields and the active flag
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Update("users").
		Set("email", user.Email).
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("is_active", user.IsActive).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, usersEmailKey) {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, userID)
	if err != nil {
		logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to update last login")
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}

// Delete removes a user; profiles and tokens cascade
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// CountByRole counts users with the given role
func (r *UserRepository) CountByRole(ctx context.Context, role models.RoleType) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_type = $1`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}
