package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/logger"
)

// SessionFilter narrows session listings. A zero Limit means no limit.
type SessionFilter struct {
	TeacherID *int64
	BatchID   *int64
	SubjectID *int64
	Active    *bool
	Offset    uint64
	Limit     uint64
}

// TeacherSessionStats aggregates a teacher's completed sessions
type TeacherSessionStats struct {
	Completed int64
	// Expected is the sum of batch sizes over completed sessions
	Expected int64
	Attended int64
}

// SessionRepository handles attendance sessions
type SessionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SessionRepository) selectSessions() squirrel.SelectBuilder {
	return r.sb.Select("s.id", "s.session_uuid", "s.teacher_id", "s.subject_id", "s.batch_id",
		"s.start_time", "s.end_time", "s.is_active",
		"sub.name", "sub.code", "b.name", "TRIM(u.first_name || ' ' || u.last_name)").
		From("attendance_sessions s").
		Join("subjects sub ON sub.id = s.subject_id").
		Join("batches b ON b.id = s.batch_id").
		Join("teachers t ON t.id = s.teacher_id").
		Join("users u ON u.id = t.user_id")
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.SessionUUID, &s.TeacherID, &s.SubjectID, &s.BatchID,
		&s.StartTime, &s.EndTime, &s.IsActive,
		&s.SubjectName, &s.SubjectCode, &s.BatchName, &s.TeacherName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func sessionWhere(filter SessionFilter) squirrel.And {
	where := squirrel.And{}
	if filter.TeacherID != nil {
		where = append(where, squirrel.Eq{"s.teacher_id": *filter.TeacherID})
	}
	if filter.BatchID != nil {
		where = append(where, squirrel.Eq{"s.batch_id": *filter.BatchID})
	}
	if filter.SubjectID != nil {
		where = append(where, squirrel.Eq{"s.subject_id": *filter.SubjectID})
	}
	if filter.Active != nil {
		where = append(where, squirrel.Eq{"s.is_active": *filter.Active})
	}
	return where
}

// Create inserts an active session
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	sql, args, err := r.sb.Insert("attendance_sessions").
		Columns("session_uuid", "teacher_id", "subject_id", "batch_id", "start_time", "is_active").
		Values(session.SessionUUID, session.TeacherID, session.SubjectID, session.BatchID, session.StartTime, true).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create session SQL")
		return fmt.Errorf("failed to build create session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&session.ID); err != nil {
		logger.Error().Err(err).Str("sessionId", session.SessionUUID.String()).Msg("Error creating session")
		return fmt.Errorf("error creating session: %w", err)
	}
	session.IsActive = true
	return nil
}

// GetByUUID retrieves a session with display fields
func (r *SessionRepository) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	sql, args, err := r.selectSessions().Where(squirrel.Eq{"s.session_uuid": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}
	return scanSession(r.db.QueryRow(ctx, sql, args...))
}

// End deactivates an active session. It returns ErrSessionInactive if the
// session was already ended.
func (r *SessionRepository) End(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.sb.Update("attendance_sessions").
		Set("is_active", false).
		Set("end_time", at).
		Where(squirrel.Eq{"id": id, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build end session query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error ending session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionInactive
	}
	return nil
}

// List returns sessions newest first, plus the total matching count
func (r *SessionRepository) List(ctx context.Context, filter SessionFilter) ([]*models.Session, int64, error) {
	where := sessionWhere(filter)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("attendance_sessions s").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count sessions query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting sessions: %w", err)
	}

	q := r.selectSessions().Where(where).OrderBy("s.start_time DESC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list sessions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, s)
	}
	return sessions, total, rows.Err()
}

// Count counts sessions matching filter
func (r *SessionRepository) Count(ctx context.Context, filter SessionFilter) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("attendance_sessions s").Where(sessionWhere(filter)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count sessions query: %w", err)
	}
	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}
	return n, nil
}

// TeacherStats computes completed-session totals for the teacher dashboard
func (r *SessionRepository) TeacherStats(ctx context.Context, teacherID int64) (TeacherSessionStats, error) {
	const q = `
SELECT COUNT(*),
       COALESCE(SUM((SELECT COUNT(*) FROM students st WHERE st.batch_id = s.batch_id)), 0),
       COALESCE(SUM((SELECT COUNT(*) FROM attendance_records ar WHERE ar.session_id = s.id)), 0)
FROM attendance_sessions s
WHERE s.teacher_id = $1 AND s.is_active = FALSE`

	var st TeacherSessionStats
	if err := r.db.QueryRow(ctx, q, teacherID).Scan(&st.Completed, &st.Expected, &st.Attended); err != nil {
		return st, fmt.Errorf("error computing teacher stats: %w", err)
	}
	return st, nil
}
