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
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/dberrors"
	"github.com/yigit/attendance/internal/pkg/logger"
)

// attendanceUniqueKey guards one record per (session, student)
const attendanceUniqueKey = "attendance_records_session_student_key"

// RecordFilter narrows record listings. Date matches the session's start day.
// A zero Limit means no limit.
type RecordFilter struct {
	StudentID *int64
	TeacherID *int64
	BatchID   *int64
	SubjectID *int64
	Date      *time.Time
	Since     *time.Time
	Offset    uint64
	Limit     uint64
}

// AttendanceRepository is the attendance ledger
type AttendanceRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert adds a record. A unique violation is reported as ErrAlreadyMarked.
func (r *AttendanceRepository) Insert(ctx context.Context, rec *models.AttendanceRecord) error {
	if rec.Status == "" {
		rec.Status = models.StatusPresent
	}
	sql, args, err := r.sb.Insert("attendance_records").
		Columns("session_id", "student_id", "status").
		Values(rec.SessionID, rec.StudentID, rec.Status).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building insert record SQL")
		return fmt.Errorf("failed to build insert record query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&rec.ID, &rec.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, attendanceUniqueKey) {
			return apperrors.ErrAlreadyMarked
		}
		logger.Error().Err(err).Int64("sessionID", rec.SessionID).Int64("studentID", rec.StudentID).
			Msg("Error inserting attendance record")
		return fmt.Errorf("error inserting attendance record: %w", err)
	}
	return nil
}

// Get returns the record of a student in a session
func (r *AttendanceRepository) Get(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := r.db.QueryRow(ctx,
		`SELECT id, session_id, student_id, status, created_at FROM attendance_records
		 WHERE session_id = $1 AND student_id = $2`, sessionID, studentID).
		Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting attendance record: %w", err)
	}
	return &rec, nil
}

// Delete removes the record of a student in a session
func (r *AttendanceRepository) Delete(ctx context.Context, sessionID, studentID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM attendance_records WHERE session_id = $1 AND student_id = $2`, sessionID, studentID)
	if err != nil {
		return fmt.Errorf("error deleting attendance record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRecordNotFound
	}
	return nil
}

// DeleteByID removes a record by its ID
func (r *AttendanceRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting attendance record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRecordNotFound
	}
	return nil
}

// ListBySession returns the records of a session with student display fields
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.AttendanceRecord, error) {
	sql, args, err := r.sb.Select("ar.id", "ar.session_id", "ar.student_id", "ar.status", "ar.created_at",
		"TRIM(u.first_name || ' ' || u.last_name)", "st.roll_number").
		From("attendance_records ar").
		Join("students st ON st.id = ar.student_id").
		Join("users u ON u.id = st.user_id").
		Where(squirrel.Eq{"ar.session_id": sessionID}).
		OrderBy("ar.created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list records query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance records: %w", err)
	}
	defer rows.Close()

	records := []*models.AttendanceRecord{}
	for rows.Next() {
		var rec models.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status, &rec.CreatedAt,
			&rec.StudentName, &rec.RollNumber); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func recordWhere(filter RecordFilter) squirrel.And {
	where := squirrel.And{}
	if filter.StudentID != nil {
		where = append(where, squirrel.Eq{"ar.student_id": *filter.StudentID})
	}
	if filter.TeacherID != nil {
		where = append(where, squirrel.Eq{"s.teacher_id": *filter.TeacherID})
	}
	if filter.BatchID != nil {
		where = append(where, squirrel.Eq{"s.batch_id": *filter.BatchID})
	}
	if filter.SubjectID != nil {
		where = append(where, squirrel.Eq{"s.subject_id": *filter.SubjectID})
	}
	if filter.Date != nil {
		where = append(where, squirrel.Expr("s.start_time::date = ?::date", filter.Date.Format("2006-01-02")))
	}
	if filter.Since != nil {
		where = append(where, squirrel.GtOrEq{"ar.created_at": *filter.Since})
	}
	return where
}

func (r *AttendanceRepository) fromRecords(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	return b.From("attendance_records ar").
		Join("attendance_sessions s ON s.id = ar.session_id").
		Join("subjects sub ON sub.id = s.subject_id").
		Join("batches b ON b.id = s.batch_id").
		Join("teachers t ON t.id = s.teacher_id").
		Join("users tu ON tu.id = t.user_id").
		Join("students st ON st.id = ar.student_id").
		Join("users su ON su.id = st.user_id")
}

// ListDetails returns records joined with their session, newest first, plus
// the total matching count
func (r *AttendanceRepository) ListDetails(ctx context.Context, filter RecordFilter) ([]*models.RecordDetails, int64, error) {
	where := recordWhere(filter)

	countSQL, countArgs, err := r.fromRecords(r.sb.Select("COUNT(*)")).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count records query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting records: %w", err)
	}

	q := r.fromRecords(r.sb.Select("ar.id", "ar.created_at", "ar.status", "s.session_uuid", "s.start_time",
		"sub.name", "sub.code", "b.name", "TRIM(tu.first_name || ' ' || tu.last_name)",
		"st.id", "TRIM(su.first_name || ' ' || su.last_name)", "st.roll_number")).
		Where(where).
		OrderBy("ar.created_at DESC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list records query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing records: %w", err)
	}
	defer rows.Close()

	details := []*models.RecordDetails{}
	for rows.Next() {
		var d models.RecordDetails
		if err := rows.Scan(&d.RecordID, &d.MarkedAt, &d.Status, &d.SessionUUID, &d.SessionDate,
			&d.SubjectName, &d.SubjectCode, &d.BatchName, &d.TeacherName,
			&d.StudentID, &d.StudentName, &d.RollNumber); err != nil {
			return nil, 0, err
		}
		details = append(details, &d)
	}
	return details, total, rows.Err()
}

// CountByDay counts records per calendar day (YYYY-MM-DD) matching filter
func (r *AttendanceRepository) CountByDay(ctx context.Context, filter RecordFilter) (map[string]int64, error) {
	sql, args, err := r.sb.Select("to_char(ar.created_at::date, 'YYYY-MM-DD') AS day", "COUNT(*)").
		From("attendance_records ar").
		Join("attendance_sessions s ON s.id = ar.session_id").
		Where(recordWhere(filter)).
		GroupBy("day").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by day query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting records by day: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			day string
			n   int64
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

// StudentCompletedCount counts a student's records in ended sessions of batchID
func (r *AttendanceRepository) StudentCompletedCount(ctx context.Context, studentID, batchID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*) FROM attendance_records ar
JOIN attendance_sessions s ON s.id = ar.session_id
WHERE ar.student_id = $1 AND s.batch_id = $2 AND s.is_active = FALSE`, studentID, batchID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting student records: %w", err)
	}
	return n, nil
}

// Count counts records matching filter
func (r *AttendanceRepository) Count(ctx context.Context, filter RecordFilter) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("attendance_records ar").
		Join("attendance_sessions s ON s.id = ar.session_id").
		Where(recordWhere(filter)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count records query: %w", err)
	}
	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting records: %w", err)
	}
	return n, nil
}

// AttendedDays lists the distinct days (YYYY-MM-DD) a student was marked,
// newest first
func (r *AttendanceRepository) AttendedDays(ctx context.Context, studentID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `
SELECT DISTINCT to_char(created_at::date, 'YYYY-MM-DD') AS day
FROM attendance_records WHERE student_id = $1 ORDER BY day DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("error listing attended days: %w", err)
	}
	defer rows.Close()

	days := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
