package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/dberrors"
)

const timetableSlotKey = "timetable_slots_batch_day_start_key"

// TimetableFilter narrows timetable listings
type TimetableFilter struct {
	BatchID   *int64
	TeacherID *int64
	DayOfWeek *int
}

// TimetableRepository handles weekly timetable slots
type TimetableRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTimetableRepository creates a new TimetableRepository
func NewTimetableRepository(db *pgxpool.Pool) *TimetableRepository {
	return &TimetableRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a slot; times are "HH:MM"
func (r *TimetableRepository) Create(ctx context.Context, slot *models.TimetableSlot) error {
	sql, args, err := r.sb.Insert("timetable_slots").
		Columns("day_of_week", "start_time", "end_time", "subject_id", "batch_id", "teacher_id", "room").
		Values(slot.DayOfWeek, squirrel.Expr("?::time", slot.StartTime), squirrel.Expr("?::time", slot.EndTime),
			slot.SubjectID, slot.BatchID, slot.TeacherID, slot.Room).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create slot query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&slot.ID); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, timetableSlotKey):
			return apperrors.ErrTimetableSlotTaken
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.NewBadRequestError("subject, batch or teacher does not exist")
		}
		return fmt.Errorf("error creating timetable slot: %w", err)
	}
	return nil
}

// Delete removes a slot
func (r *TimetableRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM timetable_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting timetable slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTimetableSlotNotFound
	}
	return nil
}

// List returns slots ordered by day and start time
func (r *TimetableRepository) List(ctx context.Context, filter TimetableFilter) ([]*models.TimetableSlot, error) {
	q := r.sb.Select("ts.id", "ts.day_of_week", "to_char(ts.start_time, 'HH24:MI')", "to_char(ts.end_time, 'HH24:MI')",
		"ts.subject_id", "ts.batch_id", "ts.teacher_id", "ts.room",
		"sub.name", "sub.code", "b.name", "TRIM(u.first_name || ' ' || u.last_name)").
		From("timetable_slots ts").
		Join("subjects sub ON sub.id = ts.subject_id").
		Join("batches b ON b.id = ts.batch_id").
		Join("teachers t ON t.id = ts.teacher_id").
		Join("users u ON u.id = t.user_id")
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"ts.batch_id": *filter.BatchID})
	}
	if filter.TeacherID != nil {
		q = q.Where(squirrel.Eq{"ts.teacher_id": *filter.TeacherID})
	}
	if filter.DayOfWeek != nil {
		q = q.Where(squirrel.Eq{"ts.day_of_week": *filter.DayOfWeek})
	}

	sql, args, err := q.OrderBy("ts.day_of_week", "ts.start_time").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list slots query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing timetable: %w", err)
	}
	defer rows.Close()

	slots := []*models.TimetableSlot{}
	for rows.Next() {
		var s models.TimetableSlot
		if err := rows.Scan(&s.ID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
			&s.SubjectID, &s.BatchID, &s.TeacherID, &s.Room,
			&s.SubjectName, &s.SubjectCode, &s.BatchName, &s.TeacherName); err != nil {
			return nil, err
		}
		if s.DayOfWeek >= 0 && s.DayOfWeek < len(models.DayNames) {
			s.DayName = models.DayNames[s.DayOfWeek]
		}
		slots = append(slots, &s)
	}
	return slots, rows.Err()
}
