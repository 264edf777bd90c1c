package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/repositories"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/helpers"
)

const (
	dayLayout          = "2006-01-02"
	chartDays          = 7
	recentSessionLimit = 10
	pastSessionLimit   = 5
)

// CSVHeader is the first row of an attendance export
var CSVHeader = []string{"Date", "Session ID", "Teacher", "Subject", "Batch", "Student", "Status"}

// ReportService computes dashboards, reports and exports
type ReportService struct {
	users      UserStore
	students   StudentStore
	teachers   TeacherStore
	sessions   SessionStore
	attendance AttendanceStore
	audit      AuditStore
	logger     zerolog.Logger
	now        func() time.Time
	loc        *time.Location
}

// NewReportService creates a new ReportService
func NewReportService(
	users UserStore,
	students StudentStore,
	teachers TeacherStore,
	sessions SessionStore,
	attendance AttendanceStore,
	auditStore AuditStore,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		users:      users,
		students:   students,
		teachers:   teachers,
		sessions:   sessions,
		attendance: attendance,
		audit:      auditStore,
		logger:     logger,
		now:        time.Now,
		loc:        time.Local,
	}
}

// WithLocation sets the zone the database groups attendance days in, so
// "today" lines up with the day keys it returns.
func (s *ReportService) WithLocation(loc *time.Location) *ReportService {
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *ReportService) today() time.Time {
	return s.now().In(s.loc)
}

// lastWeek builds the seven day chart from per-day counts
func (s *ReportService) lastWeek(ctx context.Context, filter repositories.RecordFilter) ([]dto.DayCount, error) {
	days := helpers.LastNDays(s.today(), chartDays)
	since := days[0]
	filter.Since = &since

	counts, err := s.attendance.CountByDay(ctx, filter)
	if err != nil {
		return nil, err
	}

	chart := make([]dto.DayCount, 0, len(days))
	for _, d := range days {
		key := d.Format(dayLayout)
		chart = append(chart, dto.DayCount{Date: key, Label: d.Format("Mon"), Count: counts[key]})
	}
	return chart, nil
}

// percentage returns part/whole*100 rounded to one decimal, 0 for an empty whole
func percentage(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// currentStreak counts consecutive attended days ending today or yesterday.
// days are YYYY-MM-DD, newest first.
func currentStreak(days []string, today time.Time) int {
	if len(days) == 0 {
		return 0
	}
	expected := helpers.StartOfDay(today)
	first, err := time.ParseInLocation(dayLayout, days[0], today.Location())
	if err != nil {
		return 0
	}
	if first.Equal(expected.AddDate(0, 0, -1)) {
		expected = first
	}

	streak := 0
	for _, d := range days {
		day, err := time.ParseInLocation(dayLayout, d, today.Location())
		if err != nil || !day.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

// AdminDashboard summarises the whole system
func (s *ReportService) AdminDashboard(ctx context.Context) (*dto.AdminDashboard, error) {
	students, err := s.users.CountByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	teachers, err := s.users.CountByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	recent, total, err := s.sessions.List(ctx, repositories.SessionFilter{Limit: recentSessionLimit})
	if err != nil {
		return nil, err
	}
	chart, err := s.lastWeek(ctx, repositories.RecordFilter{})
	if err != nil {
		return nil, err
	}

	return &dto.AdminDashboard{
		TotalStudents:  students,
		TotalTeachers:  teachers,
		TotalSessions:  total,
		RecentSessions: recent,
		Last7Days:      chart,
	}, nil
}

// TeacherDashboard summarises the caller's sessions
func (s *ReportService) TeacherDashboard(ctx context.Context, teacherUserID int64) (*dto.TeacherDashboard, error) {
	teacher, err := s.teachers.GetByUserID(ctx, teacherUserID)
	if err != nil {
		return nil, err
	}

	active, inactive := true, false
	activeSessions, _, err := s.sessions.List(ctx, repositories.SessionFilter{TeacherID: &teacher.ID, Active: &active})
	if err != nil {
		return nil, err
	}
	pastSessions, _, err := s.sessions.List(ctx, repositories.SessionFilter{
		TeacherID: &teacher.ID, Active: &inactive, Limit: pastSessionLimit,
	})
	if err != nil {
		return nil, err
	}
	stats, err := s.sessions.TeacherStats(ctx, teacher.ID)
	if err != nil {
		return nil, err
	}
	chart, err := s.lastWeek(ctx, repositories.RecordFilter{TeacherID: &teacher.ID})
	if err != nil {
		return nil, err
	}

	return &dto.TeacherDashboard{
		ActiveSessions:        activeSessions,
		PastSessions:          pastSessions,
		CompletedSessions:     stats.Completed,
		AverageAttendanceRate: percentage(stats.Attended, stats.Expected),
		Last7Days:             chart,
	}, nil
}

// StudentDashboard summarises the caller's attendance
func (s *ReportService) StudentDashboard(ctx context.Context, studentUserID int64) (*dto.StudentDashboard, error) {
	student, err := s.students.GetByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.ErrStudentProfileRequired
		}
		return nil, err
	}

	total, err := s.attendance.Count(ctx, repositories.RecordFilter{StudentID: &student.ID})
	if err != nil {
		return nil, err
	}

	dash := &dto.StudentDashboard{TotalAttended: total}
	if student.BatchID != nil {
		inactive := false
		completed, err := s.sessions.Count(ctx, repositories.SessionFilter{BatchID: student.BatchID, Active: &inactive})
		if err != nil {
			return nil, err
		}
		attended, err := s.attendance.StudentCompletedCount(ctx, student.ID, *student.BatchID)
		if err != nil {
			return nil, err
		}
		dash.CompletedSessions = completed
		dash.AttendancePercentage = percentage(attended, completed)
	}

	days, err := s.attendance.AttendedDays(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	dash.CurrentStreak = currentStreak(days, s.today())

	dash.Last7Days, err = s.lastWeek(ctx, repositories.RecordFilter{StudentID: &student.ID})
	if err != nil {
		return nil, err
	}
	return dash, nil
}

// recordFilter scopes a report to what the actor may see
func (s *ReportService) recordFilter(ctx context.Context, actor Actor, f dto.ReportFilter) (repositories.RecordFilter, error) {
	filter := repositories.RecordFilter{BatchID: f.BatchID, SubjectID: f.SubjectID, Date: f.Date}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		teacher, err := s.teachers.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return filter, err
		}
		filter.TeacherID = &teacher.ID
	default:
		return filter, apperrors.ErrPermissionDenied
	}
	return filter, nil
}

// Report returns one page of attendance records
func (s *ReportService) Report(ctx context.Context, actor Actor, f dto.ReportFilter) ([]*models.RecordDetails, dto.PaginationInfo, error) {
	filter, err := s.recordFilter(ctx, actor, f)
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	filter.Offset, filter.Limit = helpers.CalculateOffsetLimit(f.Page, f.Size)

	records, total, err := s.attendance.ListDetails(ctx, filter)
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	return records, helpers.NewPaginationInfo(total, f.Page, f.Size), nil
}

// ExportCSV writes every matching record as CSV
func (s *ReportService) ExportCSV(ctx context.Context, actor Actor, f dto.ReportFilter, w io.Writer) (int, error) {
	filter, err := s.recordFilter(ctx, actor, f)
	if err != nil {
		return 0, err
	}
	records, _, err := s.attendance.ListDetails(ctx, filter)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, err
	}
	for _, r := range records {
		row := []string{
			r.MarkedAt.Format(time.RFC3339),
			r.SessionUUID.String(),
			r.TeacherName,
			r.SubjectName,
			r.BatchName,
			r.StudentName,
			string(r.Status),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("error writing csv: %w", err)
	}

	s.logger.Info().Int("rows", len(records)).Int64("userID", actor.UserID).Msg("Attendance exported")
	return len(records), nil
}

// StudentHistory returns one page of the caller's records
func (s *ReportService) StudentHistory(ctx context.Context, studentUserID int64, page, size int) ([]*models.RecordDetails, dto.PaginationInfo, error) {
	student, err := s.students.GetByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, dto.PaginationInfo{}, apperrors.ErrStudentProfileRequired
		}
		return nil, dto.PaginationInfo{}, err
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	records, total, err := s.attendance.ListDetails(ctx, repositories.RecordFilter{
		StudentID: &student.ID, Offset: offset, Limit: limit,
	})
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	return records, helpers.NewPaginationInfo(total, page, size), nil
}

// AuditLog returns one page of the audit trail
func (s *ReportService) AuditLog(ctx context.Context, page, size int) ([]*models.AuditLog, dto.PaginationInfo, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	logs, total, err := s.audit.List(ctx, offset, limit)
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	return logs, helpers.NewPaginationInfo(total, page, size), nil
}
