package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/pkg/apperrors"
)

func newReportService(f *attendanceFixture) *ReportService {
	svc := NewReportService(memUsers{f.db}, memStudents{f.db}, memTeachers{f.db}, memSessions{f.db},
		memAttendance{f.db}, memAudit{f.db}, testLogger).WithLocation(f.db.dayLoc)
	svc.now = func() time.Time { return f.now }
	return svc
}

func (f *attendanceFixture) markAt(t *testing.T, session *models.Session, student *models.Student, at time.Time) {
	t.Helper()
	saved := f.now
	f.now = at
	defer func() { f.now = saved }()
	require.NoError(t, memAttendance{f.db}.Insert(context.Background(), &models.AttendanceRecord{
		SessionID: session.ID, StudentID: student.ID, Status: models.StatusPresent,
	}))
}

func TestCurrentStreak(t *testing.T) {
	today := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days []string
		want int
	}{
		{name: "none", days: nil, want: 0},
		{name: "today only", days: []string{"2025-03-10"}, want: 1},
		{name: "ending yesterday", days: []string{"2025-03-09", "2025-03-08"}, want: 2},
		{name: "gap breaks", days: []string{"2025-03-10", "2025-03-09", "2025-03-07"}, want: 2},
		{name: "stale", days: []string{"2025-03-08", "2025-03-07"}, want: 0},
		{name: "three in a row", days: []string{"2025-03-10", "2025-03-09", "2025-03-08"}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, currentStreak(tt.days, today))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, percentage(3, 0))
	assert.Equal(t, 66.7, percentage(2, 3))
	assert.Equal(t, 100.0, percentage(4, 4))
}

func TestStudentDashboard(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newReportService(f)
	ctx := context.Background()

	done1 := f.db.addSession(f.teacher.ID, f.subject.ID, f.batch.ID, false)
	done2 := f.db.addSession(f.teacher.ID, f.subject.ID, f.batch.ID, false)
	f.db.addSession(f.teacher.ID, f.subject.ID, f.batch.ID, false)

	f.markAt(t, done1, f.student, f.now.AddDate(0, 0, -1))
	f.markAt(t, done2, f.student, f.now.AddDate(0, 0, -2))
	f.markAt(t, f.session, f.student, f.now)

	dash, err := svc.StudentDashboard(ctx, f.student.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, dash.TotalAttended)
	assert.EqualValues(t, 3, dash.CompletedSessions)
	assert.Equal(t, 66.7, dash.AttendancePercentage)
	assert.Equal(t, 3, dash.CurrentStreak)
	require.Len(t, dash.Last7Days, 7)
	assert.Equal(t, "2025-03-10", dash.Last7Days[6].Date)
	assert.Equal(t, "Mon", dash.Last7Days[6].Label)
	assert.EqualValues(t, 1, dash.Last7Days[6].Count)
	assert.EqualValues(t, 1, dash.Last7Days[5].Count)
	assert.EqualValues(t, 0, dash.Last7Days[0].Count)

	_, err = svc.StudentDashboard(ctx, f.teacher.UserID)
	assert.ErrorIs(t, err, apperrors.ErrStudentProfileRequired)
}

func TestStudentDashboardUsesDatabaseDays(t *testing.T) {
	f := newAttendanceFixture(t)
	// 20:00 UTC on the 10th is already 01:30 on the 11th at +05:30
	f.db.dayLoc = time.FixedZone("IST", 5*3600+1800)
	f.now = time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	svc := newReportService(f)

	done := f.db.addSession(f.teacher.ID, f.subject.ID, f.batch.ID, false)
	f.markAt(t, done, f.student, time.Date(2025, 3, 9, 19, 0, 0, 0, time.UTC))
	f.markAt(t, f.session, f.student, time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC))

	dash, err := svc.StudentDashboard(context.Background(), f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.CurrentStreak)
	require.Len(t, dash.Last7Days, 7)
	assert.Equal(t, "2025-03-11", dash.Last7Days[6].Date)
	assert.EqualValues(t, 1, dash.Last7Days[6].Count)
	assert.Equal(t, "2025-03-10", dash.Last7Days[5].Date)
	assert.EqualValues(t, 1, dash.Last7Days[5].Count)
}

func TestTeacherDashboard(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newReportService(f)
	ctx := context.Background()
	f.db.addStudent("Lin", "CSE-002", &f.batch.ID)

	done := f.db.addSession(f.teacher.ID, f.subject.ID, f.batch.ID, false)
	f.markAt(t, done, f.student, f.now)

	dash, err := svc.TeacherDashboard(ctx, f.teacher.UserID)
	require.NoError(t, err)
	require.Len(t, dash.ActiveSessions, 1)
	require.Len(t, dash.PastSessions, 1)
	assert.EqualValues(t, 1, dash.CompletedSessions)
	// one of two batch students attended the completed session
	assert.Equal(t, 50.0, dash.AverageAttendanceRate)
	assert.EqualValues(t, 1, dash.Last7Days[6].Count)
}

func TestAdminDashboard(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newReportService(f)
	f.markAt(t, f.session, f.student, f.now)

	dash, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, dash.TotalStudents)
	assert.EqualValues(t, 1, dash.TotalTeachers)
	assert.EqualValues(t, 1, dash.TotalSessions)
	assert.Len(t, dash.RecentSessions, 1)
	assert.EqualValues(t, 1, dash.Last7Days[6].Count)
}

func TestReportScopesTeachers(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newReportService(f)
	ctx := context.Background()

	other := f.db.addTeacher("Alan", f.subject.ID)
	foreign := f.db.addSession(other.ID, f.subject.ID, f.batch.ID, true)
	f.markAt(t, f.session, f.student, f.now)
	f.markAt(t, foreign, f.student, f.now)

	records, page, err := svc.Report(ctx, Actor{UserID: f.teacher.UserID, Role: models.RoleTeacher}, dto.ReportFilter{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, f.session.SessionUUID, records[0].SessionUUID)
	assert.EqualValues(t, 1, page.TotalItems)

	records, _, err = svc.Report(ctx, Actor{UserID: 1, Role: models.RoleAdmin}, dto.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, _, err = svc.Report(ctx, Actor{UserID: f.student.UserID, Role: models.RoleStudent}, dto.ReportFilter{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestExportCSV(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newReportService(f)
	f.markAt(t, f.session, f.student, f.now)

	var buf bytes.Buffer
	n, err := svc.ExportCSV(context.Background(), Actor{UserID: 1, Role: models.RoleAdmin}, dto.ReportFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{
		"2025-03-10T09:00:00Z",
		f.session.SessionUUID.String(),
		"Grace T",
		"CS301 name",
		"CSE A",
		"Ada S",
		"PRESENT",
	}, rows[1])
}

func TestStudentHistory(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newReportService(f)
	f.markAt(t, f.session, f.student, f.now)

	records, page, err := svc.StudentHistory(context.Background(), f.student.UserID, 1, 20)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CS301", records[0].SubjectCode)
	assert.Equal(t, 1, page.TotalPages)
}
