package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/metrics"
	"github.com/yigit/attendance/internal/pkg/qrtoken"
)

const testQRSecret = "qr-test-secret"

type attendanceFixture struct {
	db      *memDB
	now     time.Time
	tokens  *qrtoken.Service
	metrics *metrics.Registry
	svc     *AttendanceService

	batch      *models.Batch
	otherBatch *models.Batch
	subject    *models.Subject
	teacher    *models.Teacher
	student    *models.Student
	outsider   *models.Student
	unassigned *models.Student
	session    *models.Session
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()

	f := &attendanceFixture{db: newMemDB(), now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	f.db.now = clock

	tokens, err := qrtoken.NewService(qrtoken.Config{
		Secret:           testQRSecret,
		MaxAge:           20 * time.Second,
		RotationInterval: 2 * time.Second,
	})
	require.NoError(t, err)
	f.tokens = tokens.WithClock(clock)
	f.metrics = metrics.NewRegistry()

	f.batch = f.db.addBatch("CSE A")
	f.otherBatch = f.db.addBatch("CSE B")
	f.subject = f.db.addSubject("CS301", f.batch.ID)
	f.teacher = f.db.addTeacher("Grace", f.subject.ID)
	f.student = f.db.addStudent("Ada", "CSE-001", &f.batch.ID)
	f.outsider = f.db.addStudent("Bob", "CSE-101", &f.otherBatch.ID)
	f.unassigned = f.db.addStudent("Cy", "CSE-201", nil)
	f.session = f.db.addSession(f.teacher.ID, f.subject.ID, f.batch.ID, true)

	f.svc = NewAttendanceService(f.tokens,
		memSessions{f.db}, memStudents{f.db}, memTeachers{f.db}, memAttendance{f.db}, memAudit{f.db},
		f.metrics, testLogger)
	return f
}

func (f *attendanceFixture) issue(t *testing.T, sessionID uuid.UUID) string {
	t.Helper()
	token, _, err := f.tokens.Issue(sessionID)
	require.NoError(t, err)
	return token
}

func TestRedeemSuccessThenAlreadyMarked(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	token := f.issue(t, f.session.SessionUUID)

	first, err := f.svc.Redeem(ctx, token, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, first.Outcome)
	assert.Equal(t, f.session.SessionUUID, first.SessionUUID)
	require.NotNil(t, first.MarkedAt)

	f.now = f.now.Add(5 * time.Second)
	second, err := f.svc.Redeem(ctx, token, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyMarked, second.Outcome)
	require.NotNil(t, second.MarkedAt)
	assert.True(t, first.MarkedAt.Equal(*second.MarkedAt), "already_marked carries the original time")

	assert.Equal(t, 1, f.db.recordCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Redemptions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Redemptions.WithLabelValues("already_marked")))
}

func TestRedeemOutcomes(t *testing.T) {
	f := newAttendanceFixture(t)
	ended := f.db.addSession(f.teacher.ID, f.subject.ID, f.batch.ID, false)

	payloadOnlyIAT, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": f.now.Unix(),
	}).SignedString([]byte(testQRSecret))
	require.NoError(t, err)

	valid := f.issue(t, f.session.SessionUUID)

	tests := []struct {
		name    string
		token   func() string
		userID  int64
		advance time.Duration
		want    models.Outcome
	}{
		{name: "garbage", token: func() string { return "not-a-token" }, userID: f.student.UserID, want: models.OutcomeInvalidSignature},
		{name: "tampered signature", token: func() string { return valid[:len(valid)-2] + "xx" }, userID: f.student.UserID, want: models.OutcomeInvalidSignature},
		{name: "missing session id", token: func() string { return payloadOnlyIAT }, userID: f.student.UserID, want: models.OutcomeInvalidPayload},
		{name: "stale token", token: func() string { return valid }, userID: f.student.UserID, advance: 21 * time.Second, want: models.OutcomeExpired},
		{name: "unknown session", token: func() string { return f.issue(t, uuid.New()) }, userID: f.student.UserID, want: models.OutcomeNotFound},
		{name: "ended session", token: func() string { return f.issue(t, ended.SessionUUID) }, userID: f.student.UserID, want: models.OutcomeSessionEnded},
		{name: "other batch", token: func() string { return f.issue(t, f.session.SessionUUID) }, userID: f.outsider.UserID, want: models.OutcomeWrongBatch},
		{name: "no batch", token: func() string { return f.issue(t, f.session.SessionUUID) }, userID: f.unassigned.UserID, want: models.OutcomeWrongBatch},
	}

	start := f.now
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.now = start
			token := tt.token()
			f.now = start.Add(tt.advance)

			result, err := f.svc.Redeem(context.Background(), token, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Outcome)
			assert.Nil(t, result.MarkedAt)
		})
	}
	assert.Zero(t, f.db.recordCount())
}

func TestRedeemFreshnessBoundary(t *testing.T) {
	f := newAttendanceFixture(t)
	token := f.issue(t, f.session.SessionUUID)

	f.now = f.now.Add(20 * time.Second)
	result, err := f.svc.Redeem(context.Background(), token, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
}

func TestRedeemFreshnessMidSecondMint(t *testing.T) {
	f := newAttendanceFixture(t)
	f.now = f.now.Add(900 * time.Millisecond)
	token := f.issue(t, f.session.SessionUUID)

	f.now = f.now.Add(19600 * time.Millisecond)
	result, err := f.svc.Redeem(context.Background(), token, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
}

func TestRedeemChecksFreshnessBeforeSession(t *testing.T) {
	f := newAttendanceFixture(t)
	token := f.issue(t, uuid.New())

	f.now = f.now.Add(time.Minute)
	result, err := f.svc.Redeem(context.Background(), token, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeExpired, result.Outcome)
}

func TestRedeemRequiresStudentProfile(t *testing.T) {
	f := newAttendanceFixture(t)
	token := f.issue(t, f.session.SessionUUID)

	_, err := f.svc.Redeem(context.Background(), token, f.teacher.UserID)
	assert.ErrorIs(t, err, apperrors.ErrStudentProfileRequired)
}

func TestConcurrentRedemptionsRecordOnce(t *testing.T) {
	f := newAttendanceFixture(t)
	token := f.issue(t, f.session.SessionUUID)

	const n = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[models.Outcome]int{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.svc.Redeem(context.Background(), token, f.student.UserID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[result.Outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[models.OutcomeSuccess])
	assert.Equal(t, n-1, outcomes[models.OutcomeAlreadyMarked])
	assert.Equal(t, 1, f.db.recordCount())
}

func TestMarkManually(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	owner := Actor{UserID: f.teacher.UserID, Role: models.RoleTeacher}

	result, err := f.svc.MarkManually(ctx, owner, f.session.SessionUUID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)

	result, err = f.svc.MarkManually(ctx, owner, f.session.SessionUUID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyMarked, result.Outcome)
	assert.NotNil(t, result.MarkedAt)

	result, err = f.svc.MarkManually(ctx, owner, f.session.SessionUUID, f.outsider.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeWrongBatch, result.Outcome)

	_, err = f.svc.MarkManually(ctx, owner, f.session.SessionUUID, 9999)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = f.svc.MarkManually(ctx, owner, uuid.New(), f.student.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	assert.Equal(t, []string{models.AuditManualMark}, f.db.auditActions())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ManualMarks.WithLabelValues("mark", "success")))
}

func TestMarkManuallyIgnoresActiveFlag(t *testing.T) {
	f := newAttendanceFixture(t)
	ended := f.db.addSession(f.teacher.ID, f.subject.ID, f.batch.ID, false)

	result, err := f.svc.MarkManually(context.Background(), Actor{UserID: 1, Role: models.RoleAdmin}, ended.SessionUUID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
}

func TestMarkManuallyRequiresOwnership(t *testing.T) {
	f := newAttendanceFixture(t)
	stranger := f.db.addTeacher("Alan")

	_, err := f.svc.MarkManually(context.Background(),
		Actor{UserID: stranger.UserID, Role: models.RoleTeacher}, f.session.SessionUUID, f.student.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.svc.MarkManually(context.Background(),
		Actor{UserID: f.student.UserID, Role: models.RoleStudent}, f.session.SessionUUID, f.student.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Zero(t, f.db.recordCount())
}

func TestUnmark(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	owner := Actor{UserID: f.teacher.UserID, Role: models.RoleTeacher}

	_, err := f.svc.MarkManually(ctx, owner, f.session.SessionUUID, f.student.ID)
	require.NoError(t, err)

	result, err := f.svc.Unmark(ctx, owner, f.session.SessionUUID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Zero(t, f.db.recordCount())

	result, err = f.svc.Unmark(ctx, owner, f.session.SessionUUID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNotFound, result.Outcome)

	// the student can scan again after being unmarked
	token := f.issue(t, f.session.SessionUUID)
	redeemed, err := f.svc.Redeem(ctx, token, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, redeemed.Outcome)

	assert.Equal(t, []string{models.AuditManualMark, models.AuditManualUnmark}, f.db.auditActions())
}

func TestDeleteRecord(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	token := f.issue(t, f.session.SessionUUID)

	_, err := f.svc.Redeem(ctx, token, f.student.UserID)
	require.NoError(t, err)
	rec, err := memAttendance{f.db}.Get(ctx, f.session.ID, f.student.ID)
	require.NoError(t, err)

	err = f.svc.DeleteRecord(ctx, Actor{UserID: f.teacher.UserID, Role: models.RoleTeacher}, rec.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	admin := Actor{UserID: 1, Role: models.RoleAdmin}
	require.NoError(t, f.svc.DeleteRecord(ctx, admin, rec.ID))
	assert.ErrorIs(t, f.svc.DeleteRecord(ctx, admin, rec.ID), apperrors.ErrRecordNotFound)
	assert.Equal(t, []string{models.AuditRecordDeleted}, f.db.auditActions())
}
