package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/pkg/apperrors"
)

func newSessionService(f *attendanceFixture) *SessionService {
	svc := NewSessionService(f.tokens,
		memSessions{f.db}, memTeachers{f.db}, memSubjects{f.db}, memStudents{f.db}, memAttendance{f.db}, memAudit{f.db},
		f.metrics, testLogger)
	svc.now = func() time.Time { return f.now }
	return svc
}

func TestStartSessionRules(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newSessionService(f)
	ctx := context.Background()
	untaught := f.db.addSubject("CS999", f.batch.ID)

	tests := []struct {
		name    string
		userID  int64
		req     dto.StartSessionRequest
		wantErr error
	}{
		{name: "not a teacher", userID: f.student.UserID, req: dto.StartSessionRequest{SubjectID: f.subject.ID, BatchID: f.batch.ID}, wantErr: apperrors.ErrPermissionDenied},
		{name: "unknown subject", userID: f.teacher.UserID, req: dto.StartSessionRequest{SubjectID: 9999, BatchID: f.batch.ID}, wantErr: apperrors.ErrSubjectNotFound},
		{name: "subject not taught", userID: f.teacher.UserID, req: dto.StartSessionRequest{SubjectID: untaught.ID, BatchID: f.batch.ID}, wantErr: apperrors.ErrSubjectNotTaught},
		{name: "subject of another batch", userID: f.teacher.UserID, req: dto.StartSessionRequest{SubjectID: f.subject.ID, BatchID: f.otherBatch.ID}, wantErr: apperrors.ErrSubjectBatchMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Start(ctx, tt.userID, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	session, err := svc.Start(ctx, f.teacher.UserID, &dto.StartSessionRequest{SubjectID: f.subject.ID, BatchID: f.batch.ID})
	require.NoError(t, err)
	assert.True(t, session.IsActive)
	assert.NotEqual(t, uuid.Nil, session.SessionUUID)
	assert.Equal(t, f.teacher.ID, session.TeacherID)
	assert.Equal(t, f.now, session.StartTime)
	assert.Contains(t, f.db.auditActions(), models.AuditSessionStarted)
}

func TestCurrentTokenAndEnd(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newSessionService(f)
	ctx := context.Background()
	owner := Actor{UserID: f.teacher.UserID, Role: models.RoleTeacher}

	resp, err := svc.CurrentToken(ctx, owner, f.session.SessionUUID)
	require.NoError(t, err)
	assert.Equal(t, f.session.SessionUUID, resp.SessionID)
	assert.Equal(t, 2.0, resp.RefreshInterval)
	assert.Equal(t, 20.0, resp.ExpiresIn)
	assert.Equal(t, f.now, resp.IssuedAt)

	sessionID, _, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, f.session.SessionUUID, sessionID)

	stranger := f.db.addTeacher("Alan")
	_, err = svc.CurrentToken(ctx, Actor{UserID: stranger.UserID, Role: models.RoleTeacher}, f.session.SessionUUID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	ended, err := svc.End(ctx, owner, f.session.SessionUUID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.EndTime)

	_, err = svc.CurrentToken(ctx, owner, f.session.SessionUUID)
	assert.ErrorIs(t, err, apperrors.ErrSessionInactive)
	_, err = svc.End(ctx, owner, f.session.SessionUUID)
	assert.ErrorIs(t, err, apperrors.ErrSessionInactive)

	// a token issued before the end no longer redeems
	result, err := f.svc.Redeem(ctx, resp.Token, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSessionEnded, result.Outcome)
}

func TestSessionAttendanceRoster(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newSessionService(f)
	ctx := context.Background()
	late := f.db.addStudent("Lin", "CSE-002", &f.batch.ID)

	token, _, err := f.tokens.Issue(f.session.SessionUUID)
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, token, f.student.UserID)
	require.NoError(t, err)

	roster, err := svc.Attendance(ctx, Actor{UserID: 1, Role: models.RoleAdmin}, f.session.SessionUUID)
	require.NoError(t, err)
	assert.Equal(t, 1, roster.Count)
	require.Len(t, roster.Present, 1)
	assert.Equal(t, f.student.ID, roster.Present[0].StudentID)
	assert.Equal(t, "Ada S", roster.Present[0].StudentName)
	require.Len(t, roster.Absent, 1)
	assert.Equal(t, late.ID, roster.Absent[0].StudentID)
	assert.Nil(t, roster.Absent[0].MarkedAt)
}

func TestListSessionsScopesTeachers(t *testing.T) {
	f := newAttendanceFixture(t)
	svc := newSessionService(f)
	ctx := context.Background()
	other := f.db.addTeacher("Alan", f.subject.ID)
	f.db.addSession(other.ID, f.subject.ID, f.batch.ID, true)

	mine, total, err := svc.List(ctx, Actor{UserID: f.teacher.UserID, Role: models.RoleTeacher}, SessionListParams{}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, f.session.SessionUUID, mine[0].SessionUUID)

	all, total, err := svc.List(ctx, Actor{UserID: 1, Role: models.RoleAdmin}, SessionListParams{}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)
}
