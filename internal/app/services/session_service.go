package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/repositories"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/metrics"
	"github.com/yigit/attendance/internal/pkg/qrtoken"
)

// SessionListParams filters the session listing
type SessionListParams struct {
	Active *bool
}

// SessionService starts, ends and displays attendance sessions
type SessionService struct {
	tokens     *qrtoken.Service
	sessions   SessionStore
	teachers   TeacherStore
	subjects   SubjectStore
	students   StudentStore
	attendance AttendanceStore
	audit      AuditStore
	metrics    *metrics.Registry
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	tokens *qrtoken.Service,
	sessions SessionStore,
	teachers TeacherStore,
	subjects SubjectStore,
	students StudentStore,
	attendance AttendanceStore,
	auditStore AuditStore,
	metricsRegistry *metrics.Registry,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		tokens:     tokens,
		sessions:   sessions,
		teachers:   teachers,
		subjects:   subjects,
		students:   students,
		attendance: attendance,
		audit:      auditStore,
		metrics:    metricsRegistry,
		logger:     logger,
		now:        time.Now,
	}
}

// Start opens a session. The subject must be taught by the teacher and
// belong to the requested batch.
func (s *SessionService) Start(ctx context.Context, teacherUserID int64, req *dto.StartSessionRequest) (*models.Session, error) {
	teacher, err := s.teachers.GetByUserID(ctx, teacherUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTeacherNotFound) {
			return nil, apperrors.ErrPermissionDenied
		}
		return nil, err
	}

	subject, err := s.subjects.GetByID(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}

	teaches, err := s.teachers.TeachesSubject(ctx, teacher.ID, subject.ID)
	if err != nil {
		return nil, err
	}
	if !teaches {
		return nil, apperrors.ErrSubjectNotTaught
	}
	if subject.BatchID != req.BatchID {
		return nil, apperrors.ErrSubjectBatchMismatch
	}

	session := &models.Session{
		SessionUUID: uuid.New(),
		TeacherID:   teacher.ID,
		SubjectID:   subject.ID,
		BatchID:     subject.BatchID,
		StartTime:   s.now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.IncSessionsStarted()
	audit(ctx, s.audit, s.logger, models.AuditSessionStarted, teacherUserID,
		"session=%s subject=%s batch=%d", session.SessionUUID, subject.Code, subject.BatchID)
	s.logger.Info().Str("sessionId", session.SessionUUID.String()).Int64("teacherID", teacher.ID).Msg("Session started")

	return s.sessions.GetByUUID(ctx, session.SessionUUID)
}

// loadOwned fetches a session the actor may manage
func (s *SessionService) loadOwned(ctx context.Context, actor Actor, sessionUUID uuid.UUID) (*models.Session, error) {
	session, err := s.sessions.GetByUUID(ctx, sessionUUID)
	if err != nil {
		return nil, err
	}
	if err := authorizeSession(ctx, s.teachers, actor, session); err != nil {
		return nil, err
	}
	return session, nil
}

// End closes an active session
func (s *SessionService) End(ctx context.Context, actor Actor, sessionUUID uuid.UUID) (*models.Session, error) {
	session, err := s.loadOwned(ctx, actor, sessionUUID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, apperrors.ErrSessionInactive
	}

	endedAt := s.now()
	if err := s.sessions.End(ctx, session.ID, endedAt); err != nil {
		return nil, err
	}
	session.IsActive = false
	session.EndTime = &endedAt

	s.metrics.IncSessionsEnded()
	audit(ctx, s.audit, s.logger, models.AuditSessionEnded, actor.UserID, "session=%s", session.SessionUUID)
	return session, nil
}

// CurrentToken issues the token the QR display shows right now
func (s *SessionService) CurrentToken(ctx context.Context, actor Actor, sessionUUID uuid.UUID) (*dto.SessionTokenResponse, error) {
	session, err := s.loadOwned(ctx, actor, sessionUUID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, apperrors.ErrSessionInactive
	}

	token, issuedAt, err := s.tokens.Issue(session.SessionUUID)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	s.metrics.IncTokensIssued()

	return &dto.SessionTokenResponse{
		Token:           token,
		SessionID:       session.SessionUUID,
		IssuedAt:        issuedAt,
		RefreshInterval: s.tokens.RotationInterval().Seconds(),
		ExpiresIn:       s.tokens.MaxAge().Seconds(),
	}, nil
}

// Get returns a session the actor may manage
func (s *SessionService) Get(ctx context.Context, actor Actor, sessionUUID uuid.UUID) (*models.Session, error) {
	return s.loadOwned(ctx, actor, sessionUUID)
}

// List returns one page of sessions; teachers only see their own
func (s *SessionService) List(ctx context.Context, actor Actor, params SessionListParams, offset, limit uint64) ([]*models.Session, int64, error) {
	filter := repositories.SessionFilter{Active: params.Active, Offset: offset, Limit: limit}
	if !actor.IsAdmin() {
		teacher, err := s.teachers.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrTeacherNotFound) {
				return nil, 0, apperrors.ErrPermissionDenied
			}
			return nil, 0, err
		}
		filter.TeacherID = &teacher.ID
	}
	return s.sessions.List(ctx, filter)
}

// Attendance returns who is present and who is absent in a session
func (s *SessionService) Attendance(ctx context.Context, actor Actor, sessionUUID uuid.UUID) (*dto.SessionAttendanceResponse, error) {
	session, err := s.loadOwned(ctx, actor, sessionUUID)
	if err != nil {
		return nil, err
	}

	records, err := s.attendance.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	roster, err := s.students.ListByBatch(ctx, session.BatchID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SessionAttendanceResponse{
		Session: session,
		Count:   len(records),
		Present: make([]dto.AttendanceEntry, 0, len(records)),
		Absent:  []dto.AttendanceEntry{},
	}

	marked := make(map[int64]struct{}, len(records))
	for _, rec := range records {
		markedAt := rec.CreatedAt
		marked[rec.StudentID] = struct{}{}
		resp.Present = append(resp.Present, dto.AttendanceEntry{
			RecordID:    rec.ID,
			StudentID:   rec.StudentID,
			StudentName: rec.StudentName,
			RollNumber:  rec.RollNumber,
			MarkedAt:    &markedAt,
		})
	}
	for _, st := range roster {
		if _, ok := marked[st.ID]; ok {
			continue
		}
		entry := dto.AttendanceEntry{StudentID: st.ID, RollNumber: st.RollNumber}
		if st.User != nil {
			entry.StudentName = st.User.FullName()
		}
		resp.Absent = append(resp.Absent, entry)
	}
	return resp, nil
}
