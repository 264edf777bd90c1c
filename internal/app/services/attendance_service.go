package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/metrics"
	"github.com/yigit/attendance/internal/pkg/qrtoken"
)

// AttendanceService redeems QR tokens and marks students manually
type AttendanceService struct {
	tokens     *qrtoken.Service
	sessions   SessionStore
	students   StudentStore
	teachers   TeacherStore
	attendance AttendanceStore
	audit      AuditStore
	metrics    *metrics.Registry
	logger     zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(
	tokens *qrtoken.Service,
	sessions SessionStore,
	students StudentStore,
	teachers TeacherStore,
	attendance AttendanceStore,
	auditStore AuditStore,
	metricsRegistry *metrics.Registry,
	logger zerolog.Logger,
) *AttendanceService {
	return &AttendanceService{
		tokens:     tokens,
		sessions:   sessions,
		students:   students,
		teachers:   teachers,
		attendance: attendance,
		audit:      auditStore,
		metrics:    metricsRegistry,
		logger:     logger,
	}
}

// Redeem verifies a scanned token and records the student present.
// Every verification failure is reported as an outcome; err is only set when
// storage fails or the caller has no student profile.
func (s *AttendanceService) Redeem(ctx context.Context, token string, studentUserID int64) (models.MarkResult, error) {
	result, err := s.redeem(ctx, token, studentUserID)
	if err == nil {
		s.metrics.ObserveRedemption(string(result.Outcome))
		s.logger.Info().
			Str("outcome", string(result.Outcome)).
			Str("sessionId", result.SessionUUID.String()).
			Int64("userID", studentUserID).
			Msg("QR redemption")
	}
	return result, err
}

func (s *AttendanceService) redeem(ctx context.Context, token string, studentUserID int64) (models.MarkResult, error) {
	sessionUUID, _, err := s.tokens.Verify(token)
	switch {
	case errors.Is(err, qrtoken.ErrInvalidSignature):
		return models.MarkResult{Outcome: models.OutcomeInvalidSignature}, nil
	case errors.Is(err, qrtoken.ErrInvalidPayload):
		return models.MarkResult{Outcome: models.OutcomeInvalidPayload}, nil
	case errors.Is(err, qrtoken.ErrExpired):
		return models.MarkResult{Outcome: models.OutcomeExpired, SessionUUID: sessionUUID}, nil
	case err != nil:
		return models.MarkResult{}, err
	}

	session, err := s.sessions.GetByUUID(ctx, sessionUUID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return models.MarkResult{Outcome: models.OutcomeNotFound, SessionUUID: sessionUUID}, nil
		}
		return models.MarkResult{}, fmt.Errorf("error loading session: %w", err)
	}
	if !session.IsActive {
		return models.MarkResult{Outcome: models.OutcomeSessionEnded, SessionUUID: sessionUUID}, nil
	}

	student, err := s.students.GetByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return models.MarkResult{}, apperrors.ErrStudentProfileRequired
		}
		return models.MarkResult{}, fmt.Errorf("error loading student: %w", err)
	}

	return s.record(ctx, session, student)
}

// record applies the membership check and inserts the record, turning a
// uniqueness conflict into already_marked
func (s *AttendanceService) record(ctx context.Context, session *models.Session, student *models.Student) (models.MarkResult, error) {
	result := models.MarkResult{SessionUUID: session.SessionUUID}

	if !student.InBatch(session.BatchID) {
		result.Outcome = models.OutcomeWrongBatch
		return result, nil
	}

	rec := &models.AttendanceRecord{
		SessionID: session.ID,
		StudentID: student.ID,
		Status:    models.StatusPresent,
	}
	err := s.attendance.Insert(ctx, rec)
	if err == nil {
		result.Outcome = models.OutcomeSuccess
		result.MarkedAt = &rec.CreatedAt
		return result, nil
	}
	if !errors.Is(err, apperrors.ErrAlreadyMarked) {
		return models.MarkResult{}, err
	}

	result.Outcome = models.OutcomeAlreadyMarked
	existing, err := s.attendance.Get(ctx, session.ID, student.ID)
	if err != nil {
		// The record may have been removed in between; the outcome stands.
		s.logger.Warn().Err(err).Int64("sessionID", session.ID).Int64("studentID", student.ID).
			Msg("Could not load existing attendance record")
		return result, nil
	}
	result.MarkedAt = &existing.CreatedAt
	return result, nil
}

// authorizeSession allows admins and the teacher who owns the session
func authorizeSession(ctx context.Context, teachers TeacherStore, actor Actor, session *models.Session) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != models.RoleTeacher {
		return apperrors.ErrPermissionDenied
	}
	teacher, err := teachers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTeacherNotFound) {
			return apperrors.ErrPermissionDenied
		}
		return err
	}
	if teacher.ID != session.TeacherID {
		return apperrors.NewForbiddenError("You do not own this session")
	}
	return nil
}

// MarkManually records a student present without a token. The session may
// already be ended.
func (s *AttendanceService) MarkManually(ctx context.Context, actor Actor, sessionUUID uuid.UUID, studentID int64) (models.MarkResult, error) {
	session, err := s.sessions.GetByUUID(ctx, sessionUUID)
	if err != nil {
		return models.MarkResult{}, err
	}
	if err := authorizeSession(ctx, s.teachers, actor, session); err != nil {
		return models.MarkResult{}, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return models.MarkResult{}, err
	}

	result, err := s.record(ctx, session, student)
	if err != nil {
		return result, err
	}
	s.metrics.ObserveManual("mark", string(result.Outcome))
	if result.Outcome == models.OutcomeSuccess {
		audit(ctx, s.audit, s.logger, models.AuditManualMark, actor.UserID,
			"session=%s student=%d", session.SessionUUID, student.ID)
	}
	return result, nil
}

// Unmark deletes a student's record from a session. A missing record is
// reported as not_found.
func (s *AttendanceService) Unmark(ctx context.Context, actor Actor, sessionUUID uuid.UUID, studentID int64) (models.MarkResult, error) {
	session, err := s.sessions.GetByUUID(ctx, sessionUUID)
	if err != nil {
		return models.MarkResult{}, err
	}
	if err := authorizeSession(ctx, s.teachers, actor, session); err != nil {
		return models.MarkResult{}, err
	}

	result := models.MarkResult{SessionUUID: session.SessionUUID, Outcome: models.OutcomeSuccess}
	if err := s.attendance.Delete(ctx, session.ID, studentID); err != nil {
		if !errors.Is(err, apperrors.ErrRecordNotFound) {
			return models.MarkResult{}, err
		}
		result.Outcome = models.OutcomeNotFound
	}

	s.metrics.ObserveManual("unmark", string(result.Outcome))
	if result.Outcome == models.OutcomeSuccess {
		audit(ctx, s.audit, s.logger, models.AuditManualUnmark, actor.UserID,
			"session=%s student=%d", session.SessionUUID, studentID)
	}
	return result, nil
}

// DeleteRecord removes any record by ID (admin only)
func (s *AttendanceService) DeleteRecord(ctx context.Context, actor Actor, recordID int64) error {
	if !actor.IsAdmin() {
		return apperrors.ErrPermissionDenied
	}
	if err := s.attendance.DeleteByID(ctx, recordID); err != nil {
		return err
	}
	audit(ctx, s.audit, s.logger, models.AuditRecordDeleted, actor.UserID, "record=%d", recordID)
	return nil
}
