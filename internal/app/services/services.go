package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/repositories"
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID int64
	Role   models.RoleType
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// Storage contracts used by the services. The repositories package provides
// the PostgreSQL implementations.

type UserStore interface {
	CreateStudent(ctx context.Context, user *models.User, student *models.Student) error
	CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) error
	CreateAdmin(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params repositories.UserListParams) ([]*models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context, role models.RoleType) (int64, error)
}

type StudentStore interface {
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Student, error)
	ListByBatch(ctx context.Context, batchID int64) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

type TeacherStore interface {
	GetByID(ctx context.Context, id int64) (*models.Teacher, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Teacher, error)
	List(ctx context.Context) ([]*models.Teacher, error)
	SetSubjects(ctx context.Context, teacherID int64, subjectIDs []int64) error
	TeachesSubject(ctx context.Context, teacherID, subjectID int64) (bool, error)
}

type TokenStore interface {
	Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetByValue(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type BatchStore interface {
	Create(ctx context.Context, batch *models.Batch) error
	GetByID(ctx context.Context, id int64) (*models.Batch, error)
	List(ctx context.Context) ([]*models.Batch, error)
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id int64) error
}

type SubjectStore interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id int64) (*models.Subject, error)
	List(ctx context.Context, filter repositories.SubjectFilter) ([]*models.Subject, error)
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	End(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter repositories.SessionFilter) ([]*models.Session, int64, error)
	Count(ctx context.Context, filter repositories.SessionFilter) (int64, error)
	TeacherStats(ctx context.Context, teacherID int64) (repositories.TeacherSessionStats, error)
}

type AttendanceStore interface {
	Insert(ctx context.Context, rec *models.AttendanceRecord) error
	Get(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error)
	Delete(ctx context.Context, sessionID, studentID int64) error
	DeleteByID(ctx context.Context, id int64) error
	ListBySession(ctx context.Context, sessionID int64) ([]*models.AttendanceRecord, error)
	ListDetails(ctx context.Context, filter repositories.RecordFilter) ([]*models.RecordDetails, int64, error)
	CountByDay(ctx context.Context, filter repositories.RecordFilter) (map[string]int64, error)
	Count(ctx context.Context, filter repositories.RecordFilter) (int64, error)
	StudentCompletedCount(ctx context.Context, studentID, batchID int64) (int64, error)
	AttendedDays(ctx context.Context, studentID int64) ([]string, error)
}

type TimetableStore interface {
	Create(ctx context.Context, slot *models.TimetableSlot) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter repositories.TimetableFilter) ([]*models.TimetableSlot, error)
}

type SyllabusStore interface {
	Upsert(ctx context.Context, s *models.Syllabus) (string, error)
	GetByID(ctx context.Context, id int64) (*models.Syllabus, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter repositories.SyllabusFilter) ([]*models.Syllabus, error)
}

type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, offset, limit uint64) ([]*models.AuditLog, int64, error)
}

// audit appends an entry; a failure is logged and never fails the caller
func audit(ctx context.Context, store AuditStore, log zerolog.Logger, action string, userID int64, format string, args ...any) {
	if store == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Details: fmt.Sprintf(format, args...)}
	if userID > 0 {
		entry.UserID = &userID
	}
	if err := store.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to write audit log")
	}
}
