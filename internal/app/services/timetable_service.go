package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/repositories"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/helpers"
)

// TimetableService manages weekly class slots
type TimetableService struct {
	slots    TimetableStore
	subjects SubjectStore
	teachers TeacherStore
	students StudentStore
	logger   zerolog.Logger
}

// NewTimetableService creates a new TimetableService
func NewTimetableService(slots TimetableStore, subjects SubjectStore, teachers TeacherStore, students StudentStore, logger zerolog.Logger) *TimetableService {
	return &TimetableService{
		slots:    slots,
		subjects: subjects,
		teachers: teachers,
		students: students,
		logger:   logger,
	}
}

// Create adds a slot after checking times and that the subject belongs to
// the batch
func (s *TimetableService) Create(ctx context.Context, req *dto.CreateTimetableSlotRequest) (*models.TimetableSlot, error) {
	start, err := helpers.ParseClock(req.StartTime)
	if err != nil {
		return nil, apperrors.NewBadRequestError("startTime must be HH:MM")
	}
	end, err := helpers.ParseClock(req.EndTime)
	if err != nil {
		return nil, apperrors.NewBadRequestError("endTime must be HH:MM")
	}
	if end <= start {
		return nil, apperrors.NewBadRequestError("endTime must be after startTime")
	}

	subject, err := s.subjects.GetByID(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if subject.BatchID != req.BatchID {
		return nil, apperrors.ErrSubjectBatchMismatch
	}
	if _, err := s.teachers.GetByID(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	slot := &models.TimetableSlot{
		DayOfWeek: *req.DayOfWeek,
		StartTime: start,
		EndTime:   end,
		SubjectID: req.SubjectID,
		BatchID:   req.BatchID,
		TeacherID: req.TeacherID,
		Room:      strings.TrimSpace(req.Room),
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	slot.DayName = models.DayNames[slot.DayOfWeek]
	slot.SubjectName = subject.Name
	slot.SubjectCode = subject.Code
	slot.BatchName = subject.BatchName
	return slot, nil
}

func (s *TimetableService) Delete(ctx context.Context, id int64) error {
	return s.slots.Delete(ctx, id)
}

// List returns the slots visible to the actor: admins see all (optionally one
// batch), teachers their own, students their batch's
func (s *TimetableService) List(ctx context.Context, actor Actor, batchID *int64, day *int) ([]*models.TimetableSlot, error) {
	if day != nil && (*day < 0 || *day >= len(models.DayNames)) {
		return nil, apperrors.NewBadRequestError("day must be between 0 (Monday) and 5 (Saturday)")
	}

	filter := repositories.TimetableFilter{DayOfWeek: day}
	switch actor.Role {
	case models.RoleAdmin:
		filter.BatchID = batchID
	case models.RoleTeacher:
		teacher, err := s.teachers.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		filter.TeacherID = &teacher.ID
	case models.RoleStudent:
		student, err := s.students.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if student.BatchID == nil {
			return []*models.TimetableSlot{}, nil
		}
		filter.BatchID = student.BatchID
	default:
		return nil, apperrors.ErrPermissionDenied
	}
	return s.slots.List(ctx, filter)
}
