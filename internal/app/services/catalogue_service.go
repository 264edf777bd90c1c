package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/repositories"
	"github.com/yigit/attendance/internal/pkg/apperrors"
)

func subjectFilterForTeacher(teacherID int64) repositories.SubjectFilter {
	return repositories.SubjectFilter{TeacherID: &teacherID}
}

// CatalogueService manages batches and subjects
type CatalogueService struct {
	batches  BatchStore
	subjects SubjectStore
	teachers TeacherStore
	logger   zerolog.Logger
}

// NewCatalogueService creates a new CatalogueService
func NewCatalogueService(batches BatchStore, subjects SubjectStore, teachers TeacherStore, logger zerolog.Logger) *CatalogueService {
	return &CatalogueService{
		batches:  batches,
		subjects: subjects,
		teachers: teachers,
		logger:   logger,
	}
}

// CreateBatch adds a batch
func (s *CatalogueService) CreateBatch(ctx context.Context, req *dto.BatchRequest) (*models.Batch, error) {
	batch := &models.Batch{Name: strings.TrimSpace(req.Name), Year: req.Year}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// UpdateBatch renames a batch
func (s *CatalogueService) UpdateBatch(ctx context.Context, id int64, req *dto.BatchRequest) (*models.Batch, error) {
	batch := &models.Batch{ID: id, Name: strings.TrimSpace(req.Name), Year: req.Year}
	if err := s.batches.Update(ctx, batch); err != nil {
		return nil, err
	}
	return s.batches.GetByID(ctx, id)
}

func (s *CatalogueService) GetBatch(ctx context.Context, id int64) (*models.Batch, error) {
	return s.batches.GetByID(ctx, id)
}

func (s *CatalogueService) ListBatches(ctx context.Context) ([]*models.Batch, error) {
	return s.batches.List(ctx)
}

// DeleteBatch removes a batch with its subjects; students keep their
// accounts with no batch
func (s *CatalogueService) DeleteBatch(ctx context.Context, id int64) error {
	if err := s.batches.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("batchID", id).Msg("Batch deleted")
	return nil
}

// CreateSubject adds a subject to a batch
func (s *CatalogueService) CreateSubject(ctx context.Context, req *dto.SubjectRequest) (*models.Subject, error) {
	if _, err := s.batches.GetByID(ctx, req.BatchID); err != nil {
		return nil, err
	}
	subject := &models.Subject{
		Name:    strings.TrimSpace(req.Name),
		Code:    strings.ToUpper(strings.TrimSpace(req.Code)),
		BatchID: req.BatchID,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, err
	}
	return s.subjects.GetByID(ctx, subject.ID)
}

// UpdateSubject edits a subject
func (s *CatalogueService) UpdateSubject(ctx context.Context, id int64, req *dto.SubjectRequest) (*models.Subject, error) {
	subject := &models.Subject{
		ID:      id,
		Name:    strings.TrimSpace(req.Name),
		Code:    strings.ToUpper(strings.TrimSpace(req.Code)),
		BatchID: req.BatchID,
	}
	if err := s.subjects.Update(ctx, subject); err != nil {
		return nil, err
	}
	return s.subjects.GetByID(ctx, id)
}

func (s *CatalogueService) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	return s.subjects.GetByID(ctx, id)
}

func (s *CatalogueService) DeleteSubject(ctx context.Context, id int64) error {
	return s.subjects.Delete(ctx, id)
}

// ListSubjects lists subjects. Teachers only see the subjects they teach.
func (s *CatalogueService) ListSubjects(ctx context.Context, actor Actor, batchID *int64) ([]*models.Subject, error) {
	filter := repositories.SubjectFilter{BatchID: batchID}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTeacher:
		teacher, err := s.teachers.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		filter.TeacherID = &teacher.ID
	default:
		return nil, apperrors.ErrPermissionDenied
	}
	return s.subjects.List(ctx, filter)
}
