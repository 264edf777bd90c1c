package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/repositories"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/filestorage"
)

const (
	syllabusDir         = "syllabi"
	maxSyllabusFileSize = 20 << 20
)

var allowedSyllabusExt = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true, ".txt": true,
}

// SyllabusService stores one syllabus document per subject and batch
type SyllabusService struct {
	syllabi  SyllabusStore
	subjects SubjectStore
	teachers TeacherStore
	students StudentStore
	storage  filestorage.Storage
	logger   zerolog.Logger
}

// NewSyllabusService creates a new SyllabusService
func NewSyllabusService(
	syllabi SyllabusStore,
	subjects SubjectStore,
	teachers TeacherStore,
	students StudentStore,
	storage filestorage.Storage,
	logger zerolog.Logger,
) *SyllabusService {
	return &SyllabusService{
		syllabi:  syllabi,
		subjects: subjects,
		teachers: teachers,
		students: students,
		storage:  storage,
		logger:   logger,
	}
}

// Upload saves the file and replaces any earlier syllabus of the same
// subject and batch
func (s *SyllabusService) Upload(ctx context.Context, actor Actor, req *dto.UploadSyllabusRequest, file *multipart.FileHeader) (*models.Syllabus, error) {
	if file == nil {
		return nil, apperrors.NewBadRequestError(filestorage.ErrEmptyFile.Error())
	}
	if file.Size > maxSyllabusFileSize {
		return nil, apperrors.NewBadRequestError("file exceeds the 20MB limit")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedSyllabusExt[ext] {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("file type %q is not allowed", ext))
	}

	subject, err := s.subjects.GetByID(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if subject.BatchID != req.BatchID {
		return nil, apperrors.ErrSubjectBatchMismatch
	}

	stored, err := s.storage.Save(file, syllabusDir)
	if err != nil {
		if errors.Is(err, filestorage.ErrEmptyFile) {
			return nil, apperrors.NewBadRequestError(err.Error())
		}
		return nil, fmt.Errorf("error storing syllabus file: %w", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = subject.Name
	}
	uploader := actor.UserID
	syllabus := &models.Syllabus{
		SubjectID:  subject.ID,
		BatchID:    subject.BatchID,
		Title:      title,
		FilePath:   stored.Path,
		FileName:   stored.Filename,
		UploadedBy: &uploader,
	}

	previous, err := s.syllabi.Upsert(ctx, syllabus)
	if err != nil {
		if delErr := s.storage.Delete(stored.Path); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", stored.Path).Msg("Could not remove orphaned syllabus file")
		}
		return nil, err
	}
	if previous != "" {
		if err := s.storage.Delete(previous); err != nil {
			s.logger.Warn().Err(err).Str("path", previous).Msg("Could not remove replaced syllabus file")
		}
	}

	syllabus.SubjectName = subject.Name
	syllabus.SubjectCode = subject.Code
	syllabus.BatchName = subject.BatchName
	syllabus.FileURL = s.storage.URLFor(syllabus.FilePath)
	return syllabus, nil
}

// Delete removes a syllabus and its file
func (s *SyllabusService) Delete(ctx context.Context, id int64) error {
	syllabus, err := s.syllabi.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.syllabi.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Delete(syllabus.FilePath); err != nil {
		s.logger.Warn().Err(err).Str("path", syllabus.FilePath).Msg("Could not remove syllabus file")
	}
	return nil
}

// List returns the syllabi visible to the actor
func (s *SyllabusService) List(ctx context.Context, actor Actor, batchID *int64) ([]*models.Syllabus, error) {
	filter := repositories.SyllabusFilter{}
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
			return []*models.Syllabus{}, nil
		}
		filter.BatchID = student.BatchID
	default:
		return nil, apperrors.ErrPermissionDenied
	}

	list, err := s.syllabi.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, sy := range list {
		sy.FileURL = s.storage.URLFor(sy.FilePath)
	}
	return list, nil
}
