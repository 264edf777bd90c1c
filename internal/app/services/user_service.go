package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/app/repositories"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/auth"
)

// UserListParams filters the admin user listing
type UserListParams struct {
	Role   *models.RoleType
	Search string
}

// UserService lets admins manage teachers and students
type UserService struct {
	users    UserStore
	students StudentStore
	teachers TeacherStore
	subjects SubjectStore
	batches  BatchStore
	tokens   TokenStore
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	users UserStore,
	students StudentStore,
	teachers TeacherStore,
	subjects SubjectStore,
	batches BatchStore,
	tokens TokenStore,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		students: students,
		teachers: teachers,
		subjects: subjects,
		batches:  batches,
		tokens:   tokens,
		logger:   logger,
	}
}

// Create adds a teacher or a student
func (s *UserService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		RoleType:  req.RoleType,
		IsActive:  true,
	}

	switch req.RoleType {
	case models.RoleStudent:
		if req.BatchID != nil {
			if _, err := s.batches.GetByID(ctx, *req.BatchID); err != nil {
				return nil, err
			}
		}
		student := &models.Student{RollNumber: strings.TrimSpace(req.RollNumber), BatchID: req.BatchID}
		if err := s.users.CreateStudent(ctx, user, student); err != nil {
			return nil, err
		}
	case models.RoleTeacher:
		if err := s.users.CreateTeacher(ctx, user, &models.Teacher{}); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.NewBadRequestError("role must be TEACHER or STUDENT")
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.RoleType)).Msg("User created")
	return buildUserResponse(ctx, s.students, s.teachers, s.subjects, user)
}

// Get returns a user with its profile
func (s *UserService) Get(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildUserResponse(ctx, s.students, s.teachers, s.subjects, user)
}

// List returns one page of users
func (s *UserService) List(ctx context.Context, params UserListParams, offset, limit uint64) ([]*models.User, int64, error) {
	return s.users.List(ctx, repositories.UserListParams{
		Role:   params.Role,
		Search: strings.TrimSpace(params.Search),
		Offset: offset,
		Limit:  limit,
	})
}

// Update changes identity fields and, for students, roll number and batch.
// Deactivating a user revokes its refresh tokens.
func (s *UserService) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasActive := user.IsActive
	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if user.RoleType == models.RoleStudent && (req.RollNumber != nil || req.BatchID != nil) {
		student, err := s.students.GetByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if req.RollNumber != nil {
			student.RollNumber = strings.TrimSpace(*req.RollNumber)
		}
		if req.BatchID != nil {
			student.BatchID = req.BatchID
		}
		if err := s.students.Update(ctx, student); err != nil {
			return nil, err
		}
	}

	if wasActive && !user.IsActive {
		if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not revoke tokens of deactivated user")
		}
	}
	return buildUserResponse(ctx, s.students, s.teachers, s.subjects, user)
}

// UpdateProfile lets any user change its own name and email
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return buildUserResponse(ctx, s.students, s.teachers, s.subjects, user)
}

// Delete removes a user. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor Actor, id int64) error {
	if actor.UserID == id {
		return apperrors.NewBadRequestError("You cannot delete your own account")
	}
	return s.users.Delete(ctx, id)
}

// AssignSubjects replaces the subjects a teacher teaches
func (s *UserService) AssignSubjects(ctx context.Context, userID int64, subjectIDs []int64) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.RoleType != models.RoleTeacher {
		return nil, apperrors.NewBadRequestError("Subjects can only be assigned to teachers")
	}

	teacher, err := s.teachers.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range subjectIDs {
		if _, err := s.subjects.GetByID(ctx, id); err != nil {
			if errors.Is(err, apperrors.ErrSubjectNotFound) {
				return nil, apperrors.NewCustomError(apperrors.ErrSubjectNotFound, "Subject does not exist").
					WithDetails(map[string]interface{}{"subjectId": id})
			}
			return nil, err
		}
	}
	if err := s.teachers.SetSubjects(ctx, teacher.ID, subjectIDs); err != nil {
		return nil, err
	}
	return buildUserResponse(ctx, s.students, s.teachers, s.subjects, user)
}

// ListTeachers returns every teacher with its subjects
func (s *UserService) ListTeachers(ctx context.Context) ([]*models.Teacher, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teachers {
		list, err := s.subjects.List(ctx, subjectFilterForTeacher(t.ID))
		if err != nil {
			return nil, err
		}
		t.Subjects = list
	}
	return teachers, nil
}

// ListStudents returns the students of a batch
func (s *UserService) ListStudents(ctx context.Context, batchID int64) ([]*models.Student, error) {
	if _, err := s.batches.GetByID(ctx, batchID); err != nil {
		return nil, err
	}
	return s.students.ListByBatch(ctx, batchID)
}
