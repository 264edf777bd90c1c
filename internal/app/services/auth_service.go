package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/auth"
)

// AuthService handles registration, login and token rotation
type AuthService struct {
	users      UserStore
	students   StudentStore
	teachers   TeacherStore
	subjects   SubjectStore
	batches    BatchStore
	tokens     TokenStore
	jwtService *auth.JWTService
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserStore,
	students StudentStore,
	teachers TeacherStore,
	subjects SubjectStore,
	batches BatchStore,
	tokens TokenStore,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		students:   students,
		teachers:   teachers,
		subjects:   subjects,
		batches:    batches,
		tokens:     tokens,
		jwtService: jwtService,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a student account in an existing batch
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if _, err := s.batches.GetByID(ctx, req.BatchID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	batchID := req.BatchID
	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		RoleType:  models.RoleStudent,
		IsActive:  true,
	}
	student := &models.Student{RollNumber: strings.TrimSpace(req.RollNumber), BatchID: &batchID}

	if err := s.users.CreateStudent(ctx, user, student); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userID", user.ID).Str("rollNumber", student.RollNumber).Msg("Student registered")

	return s.authResponse(ctx, user)
}

// Login authenticates a user by email and password
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not record last login")
	}
	return s.authResponse(ctx, user)
}

// Refresh rotates a refresh token into a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	stored, err := s.tokens.GetByValue(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored.IsRevoked {
		return nil, apperrors.ErrTokenRevoked
	}
	if stored.ExpiresAt.Before(s.now()) {
		_ = s.tokens.Revoke(ctx, refreshToken)
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.Revoke(ctx, refreshToken)
	if errors.Is(err, apperrors.ErrTokenNotFound) {
		return nil
	}
	return err
}

// Me returns the caller with its role profile
func (s *AuthService) Me(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildUserResponse(ctx, s.students, s.teachers, s.subjects, user)
}

func (s *AuthService) authResponse(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	profile, err := buildUserResponse(ctx, s.students, s.teachers, s.subjects, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *tokens, User: profile}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokens.Create(ctx, pair.RefreshToken, user.ID, s.jwtService.RefreshTokenExpiry()); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(pair.ExpiresIn),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
	}, nil
}

// buildUserResponse loads the student or teacher profile that goes with user
func buildUserResponse(ctx context.Context, students StudentStore, teachers TeacherStore, subjects SubjectStore, user *models.User) (*dto.UserResponse, error) {
	switch user.RoleType {
	case models.RoleStudent:
		student, err := students.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, err
		}
		return dto.NewUserResponse(user, student, nil), nil
	case models.RoleTeacher:
		teacher, err := teachers.GetByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, apperrors.ErrTeacherNotFound) {
				return dto.NewUserResponse(user, nil, nil), nil
			}
			return nil, err
		}
		teacherID := teacher.ID
		list, err := subjects.List(ctx, subjectFilterForTeacher(teacherID))
		if err != nil {
			return nil, err
		}
		teacher.Subjects = list
		return dto.NewUserResponse(user, nil, teacher), nil
	}
	return dto.NewUserResponse(user, nil, nil), nil
}
