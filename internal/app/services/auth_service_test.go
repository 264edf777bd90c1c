package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/auth"
)

func newAuthService(db *memDB) *AuthService {
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "access-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "attendance-test",
	})
	return NewAuthService(memUsers{db}, memStudents{db}, memTeachers{db}, memSubjects{db}, memBatches{db},
		memTokens{db}, jwtService, testLogger)
}

func registerRequest(batchID int64) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Email:      "Ada@School.edu ",
		Password:   "correct-horse-1",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		RollNumber: "CSE-001",
		BatchID:    batchID,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := newMemDB()
	svc := newAuthService(db)
	ctx := context.Background()
	batch := db.addBatch("CSE A")

	resp, err := svc.Register(ctx, registerRequest(batch.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Equal(t, "ada@school.edu", resp.User.Email)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	require.NotNil(t, resp.User.Student)
	assert.Equal(t, "CSE-001", resp.User.Student.RollNumber)

	_, err = svc.Register(ctx, registerRequest(batch.ID))
	assert.ErrorIs(t, err, apperrors.ErrRollNumberExists)

	dup := registerRequest(batch.ID)
	dup.RollNumber = "CSE-002"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = svc.Register(ctx, registerRequest(9999))
	assert.ErrorIs(t, err, apperrors.ErrBatchNotFound)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "ADA@school.edu", Password: "correct-horse-1"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@school.edu", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@school.edu", Password: "x"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	db := newMemDB()
	svc := newAuthService(db)
	ctx := context.Background()
	batch := db.addBatch("CSE A")

	resp, err := svc.Register(ctx, registerRequest(batch.ID))
	require.NoError(t, err)
	db.users[resp.User.ID].IsActive = false

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@school.edu", Password: "correct-horse-1"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestRefreshRotatesToken(t *testing.T) {
	db := newMemDB()
	svc := newAuthService(db)
	ctx := context.Background()
	batch := db.addBatch("CSE A")

	resp, err := svc.Register(ctx, registerRequest(batch.ID))
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, resp.Token.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Token.RefreshToken, refreshed.RefreshToken)

	_, err = svc.Refresh(ctx, resp.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = svc.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.Refresh(ctx, refreshed.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestLogout(t *testing.T) {
	db := newMemDB()
	svc := newAuthService(db)
	ctx := context.Background()
	batch := db.addBatch("CSE A")

	resp, err := svc.Register(ctx, registerRequest(batch.ID))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.Token.RefreshToken))
	require.NoError(t, svc.Logout(ctx, "never-issued"))

	_, err = svc.Refresh(ctx, resp.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestMeIncludesTeacherSubjects(t *testing.T) {
	db := newMemDB()
	svc := newAuthService(db)
	batch := db.addBatch("CSE A")
	subject := db.addSubject("CS301", batch.ID)
	teacher := db.addTeacher("Grace", subject.ID)

	me, err := svc.Me(context.Background(), teacher.UserID)
	require.NoError(t, err)
	require.NotNil(t, me.Teacher)
	require.Len(t, me.Teacher.Subjects, 1)
	assert.Equal(t, "CS301", me.Teacher.Subjects[0].Code)
	assert.Nil(t, me.Student)
}
