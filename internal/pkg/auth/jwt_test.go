package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/attendance/internal/app/models"
)

func newTestJWTService(now time.Time) *JWTService {
	s := NewJWTService(JWTConfig{
		SecretKey:       "access-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "attendance.test",
	})
	s.now = func() time.Time { return now }
	return s
}

func TestGenerateAndValidateToken(t *testing.T) {
	now := time.Now()
	s := newTestJWTService(now)

	pair, err := s.GenerateTokenPair(&models.User{ID: 7, Email: "t@school.edu", RoleType: models.RoleTeacher})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 3600, pair.ExpiresIn)

	claims, err := s.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, string(models.RoleTeacher), claims.RoleType)
}

func TestValidateTokenExpired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	pair, err := newTestJWTService(issued).GenerateTokenPair(&models.User{ID: 1, Email: "a@b.c", RoleType: models.RoleAdmin})
	require.NoError(t, err)

	_, err = newTestJWTService(time.Now()).ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	now := time.Now()
	pair, err := newTestJWTService(now).GenerateTokenPair(&models.User{ID: 1, Email: "a@b.c", RoleType: models.RoleAdmin})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "attendance.test"})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "bearer", header: "Bearer a.b.c", want: "a.b.c"},
		{name: "raw jwt", header: "a.b.c", want: "a.b.c"},
		{name: "empty", header: "", wantErr: true},
		{name: "bearer without token", header: "Bearer ", wantErr: true},
		{name: "garbage", header: "Basic xyz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
