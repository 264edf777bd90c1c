package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/attendance/internal/app/models"
	"github.com/yigit/attendance/internal/pkg/apperrors"
	"github.com/yigit/attendance/internal/pkg/auth"
)

type fakeAdmins struct {
	admins  int64
	created []*models.User
	err     error
}

func (f *fakeAdmins) CountByRole(_ context.Context, role models.RoleType) (int64, error) {
	if role != models.RoleAdmin {
		return 0, nil
	}
	return f.admins, nil
}

func (f *fakeAdmins) CreateAdmin(_ context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	user.ID = int64(len(f.created) + 1)
	f.created = append(f.created, user)
	return nil
}

func TestCreateDefaultAdmin(t *testing.T) {
	store := &fakeAdmins{}
	require.NoError(t, CreateDefaultAdmin(context.Background(), store, " Admin@School.edu ", "change-me-now", zerolog.Nop()))

	require.Len(t, store.created, 1)
	admin := store.created[0]
	assert.Equal(t, "admin@school.edu", admin.Email)
	assert.Equal(t, models.RoleAdmin, admin.RoleType)
	assert.True(t, admin.IsActive)
	assert.True(t, auth.CheckPassword(admin.Password, "change-me-now"))
}

func TestCreateDefaultAdminSkips(t *testing.T) {
	existing := &fakeAdmins{admins: 1}
	require.NoError(t, CreateDefaultAdmin(context.Background(), existing, "admin@school.edu", "pw", zerolog.Nop()))
	assert.Empty(t, existing.created)

	disabled := &fakeAdmins{}
	require.NoError(t, CreateDefaultAdmin(context.Background(), disabled, "", "", zerolog.Nop()))
	assert.Empty(t, disabled.created)

	taken := &fakeAdmins{err: apperrors.ErrEmailAlreadyExists}
	assert.NoError(t, CreateDefaultAdmin(context.Background(), taken, "admin@school.edu", "pw", zerolog.Nop()))
}
