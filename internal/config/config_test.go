package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
jwt:
  secret: "access-secret"
attendance:
  token_secret: "qr-secret"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "attendance", cfg.Database.DBName)
	assert.Equal(t, 20*time.Second, cfg.AttendanceTokenMaxAge())
	assert.Equal(t, 2*time.Second, cfg.AttendanceRotationInterval())
	assert.Equal(t, 10, cfg.RateLimit.RedeemPer10Sec)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: "access-secret"
attendance:
  token_secret: "qr-secret"
`)
	t.Setenv("ATTENDANCE_TOKEN_MAX_AGE", "30s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.AttendanceTokenMaxAge())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadConfigMissingFileUsesEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("ATTENDANCE_TOKEN_SECRET", "qr-secret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing jwt secret",
			body: "attendance:\n  token_secret: qr\n",
		},
		{
			name: "missing attendance secret",
			body: "jwt:\n  secret: access\n",
		},
		{
			name: "shared secret",
			body: "jwt:\n  secret: same\nattendance:\n  token_secret: same\n",
		},
		{
			name: "window narrower than rotation",
			body: "jwt:\n  secret: a\nattendance:\n  token_secret: b\n  token_max_age: 1s\n  rotation_interval: 2s\n",
		},
		{
			name: "unknown storage driver",
			body: "jwt:\n  secret: a\nattendance:\n  token_secret: b\nstorage:\n  driver: ftp\n",
		},
		{
			name: "s3 without endpoint",
			body: "jwt:\n  secret: a\nattendance:\n  token_secret: b\nstorage:\n  driver: s3\n",
		},
		{
			name: "unknown database timezone",
			body: "database:\n  timezone: Mars/Olympus\njwt:\n  secret: a\nattendance:\n  token_secret: b\n",
		},
		{
			name: "bad duration",
			body: "jwt:\n  secret: a\nattendance:\n  token_secret: b\n  token_max_age: soon\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseLocation(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "database:\n  timezone: UTC\njwt:\n  secret: a\nattendance:\n  token_secret: b\n"))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cfg.DatabaseLocation())

	cfg.Database.Timezone = ""
	assert.Equal(t, time.Local, cfg.DatabaseLocation())
}

func TestSetFieldFromEnvRejectsBadInt(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: a\nattendance:\n  token_secret: b\n")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigS3Storage(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: a
attendance:
  token_secret: b
storage:
  driver: s3
  s3:
    endpoint: minio:9000
    bucket: syllabi
`)
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "minio:9000", cfg.Storage.S3.Endpoint)
	assert.Equal(t, "syllabi", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UseSSL)
}
