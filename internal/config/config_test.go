package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyEnvFile(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	t.Setenv("ENV_FILE", path)
}

func TestLoadWithDefaults(t *testing.T) {
	emptyEnvFile(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "s3", cfg.StorageDriver)
	assert.Equal(t, "auto", cfg.R2.Region)
	assert.Equal(t, 15*time.Minute, cfg.PresignTTL)
	assert.Equal(t, int64(100<<20), cfg.MaxUploadSize)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 6, cfg.AccessCodeLength)
	assert.Equal(t, time.Hour, cfg.JanitorInterval)
	assert.Equal(t, "http://localhost:5173", cfg.PublicBaseURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CorsConfig.AllowedOrigins)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := `PUBLIC_BASE_URL=https://share.example.com/
STORAGE_DRIVER=minio
MINIO_USE_SSL=true
PRESIGN_TTL=5m
BCRYPT_COST=10
CORS_ORIGINS=https://a.example.com, https://b.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("ENV_FILE", path)
	// godotenv never overrides variables that are already set; make sure the
	// keys under test start unset and are cleaned up afterwards.
	for _, key := range []string{"PUBLIC_BASE_URL", "STORAGE_DRIVER", "MINIO_USE_SSL", "PRESIGN_TTL", "BCRYPT_COST", "CORS_ORIGINS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://share.example.com", cfg.PublicBaseURL)
	assert.Equal(t, "minio", cfg.StorageDriver)
	assert.True(t, cfg.Minio.UseSSL)
	assert.Equal(t, 5*time.Minute, cfg.PresignTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CorsConfig.AllowedOrigins)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"presign ttl too long", "PRESIGN_TTL", "2h"},
		{"bcrypt cost too low", "BCRYPT_COST", "2"},
		{"access code too short", "ACCESS_CODE_LENGTH", "3"},
		{"unknown storage driver", "STORAGE_DRIVER", "ftp"},
		{"unknown db driver", "DB_DRIVER", "mysql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emptyEnvFile(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestProductionRequiresJWTSecret(t *testing.T) {
	emptyEnvFile(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
