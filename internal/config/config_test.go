package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoad_Defaults(t *testing.T) {
	cfg, err := MustLoad()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.RateLimit.UploadLimit)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.UploadWindow)
	assert.Equal(t, "verification", cfg.Minio.Bucket)
	assert.Equal(t, "verification-thumbnails", cfg.Kafka.ThumbnailsTopic)
}

func TestMustLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", "8080")
	t.Setenv("RATE_LIMIT_UPLOADS", "10")
	t.Setenv("DB_NAME", "layrr")

	cfg, err := MustLoad()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.RateLimit.UploadLimit)
	assert.Equal(t, "layrr", cfg.DB.Name)
}

func TestMissingRequired(t *testing.T) {
	cfg := &Config{}
	assert.ElementsMatch(t, []string{"MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "AUTH_JWT_SECRET"}, cfg.MissingRequired())

	cfg.Minio.AccessKey = "key"
	cfg.Minio.SecretKey = "secret"
	cfg.Auth.JWTSecret = "jwt"
	assert.Empty(t, cfg.MissingRequired())
}

func TestDBDSN(t *testing.T) {
	cfg := &Config{}
	cfg.DB.User = "app"
	cfg.DB.Password = "pw"
	cfg.DB.Host = "db.internal"
	cfg.DB.Port = 5432
	cfg.DB.Name = "verification"
	cfg.DB.SSLMode = "require"

	assert.Equal(t, "postgres://app:pw@db.internal:5432/verification?sslmode=require", cfg.DBDSN())
}
