package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.DeviceSessionTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 12, cfg.GeneratedPasswordN)
	assert.Contains(t, cfg.DSN(), "dbname=sekolah")
}

func TestFromEnv_JWTSecretRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRATION", "15m")
	t.Setenv("JWT_REFRESH_EXPIRATION_DAYS", "14")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
	assert.Equal(t, "memory", cfg.StoreDriver)
}

func TestFromEnv_ExpirationInSeconds(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRATION", "900")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Run("store driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "supabase")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("bcrypt cost", func(t *testing.T) {
		t.Setenv("BCRYPT_COST", "4")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("port number", func(t *testing.T) {
		t.Setenv("POSTGRES_PORT", "abc")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}

func TestCORSOrigins_SplitsList(t *testing.T) {
	cfg := Config{CORSOrigin: "http://a.test, http://b.test,,"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}
