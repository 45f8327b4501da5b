package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "agroledger",
			Password: "secret",
			Database: "agroledger",
			MaxConns: 10,
			MinConns: 2,
		},
		Security: SecurityConfig{
			BcryptCost:    12,
			JWTSigningKey: "test-signing-key",
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_USER", "agroledger")
	t.Setenv("DATABASE_DATABASE", "agroledger")
	t.Setenv("SECURITY_JWT_SIGNING_KEY", "env-signing-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, int32(2), cfg.Database.MinConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, 10*time.Minute, cfg.Database.MaxConnIdleTime)
	assert.Equal(t, 30*time.Second, cfg.Database.AcquireTimeout)
	assert.Equal(t, 60*time.Second, cfg.Database.LeakWarnThreshold)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, "env-signing-key", cfg.Security.JWTSigningKey)
}

func TestValidate_MissingDatabaseKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Database.User = ""
	cfg.Database.Database = ""

	err := cfg.Validate()
	require.Error(t, err)

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeConfigIncomplete, appErr.Code)
	assert.Contains(t, appErr.Message, "database.database")
	assert.Contains(t, appErr.Message, "database.user")
}

func TestValidate_URLOverridesFields(t *testing.T) {
	cfg := validConfig()
	cfg.Database.User = ""
	cfg.Database.Database = ""
	cfg.Database.URL = "postgres://u:p@db:5432/farm?sslmode=disable"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.Database.URL, cfg.Database.DSN())
}

func TestValidate_PoolSizing(t *testing.T) {
	cfg := validConfig()
	cfg.Database.MinConns = 20

	err := cfg.Validate()
	require.Error(t, err)
	appErr, _ := apperrors.IsAppError(err)
	assert.Equal(t, apperrors.CodeConfigIncomplete, appErr.Code)
}

func TestValidate_MissingSigningKey(t *testing.T) {
	cfg := validConfig()
	cfg.Security.JWTSigningKey = ""

	err := cfg.Validate()
	require.Error(t, err)
}

func TestDSN_Constructed(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "farm",
		Password: "pw",
		Database: "ledger",
	}
	assert.Equal(t, "postgres://farm:pw@db.internal:5433/ledger?sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://farm:pw@db.internal:5433/ledger?sslmode=require", cfg.DSN())
}
