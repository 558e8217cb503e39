package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.Auth.JWTSecret = "config-test-secret-0123456789abcdef"
	cfg.Auth.TokenTTLMinutes = 30
	cfg.Database.Driver = "sqlite"
	return cfg
}

func TestLoad_ReadsSecretFromEnvironment(t *testing.T) {
	t.Setenv("POSTBOARD_AUTH_JWTSECRET", "env-secret-0123456789abcdefghijklmnop")
	t.Setenv("POSTBOARD_AUTH_TOKENTTLMINUTES", "5")
	t.Setenv("POSTBOARD_DATABASE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-secret-0123456789abcdefghijklmnop", cfg.Auth.JWTSecret)
	assert.Equal(t, 5, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"POSTBOARD_AUTH_JWTSECRET",
		"POSTBOARD_AUTH_TOKENTTLMINUTES",
		"POSTBOARD_AUTH_PASSWORDMINLENGTH",
		"POSTBOARD_AUTH_ISSUER",
		"POSTBOARD_DATABASE_DRIVER",
		"POSTBOARD_STORAGE_PRESIGNTTLMINUTES",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, 30, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, 8, cfg.Auth.PasswordMinLength)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "postboard", cfg.Auth.Issuer)
	assert.Equal(t, 15, cfg.Storage.PresignTTLMinutes)
	assert.Error(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "jwt secret"},
		{name: "blank secret", mutate: func(c *Config) { c.Auth.JWTSecret = "   \t" }, wantErr: "jwt secret"},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.TokenTTLMinutes = 0 }, wantErr: "ttl"},
		{name: "negative ttl", mutate: func(c *Config) { c.Auth.TokenTTLMinutes = -5 }, wantErr: "ttl"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: "unsupported database driver"},
		{name: "memory driver", mutate: func(c *Config) { c.Database.Driver = "memory" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("POSTBOARD_DOTENV_NEW", "")
	require.NoError(t, os.Unsetenv("POSTBOARD_DOTENV_NEW"))
	t.Setenv("POSTBOARD_DOTENV_SET", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nPOSTBOARD_DOTENV_NEW=\"from-file\"\nPOSTBOARD_DOTENV_SET=from-file\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loadDotEnv(path)

	assert.Equal(t, "from-file", os.Getenv("POSTBOARD_DOTENV_NEW"))
	assert.Equal(t, "from-env", os.Getenv("POSTBOARD_DOTENV_SET"))
}
