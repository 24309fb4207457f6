package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "tavolo-test"
  environment: "test"
database:
  path: "data/test.db"
redis:
  address: "localhost:6379"
api:
  enabled: true
  http:
    port: 9000
booking:
  max_advance_days: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tavolo-test", cfg.App.Name)
	assert.Equal(t, "data/test.db", cfg.Database.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, 9000, cfg.API.HTTP.Port)
	assert.Equal(t, 60, cfg.Booking.MaxAdvanceDays)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "data/test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tavolo", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, float64(10), cfg.API.RateLimit.RPS)
	assert.Equal(t, 20, cfg.API.RateLimit.Burst)
	assert.Equal(t, 365, cfg.Booking.MaxAdvanceDays)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "data/env.db")

	path := writeConfig(t, `
database:
  path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/env.db", cfg.Database.Path)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("missing database path", func(t *testing.T) {
		cfg := &Config{}
		assert.Error(t, cfg.Validate())
	})

	t.Run("api keys", func(t *testing.T) {
		base := func() *Config {
			return &Config{
				Database: DatabaseConfig{Path: "data/test.db"},
				API: APIConfig{
					Auth: APIAuthConfig{
						Enabled: true,
						APIKeys: []APIClientKey{
							{Key: "key-1", Name: "mobile", ActorID: "cust-1", Role: "customer"},
							{Key: "key-2", Name: "dashboard", ActorID: "rest-1", Role: "restaurant_owner"},
						},
					},
				},
			}
		}

		assert.NoError(t, base().Validate())

		cfg := base()
		cfg.API.Auth.APIKeys[1].Key = "key-1"
		assert.Error(t, cfg.Validate(), "duplicate keys rejected")

		cfg = base()
		cfg.API.Auth.APIKeys[0].Key = ""
		assert.Error(t, cfg.Validate(), "empty key rejected")

		cfg = base()
		cfg.API.Auth.APIKeys[0].Role = "admin"
		assert.Error(t, cfg.Validate(), "unknown role rejected")
	})
}
