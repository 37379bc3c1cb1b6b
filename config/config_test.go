package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `{
  "twitch": {
    "appId": " app ",
    "secret": "secret",
    "botId": "42",
    "broadcasterId": "7",
    "refreshToken": "refresh",
    "accessToken": "access"
  },
  "tmi": {
    "options": {"debug": true},
    "identity": {"username": "Icarus"},
    "channels": ["#Chan1", " chan2 ", ""]
  },
  "moderation": {"apiKey": "sk-test"}
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadParsesConfigFile(t *testing.T) {
	t.Setenv("ICARUS_POSTGRES_DSN", "")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Twitch.AppID)
	assert.Equal(t, "42", cfg.Twitch.BotID)
	assert.Equal(t, "refresh", cfg.Twitch.RefreshToken)
	assert.Equal(t, "access", cfg.Twitch.AccessToken)
	assert.Equal(t, "icarus", cfg.TMI.Identity.Username)
	assert.True(t, cfg.TMI.Options.Debug)
	assert.Equal(t, []string{"chan1", "chan2"}, cfg.TMI.Channels)

	assert.Equal(t, ProviderOpenAI, cfg.Moderation.Provider)
	assert.Equal(t, "gpt-4o", cfg.Moderation.Model)
	assert.Equal(t, 1024, cfg.Moderation.MaxLength)
	assert.Equal(t, "config/commands.json", cfg.CommandsFile)
	assert.False(t, cfg.Postgres.Enabled())

	assert.Equal(t, 100, cfg.Batch.MaxBatch)
	assert.Equal(t, 1500*time.Millisecond, cfg.Batch.FlushEvery)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("ICARUS_MODERATION_API_KEY", "from-env")
	t.Setenv("ICARUS_POSTGRES_DSN", "postgres://u:p@localhost:5432/db")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Moderation.APIKey)
	assert.True(t, cfg.Postgres.Enabled())
}

func TestLoadUsesProviderKeyEnv(t *testing.T) {
	t.Setenv("ICARUS_MODERATION_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	body := `{
  "twitch": {"appId": "a", "secret": "s", "botId": "1", "broadcasterId": "2", "refreshToken": "r"},
  "tmi": {"identity": {"username": "bot"}, "channels": ["c"]},
  "moderation": {"provider": "Gemini"}
}`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Moderation.Provider)
	assert.Equal(t, "gemini-key", cfg.Moderation.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Moderation.Model)
}

func TestLoadValidatesMissingFields(t *testing.T) {
	_, err := Load(writeConfig(t, `{"twitch": {"appId": "a"}}`))
	require.Error(t, err)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	body := `{
  "twitch": {"appId": "a", "secret": "s", "botId": "1", "broadcasterId": "2", "refreshToken": "r"},
  "tmi": {"identity": {"username": "bot"}, "channels": ["c"]},
  "moderation": {"provider": "mystery", "apiKey": "k"}
}`
	_, err := Load(writeConfig(t, body))
	require.ErrorContains(t, err, "mystery")
}

func TestLoadEnvFileMissingIsIgnored(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}
