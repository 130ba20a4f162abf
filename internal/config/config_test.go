package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "secret-token")

	path := writeConfig(t, `
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
database:
  path: "`+filepath.Join(t.TempDir(), "bot.db")+`"
booking:
  work_start: 9
  work_end: 21
  slot_duration_minutes: 45
admins:
  - 42
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Telegram.BotToken)
	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(43))

	start, end := cfg.WorkHours()
	assert.Equal(t, 9, start)
	assert.Equal(t, 21, end)
	assert.Equal(t, 45, cfg.SlotDuration())
}

func TestLoadDefaults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "bot.db")
	path := writeConfig(t, `
telegram:
  bot_token: "x"
database:
  path: "`+dbPath+`"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	start, end := cfg.WorkHours()
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)
	assert.Equal(t, 30, cfg.SlotDuration())
	assert.Equal(t, time.Hour, cfg.BookingMinAdvance())
	assert.Equal(t, 30*24*time.Hour, cfg.BookingMaxAdvance())
	assert.Equal(t, 24*time.Hour, cfg.ReminderLead())
	assert.Equal(t, 60*time.Second, cfg.CacheTTL())

	// Load creates the database directory.
	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
