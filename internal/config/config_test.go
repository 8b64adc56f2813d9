package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "data_dir: /srv/study\ntimezone: UTC\nnotifier:\n  kinds: [Redis, log, redis]\nlog:\n  format: JSON\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/study", cfg.DataDir)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, []string{NotifierRedis, NotifierLog}, cfg.Notifier.Kinds)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, defaultRedisChannel, cfg.Notifier.Redis.Channel)
	assert.Equal(t, 60, cfg.SessionMinutes)
	assert.Equal(t, "/srv/study/calendar.json", cfg.CalendarPath())
	assert.Equal(t, "/srv/study/contents.txt", cfg.ContentsPath())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_RejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unterminated"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, DefaultConfig()))

	t.Setenv("STUDYBOT_DATA_DIR", "/tmp/bot")
	t.Setenv("STUDYBOT_REMINDER_HOURS", "3")
	t.Setenv("STUDYBOT_NOTIFIERS", "sns,log")
	t.Setenv("STUDYBOT_SNS_TOPIC_ARN", "arn:aws:sns:ap-northeast-2:123456789012:study")
	t.Setenv("STUDYBOT_CHAT_DB", "/var/lib/chat.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bot", cfg.DataDir)
	assert.Equal(t, 3, cfg.ReminderHours)
	assert.Equal(t, []string{NotifierSNS, NotifierLog}, cfg.Notifier.Kinds)
	assert.Equal(t, "/var/lib/chat.db", cfg.ChatDBPath())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadEnvValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("STUDYBOT_SESSION_MINUTES", "ninety")

	_, err := Load(path)
	assert.ErrorContains(t, err, "environment overrides")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	cfg.DefaultStartTime = "teatime"
	cfg.Notifier.Kinds = []string{NotifierSNS, NotifierRedis, "pigeon"}
	cfg.Notifier.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"Mars/Olympus", "default_start_time", "sns_topic_arn", "redis.addr", `"pigeon"`} {
		assert.ErrorContains(t, err, want)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.SessionMinutes = 90
	cfg.Notifier.Kinds = []string{NotifierRedis}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, 90*60, int(got.SessionLength().Seconds()))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.WithField("component", "test").Info("hidden")
	logger.WithField("component", "test").Warn("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	_, err = NewLogger(LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}
