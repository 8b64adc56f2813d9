package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/studybot/internal/config"
	"github.com/alexanderramin/studybot/internal/notify"
	"github.com/alexanderramin/studybot/internal/testutil"
)

func TestConfigPath(t *testing.T) {
	assert.Equal(t, config.DefaultPath(), configPath(nil))
	assert.Equal(t, "/tmp/a.yaml", configPath([]string{"view", "--config", "/tmp/a.yaml"}))
	assert.Equal(t, "/tmp/b.yaml", configPath([]string{"--config=/tmp/b.yaml", "remind", "--hours", "2"}))
	assert.Equal(t, config.DefaultPath(), configPath([]string{"delete", "--all", "-y"}))
}

func TestBuildNotifier(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notifier.Kinds = []string{config.NotifierLog, config.NotifierRedis}
	shell := &notify.Relay{}

	n, err := buildNotifier(context.Background(), cfg, testutil.QuietLogger(), shell)
	require.NoError(t, err)

	targets, ok := n.(notify.Multi)
	require.True(t, ok)
	require.Len(t, targets, 3)
	assert.Same(t, shell, targets[0])
	assert.IsType(t, &notify.LogNotifier{}, targets[1])
	redis, ok := targets[2].(*notify.RedisNotifier)
	require.True(t, ok)
	assert.Equal(t, "studybot:reminders", redis.Channel())
	assert.Same(t, redis, notify.FindHistory(n))
}

func TestBuildNotifier_LogOnlyHasNoHistory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notifier.Kinds = []string{config.NotifierLog}

	n, err := buildNotifier(context.Background(), cfg, testutil.QuietLogger(), &notify.Relay{})
	require.NoError(t, err)
	assert.Nil(t, notify.FindHistory(n))
}

func TestBuildNotifier_SNSNeedsTopic(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notifier.Kinds = []string{config.NotifierSNS}

	_, err := buildNotifier(context.Background(), cfg, testutil.QuietLogger(), &notify.Relay{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic ARN is empty")
}
