// Package config loads the studybot YAML configuration and applies
// STUDYBOT_* environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/studybot/internal/planner"
)

// Notifier kinds.
const (
	NotifierLog   = "log"
	NotifierSNS   = "sns"
	NotifierRedis = "redis"
)

const (
	defaultDataDir        = "data"
	defaultCalendarFile   = "calendar.json"
	defaultContentsFile   = "contents.txt"
	defaultChatDB         = "chat_log.db"
	defaultTimezone       = "Asia/Seoul"
	defaultStartTime      = "19:00"
	defaultSessionMinutes = 60
	defaultReminderHours  = 1
	defaultResyncCron     = "*/10 * * * *"
	defaultRedisChannel   = "reminders"
)

type LogConfig struct {
	// Level is a logrus level name: debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format" json:"format"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db" json:"db"`
	Channel  string `yaml:"channel" json:"channel"`
}

type NotifierConfig struct {
	// Kinds lists the sinks reminders are delivered to. More than one kind
	// fans out to all of them.
	Kinds       []string    `yaml:"kinds" json:"kinds"`
	SNSTopicARN string      `yaml:"sns_topic_arn,omitempty" json:"sns_topic_arn,omitempty"`
	Redis       RedisConfig `yaml:"redis" json:"redis"`
}

// Config is the top-level application configuration.
type Config struct {
	// DataDir holds the schedule, outline and chat log unless their paths are absolute.
	DataDir      string `yaml:"data_dir" json:"data_dir"`
	CalendarFile string `yaml:"calendar_file" json:"calendar_file"`
	ContentsFile string `yaml:"contents_file" json:"contents_file"`
	ChatDB       string `yaml:"chat_db" json:"chat_db"`

	// Timezone is the IANA zone sessions and reminders are computed in.
	Timezone         string `yaml:"timezone" json:"timezone"`
	DefaultStartTime string `yaml:"default_start_time" json:"default_start_time"`
	SessionMinutes   int    `yaml:"session_minutes" json:"session_minutes"`
	ReminderHours    int    `yaml:"reminder_hours" json:"reminder_hours"`

	// ResyncCron is how often `serve` re-arms reminders written by other processes.
	ResyncCron string `yaml:"resync_cron" json:"resync_cron"`

	Log      LogConfig      `yaml:"log" json:"log"`
	Notifier NotifierConfig `yaml:"notifier" json:"notifier"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:          defaultDataDir,
		CalendarFile:     defaultCalendarFile,
		ContentsFile:     defaultContentsFile,
		ChatDB:           defaultChatDB,
		Timezone:         defaultTimezone,
		DefaultStartTime: defaultStartTime,
		SessionMinutes:   defaultSessionMinutes,
		ReminderHours:    defaultReminderHours,
		ResyncCron:       defaultResyncCron,
		Log:              LogConfig{Level: "info", Format: "text"},
		Notifier: NotifierConfig{
			Kinds: []string{NotifierLog},
			Redis: RedisConfig{Addr: "localhost:6379", Channel: defaultRedisChannel},
		},
	}
}

// Normalize fills zero values with defaults so partial files still work.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.CalendarFile == "" {
		c.CalendarFile = d.CalendarFile
	}
	if c.ContentsFile == "" {
		c.ContentsFile = d.ContentsFile
	}
	if c.ChatDB == "" {
		c.ChatDB = d.ChatDB
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.DefaultStartTime == "" {
		c.DefaultStartTime = d.DefaultStartTime
	}
	if c.SessionMinutes <= 0 {
		c.SessionMinutes = d.SessionMinutes
	}
	if c.ReminderHours < 0 {
		c.ReminderHours = d.ReminderHours
	}
	if c.ResyncCron == "" {
		c.ResyncCron = d.ResyncCron
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	switch strings.ToLower(c.Log.Format) {
	case "json":
		c.Log.Format = "json"
	default:
		c.Log.Format = "text"
	}

	kinds := make([]string, 0, len(c.Notifier.Kinds))
	for _, k := range c.Notifier.Kinds {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		kinds = d.Notifier.Kinds
	}
	c.Notifier.Kinds = kinds
	if c.Notifier.Redis.Addr == "" {
		c.Notifier.Redis.Addr = d.Notifier.Redis.Addr
	}
	if c.Notifier.Redis.Channel == "" {
		c.Notifier.Redis.Channel = d.Notifier.Redis.Channel
	}
}

// Validate reports settings Normalize cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := planner.ParseClock(c.DefaultStartTime); err != nil {
		errs = append(errs, fmt.Errorf("default_start_time: %w", err))
	}
	for _, k := range c.Notifier.Kinds {
		switch k {
		case NotifierLog:
		case NotifierSNS:
			if c.Notifier.SNSTopicARN == "" {
				errs = append(errs, errors.New("notifier sns needs sns_topic_arn"))
			}
		case NotifierRedis:
			if c.Notifier.Redis.Addr == "" {
				errs = append(errs, errors.New("notifier redis needs redis.addr"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown notifier kind %q", k))
		}
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SessionLength is the duration of one study session.
func (c *Config) SessionLength() time.Duration {
	return time.Duration(c.SessionMinutes) * time.Minute
}

func (c *Config) CalendarPath() string { return c.resolve(c.CalendarFile) }
func (c *Config) ContentsPath() string { return c.resolve(c.ContentsFile) }
func (c *Config) ChatDBPath() string   { return c.resolve(c.ChatDB) }

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".studybot", "config.yaml")
	}
	return filepath.Join(dir, "studybot", "config.yaml")
}

// Load reads the YAML file at path, creating it with defaults on first run,
// then applies environment overrides and normalizes the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(path, cfg); err != nil {
			return cfg, fmt.Errorf("writing default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg as YAML through a temp file and rename, with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".studybot-config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}

// envOverrides mirrors the settings that may come from the environment.
// Unset variables leave the file value alone.
type envOverrides struct {
	DataDir          string   `env:"STUDYBOT_DATA_DIR"`
	CalendarFile     string   `env:"STUDYBOT_CALENDAR_FILE"`
	ContentsFile     string   `env:"STUDYBOT_CONTENTS_FILE"`
	ChatDB           string   `env:"STUDYBOT_CHAT_DB"`
	Timezone         string   `env:"STUDYBOT_TIMEZONE"`
	DefaultStartTime string   `env:"STUDYBOT_DEFAULT_START_TIME"`
	SessionMinutes   int      `env:"STUDYBOT_SESSION_MINUTES"`
	ReminderHours    int      `env:"STUDYBOT_REMINDER_HOURS"`
	ResyncCron       string   `env:"STUDYBOT_RESYNC_CRON"`
	LogLevel         string   `env:"STUDYBOT_LOG_LEVEL"`
	LogFormat        string   `env:"STUDYBOT_LOG_FORMAT"`
	Notifiers        []string `env:"STUDYBOT_NOTIFIERS" envSeparator:","`
	SNSTopicARN      string   `env:"STUDYBOT_SNS_TOPIC_ARN"`
	RedisAddr        string   `env:"STUDYBOT_REDIS_ADDR"`
	RedisPassword    string   `env:"STUDYBOT_REDIS_PASSWORD"`
	RedisChannel     string   `env:"STUDYBOT_REDIS_CHANNEL"`
}

// ApplyEnv overlays STUDYBOT_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("reading environment overrides: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.DataDir, o.DataDir)
	set(&cfg.CalendarFile, o.CalendarFile)
	set(&cfg.ContentsFile, o.ContentsFile)
	set(&cfg.ChatDB, o.ChatDB)
	set(&cfg.Timezone, o.Timezone)
	set(&cfg.DefaultStartTime, o.DefaultStartTime)
	set(&cfg.ResyncCron, o.ResyncCron)
	set(&cfg.Log.Level, o.LogLevel)
	set(&cfg.Log.Format, o.LogFormat)
	set(&cfg.Notifier.SNSTopicARN, o.SNSTopicARN)
	set(&cfg.Notifier.Redis.Addr, o.RedisAddr)
	set(&cfg.Notifier.Redis.Password, o.RedisPassword)
	set(&cfg.Notifier.Redis.Channel, o.RedisChannel)
	if o.SessionMinutes > 0 {
		cfg.SessionMinutes = o.SessionMinutes
	}
	if o.ReminderHours > 0 {
		cfg.ReminderHours = o.ReminderHours
	}
	if len(o.Notifiers) > 0 {
		cfg.Notifier.Kinds = o.Notifiers
	}
	return nil
}
