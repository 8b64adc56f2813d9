package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix  = "studybot:"
	defaultRedisChannel = "reminders"
	redisHistoryLen     = 100
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string // default "reminders"
	Prefix   string // key prefix, default "studybot:"
}

// RedisNotifier publishes JSON notifications on a channel and keeps the
// most recent ones in a capped list.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	prefix  string
}

func NewRedisNotifier(opts RedisOptions) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	channel := opts.Channel
	if channel == "" {
		channel = defaultRedisChannel
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &RedisNotifier{client: client, channel: channel, prefix: prefix}
}

// Channel is the full pub/sub channel name.
func (r *RedisNotifier) Channel() string {
	return r.prefix + r.channel
}

// HistoryKey is the list holding recent notifications, newest first.
func (r *RedisNotifier) HistoryKey() string {
	return fmt.Sprintf("%shistory:%s", r.prefix, r.channel)
}

func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Publish(ctx, r.Channel(), data)
	pipe.LPush(ctx, r.HistoryKey(), data)
	pipe.LTrim(ctx, r.HistoryKey(), 0, redisHistoryLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish notification to redis: %w", err)
	}
	return nil
}

// Recent returns up to limit stored notifications, newest first.
func (r *RedisNotifier) Recent(ctx context.Context, limit int) ([]Notification, error) {
	raw, err := r.client.LRange(ctx, r.HistoryKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read notification history: %w", err)
	}
	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
