// Package activity pushes fire-and-forget activity events to the external
// activity-log subsystem. The resolution core never depends on these events
// for correctness; failures are logged and swallowed.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

type Recorder interface {
	Record(action, details string)
	Close() error
}

// Noop is used when no activity sink is configured.
type Noop struct{}

func (Noop) Record(string, string) {}

func (Noop) Close() error { return nil }

const (
	activityKey     = "linktrace:activity"
	activityMaxSize = 10_000
	recordTimeout   = 5 * time.Second
)

type event struct {
	Action  string    `json:"action"`
	Details string    `json:"details"`
	At      time.Time `json:"at"`
}

// RedisRecorder appends events to a capped redis list.
type RedisRecorder struct {
	client *redis.Client
}

func NewRedisRecorder(redisURL string) (*RedisRecorder, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL %q: %w", redisURL, err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRecorder{client: client}, nil
}

func (r *RedisRecorder) Record(action, details string) {
	payload, err := json.Marshal(event{Action: action, Details: details, At: time.Now()})
	if err != nil {
		log.Debug("encode activity event", "action", action, "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		pipe := r.client.Pipeline()
		pipe.LPush(ctx, activityKey, payload)
		pipe.LTrim(ctx, activityKey, 0, activityMaxSize-1)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Debug("record activity event", "action", action, "error", err)
		}
	}()
}

func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
