package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/tiptoe/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const (
	// DefaultKey is the list the events are appended to.
	DefaultKey = "tiptoe:events"
	// DefaultMaxLen caps the list; older events are trimmed.
	DefaultMaxLen = 1024
	// DefaultTimeout bounds a single Record round trip, since the engine
	// loop waits for it.
	DefaultTimeout = 200 * time.Millisecond
)

// Recorder implements ports.Recorder by appending JSON events to a capped
// Redis list.
type Recorder struct {
	client  *backend.Client
	key     string
	maxLen  int64
	timeout time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithKey sets the list key.
func WithKey(key string) Option {
	return func(r *Recorder) {
		r.key = key
	}
}

// WithMaxLen caps the list length. Zero or less keeps everything.
func WithMaxLen(n int64) Option {
	return func(r *Recorder) {
		r.maxLen = n
	}
}

// WithTimeout bounds each Record call.
func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.timeout = d
	}
}

// New creates a recorder with its own client.
func New(address, password string, db int, opts ...Option) *Recorder {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a recorder from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Recorder {
	r := &Recorder{
		client:  client,
		key:     DefaultKey,
		maxLen:  DefaultMaxLen,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping checks that the server is reachable.
func (r *Recorder) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// Record appends the event and trims the list to its cap.
func (r *Recorder) Record(ctx context.Context, event *domain.CommandEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	pipe := r.client.Pipeline()
	pipe.RPush(ctx, r.key, data)
	if r.maxLen > 0 {
		pipe.LTrim(ctx, r.key, -r.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record to redis: %w", err)
	}
	return nil
}

// Recent returns up to n of the latest events, oldest first.
func (r *Recorder) Recent(ctx context.Context, n int64) ([]domain.CommandEvent, error) {
	if n <= 0 {
		return nil, nil
	}
	vals, err := r.client.LRange(ctx, r.key, -n, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}

	events := make([]domain.CommandEvent, 0, len(vals))
	for _, val := range vals {
		var e domain.CommandEvent
		if err := json.Unmarshal([]byte(val), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Close closes the redis client.
func (r *Recorder) Close() error {
	return r.client.Close()
}
