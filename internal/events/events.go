// Package events publishes service events to Redis pub/sub.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/circuitbreaker"
	infraevents "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/events"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
)

// Source is stamped on every envelope this service emits.
const Source = "complaint-priority"

// Event types.
const (
	ModelTrained      infraevents.EventType = "MODEL_TRAINED"
	ModelLoaded       infraevents.EventType = "MODEL_LOADED"
	PriorityPredicted infraevents.EventType = "PRIORITY_PREDICTED"
)

// ModelTrainedPayload is carried by MODEL_TRAINED.
type ModelTrainedPayload struct {
	ModelVersion string   `json:"model_version"`
	Accuracy     float64  `json:"accuracy"`
	TrainSize    int      `json:"train_size"`
	TestSize     int      `json:"test_size"`
	Features     int      `json:"features"`
	Classes      []string `json:"classes"`
	DurationMS   int64    `json:"duration_ms"`
}

// ModelLoadedPayload is carried by MODEL_LOADED.
type ModelLoadedPayload struct {
	ModelVersion string    `json:"model_version"`
	Source       string    `json:"source"`
	TrainedAt    time.Time `json:"trained_at"`
}

// PriorityPredictedPayload is carried by PRIORITY_PREDICTED.
type PriorityPredictedPayload struct {
	ComplaintID  *int64  `json:"complaint_id,omitempty"`
	Priority     string  `json:"priority"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
	RequestID    string  `json:"request_id,omitempty"`
}

// Publisher delivers event envelopes.
type Publisher interface {
	Publish(ctx context.Context, env infraevents.Envelope) error
	Close() error
}

// RedisPublisher publishes envelopes as JSON on a Redis channel. After
// repeated failures it fails fast for a cool-down period.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	breaker *circuitbreaker.Breaker
	log     logger.Logger
}

// NewRedisPublisher creates a publisher on channel. The publisher owns client.
func NewRedisPublisher(client *redis.Client, channel string, log logger.Logger) *RedisPublisher {
	breaker := circuitbreaker.New(circuitbreaker.Config{
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Event publisher circuit changed state",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
				logger.String("channel", channel),
			)
		},
	})
	return &RedisPublisher{client: client, channel: channel, breaker: breaker, log: log}
}

// Publish sends env to the channel.
func (p *RedisPublisher) Publish(ctx context.Context, env infraevents.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}

	var receivers int64
	err = p.breaker.Execute(func() error {
		var pubErr error
		receivers, pubErr = p.client.Publish(ctx, p.channel, data).Result()
		return pubErr
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", env.EventType, p.channel, err)
	}

	p.log.Debug("Event published",
		logger.String("event_type", string(env.EventType)),
		logger.String("event_id", env.EventID.String()),
		logger.Int64("receivers", receivers),
	)
	return nil
}

// Ping checks the Redis connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, infraevents.Envelope) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }
