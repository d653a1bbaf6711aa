// Package events publishes headlines events to Redis Streams.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	infraevents "github.com/jonesrussell/north-cloud/headlines/infrastructure/events"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
)

const (
	asyncPublishTimeout = 5 * time.Second
	// streamMaxLen caps the stream; trimming is approximate.
	streamMaxLen = 10000
)

// Publisher appends events to the headlines stream. A nil *Publisher is a
// valid no-op, which is what callers get when Redis is disabled.
type Publisher struct {
	client *redis.Client
	log    infralogger.Logger
}

// NewPublisher returns nil when client is nil.
func NewPublisher(client *redis.Client, log infralogger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{client: client, log: log}
}

// Publish fills in a missing id and timestamp, then XADDs the event as JSON
// under the "event" field.
func (p *Publisher) Publish(ctx context.Context, event infraevents.Event) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	streamID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: infraevents.StreamName,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"event": string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to stream: %w", err)
	}

	p.log.Debug("Published event",
		infralogger.String("event_type", string(event.EventType)),
		infralogger.String("article_id", event.ArticleID),
		infralogger.String("stream_id", streamID),
	)
	return nil
}

// PublishAsync publishes on its own goroutine with a bounded deadline.
// Failures are logged only.
func (p *Publisher) PublishAsync(event infraevents.Event) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Warn("Async publish failed",
				infralogger.String("event_type", string(event.EventType)),
				infralogger.Error(err),
			)
		}
	}()
}
