package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeChoiceProcessed  EventType = "choice.processed"
	EventTypeChatReplied      EventType = "chat.replied"
	EventTypeEpisodeAdvanced  EventType = "episode.advanced"
	EventTypeEpisodeCompleted EventType = "episode.completed"
	EventTypeLeveledUp        EventType = "character.leveled_up"
	EventTypeGameStateUpdated EventType = "game.state_updated"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	GameID    string         `json:"game_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher sends events to everyone watching a session.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, event Event) error
}

// Subscriber streams a session's events until the returned cancel func is called
// or ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error)
}

// Bus is both ends of the event stream.
type Bus interface {
	Publisher
	Subscriber
}

// Channel returns the pub/sub channel name for a session.
func Channel(sessionID string) string {
	return fmt.Sprintf("game-events:%s", sessionID)
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Bus = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish publishes an event to the session-specific channel
func (b *Broadcaster) Publish(ctx context.Context, sessionID string, event Event) error {
	channel := Channel(sessionID)
	if event.GameID == "" {
		event.GameID = sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)
	return nil
}

// Subscribe listens on the session channel. Undecodable payloads are logged and dropped.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error) {
	channel := Channel(sessionID)
	pubsub := b.redisClient.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so early publishes are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	b.logger.Debug("Subscribed to channel", "channel", channel)

	out := make(chan Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				b.logger.Error("Failed to close pubsub", "error", err)
			}
		})
	}
	return out, cancel, nil
}
