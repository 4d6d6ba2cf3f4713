package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/pkg/check"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeDialogueStarted EventType = "dialogue.started"
	EventTypeNodeEntered     EventType = "dialogue.node_entered"
	EventTypeCheckResolved   EventType = "dialogue.check_resolved"
	EventTypeDialogueEnded   EventType = "dialogue.ended"
)

// Channel is the Redis Pub/Sub channel dialogue events are published on.
const Channel = "dialogue-events"

// Event is the wire shape for one dialogue lifecycle event.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	DialogueID string         `json:"dialogue_id,omitempty"`
	NodeID     string         `json:"node_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes dialogue events to Redis Pub/Sub so external
// observers (overlays, debug consoles) can follow a session without
// polling.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishDialogueStarted publishes a dialogue.started event
func (b *Broadcaster) PublishDialogueStarted(ctx context.Context, dialogueID, nodeID string) error {
	return b.publish(ctx, Event{
		Type:       EventTypeDialogueStarted,
		DialogueID: dialogueID,
		NodeID:     nodeID,
	})
}

// PublishNodeEntered publishes a dialogue.node_entered event
func (b *Broadcaster) PublishNodeEntered(ctx context.Context, dialogueID, nodeID string) error {
	return b.publish(ctx, Event{
		Type:       EventTypeNodeEntered,
		DialogueID: dialogueID,
		NodeID:     nodeID,
	})
}

// PublishCheckResolved publishes a dialogue.check_resolved event
func (b *Broadcaster) PublishCheckResolved(ctx context.Context, res check.Result) error {
	return b.publish(ctx, Event{
		Type: EventTypeCheckResolved,
		Data: map[string]any{
			"type":    res.Type,
			"roll":    res.Roll,
			"total":   res.Total,
			"success": res.Success,
			"crit":    res.Crit,
		},
	})
}

// PublishDialogueEnded publishes a dialogue.ended event
func (b *Broadcaster) PublishDialogueEnded(ctx context.Context, dialogueID string) error {
	return b.publish(ctx, Event{
		Type:       EventTypeDialogueEnded,
		DialogueID: dialogueID,
	})
}

func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	event.ID = uuid.NewString()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, Channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "type", event.Type)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Published dialogue event", "type", event.Type, "dialogue_id", event.DialogueID)
	return nil
}
