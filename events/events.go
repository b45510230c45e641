package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	TopicRoundGenerated      = "tournament.round_generated"
	TopicTournamentCompleted = "tournament.completed"
	TopicMatchDecided        = "match.decided"
)

// RoundGenerated is published after a new batch of matches is stored.
type RoundGenerated struct {
	TournamentID string    `json:"tournament_id"`
	Round        string    `json:"round"`
	MatchIDs     []string  `json:"match_ids"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type TournamentCompleted struct {
	TournamentID string    `json:"tournament_id"`
	WinnerID     string    `json:"winner_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// MatchDecided carries the rating outcome of a decided match.
type MatchDecided struct {
	MatchID      string    `json:"match_id"`
	TournamentID string    `json:"tournament_id"`
	Round        string    `json:"round"`
	WinnerID     string    `json:"winner_id"`
	LoserID      string    `json:"loser_id"`
	WinnerDelta  int       `json:"winner_delta"`
	LoserDelta   int       `json:"loser_delta"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher is what the services need to announce domain events.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Bus is an in-process pub/sub backed by watermill's gochannel.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)
	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish marshals payload as JSON and sends it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		b.logger.Error("Failed to publish event", slog.String("topic", topic), slog.Any("error", err))
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	b.logger.Debug("Event published", slog.String("topic", topic), slog.String("message_id", msg.UUID))
	return nil
}

// Subscribe runs handler for every message on topic until ctx is done.
// Messages are always acked; handler failures are logged, not redelivered.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler func(ctx context.Context, msg *message.Message) error) error {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			if err := handler(msg.Context(), msg); err != nil {
				b.logger.Error("Event handler failed",
					slog.String("topic", topic),
					slog.String("message_id", msg.UUID),
					slog.Any("error", err),
				)
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Decode unmarshals a message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", msg.UUID, err)
	}
	return v, nil
}
