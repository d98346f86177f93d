// Package events publishes ranking updates for downstream consumers.
//
// Every user the ingestion job upserts yields one UserRanked event. With
// Kafka brokers configured the events go to a topic keyed by login, so all
// updates for one account land on the same partition in order; otherwise
// Nop discards them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sakif/gh-rankings/internal/model"
)

// TypeUserRanked is carried in the "type" message header.
const TypeUserRanked = "user.ranked"

// UserRanked is the payload of a user.ranked event.
type UserRanked struct {
	RunID         string    `json:"runId"`
	Login         string    `json:"login"`
	Type          string    `json:"type"`
	Country       *string   `json:"country"`
	Followers     int       `json:"followers"`
	PublicRepos   int       `json:"public_repos"`
	TotalStars    int       `json:"totalStars"`
	Contributions int       `json:"contributions"`
	RankedAt      time.Time `json:"rankedAt"`
}

// NewUserRanked builds the event for a freshly upserted user.
func NewUserRanked(runID string, u *model.User) UserRanked {
	return UserRanked{
		RunID:         runID,
		Login:         u.Login,
		Type:          u.Type,
		Country:       u.Country,
		Followers:     u.Followers,
		PublicRepos:   u.PublicRepos,
		TotalStars:    u.TotalStars,
		Contributions: u.Contributions,
		RankedAt:      u.UpdatedAt,
	}
}

// Publisher is implemented by Kafka and Nop.
type Publisher interface {
	PublishRanked(ctx context.Context, ev UserRanked) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishRanked(context.Context, UserRanked) error { return nil }
func (Nop) Close() error { return nil }

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events to a single topic.
type Kafka struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewKafka creates a publisher for topic on brokers. The writer connects
// lazily, so a broker that is down surfaces on the first publish.
func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("events: no kafka brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("events: no kafka topic configured")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka publisher configured",
		slog.Any("brokers", brokers),
		slog.String("topic", topic),
	)
	return &Kafka{writer: w, topic: topic, logger: logger}, nil
}

// PublishRanked writes ev keyed by login.
func (k *Kafka) PublishRanked(ctx context.Context, ev UserRanked) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshalling %s for %s: %w", TypeUserRanked, ev.Login, err)
	}

	msg := kafka.Message{
		Key:     []byte(ev.Login),
		Value:   payload,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "type", Value: []byte(TypeUserRanked)}},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: writing to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes pending messages.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
