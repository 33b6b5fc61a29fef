// Package events publishes completed match outcomes to Kafka with
// fail-open semantics: a broker outage never fails the match itself.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"personmatch/internal/match"
)

// MatchEvent is the wire form of a completed match.
type MatchEvent struct {
	MatchID   string      `json:"match_id"`
	Grade     string      `json:"grade"`
	Keys      []match.Key `json:"keys"`
	Source    string      `json:"source,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher emits match events asynchronously. A nil Publisher is valid and
// publishes nothing, so callers never need to branch on configuration.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// New connects a producer to the given brokers and topic. Empty brokers
// yield a nil Publisher.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, logger: logger}, nil
}

// Publish emits the result without blocking the caller. Delivery failures
// are logged and dropped.
func (p *Publisher) Publish(ctx context.Context, result match.Result, source string) {
	if p == nil {
		return
	}
	event := MatchEvent{
		MatchID:   result.ID.String(),
		Grade:     result.Grade,
		Keys:      result.Keys,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.warn(ctx, "encode match event", err)
		return
	}
	record := &kgo.Record{Key: []byte(event.MatchID), Value: value}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.warn(ctx, "publish match event", err)
		}
	})
}

// Close flushes pending events and releases the producer.
func (p *Publisher) Close(ctx context.Context) {
	if p == nil {
		return
	}
	if err := p.client.Flush(ctx); err != nil {
		p.warn(ctx, "flush match events", err)
	}
	p.client.Close()
}

func (p *Publisher) warn(ctx context.Context, msg string, err error) {
	if p.logger != nil {
		p.logger.WarnContext(ctx, msg, "error", err)
	}
}
