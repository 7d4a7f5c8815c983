// Package kafka ships audit events to a Kafka topic. Kafka is the durable
// source of truth for the compliance trail; downstream consumers handle
// retention and SIEM export.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "sigclause/pkg/platform/audit"
)

// Producer implements audit.Store by producing JSON events to one topic,
// keyed by organization so per-tenant ordering is preserved.
type Producer struct {
	client *kgo.Client
	topic  string
}

// payload is the wire format. Field names are part of the consumer contract.
type payload struct {
	Category   string   `json:"category"`
	Timestamp  string   `json:"timestamp"`
	Action     string   `json:"action"`
	OrgID      string   `json:"organization_id"`
	UserID     string   `json:"user_id,omitempty"`
	RuleIDs    []string `json:"rule_ids,omitempty"`
	TemplateID string   `json:"template_id,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	RequestID  string   `json:"request_id,omitempty"`
}

// NewProducer connects to the brokers and ensures the topic exists.
// Topic creation is idempotent; an "already exists" response is fine.
func NewProducer(ctx context.Context, brokers []string, topic string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil && !isTopicExists(err) {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic %q: %w", topic, err)
	}

	return &Producer{client: client, topic: topic}, nil
}

func (p *Producer) Append(ctx context.Context, event audit.Event) error {
	msg := payload{
		Category:  string(event.Category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    event.Action,
		OrgID:     event.OrgID.String(),
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	if !event.UserID.IsNil() {
		msg.UserID = event.UserID.String()
	}
	if !event.TemplateID.IsNil() {
		msg.TemplateID = event.TemplateID.String()
	}
	for _, ruleID := range event.RuleIDs {
		msg.RuleIDs = append(msg.RuleIDs, ruleID.String())
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(msg.OrgID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes outstanding records and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}

func isTopicExists(err error) bool {
	return errors.Is(err, kerr.TopicAlreadyExists)
}
