package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/models"
)

const (
	TypeMessageCreated = "message.created"
	TypeMessageDeleted = "message.deleted"
)

type envelope struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id"`
	MessageID      string      `json:"message_id,omitempty"`
	Message        interface{} `json:"message,omitempty"`
	At             time.Time   `json:"at"`
}

// Publisher writes conversation events to Kafka keyed by conversation id so
// one conversation's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &Publisher{writer: w, log: log}
}

func (p *Publisher) MessageCreated(ctx context.Context, conversationID string, m *models.Message) {
	p.publish(ctx, envelope{
		Type:           TypeMessageCreated,
		ConversationID: conversationID,
		MessageID:      m.ID,
		Message:        m,
		At:             time.Now().UTC(),
	})
}

func (p *Publisher) MessageDeleted(ctx context.Context, conversationID, messageID string) {
	p.publish(ctx, envelope{
		Type:           TypeMessageDeleted,
		ConversationID: conversationID,
		MessageID:      messageID,
		At:             time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, ev envelope) {
	b, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorw("marshal event", "type", ev.Type, "err", err)
		return
	}
	msg := kafka.Message{Key: []byte(ev.ConversationID), Value: b, Time: time.Now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		// events are best-effort; the storage commit already succeeded
		p.log.Warnw("publish event", "type", ev.Type, "err", err)
	}
}

func (p *Publisher) Close() error { return p.writer.Close() }
