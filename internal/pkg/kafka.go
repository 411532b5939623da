package pkg

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
)

// FeedEvent 写操作事件在 topic 中的消息体
type FeedEvent struct {
	ID        string          `json:"event_id"`
	Type      string          `json:"type"`
	SubjectID uint64          `json:"subject_id"`
	ActorID   uint64          `json:"actor_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer 投递 FeedEvent，按 subject id 分区
type KafkaProducer struct {
	writer messageWriter
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

func NewKafkaProducer(cfg KafkaConfig) *KafkaProducer {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: timeout,
	}
	return &KafkaProducer{writer: w}
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Publish 同步写入；同一个 subject 的事件落在同一分区，保持顺序
func (p *KafkaProducer) Publish(ctx context.Context, events ...FeedEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		msg, err := EventMessage(ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

// EventMessage 事件 id 与类型放在 header，消费方不用解码就能路由和去重
func EventMessage(ev FeedEvent) (kafka.Message, error) {
	if len(ev.Payload) == 0 {
		ev.Payload = json.RawMessage("{}")
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(MakeKeyFromID(ev.SubjectID)),
		Value: value,
		Time:  ev.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(ev.ID)},
			{Key: HeaderEventType, Value: []byte(ev.Type)},
		},
	}, nil
}

func MakeKeyFromID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
