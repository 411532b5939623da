package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"Social_Feed/internal/model"
	"Social_Feed/internal/pkg"

	"github.com/google/uuid"
)

const (
	EventPostCreated    = "post.created"
	EventPostEdited     = "post.edited"
	EventPostDeleted    = "post.deleted"
	EventPostLiked      = "post.liked"
	EventPostUnliked    = "post.unliked"
	EventCommentCreated = "comment.created"
	EventCommentDeleted = "comment.deleted"
	EventCommentLiked   = "comment.liked"
	EventCommentUnliked = "comment.unliked"
)

const (
	defaultOutboxBatch   = 200
	defaultOutboxRetries = 5
)

type outboxStore interface {
	Insert(ctx context.Context, ob *model.FeedOutbox) error
	List(ctx context.Context, batchSize, maxRetry int) ([]model.FeedOutbox, error)
	RetryUpdate(ctx context.Context, id uint64) error
	SuccessUpdate(ctx context.Context, id uint64) error
}

// EventRecorder 写操作成功后记录 outbox 事件；失败只打日志，不影响请求结果
type EventRecorder struct {
	store  outboxStore
	logger *slog.Logger
}

func NewEventRecorder(store outboxStore, logger *slog.Logger) *EventRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRecorder{store: store, logger: logger}
}

func (r *EventRecorder) Record(ctx context.Context, eventType string, subjectID, actorID uint64, payload map[string]any) {
	if r == nil || r.store == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["subject_id"] = subjectID
	payload["actor_id"] = actorID
	body, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("marshal outbox payload", "event", eventType, "err", err)
		return
	}
	ob := &model.FeedOutbox{
		EventID:   uuid.NewString(),
		EventType: eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Payload:   string(body),
		Status:    model.OutboxPending,
	}
	if err := r.store.Insert(ctx, ob); err != nil {
		r.logger.Error("record outbox event", "event", eventType, "subject_id", subjectID, "err", err)
	}
}

type Sender func(ctx context.Context, ob *model.FeedOutbox) error

// OutboxRelayer outbox 投递器，定时把待发送事件交给 sender
type OutboxRelayer struct {
	store     outboxStore
	batchSize int
	maxRetry  int
	interval  time.Duration
	sender    Sender
	logger    *slog.Logger
}

func NewOutboxRelayer(store outboxStore, sender Sender, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxRelayer {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = defaultOutboxBatch
	}
	if logger == nil {
		logger = slog.Default()
	}
	if sender == nil {
		sender = LogSender(logger)
	}
	return &OutboxRelayer{
		store:     store,
		batchSize: batchSize,
		maxRetry:  defaultOutboxRetries,
		interval:  interval,
		sender:    sender,
		logger:    logger,
	}
}

// Run outbox启动器，ctx 取消后返回
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 投递一批事件，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.store.List(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		r.logger.Error("outbox query", "err", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			pkg.OutboxRelayed.WithLabelValues("failed").Inc()
			r.logger.Warn("outbox send", "event_id", ob.EventID, "type", ob.EventType, "retry", ob.Retry, "err", err)
			if err := r.store.RetryUpdate(ctx, ob.ID); err != nil {
				r.logger.Error("outbox retry update", "id", ob.ID, "err", err)
			}
			continue
		}
		pkg.OutboxRelayed.WithLabelValues("sent").Inc()
		if err := r.store.SuccessUpdate(ctx, ob.ID); err != nil {
			r.logger.Error("outbox success update", "id", ob.ID, "err", err)
			continue
		}
		sent++
	}
	return sent
}

// LogSender 未配置 Kafka 时使用：只打印事件
func LogSender(logger *slog.Logger) Sender {
	return func(ctx context.Context, ob *model.FeedOutbox) error {
		logger.Info("outbox send", "event_id", ob.EventID, "type", ob.EventType, "subject_id", ob.SubjectID, "payload", ob.Payload)
		return nil
	}
}

// KafkaSender 以 subject id 作为消息 key，同一帖子或评论的事件有序
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.FeedOutbox) error {
		return p.Publish(ctx, pkg.FeedEvent{
			ID:        ob.EventID,
			Type:      ob.EventType,
			SubjectID: ob.SubjectID,
			ActorID:   ob.ActorID,
			Payload:   json.RawMessage(ob.Payload),
			CreatedAt: ob.CreatedAt,
		})
	}
}
