package messaging

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/KostasCherv/protocol-analysis/pkg/mq"
)

// OutboxRelay 定期扫描发件箱，把待发事件投递到 Kafka。
type OutboxRelay struct {
	db       *gorm.DB
	producer *mq.KafkaProducer
	topic    string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

func NewOutboxRelay(db *gorm.DB, producer *mq.KafkaProducer, topic string, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		db:       db,
		producer: producer,
		topic:    topic,
		interval: 2 * time.Second,
		batch:    100,
		logger:   logger,
	}
}

// Start 启动转发循环，ctx 取消时退出。
func (r *OutboxRelay) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", "topic", r.topic, "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping...")
			return nil
		case <-ticker.C:
			if err := r.relayPending(ctx); err != nil {
				r.logger.Error("outbox relay cycle failed", "error", err)
			}
		}
	}
}

func (r *OutboxRelay) relayPending(ctx context.Context) error {
	var messages []OutboxMessage
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at").
		Limit(r.batch).
		Find(&messages).Error; err != nil {
		return err
	}

	for _, msg := range messages {
		if err := r.producer.SendRaw(ctx, r.topic, msg.EventType, []byte(msg.Payload)); err != nil {
			// 发送失败时保持 pending，下个周期重试
			return err
		}
		if err := r.db.WithContext(ctx).Model(&OutboxMessage{}).
			Where("id = ?", msg.ID).
			Updates(map[string]any{"status": outboxStatusPublished, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
	}
	return nil
}
