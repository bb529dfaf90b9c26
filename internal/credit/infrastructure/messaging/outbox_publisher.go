package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
)

// OutboxMessage 事件发件箱
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primary_key"`
	EventID   string    `gorm:"type:varchar(36);index"`
	EventType string    `gorm:"type:varchar(100);index"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "credit_outbox_messages"
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// OutboxEventPublisher 实现 EventPublisher 接口，使用 Outbox 模式
type OutboxEventPublisher struct {
	db *gorm.DB
}

// NewOutboxEventPublisher 创建新的 OutboxEventPublisher 实例
func NewOutboxEventPublisher(db *gorm.DB) *OutboxEventPublisher {
	return &OutboxEventPublisher{db: db}
}

// PublishAccountOpened 发布账户开立事件
func (p *OutboxEventPublisher) PublishAccountOpened(event domain.AccountOpenedEvent) error {
	return p.publishEvent("AccountOpenedEvent", event)
}

// PublishDebtIncreased 发布追加借款事件
func (p *OutboxEventPublisher) PublishDebtIncreased(event domain.DebtIncreasedEvent) error {
	return p.publishEvent("DebtIncreasedEvent", event)
}

// PublishStrategyDeployed 发布策略投放事件
func (p *OutboxEventPublisher) PublishStrategyDeployed(event domain.StrategyDeployedEvent) error {
	return p.publishEvent("StrategyDeployedEvent", event)
}

// PublishDebtRepaid 发布还款事件
func (p *OutboxEventPublisher) PublishDebtRepaid(event domain.DebtRepaidEvent) error {
	return p.publishEvent("DebtRepaidEvent", event)
}

// PublishAccountClosed 发布账户关闭事件
func (p *OutboxEventPublisher) PublishAccountClosed(event domain.AccountClosedEvent) error {
	return p.publishEvent("AccountClosedEvent", event)
}

// PublishAccountLiquidated 发布账户清算事件
func (p *OutboxEventPublisher) PublishAccountLiquidated(event domain.AccountLiquidatedEvent) error {
	return p.publishEvent("AccountLiquidatedEvent", event)
}

// PublishMarginWarning 发布保证金风险预警事件
func (p *OutboxEventPublisher) PublishMarginWarning(event domain.MarginWarningEvent) error {
	return p.publishEvent("MarginWarningEvent", event)
}

func (p *OutboxEventPublisher) publishEvent(eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	message := OutboxMessage{
		ID:        uuid.NewString(),
		EventID:   uuid.NewString(),
		EventType: eventType,
		Payload:   string(payload),
		Status:    outboxStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return p.db.Create(&message).Error
}
