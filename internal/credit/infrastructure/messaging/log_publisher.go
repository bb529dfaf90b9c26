package messaging

import (
	"log/slog"

	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
)

// LogEventPublisher 将事件写入结构化日志，用于无数据库的自包含模拟模式。
type LogEventPublisher struct {
	logger *slog.Logger
}

func NewLogEventPublisher(logger *slog.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

func (p *LogEventPublisher) PublishAccountOpened(event domain.AccountOpenedEvent) error {
	p.logger.Info("event", "type", "AccountOpenedEvent", "account_id", event.AccountID, "owner", event.Owner)
	return nil
}

func (p *LogEventPublisher) PublishDebtIncreased(event domain.DebtIncreasedEvent) error {
	p.logger.Info("event", "type", "DebtIncreasedEvent", "account_id", event.AccountID, "amount", event.Amount.String())
	return nil
}

func (p *LogEventPublisher) PublishStrategyDeployed(event domain.StrategyDeployedEvent) error {
	p.logger.Info("event", "type", "StrategyDeployedEvent", "account_id", event.AccountID, "amount", event.Amount.String())
	return nil
}

func (p *LogEventPublisher) PublishDebtRepaid(event domain.DebtRepaidEvent) error {
	p.logger.Info("event", "type", "DebtRepaidEvent", "account_id", event.AccountID, "amount", event.Amount.String())
	return nil
}

func (p *LogEventPublisher) PublishAccountClosed(event domain.AccountClosedEvent) error {
	p.logger.Info("event", "type", "AccountClosedEvent", "account_id", event.AccountID)
	return nil
}

func (p *LogEventPublisher) PublishAccountLiquidated(event domain.AccountLiquidatedEvent) error {
	p.logger.Warn("event", "type", "AccountLiquidatedEvent", "account_id", event.AccountID, "debt_repaid", event.DebtRepaid.String())
	return nil
}

func (p *LogEventPublisher) PublishMarginWarning(event domain.MarginWarningEvent) error {
	p.logger.Warn("event", "type", "MarginWarningEvent", "account_id", event.AccountID, "health_factor", event.HealthFactor.String())
	return nil
}
