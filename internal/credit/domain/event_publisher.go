package domain

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishAccountOpened 发布账户开立事件
	PublishAccountOpened(event AccountOpenedEvent) error

	// PublishDebtIncreased 发布追加借款事件
	PublishDebtIncreased(event DebtIncreasedEvent) error

	// PublishStrategyDeployed 发布策略投放事件
	PublishStrategyDeployed(event StrategyDeployedEvent) error

	// PublishDebtRepaid 发布还款事件
	PublishDebtRepaid(event DebtRepaidEvent) error

	// PublishAccountClosed 发布账户关闭事件
	PublishAccountClosed(event AccountClosedEvent) error

	// PublishAccountLiquidated 发布账户清算事件
	PublishAccountLiquidated(event AccountLiquidatedEvent) error

	// PublishMarginWarning 发布保证金风险预警事件
	PublishMarginWarning(event MarginWarningEvent) error
}
