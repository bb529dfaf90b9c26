package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountOpenedEvent 账户开立事件
type AccountOpenedEvent struct {
	AccountID     string          `json:"account_id"`
	Owner         string          `json:"owner"`
	Collateral    decimal.Decimal `json:"collateral"`
	InitialBorrow decimal.Decimal `json:"initial_borrow"`
	HealthFactor  decimal.Decimal `json:"health_factor"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// DebtIncreasedEvent 追加借款事件
type DebtIncreasedEvent struct {
	AccountID    string          `json:"account_id"`
	Amount       decimal.Decimal `json:"amount"`
	NewPrincipal decimal.Decimal `json:"new_principal"`
	HealthFactor decimal.Decimal `json:"health_factor"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// StrategyDeployedEvent 策略投放事件
type StrategyDeployedEvent struct {
	AccountID     string          `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	StrategyValue decimal.Decimal `json:"strategy_value"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// DebtRepaidEvent 还款事件
type DebtRepaidEvent struct {
	AccountID     string          `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// AccountClosedEvent 账户关闭事件
type AccountClosedEvent struct {
	AccountID          string          `json:"account_id"`
	ReturnedCollateral decimal.Decimal `json:"returned_collateral"`
	ReturnedCash       decimal.Decimal `json:"returned_cash"`
	OccurredAt         time.Time       `json:"occurred_at"`
}

// AccountLiquidatedEvent 账户清算事件
type AccountLiquidatedEvent struct {
	AccountID       string          `json:"account_id"`
	Owner           string          `json:"owner"`
	HealthFactor    decimal.Decimal `json:"health_factor"`
	DebtRepaid      decimal.Decimal `json:"debt_repaid"`
	LiquidatorBonus decimal.Decimal `json:"liquidator_bonus"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// MarginWarningEvent 时间推进后发现的风险账户事件
type MarginWarningEvent struct {
	AccountID    string          `json:"account_id"`
	Owner        string          `json:"owner"`
	HealthFactor decimal.Decimal `json:"health_factor"`
	Health       AccountHealth   `json:"health"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
