package application

import (
	"github.com/shopspring/decimal"

	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
)

// AccountView 账户读模型
type AccountView struct {
	AccountID         string               `json:"account_id"`
	Owner             string               `json:"owner"`
	Status            domain.AccountStatus `json:"status"`
	CollateralAsset   string               `json:"collateral_asset"`
	CollateralAmount  decimal.Decimal      `json:"collateral_amount"`
	CollateralValue   decimal.Decimal      `json:"collateral_value"`
	Principal         decimal.Decimal      `json:"principal"`
	AccruedInterest   decimal.Decimal      `json:"accrued_interest"`
	TotalDebt         decimal.Decimal      `json:"total_debt"`
	AvailableCash     decimal.Decimal      `json:"available_cash"`
	StrategyPrincipal decimal.Decimal      `json:"strategy_principal"`
	StrategyYield     decimal.Decimal      `json:"strategy_yield"`
	StrategyValue     decimal.Decimal      `json:"strategy_value"`
	HealthFactor      decimal.Decimal      `json:"health_factor"`
	Health            domain.AccountHealth `json:"health"`
	Leverage          decimal.Decimal      `json:"leverage"`
}

// PoolView 借贷池读模型
type PoolView struct {
	Asset             string          `json:"asset"`
	TotalLiquidity    decimal.Decimal `json:"total_liquidity"`
	TotalBorrowed     decimal.Decimal `json:"total_borrowed"`
	Available         decimal.Decimal `json:"available"`
	Utilization       decimal.Decimal `json:"utilization"`
	BorrowRate        decimal.Decimal `json:"borrow_rate"`
	EffectiveRate     decimal.Decimal `json:"effective_rate"`
	CurrentDay        int64           `json:"current_day"`
}

// CloseAccountResult 关户返还明细
type CloseAccountResult struct {
	AccountID          string          `json:"account_id"`
	ReturnedCollateral decimal.Decimal `json:"returned_collateral"`
	ReturnedCash       decimal.Decimal `json:"returned_cash"`
}

// AdvanceResult 时间推进结果
type AdvanceResult struct {
	Days       int                    `json:"days"`
	CurrentDay int64                  `json:"current_day"`
	Warnings   []domain.MarginWarning `json:"warnings"`
}

// OpenAccountCommand 开户指令
type OpenAccountCommand struct {
	Owner           string          `json:"owner"`
	CollateralAsset string          `json:"collateral_asset"`
	Collateral      decimal.Decimal `json:"collateral"`
	InitialBorrow   decimal.Decimal `json:"initial_borrow"`
}
