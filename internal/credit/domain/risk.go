package domain

import (
	"github.com/shopspring/decimal"
)

type AccountHealth string

const (
	AccountHealthHealthy      AccountHealth = "HEALTHY"
	AccountHealthAtRisk       AccountHealth = "AT_RISK"
	AccountHealthLiquidatable AccountHealth = "LIQUIDATABLE"
)

// RiskConfig 风控阈值配置，允许测试替换。
type RiskConfig struct {
	OpenThreshold        decimal.Decimal `json:"open_threshold"`
	LiquidationThreshold decimal.Decimal `json:"liquidation_threshold"`
	LiquidationPenalty   decimal.Decimal `json:"liquidation_penalty"`
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		OpenThreshold:        decimal.NewFromFloat(1.2),
		LiquidationThreshold: decimal.NewFromFloat(0.95),
		LiquidationPenalty:   decimal.NewFromFloat(0.05),
	}
}

// RiskEngine 根据健康因子对账户分级。
type RiskEngine struct {
	openThreshold decimal.Decimal
}

func NewRiskEngine(cfg RiskConfig) *RiskEngine {
	return &RiskEngine{openThreshold: cfg.OpenThreshold}
}

func (e *RiskEngine) Classify(healthFactor decimal.Decimal) AccountHealth {
	if healthFactor.LessThan(decimal.NewFromInt(1)) {
		return AccountHealthLiquidatable
	}
	if healthFactor.LessThan(e.openThreshold) {
		return AccountHealthAtRisk
	}
	return AccountHealthHealthy
}

func (e *RiskEngine) IsLiquidatable(healthFactor decimal.Decimal) bool {
	return healthFactor.LessThan(decimal.NewFromInt(1))
}

func (e *RiskEngine) MeetsOpenThreshold(healthFactor decimal.Decimal) bool {
	return healthFactor.GreaterThanOrEqual(e.openThreshold)
}
