package domain

import (
	"github.com/shopspring/decimal"
)

// RateModelParams 双拐点利率曲线参数
type RateModelParams struct {
	BaseRate  decimal.Decimal `json:"base_rate"`
	Kink1     decimal.Decimal `json:"kink1"`
	Kink2     decimal.Decimal `json:"kink2"`
	Slope1    decimal.Decimal `json:"slope1"`
	Slope2    decimal.Decimal `json:"slope2"`
	Slope3    decimal.Decimal `json:"slope3"`
	SpreadFee decimal.Decimal `json:"spread_fee"`
}

func DefaultRateModelParams() RateModelParams {
	return RateModelParams{
		BaseRate:  decimal.NewFromFloat(0.02),
		Kink1:     decimal.NewFromFloat(0.60),
		Kink2:     decimal.NewFromFloat(0.85),
		Slope1:    decimal.NewFromFloat(0.08),
		Slope2:    decimal.NewFromFloat(0.10),
		Slope3:    decimal.NewFromFloat(0.30),
		SpreadFee: decimal.NewFromFloat(0.05),
	}
}

// InterestRateModel 双拐点分段线性借款利率模型
type InterestRateModel struct {
	params RateModelParams
}

func NewInterestRateModel(params RateModelParams) *InterestRateModel {
	return &InterestRateModel{params: params}
}

func (m *InterestRateModel) Params() RateModelParams {
	return m.params
}

// Rate 根据利用率计算借款年化利率，调用方保证 utilization 在 [0,1] 内。
func (m *InterestRateModel) Rate(utilization decimal.Decimal) decimal.Decimal {
	p := m.params
	if utilization.LessThanOrEqual(p.Kink1) {
		return p.BaseRate.Add(utilization.Div(p.Kink1).Mul(p.Slope1))
	}
	if utilization.LessThanOrEqual(p.Kink2) {
		return p.BaseRate.Add(p.Slope1).
			Add(utilization.Sub(p.Kink1).Div(p.Kink2.Sub(p.Kink1)).Mul(p.Slope2))
	}
	return p.BaseRate.Add(p.Slope1).Add(p.Slope2).
		Add(utilization.Sub(p.Kink2).Div(decimal.NewFromInt(1).Sub(p.Kink2)).Mul(p.Slope3))
}

// EffectiveRate 含点差费的实际借款利率
func (m *InterestRateModel) EffectiveRate(utilization decimal.Decimal) decimal.Decimal {
	return m.Rate(utilization).Mul(decimal.NewFromInt(1).Add(m.params.SpreadFee))
}
