package domain

import (
	"github.com/shopspring/decimal"
)

// PriceSource 价格查询能力，由外部 Oracle 协作方提供。
type PriceSource interface {
	Price(asset string) decimal.Decimal
}

// StaticOracle 静态价格预言机，支持压测用的价格下跌与恢复。
type StaticOracle struct {
	prices   map[string]decimal.Decimal
	original map[string]decimal.Decimal
}

func NewStaticOracle(prices map[string]decimal.Decimal) *StaticOracle {
	o := &StaticOracle{
		prices:   make(map[string]decimal.Decimal, len(prices)),
		original: make(map[string]decimal.Decimal, len(prices)),
	}
	for asset, price := range prices {
		o.prices[asset] = price
		o.original[asset] = price
	}
	return o
}

func (o *StaticOracle) Price(asset string) decimal.Decimal {
	if price, ok := o.prices[asset]; ok {
		return price
	}
	return decimal.Zero
}

func (o *StaticOracle) SetPrice(asset string, price decimal.Decimal) {
	o.prices[asset] = price
}

// DropPrice 将指定资产价格下跌 percent 个百分点。
func (o *StaticOracle) DropPrice(asset string, percent decimal.Decimal) {
	factor := decimal.NewFromInt(1).Sub(percent.Div(decimal.NewFromInt(100)))
	o.prices[asset] = o.prices[asset].Mul(factor)
}

// RevertPrice 恢复指定资产的初始价格。
func (o *StaticOracle) RevertPrice(asset string) {
	if price, ok := o.original[asset]; ok {
		o.prices[asset] = price
	}
}
