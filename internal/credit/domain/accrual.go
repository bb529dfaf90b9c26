package domain

import (
	"github.com/shopspring/decimal"
)

// DaysPerYear 计息天数约定
const DaysPerYear = 365

// CompoundDaily 按日复利计算本金增长后的金额：principal * (1 + apy/365)^days。
// days <= 0 时原样返回本金。
func CompoundDaily(principal, apy decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || principal.IsZero() {
		return principal
	}
	dailyRate := apy.Div(decimal.NewFromInt(DaysPerYear))
	factor := decimal.NewFromInt(1).Add(dailyRate).Pow(decimal.NewFromInt(int64(days)))
	return principal.Mul(factor)
}

// CompoundGrowth 按日复利计算增长部分（利息或收益）。
func CompoundGrowth(principal, apy decimal.Decimal, days int) decimal.Decimal {
	return CompoundDaily(principal, apy, days).Sub(principal)
}
