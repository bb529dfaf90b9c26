package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pool 单资产借贷池
type Pool struct {
	Asset          string          `json:"asset"`
	TotalLiquidity decimal.Decimal `json:"total_liquidity"`
	TotalBorrowed  decimal.Decimal `json:"total_borrowed"`
	RateModel      *InterestRateModel `json:"-"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewPool(asset string, totalLiquidity, totalBorrowed decimal.Decimal, rateModel *InterestRateModel) *Pool {
	return &Pool{
		Asset:          asset,
		TotalLiquidity: totalLiquidity,
		TotalBorrowed:  totalBorrowed,
		RateModel:      rateModel,
		UpdatedAt:      time.Now(),
	}
}

func (p *Pool) Available() decimal.Decimal {
	return p.TotalLiquidity.Sub(p.TotalBorrowed)
}

// Utilization 资金利用率，流动性为零时返回 0，上限截断到 1。
func (p *Pool) Utilization() decimal.Decimal {
	if p.TotalLiquidity.IsZero() {
		return decimal.Zero
	}
	util := p.TotalBorrowed.Div(p.TotalLiquidity)
	if util.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return util
}

func (p *Pool) BorrowRate() decimal.Decimal {
	return p.RateModel.Rate(p.Utilization())
}

func (p *Pool) EffectiveBorrowRate() decimal.Decimal {
	return p.RateModel.EffectiveRate(p.Utilization())
}

func (p *Pool) Borrow(amount decimal.Decimal) error {
	if amount.GreaterThan(p.Available()) {
		return ErrInsufficientLiquidity
	}
	p.TotalBorrowed = p.TotalBorrowed.Add(amount)
	p.UpdatedAt = time.Now()
	return nil
}

// RepayPrincipal 归还本金。只有本金减少 TotalBorrowed，
// 利息部分属于池子收入，不在此处记账。
func (p *Pool) RepayPrincipal(amount decimal.Decimal) {
	if amount.GreaterThan(p.TotalBorrowed) {
		amount = p.TotalBorrowed
	}
	p.TotalBorrowed = p.TotalBorrowed.Sub(amount)
	p.UpdatedAt = time.Now()
}
