package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(liquidity, borrowed int64) *Pool {
	return NewPool("USDC",
		decimal.NewFromInt(liquidity),
		decimal.NewFromInt(borrowed),
		NewInterestRateModel(DefaultRateModelParams()))
}

func TestPool_Utilization(t *testing.T) {
	assert.True(t, newTestPool(0, 0).Utilization().IsZero(), "empty pool has zero utilization")

	p := newTestPool(1_000_000, 200_000)
	assert.InDelta(t, 0.2, p.Utilization().InexactFloat64(), 1e-9)

	// over-borrowed pools clamp to full utilization
	over := newTestPool(100, 150)
	assert.True(t, over.Utilization().Equal(decimal.NewFromInt(1)))
}

func TestPool_Borrow(t *testing.T) {
	p := newTestPool(1_000, 0)

	require.NoError(t, p.Borrow(decimal.NewFromInt(400)))
	assert.True(t, p.TotalBorrowed.Equal(decimal.NewFromInt(400)))
	assert.True(t, p.Available().Equal(decimal.NewFromInt(600)))

	err := p.Borrow(decimal.NewFromInt(601))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	assert.True(t, p.TotalBorrowed.Equal(decimal.NewFromInt(400)), "failed borrow must not move the pool")

	require.NoError(t, p.Borrow(decimal.NewFromInt(600)))
	assert.True(t, p.Available().IsZero())
}

func TestPool_RepayPrincipalClamps(t *testing.T) {
	p := newTestPool(1_000, 300)

	p.RepayPrincipal(decimal.NewFromInt(100))
	assert.True(t, p.TotalBorrowed.Equal(decimal.NewFromInt(200)))

	p.RepayPrincipal(decimal.NewFromInt(500))
	assert.True(t, p.TotalBorrowed.IsZero(), "repay beyond outstanding clamps to zero")
}

func TestPool_RatesFollowUtilization(t *testing.T) {
	low := newTestPool(1_000_000, 10_000)
	high := newTestPool(1_000_000, 900_000)

	assert.True(t, high.BorrowRate().GreaterThan(low.BorrowRate()))
	assert.True(t, low.EffectiveBorrowRate().GreaterThan(low.BorrowRate()))

	// utilization 0.01 sits in the first zone: 0.02 + (0.01/0.60)*0.08
	assert.InDelta(t, 0.0213333, low.BorrowRate().InexactFloat64(), 1e-6)
	assert.InDelta(t, 0.0224, low.EffectiveBorrowRate().InexactFloat64(), 1e-6)
}
