package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOracle() *StaticOracle {
	return NewStaticOracle(map[string]decimal.Decimal{
		"USDC": decimal.NewFromInt(1),
		"ETH":  decimal.NewFromInt(3000),
	})
}

func newTestAccount() *CreditAccount {
	return NewCreditAccount("CA-1", "0xalice1", "ETH", decimal.NewFromInt(1), "USDC", 0)
}

func TestCreditAccount_HealthFactorNoDebt(t *testing.T) {
	acc := newTestAccount()
	oracle := newTestOracle()

	hf := acc.HealthFactor(oracle, decimal.NewFromFloat(0.95))
	assert.True(t, hf.Equal(decimal.NewFromInt(999)))
}

func TestCreditAccount_HealthFactor(t *testing.T) {
	acc := newTestAccount()
	oracle := newTestOracle()
	acc.creditBorrow(decimal.NewFromInt(3_000))

	// collateral 3000 + cash 3000, debt 3000: (6000 * 0.95) / 3000
	hf := acc.HealthFactor(oracle, decimal.NewFromFloat(0.95))
	assert.InDelta(t, 1.9, hf.InexactFloat64(), 1e-9)

	// borrowed cash counts as collateral either idle or deployed
	require.NoError(t, acc.DeployToStrategy(decimal.NewFromInt(3_000)))
	hfDeployed := acc.HealthFactor(oracle, decimal.NewFromFloat(0.95))
	assert.True(t, hf.Equal(hfDeployed))
}

func TestCreditAccount_DeployToStrategy(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(1_000))

	require.ErrorIs(t, acc.DeployToStrategy(decimal.NewFromInt(1_001)), ErrInsufficientCash)
	require.ErrorIs(t, acc.DeployToStrategy(decimal.Zero), ErrInvalidAmount)

	require.NoError(t, acc.DeployToStrategy(decimal.NewFromInt(600)))
	assert.True(t, acc.AvailableCash.Equal(decimal.NewFromInt(400)))
	assert.True(t, acc.StrategyPrincipal.Equal(decimal.NewFromInt(600)))
}

func TestCreditAccount_WithdrawFromStrategyRestoresCash(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(1_000))
	require.NoError(t, acc.DeployToStrategy(decimal.NewFromInt(1_000)))

	acc.AccrueStrategyYield(decimal.NewFromFloat(0.08), 30)
	yield := acc.StrategyYield
	assert.True(t, yield.GreaterThan(decimal.Zero))

	withdrawn, err := acc.WithdrawFromStrategy()
	require.NoError(t, err)
	assert.True(t, withdrawn.Equal(decimal.NewFromInt(1_000).Add(yield)))
	assert.True(t, acc.AvailableCash.Equal(withdrawn))
	assert.True(t, acc.StrategyPrincipal.IsZero())
	assert.True(t, acc.StrategyYield.IsZero())
}

func TestCreditAccount_DeployWithdrawSameDayRestoresCash(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(1_000))

	require.NoError(t, acc.DeployToStrategy(decimal.NewFromInt(1_000)))
	withdrawn, err := acc.WithdrawFromStrategy()
	require.NoError(t, err)

	assert.True(t, withdrawn.Equal(decimal.NewFromInt(1_000)))
	assert.True(t, acc.AvailableCash.Equal(decimal.NewFromInt(1_000)), "zero elapsed days restores cash exactly")
}

func TestCreditAccount_AccrueStrategyYieldNoPosition(t *testing.T) {
	acc := newTestAccount()
	acc.AccrueStrategyYield(decimal.NewFromFloat(0.08), 30)
	assert.True(t, acc.StrategyYield.IsZero(), "no position earns no yield")
}

func TestCreditAccount_RepayInterestFirst(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(1_000))
	acc.AccruedInterest = decimal.NewFromInt(50)

	principalPaid, err := acc.Repay(decimal.NewFromInt(200))
	require.NoError(t, err)

	assert.True(t, principalPaid.Equal(decimal.NewFromInt(150)))
	assert.True(t, acc.AccruedInterest.IsZero())
	assert.True(t, acc.Principal.Equal(decimal.NewFromInt(850)))
	assert.True(t, acc.AvailableCash.Equal(decimal.NewFromInt(800)))
}

func TestCreditAccount_RepayPartialInterest(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(1_000))
	acc.AccruedInterest = decimal.NewFromInt(50)

	principalPaid, err := acc.Repay(decimal.NewFromInt(30))
	require.NoError(t, err)

	assert.True(t, principalPaid.IsZero(), "payment below accrued interest touches no principal")
	assert.True(t, acc.AccruedInterest.Equal(decimal.NewFromInt(20)))
	assert.True(t, acc.Principal.Equal(decimal.NewFromInt(1_000)))
}

func TestCreditAccount_RepayRequiresCash(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(100))
	require.NoError(t, acc.DeployToStrategy(decimal.NewFromInt(100)))

	_, err := acc.Repay(decimal.NewFromInt(50))
	require.ErrorIs(t, err, ErrInsufficientCash, "deployed funds cannot be used to repay")
}

func TestCreditAccount_AccrueInterestSeparateFromPrincipal(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(10_000))

	acc.AccrueInterest(decimal.NewFromFloat(0.0224), 30)

	assert.True(t, acc.Principal.Equal(decimal.NewFromInt(10_000)), "interest never compounds into principal")
	assert.InDelta(t, 18.43, acc.AccruedInterest.InexactFloat64(), 0.05)

	// a second accrual compounds on principal only, so two periods add the same base interest
	first := acc.AccruedInterest
	acc.AccrueInterest(decimal.NewFromFloat(0.0224), 30)
	assert.InDelta(t, first.InexactFloat64()*2, acc.AccruedInterest.InexactFloat64(), 1e-9)
}

func TestCreditAccount_CloseGuards(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(100))

	require.ErrorIs(t, acc.Close(), ErrInvalidState, "cannot close with outstanding debt")

	_, err := acc.Repay(decimal.NewFromInt(100))
	require.NoError(t, err)

	require.NoError(t, acc.Close())
	assert.Equal(t, AccountStatusClosed, acc.Status)
}

func TestCreditAccount_CloseRequiresStrategyWithdrawn(t *testing.T) {
	acc := newTestAccount()
	acc.creditBorrow(decimal.NewFromInt(100))
	_, err := acc.Repay(decimal.NewFromInt(50))
	require.NoError(t, err)

	acc.AccruedInterest = decimal.Zero
	acc.Principal = decimal.Zero
	require.NoError(t, acc.DeployToStrategy(decimal.NewFromInt(50)))

	require.ErrorIs(t, acc.Close(), ErrInvalidState, "cannot close with live strategy position")

	_, err = acc.WithdrawFromStrategy()
	require.NoError(t, err)
	require.NoError(t, acc.Close())
	assert.Equal(t, AccountStatusClosed, acc.Status)

	require.ErrorIs(t, acc.Close(), ErrInvalidState, "double close")
}

func TestCreditAccount_OperationsRejectedWhenNotOpen(t *testing.T) {
	acc := newTestAccount()
	acc.markLiquidated()

	require.ErrorIs(t, acc.AddCollateral(decimal.NewFromInt(1)), ErrInvalidState)
	require.ErrorIs(t, acc.DeployToStrategy(decimal.NewFromInt(1)), ErrInvalidState)
	_, err := acc.WithdrawFromStrategy()
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = acc.Repay(decimal.NewFromInt(1))
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCreditAccount_LiquidatedCanClose(t *testing.T) {
	acc := newTestAccount()
	acc.markLiquidated()

	require.NoError(t, acc.Close(), "liquidated account with zero debt converts to closed")
	assert.Equal(t, AccountStatusClosed, acc.Status)
}
