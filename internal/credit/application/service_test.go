package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
	"github.com/KostasCherv/protocol-analysis/internal/credit/infrastructure/persistence/memory"
)

type capturePublisher struct {
	opened     []domain.AccountOpenedEvent
	borrowed   []domain.DebtIncreasedEvent
	deployed   []domain.StrategyDeployedEvent
	repaid     []domain.DebtRepaidEvent
	closed     []domain.AccountClosedEvent
	liquidated []domain.AccountLiquidatedEvent
	warnings   []domain.MarginWarningEvent
}

func (p *capturePublisher) PublishAccountOpened(e domain.AccountOpenedEvent) error {
	p.opened = append(p.opened, e)
	return nil
}

func (p *capturePublisher) PublishDebtIncreased(e domain.DebtIncreasedEvent) error {
	p.borrowed = append(p.borrowed, e)
	return nil
}

func (p *capturePublisher) PublishStrategyDeployed(e domain.StrategyDeployedEvent) error {
	p.deployed = append(p.deployed, e)
	return nil
}

func (p *capturePublisher) PublishDebtRepaid(e domain.DebtRepaidEvent) error {
	p.repaid = append(p.repaid, e)
	return nil
}

func (p *capturePublisher) PublishAccountClosed(e domain.AccountClosedEvent) error {
	p.closed = append(p.closed, e)
	return nil
}

func (p *capturePublisher) PublishAccountLiquidated(e domain.AccountLiquidatedEvent) error {
	p.liquidated = append(p.liquidated, e)
	return nil
}

func (p *capturePublisher) PublishMarginWarning(e domain.MarginWarningEvent) error {
	p.warnings = append(p.warnings, e)
	return nil
}

func newTestService(t *testing.T) (*CreditAppService, *capturePublisher) {
	t.Helper()

	oracle := domain.NewStaticOracle(map[string]decimal.Decimal{
		"USDC": decimal.NewFromInt(1),
		"ETH":  decimal.NewFromInt(3000),
	})
	pool := domain.NewPool("USDC",
		decimal.NewFromInt(1_000_000), decimal.Zero,
		domain.NewInterestRateModel(domain.DefaultRateModelParams()))
	world := domain.NewWorld(pool, oracle, domain.DefaultRiskConfig(), domain.DefaultStrategyConfig())

	publisher := &capturePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewCreditAppService(world, oracle,
		memory.NewCreditAccountRepo(), memory.NewPoolRepo(), publisher, logger)
	return svc, publisher
}

func openTestAccount(t *testing.T, svc *CreditAppService, owner string, collateral, borrow int64) *AccountView {
	t.Helper()
	view, err := svc.OpenAccount(context.Background(), OpenAccountCommand{
		Owner:           owner,
		CollateralAsset: "ETH",
		Collateral:      decimal.NewFromInt(collateral),
		InitialBorrow:   decimal.NewFromInt(borrow),
	})
	require.NoError(t, err)
	return view
}

func TestCreditAppService_OpenAccount(t *testing.T) {
	svc, publisher := newTestService(t)

	view := openTestAccount(t, svc, "0xalice1", 10, 10_000)

	assert.Equal(t, "CA-1", view.AccountID)
	assert.Equal(t, domain.AccountStatusOpen, view.Status)
	assert.True(t, view.TotalDebt.Equal(decimal.NewFromInt(10_000)))
	assert.Equal(t, domain.AccountHealthHealthy, view.Health)

	// leverage = (collateral value + principal) / collateral value
	assert.InDelta(t, 40_000.0/30_000.0, view.Leverage.InexactFloat64(), 1e-9)

	require.Len(t, publisher.opened, 1)
	assert.Equal(t, "CA-1", publisher.opened[0].AccountID)

	pool := svc.GetPool(context.Background())
	assert.True(t, pool.TotalBorrowed.Equal(decimal.NewFromInt(10_000)))
}

func TestCreditAppService_OpenAccountRejected(t *testing.T) {
	svc, publisher := newTestService(t)

	_, err := svc.OpenAccount(context.Background(), OpenAccountCommand{
		Owner:           "0xbob1",
		CollateralAsset: "ETH",
		Collateral:      decimal.NewFromInt(1),
		InitialBorrow:   decimal.NewFromInt(100_000),
	})
	require.ErrorIs(t, err, domain.ErrBelowOpenThreshold)

	assert.Empty(t, publisher.opened)
	assert.True(t, svc.GetPool(context.Background()).TotalBorrowed.IsZero())
}

func TestCreditAppService_OwnerChecks(t *testing.T) {
	svc, _ := newTestService(t)
	view := openTestAccount(t, svc, "0xalice1", 10, 10_000)
	ctx := context.Background()

	_, err := svc.IncreaseDebt(ctx, "0xmallory", view.AccountID, decimal.NewFromInt(100))
	require.ErrorIs(t, err, domain.ErrNotAccountOwner)

	_, err = svc.DeployToStrategy(ctx, "0xmallory", view.AccountID, decimal.NewFromInt(100))
	require.ErrorIs(t, err, domain.ErrNotAccountOwner)

	_, err = svc.Repay(ctx, "0xmallory", view.AccountID, decimal.NewFromInt(100))
	require.ErrorIs(t, err, domain.ErrNotAccountOwner)

	_, err = svc.CloseAccount(ctx, "0xmallory", view.AccountID)
	require.ErrorIs(t, err, domain.ErrNotAccountOwner)
}

func TestCreditAppService_DeployAllAndRepayAll(t *testing.T) {
	svc, publisher := newTestService(t)
	view := openTestAccount(t, svc, "0xalice1", 10, 10_000)
	ctx := context.Background()

	deployed, err := svc.DeployAllToStrategy(ctx, "0xalice1", view.AccountID)
	require.NoError(t, err)
	assert.True(t, deployed.AvailableCash.IsZero())
	assert.True(t, deployed.StrategyPrincipal.Equal(decimal.NewFromInt(10_000)))
	require.Len(t, publisher.deployed, 1)

	_, err = svc.AdvanceDays(ctx, 30)
	require.NoError(t, err)

	_, err = svc.WithdrawFromStrategy(ctx, "0xalice1", view.AccountID)
	require.NoError(t, err)

	repaid, err := svc.RepayAll(ctx, "0xalice1", view.AccountID)
	require.NoError(t, err)
	assert.True(t, repaid.TotalDebt.IsZero())
	require.Len(t, publisher.repaid, 1)

	assert.True(t, svc.GetPool(ctx).TotalBorrowed.IsZero())
}

func TestCreditAppService_AdvanceDaysAccruesAndWarns(t *testing.T) {
	svc, publisher := newTestService(t)
	view := openTestAccount(t, svc, "0xalice1", 5, 20_000)
	ctx := context.Background()

	svc.DropPrice(ctx, "ETH", decimal.NewFromInt(80))

	result, err := svc.AdvanceDays(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Days)
	assert.EqualValues(t, 30, result.CurrentDay)
	require.Len(t, result.Warnings, 1)
	require.Len(t, publisher.warnings, 1)
	assert.Equal(t, view.AccountID, publisher.warnings[0].AccountID)

	after, err := svc.GetAccount(ctx, view.AccountID)
	require.NoError(t, err)
	assert.True(t, after.AccruedInterest.GreaterThan(decimal.Zero))

	svc.RevertPrice(ctx, "ETH")
	restored, err := svc.GetAccount(ctx, view.AccountID)
	require.NoError(t, err)
	assert.True(t, restored.HealthFactor.GreaterThan(after.HealthFactor))
}

func TestCreditAppService_Liquidate(t *testing.T) {
	svc, publisher := newTestService(t)
	view := openTestAccount(t, svc, "0xalice1", 5, 20_000)
	ctx := context.Background()

	_, err := svc.DeployAllToStrategy(ctx, "0xalice1", view.AccountID)
	require.NoError(t, err)
	_, err = svc.AdvanceDays(ctx, 30)
	require.NoError(t, err)

	_, err = svc.Liquidate(ctx, view.AccountID, "treasury")
	require.ErrorIs(t, err, domain.ErrNotLiquidatable)

	svc.DropPrice(ctx, "ETH", decimal.NewFromFloat(97))

	result, err := svc.Liquidate(ctx, view.AccountID, "treasury")
	require.NoError(t, err)
	assert.True(t, result.DebtRepaid.GreaterThan(decimal.NewFromInt(20_000)))
	assert.Equal(t, "treasury", result.Beneficiary)
	require.Len(t, publisher.liquidated, 1)

	after, err := svc.GetAccount(ctx, view.AccountID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusLiquidated, after.Status)
	assert.True(t, svc.GetPool(ctx).TotalBorrowed.IsZero())
}

func TestCreditAppService_CloseAndList(t *testing.T) {
	svc, publisher := newTestService(t)
	first := openTestAccount(t, svc, "0xalice1", 10, 0)
	second := openTestAccount(t, svc, "0xbob1", 1, 0)
	ctx := context.Background()

	result, err := svc.CloseAccount(ctx, "0xalice1", first.AccountID)
	require.NoError(t, err)
	assert.True(t, result.ReturnedCollateral.Equal(decimal.NewFromInt(10)))
	assert.True(t, result.ReturnedCash.IsZero())
	require.Len(t, publisher.closed, 1)

	views := svc.ListAccounts(ctx)
	require.Len(t, views, 1, "closed accounts drop out of the listing")
	assert.Equal(t, second.AccountID, views[0].AccountID)

	_, err = svc.GetAccount(ctx, "CA-404")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestNewDemoWorld(t *testing.T) {
	world, oracle := NewDemoWorld(domain.DefaultRiskConfig(), domain.DefaultRateModelParams(), domain.DefaultStrategyConfig())

	assert.True(t, oracle.Price("ETH").Equal(decimal.NewFromInt(3000)))
	assert.True(t, world.Pool.TotalLiquidity.Equal(decimal.NewFromInt(1_000_000)))
	assert.True(t, world.Pool.TotalBorrowed.Equal(decimal.NewFromInt(200_000)))

	accounts := world.Accounts()
	require.Len(t, accounts, 4)
	assert.Equal(t, "CA-1", accounts[0].AccountID)
	assert.Equal(t, "0xalice1", accounts[0].Owner)

	// bob runs the most levered book and sits closest to liquidation
	hfBob := world.HealthFactor(accounts[1])
	hfAlice := world.HealthFactor(accounts[0])
	assert.True(t, hfBob.LessThan(hfAlice))
}
