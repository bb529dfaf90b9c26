package application

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
)

// NewDemoWorld 构建演示世界：预置 USDC 借贷池与四个已建仓的信贷账户，
// 借入资金已全部投放到收益策略。
func NewDemoWorld(risk domain.RiskConfig, rateParams domain.RateModelParams, strategy domain.StrategyConfig) (*domain.World, *domain.StaticOracle) {
	oracle := domain.NewStaticOracle(map[string]decimal.Decimal{
		"USDC": decimal.NewFromInt(1),
		"ETH":  decimal.NewFromInt(3000),
	})

	pool := domain.NewPool("USDC",
		decimal.NewFromInt(1_000_000),
		decimal.NewFromInt(200_000),
		domain.NewInterestRateModel(rateParams))

	world := domain.NewWorld(pool, oracle, risk, strategy)

	seeds := []struct {
		owner      string
		collateral decimal.Decimal
		borrowed   decimal.Decimal
	}{
		{"0xalice1", decimal.NewFromInt(1), decimal.NewFromInt(3_000)},
		{"0xbob1", decimal.NewFromInt(1), decimal.NewFromInt(100_000)},
		{"0xcharlie1", decimal.NewFromInt(1), decimal.NewFromInt(2_000)},
		{"0xdave1", decimal.NewFromInt(1), decimal.NewFromInt(15_000)},
	}
	for i, seed := range seeds {
		acc := domain.NewCreditAccount(
			fmt.Sprintf("CA-%d", i+1),
			seed.owner, "ETH", seed.collateral, "USDC", 0)
		acc.Principal = seed.borrowed
		acc.StrategyPrincipal = seed.borrowed
		world.SeedAccount(acc)
	}
	return world, oracle
}
