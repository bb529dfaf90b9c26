package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// StrategyConfig 收益策略配置
type StrategyConfig struct {
	Name string          `json:"name"`
	APY  decimal.Decimal `json:"apy"`
}

func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		Name: "yearn-usdc-vault",
		APY:  decimal.NewFromFloat(0.08),
	}
}

// LiquidationResult 清算结算明细
type LiquidationResult struct {
	AccountID      string          `json:"account_id"`
	Owner          string          `json:"owner"`
	HealthFactor   decimal.Decimal `json:"health_factor"`
	DebtRepaid     decimal.Decimal `json:"debt_repaid"`
	SeizedValue    decimal.Decimal `json:"seized_value"`
	LiquidatorBonus decimal.Decimal `json:"liquidator_bonus"`
	Remainder      decimal.Decimal `json:"remainder"`
	Beneficiary    string          `json:"beneficiary"`
}

// MarginWarning 时间推进过程中发现的风险账户
type MarginWarning struct {
	AccountID    string          `json:"account_id"`
	Owner        string          `json:"owner"`
	HealthFactor decimal.Decimal `json:"health_factor"`
	Health       AccountHealth   `json:"health"`
}

// World 模拟世界聚合：借贷池、全部信贷账户、价格源与天数时钟。
// 取代全局可变状态，由调用方显式持有并传入每个操作。
// 所有修改操作遵循先校验后提交，失败时账户与池子都保持原状。
type World struct {
	Pool     *Pool
	Oracle   PriceSource
	Risk     RiskConfig
	Strategy StrategyConfig

	accounts   map[string]*CreditAccount
	riskEngine *RiskEngine
	currentDay int64
	accountSeq uint64
}

func NewWorld(pool *Pool, oracle PriceSource, risk RiskConfig, strategy StrategyConfig) *World {
	return &World{
		Pool:       pool,
		Oracle:     oracle,
		Risk:       risk,
		Strategy:   strategy,
		accounts:   make(map[string]*CreditAccount),
		riskEngine: NewRiskEngine(risk),
	}
}

func (w *World) RiskEngine() *RiskEngine {
	return w.riskEngine
}

func (w *World) CurrentDay() int64 {
	return w.currentDay
}

func (w *World) Account(accountID string) (*CreditAccount, error) {
	acc, ok := w.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// Accounts 按账户 ID 排序返回全部账户。
func (w *World) Accounts() []*CreditAccount {
	list := make([]*CreditAccount, 0, len(w.accounts))
	for _, acc := range w.accounts {
		list = append(list, acc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AccountID < list[j].AccountID })
	return list
}

// SeedAccount 直接放入一个预置账户，仅用于演示数据初始化，绕过开户校验。
func (w *World) SeedAccount(acc *CreditAccount) {
	w.accounts[acc.AccountID] = acc
	w.accountSeq++
}

func (w *World) HealthFactor(acc *CreditAccount) decimal.Decimal {
	return acc.HealthFactor(w.Oracle, w.Risk.LiquidationThreshold)
}

func (w *World) ownedOpenAccount(owner, accountID string) (*CreditAccount, error) {
	acc, err := w.Account(accountID)
	if err != nil {
		return nil, err
	}
	if acc.Owner != owner {
		return nil, ErrNotAccountOwner
	}
	if !acc.IsOpen() {
		return nil, ErrInvalidState
	}
	return acc, nil
}

// OpenAccount 开设信贷账户，可附带初始借款。
// 开户后健康因子必须达到 OpenThreshold，否则整体回滚，池子不变。
func (w *World) OpenAccount(owner, collateralAsset string, collateral, initialBorrow decimal.Decimal) (*CreditAccount, error) {
	if collateral.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if initialBorrow.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if initialBorrow.GreaterThan(w.Pool.Available()) {
		return nil, ErrInsufficientLiquidity
	}

	candidate := NewCreditAccount(fmt.Sprintf("CA-%d", w.accountSeq+1), owner, collateralAsset, collateral, w.Pool.Asset, w.currentDay)
	if initialBorrow.GreaterThan(decimal.Zero) {
		candidate.creditBorrow(initialBorrow)
	}
	if !w.riskEngine.MeetsOpenThreshold(w.HealthFactor(candidate)) {
		return nil, ErrBelowOpenThreshold
	}

	if initialBorrow.GreaterThan(decimal.Zero) {
		if err := w.Pool.Borrow(initialBorrow); err != nil {
			return nil, err
		}
	}
	w.accountSeq++
	w.accounts[candidate.AccountID] = candidate
	return candidate, nil
}

func (w *World) AddCollateral(owner, accountID string, amount decimal.Decimal) (*CreditAccount, error) {
	acc, err := w.ownedOpenAccount(owner, accountID)
	if err != nil {
		return nil, err
	}
	if err := acc.AddCollateral(amount); err != nil {
		return nil, err
	}
	return acc, nil
}

// IncreaseDebt 追加借款。先在账户副本上验证健康因子，通过后才提交账户与池子。
func (w *World) IncreaseDebt(owner, accountID string, amount decimal.Decimal) (*CreditAccount, error) {
	acc, err := w.ownedOpenAccount(owner, accountID)
	if err != nil {
		return nil, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(w.Pool.Available()) {
		return nil, ErrInsufficientLiquidity
	}

	candidate := *acc
	candidate.creditBorrow(amount)
	if !w.riskEngine.MeetsOpenThreshold(w.HealthFactor(&candidate)) {
		return nil, ErrBelowOpenThreshold
	}

	if err := w.Pool.Borrow(amount); err != nil {
		return nil, err
	}
	*acc = candidate
	return acc, nil
}

func (w *World) DeployToStrategy(owner, accountID string, amount decimal.Decimal) (*CreditAccount, error) {
	acc, err := w.ownedOpenAccount(owner, accountID)
	if err != nil {
		return nil, err
	}
	if err := acc.DeployToStrategy(amount); err != nil {
		return nil, err
	}
	return acc, nil
}

func (w *World) WithdrawFromStrategy(owner, accountID string) (*CreditAccount, decimal.Decimal, error) {
	acc, err := w.ownedOpenAccount(owner, accountID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	withdrawn, err := acc.WithdrawFromStrategy()
	if err != nil {
		return nil, decimal.Zero, err
	}
	return acc, withdrawn, nil
}

// Repay 还款，先利息后本金，本金部分同步冲减池子的 TotalBorrowed。
func (w *World) Repay(owner, accountID string, amount decimal.Decimal) (*CreditAccount, error) {
	acc, err := w.ownedOpenAccount(owner, accountID)
	if err != nil {
		return nil, err
	}
	principalPaid, err := acc.Repay(amount)
	if err != nil {
		return nil, err
	}
	w.Pool.RepayPrincipal(principalPaid)
	return acc, nil
}

// CloseAccount 关闭账户，返还抵押品与剩余现金。
// 已清算账户确认债务为零后也通过此操作转为 CLOSED。
func (w *World) CloseAccount(owner, accountID string) (collateral, cash decimal.Decimal, err error) {
	acc, err := w.Account(accountID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if acc.Owner != owner {
		return decimal.Zero, decimal.Zero, ErrNotAccountOwner
	}
	collateral = acc.CollateralAmount
	cash = acc.AvailableCash
	if err := acc.Close(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	acc.CollateralAmount = decimal.Zero
	acc.AvailableCash = decimal.Zero
	return collateral, cash, nil
}

// Liquidate 清算健康因子低于 1.0 的账户。健康因子在调用时重新计算，不用缓存值。
// 债务视为由没收资产全额偿还，本金冲减池子；清算人获得债务 × 罚金率的奖励，
// 余额（可能为负，按零截断）归属指定受益人。
func (w *World) Liquidate(accountID, beneficiary string) (*LiquidationResult, error) {
	acc, err := w.Account(accountID)
	if err != nil {
		return nil, err
	}
	if !acc.IsOpen() {
		return nil, ErrInvalidState
	}
	hf := w.HealthFactor(acc)
	if !w.riskEngine.IsLiquidatable(hf) {
		return nil, ErrNotLiquidatable
	}

	debt := acc.TotalDebt()
	seized := acc.TotalCollateralValue(w.Oracle)
	bonus := debt.Mul(w.Risk.LiquidationPenalty)
	remainder := seized.Sub(debt.Mul(w.Oracle.Price(acc.BorrowedAsset))).Sub(bonus)
	if remainder.IsNegative() {
		remainder = decimal.Zero
	}

	w.Pool.RepayPrincipal(acc.Principal)
	acc.markLiquidated()

	return &LiquidationResult{
		AccountID:       acc.AccountID,
		Owner:           acc.Owner,
		HealthFactor:    hf,
		DebtRepaid:      debt,
		SeizedValue:     seized,
		LiquidatorBonus: bonus,
		Remainder:       remainder,
		Beneficiary:     beneficiary,
	}, nil
}

// AdvanceDays 推进模拟时钟。对每个未清算账户按当前实际借款利率计息、
// 按策略 APY 计提收益，并返回推进后处于风险区的账户列表。
func (w *World) AdvanceDays(days int) ([]MarginWarning, error) {
	if days <= 0 {
		return nil, ErrInvalidAmount
	}
	effectiveRate := w.Pool.EffectiveBorrowRate()
	w.currentDay += int64(days)

	var warnings []MarginWarning
	for _, acc := range w.Accounts() {
		if !acc.IsOpen() {
			continue
		}
		acc.AccrueInterest(effectiveRate, days)
		acc.AccrueStrategyYield(w.Strategy.APY, days)
		acc.LastAccrualDay = w.currentDay

		hf := w.HealthFactor(acc)
		if health := w.riskEngine.Classify(hf); health != AccountHealthHealthy {
			warnings = append(warnings, MarginWarning{
				AccountID:    acc.AccountID,
				Owner:        acc.Owner,
				HealthFactor: hf,
				Health:       health,
			})
		}
	}
	return warnings, nil
}
