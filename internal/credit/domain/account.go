package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
	ErrInsufficientCash      = errors.New("insufficient available cash")
	ErrBelowOpenThreshold    = errors.New("health factor below open threshold")
	ErrInvalidState          = errors.New("operation not allowed in current account state")
	ErrNotLiquidatable       = errors.New("account is not liquidatable")
	ErrAccountNotFound       = errors.New("credit account not found")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrNotAccountOwner       = errors.New("user does not own this credit account")
	ErrInvalidAmount         = errors.New("invalid amount")
)

type AccountStatus string

const (
	AccountStatusOpen       AccountStatus = "OPEN"
	AccountStatusClosed     AccountStatus = "CLOSED"
	AccountStatusLiquidated AccountStatus = "LIQUIDATED"
)

// healthFactorNoDebt 无负债账户的健康因子哨兵值，任何阈值比较下都视为健康。
var healthFactorNoDebt = decimal.NewFromInt(999)

// CreditAccount 信贷账户聚合，持有抵押品、债务、闲置现金与策略仓位。
type CreditAccount struct {
	AccountID         string          `json:"account_id"`
	Owner             string          `json:"owner"`
	CollateralAsset   string          `json:"collateral_asset"`
	CollateralAmount  decimal.Decimal `json:"collateral_amount"`
	BorrowedAsset     string          `json:"borrowed_asset"`
	Principal         decimal.Decimal `json:"principal"`
	AccruedInterest   decimal.Decimal `json:"accrued_interest"`
	AvailableCash     decimal.Decimal `json:"available_cash"`
	StrategyPrincipal decimal.Decimal `json:"strategy_principal"`
	StrategyYield     decimal.Decimal `json:"strategy_yield"`
	Status            AccountStatus   `json:"status"`
	OpenedAtDay       int64           `json:"opened_at_day"`
	LastAccrualDay    int64           `json:"last_accrual_day"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func NewCreditAccount(accountID, owner, collateralAsset string, collateral decimal.Decimal, borrowedAsset string, openedAtDay int64) *CreditAccount {
	now := time.Now()
	return &CreditAccount{
		AccountID:         accountID,
		Owner:             owner,
		CollateralAsset:   collateralAsset,
		CollateralAmount:  collateral,
		BorrowedAsset:     borrowedAsset,
		Principal:         decimal.Zero,
		AccruedInterest:   decimal.Zero,
		AvailableCash:     decimal.Zero,
		StrategyPrincipal: decimal.Zero,
		StrategyYield:     decimal.Zero,
		Status:            AccountStatusOpen,
		OpenedAtDay:       openedAtDay,
		LastAccrualDay:    openedAtDay,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (ca *CreditAccount) IsOpen() bool {
	return ca.Status == AccountStatusOpen
}

func (ca *CreditAccount) TotalDebt() decimal.Decimal {
	return ca.Principal.Add(ca.AccruedInterest)
}

func (ca *CreditAccount) StrategyValue() decimal.Decimal {
	return ca.StrategyPrincipal.Add(ca.StrategyYield)
}

// TotalCollateralValue 抵押品总价值，以借款资产计价。
// 闲置现金与策略仓位都计入抵押品。
func (ca *CreditAccount) TotalCollateralValue(oracle PriceSource) decimal.Decimal {
	collateral := ca.CollateralAmount.Mul(oracle.Price(ca.CollateralAsset))
	cashAndStrategy := ca.AvailableCash.Add(ca.StrategyValue()).Mul(oracle.Price(ca.BorrowedAsset))
	return collateral.Add(cashAndStrategy)
}

func (ca *CreditAccount) DebtValue(oracle PriceSource) decimal.Decimal {
	return ca.TotalDebt().Mul(oracle.Price(ca.BorrowedAsset))
}

// HealthFactor = 抵押品总价值 × 清算阈值 / 债务价值，无债务时返回哨兵值。
func (ca *CreditAccount) HealthFactor(oracle PriceSource, liquidationThreshold decimal.Decimal) decimal.Decimal {
	debt := ca.DebtValue(oracle)
	if debt.IsZero() {
		return healthFactorNoDebt
	}
	return ca.TotalCollateralValue(oracle).Mul(liquidationThreshold).Div(debt)
}

func (ca *CreditAccount) AddCollateral(amount decimal.Decimal) error {
	if !ca.IsOpen() {
		return ErrInvalidState
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	ca.CollateralAmount = ca.CollateralAmount.Add(amount)
	ca.UpdatedAt = time.Now()
	return nil
}

// creditBorrow 记入新借款：增加本金，对应现金进入账户。
// 池子侧与健康因子校验由 World 负责。
func (ca *CreditAccount) creditBorrow(amount decimal.Decimal) {
	ca.Principal = ca.Principal.Add(amount)
	ca.AvailableCash = ca.AvailableCash.Add(amount)
	ca.UpdatedAt = time.Now()
}

func (ca *CreditAccount) DeployToStrategy(amount decimal.Decimal) error {
	if !ca.IsOpen() {
		return ErrInvalidState
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(ca.AvailableCash) {
		return ErrInsufficientCash
	}
	ca.AvailableCash = ca.AvailableCash.Sub(amount)
	ca.StrategyPrincipal = ca.StrategyPrincipal.Add(amount)
	ca.UpdatedAt = time.Now()
	return nil
}

// WithdrawFromStrategy 全额赎回策略仓位，本金与收益一并回到闲置现金。
func (ca *CreditAccount) WithdrawFromStrategy() (decimal.Decimal, error) {
	if !ca.IsOpen() {
		return decimal.Zero, ErrInvalidState
	}
	withdrawn := ca.StrategyValue()
	ca.AvailableCash = ca.AvailableCash.Add(withdrawn)
	ca.StrategyPrincipal = decimal.Zero
	ca.StrategyYield = decimal.Zero
	ca.UpdatedAt = time.Now()
	return withdrawn, nil
}

// Repay 以闲置现金还款，先还利息，剩余部分还本金。
// 返回归还的本金部分，由调用方转发给 Pool.RepayPrincipal。
func (ca *CreditAccount) Repay(amount decimal.Decimal) (decimal.Decimal, error) {
	if !ca.IsOpen() {
		return decimal.Zero, ErrInvalidState
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.GreaterThan(ca.AvailableCash) {
		return decimal.Zero, ErrInsufficientCash
	}
	interestPaid := decimal.Min(amount, ca.AccruedInterest)
	principalPaid := decimal.Min(amount.Sub(interestPaid), ca.Principal)
	ca.AccruedInterest = ca.AccruedInterest.Sub(interestPaid)
	ca.Principal = ca.Principal.Sub(principalPaid)
	ca.AvailableCash = ca.AvailableCash.Sub(amount)
	ca.UpdatedAt = time.Now()
	return principalPaid, nil
}

// AccrueInterest 按实际借款利率对本金计息，利息单独累积，不滚入本金。
func (ca *CreditAccount) AccrueInterest(effectiveRate decimal.Decimal, days int) {
	interest := CompoundGrowth(ca.Principal, effectiveRate, days)
	ca.AccruedInterest = ca.AccruedInterest.Add(interest)
	ca.UpdatedAt = time.Now()
}

// AccrueStrategyYield 对策略本金计提收益，仓位为零时不产生收益。
func (ca *CreditAccount) AccrueStrategyYield(apy decimal.Decimal, days int) {
	if ca.StrategyPrincipal.IsZero() {
		return
	}
	yield := CompoundGrowth(ca.StrategyPrincipal, apy, days)
	ca.StrategyYield = ca.StrategyYield.Add(yield)
	ca.UpdatedAt = time.Now()
}

// Close 关闭账户。要求债务清零且策略仓位已赎回；
// 不做隐式赎回，调用方需先 WithdrawFromStrategy。
// 已清算账户在债务确认为零后也经由此转为 CLOSED。
func (ca *CreditAccount) Close() error {
	if ca.Status == AccountStatusClosed {
		return ErrInvalidState
	}
	if !ca.TotalDebt().IsZero() {
		return ErrInvalidState
	}
	if !ca.StrategyValue().IsZero() {
		return ErrInvalidState
	}
	ca.Status = AccountStatusClosed
	ca.UpdatedAt = time.Now()
	return nil
}

// markLiquidated 清算后的状态落账：债务清零、资产全部没收。
func (ca *CreditAccount) markLiquidated() {
	ca.Principal = decimal.Zero
	ca.AccruedInterest = decimal.Zero
	ca.CollateralAmount = decimal.Zero
	ca.AvailableCash = decimal.Zero
	ca.StrategyPrincipal = decimal.Zero
	ca.StrategyYield = decimal.Zero
	ca.Status = AccountStatusLiquidated
	ca.UpdatedAt = time.Now()
}
