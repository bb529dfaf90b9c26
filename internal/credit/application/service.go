package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
)

// CreditAppService 信贷账户应用服务。
// 所有公开操作串行执行，每个操作是一个校验-提交整体，
// 失败时世界状态保持不变。
type CreditAppService struct {
	mu        sync.Mutex
	world     *domain.World
	oracle    *domain.StaticOracle
	accounts  domain.CreditAccountRepository
	pools     domain.PoolRepository
	publisher domain.EventPublisher
	logger    *slog.Logger
}

func NewCreditAppService(
	world *domain.World,
	oracle *domain.StaticOracle,
	accounts domain.CreditAccountRepository,
	pools domain.PoolRepository,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *CreditAppService {
	return &CreditAppService{
		world:     world,
		oracle:    oracle,
		accounts:  accounts,
		pools:     pools,
		publisher: publisher,
		logger:    logger,
	}
}

// OpenAccount 开设信贷账户，可附带初始借款。
func (s *CreditAppService) OpenAccount(ctx context.Context, cmd OpenAccountCommand) (*AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.world.OpenAccount(cmd.Owner, cmd.CollateralAsset, cmd.Collateral, cmd.InitialBorrow)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, acc); err != nil {
		return nil, err
	}

	hf := s.world.HealthFactor(acc)
	if err := s.publisher.PublishAccountOpened(domain.AccountOpenedEvent{
		AccountID:     acc.AccountID,
		Owner:         acc.Owner,
		Collateral:    cmd.Collateral,
		InitialBorrow: cmd.InitialBorrow,
		HealthFactor:  hf,
		OccurredAt:    time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account opened event", "account_id", acc.AccountID, "error", err)
	}

	s.logger.InfoContext(ctx, "credit account opened",
		"account_id", acc.AccountID, "owner", acc.Owner,
		"collateral", cmd.Collateral.String(), "borrow", cmd.InitialBorrow.String(),
		"health_factor", hf.String())
	return s.view(acc), nil
}

// AddCollateral 追加抵押品。
func (s *CreditAppService) AddCollateral(ctx context.Context, owner, accountID string, amount decimal.Decimal) (*AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.world.AddCollateral(owner, accountID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	s.logger.InfoContext(ctx, "collateral added", "account_id", accountID, "amount", amount.String())
	return s.view(acc), nil
}

// IncreaseDebt 追加借款，借入资金进入账户闲置现金。
func (s *CreditAppService) IncreaseDebt(ctx context.Context, owner, accountID string, amount decimal.Decimal) (*AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.world.IncreaseDebt(owner, accountID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, acc); err != nil {
		return nil, err
	}

	hf := s.world.HealthFactor(acc)
	if err := s.publisher.PublishDebtIncreased(domain.DebtIncreasedEvent{
		AccountID:    acc.AccountID,
		Amount:       amount,
		NewPrincipal: acc.Principal,
		HealthFactor: hf,
		OccurredAt:   time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish debt increased event", "account_id", accountID, "error", err)
	}

	s.logger.InfoContext(ctx, "debt increased", "account_id", accountID, "amount", amount.String(), "health_factor", hf.String())
	return s.view(acc), nil
}

// DeployToStrategy 将闲置现金投放到收益策略。
func (s *CreditAppService) DeployToStrategy(ctx context.Context, owner, accountID string, amount decimal.Decimal) (*AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.world.DeployToStrategy(owner, accountID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	if err := s.publisher.PublishStrategyDeployed(domain.StrategyDeployedEvent{
		AccountID:     acc.AccountID,
		Amount:        amount,
		StrategyValue: acc.StrategyValue(),
		OccurredAt:    time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish strategy deployed event", "account_id", accountID, "error", err)
	}

	s.logger.InfoContext(ctx, "deployed to strategy", "account_id", accountID, "amount", amount.String())
	return s.view(acc), nil
}

// DeployAllToStrategy 将全部闲置现金投放到收益策略。
func (s *CreditAppService) DeployAllToStrategy(ctx context.Context, owner, accountID string) (*AccountView, error) {
	available := decimal.Zero
	s.mu.Lock()
	if acc, err := s.world.Account(accountID); err == nil {
		available = acc.AvailableCash
	}
	s.mu.Unlock()
	return s.DeployToStrategy(ctx, owner, accountID, available)
}

// WithdrawFromStrategy 全额赎回策略仓位回到闲置现金。
func (s *CreditAppService) WithdrawFromStrategy(ctx context.Context, owner, accountID string) (*AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, withdrawn, err := s.world.WithdrawFromStrategy(owner, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	s.logger.InfoContext(ctx, "withdrawn from strategy", "account_id", accountID, "amount", withdrawn.String())
	return s.view(acc), nil
}

// Repay 以闲置现金还款，先利息后本金。
func (s *CreditAppService) Repay(ctx context.Context, owner, accountID string, amount decimal.Decimal) (*AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.world.Repay(owner, accountID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, acc); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishDebtRepaid(domain.DebtRepaidEvent{
		AccountID:     acc.AccountID,
		Amount:        amount,
		RemainingDebt: acc.TotalDebt(),
		OccurredAt:    time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish debt repaid event", "account_id", accountID, "error", err)
	}

	s.logger.InfoContext(ctx, "debt repaid", "account_id", accountID, "amount", amount.String(), "remaining_debt", acc.TotalDebt().String())
	return s.view(acc), nil
}

// RepayAll 以闲置现金清偿全部债务。
func (s *CreditAppService) RepayAll(ctx context.Context, owner, accountID string) (*AccountView, error) {
	s.mu.Lock()
	debt := decimal.Zero
	if acc, err := s.world.Account(accountID); err == nil {
		debt = acc.TotalDebt()
	}
	s.mu.Unlock()
	return s.Repay(ctx, owner, accountID, debt)
}

// CloseAccount 关闭账户并返还抵押品与剩余现金。
func (s *CreditAppService) CloseAccount(ctx context.Context, owner, accountID string) (*CloseAccountResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collateral, cash, err := s.world.CloseAccount(owner, accountID)
	if err != nil {
		return nil, err
	}
	acc, err := s.world.Account(accountID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	if err := s.publisher.PublishAccountClosed(domain.AccountClosedEvent{
		AccountID:          accountID,
		ReturnedCollateral: collateral,
		ReturnedCash:       cash,
		OccurredAt:         time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account closed event", "account_id", accountID, "error", err)
	}

	s.logger.InfoContext(ctx, "credit account closed", "account_id", accountID,
		"returned_collateral", collateral.String(), "returned_cash", cash.String())
	return &CloseAccountResult{
		AccountID:          accountID,
		ReturnedCollateral: collateral,
		ReturnedCash:       cash,
	}, nil
}

// Liquidate 清算健康因子低于 1.0 的账户。
func (s *CreditAppService) Liquidate(ctx context.Context, accountID, beneficiary string) (*domain.LiquidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.world.Liquidate(accountID, beneficiary)
	if err != nil {
		return nil, err
	}
	acc, err := s.world.Account(accountID)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, acc); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishAccountLiquidated(domain.AccountLiquidatedEvent{
		AccountID:       result.AccountID,
		Owner:           result.Owner,
		HealthFactor:    result.HealthFactor,
		DebtRepaid:      result.DebtRepaid,
		LiquidatorBonus: result.LiquidatorBonus,
		OccurredAt:      time.Now(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account liquidated event", "account_id", accountID, "error", err)
	}

	s.logger.WarnContext(ctx, "credit account liquidated", "account_id", accountID,
		"health_factor", result.HealthFactor.String(), "debt_repaid", result.DebtRepaid.String(),
		"liquidator_bonus", result.LiquidatorBonus.String())
	return result, nil
}

// AdvanceDays 推进模拟时钟并为全部账户计息计收益。
func (s *CreditAppService) AdvanceDays(ctx context.Context, days int) (*AdvanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	warnings, err := s.world.AdvanceDays(days)
	if err != nil {
		return nil, err
	}
	for _, acc := range s.world.Accounts() {
		if err := s.accounts.Save(ctx, acc); err != nil {
			return nil, fmt.Errorf("failed to save account: %w", err)
		}
	}

	for _, warning := range warnings {
		if err := s.publisher.PublishMarginWarning(domain.MarginWarningEvent{
			AccountID:    warning.AccountID,
			Owner:        warning.Owner,
			HealthFactor: warning.HealthFactor,
			Health:       warning.Health,
			OccurredAt:   time.Now(),
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish margin warning event", "account_id", warning.AccountID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "time advanced", "days", days, "current_day", s.world.CurrentDay(), "warnings", len(warnings))
	return &AdvanceResult{
		Days:       days,
		CurrentDay: s.world.CurrentDay(),
		Warnings:   warnings,
	}, nil
}

// DropPrice 压测用：下调指定资产价格 percent 个百分点。
func (s *CreditAppService) DropPrice(ctx context.Context, asset string, percent decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oracle.DropPrice(asset, percent)
	s.logger.InfoContext(ctx, "price dropped", "asset", asset, "percent", percent.String(),
		"new_price", s.oracle.Price(asset).String())
}

// RevertPrice 恢复指定资产的初始价格。
func (s *CreditAppService) RevertPrice(ctx context.Context, asset string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oracle.RevertPrice(asset)
	s.logger.InfoContext(ctx, "price reverted", "asset", asset, "price", s.oracle.Price(asset).String())
}

// GetAccount 查询单个账户视图。
func (s *CreditAppService) GetAccount(ctx context.Context, accountID string) (*AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.world.Account(accountID)
	if err != nil {
		return nil, err
	}
	return s.view(acc), nil
}

// ListAccounts 列出全部未关闭账户视图。
func (s *CreditAppService) ListAccounts(ctx context.Context) []*AccountView {
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []*AccountView
	for _, acc := range s.world.Accounts() {
		if acc.Status == domain.AccountStatusClosed {
			continue
		}
		views = append(views, s.view(acc))
	}
	return views
}

// GetPool 借贷池状态视图。
func (s *CreditAppService) GetPool(ctx context.Context) *PoolView {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.world.Pool
	return &PoolView{
		Asset:          pool.Asset,
		TotalLiquidity: pool.TotalLiquidity,
		TotalBorrowed:  pool.TotalBorrowed,
		Available:      pool.Available(),
		Utilization:    pool.Utilization(),
		BorrowRate:     pool.BorrowRate(),
		EffectiveRate:  pool.EffectiveBorrowRate(),
		CurrentDay:     s.world.CurrentDay(),
	}
}

func (s *CreditAppService) persist(ctx context.Context, acc *domain.CreditAccount) error {
	if err := s.accounts.Save(ctx, acc); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	if err := s.pools.Save(ctx, s.world.Pool); err != nil {
		return fmt.Errorf("failed to save pool: %w", err)
	}
	return nil
}

func (s *CreditAppService) view(acc *domain.CreditAccount) *AccountView {
	hf := s.world.HealthFactor(acc)
	collateralValue := acc.CollateralAmount.Mul(s.world.Oracle.Price(acc.CollateralAsset))

	leverage := decimal.NewFromInt(1)
	if collateralValue.GreaterThan(decimal.Zero) {
		leverage = collateralValue.Add(acc.Principal).Div(collateralValue)
	}

	return &AccountView{
		AccountID:         acc.AccountID,
		Owner:             acc.Owner,
		Status:            acc.Status,
		CollateralAsset:   acc.CollateralAsset,
		CollateralAmount:  acc.CollateralAmount,
		CollateralValue:   collateralValue,
		Principal:         acc.Principal,
		AccruedInterest:   acc.AccruedInterest,
		TotalDebt:         acc.TotalDebt(),
		AvailableCash:     acc.AvailableCash,
		StrategyPrincipal: acc.StrategyPrincipal,
		StrategyYield:     acc.StrategyYield,
		StrategyValue:     acc.StrategyValue(),
		HealthFactor:      hf,
		Health:            s.world.RiskEngine().Classify(hf),
		Leverage:          leverage,
	}
}
