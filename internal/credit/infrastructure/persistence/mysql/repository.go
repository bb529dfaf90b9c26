package mysql

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
)

type CreditAccountModel struct {
	gorm.Model
	AccountID         string          `gorm:"column:account_id;type:varchar(64);uniqueIndex;not null"`
	Owner             string          `gorm:"column:owner;type:varchar(64);index;not null"`
	CollateralAsset   string          `gorm:"column:collateral_asset;type:varchar(16);not null"`
	CollateralAmount  decimal.Decimal `gorm:"column:collateral_amount;type:decimal(20,8);not null"`
	BorrowedAsset     string          `gorm:"column:borrowed_asset;type:varchar(16);not null"`
	Principal         decimal.Decimal `gorm:"column:principal;type:decimal(20,8);not null"`
	AccruedInterest   decimal.Decimal `gorm:"column:accrued_interest;type:decimal(20,8);not null"`
	AvailableCash     decimal.Decimal `gorm:"column:available_cash;type:decimal(20,8);not null"`
	StrategyPrincipal decimal.Decimal `gorm:"column:strategy_principal;type:decimal(20,8);not null"`
	StrategyYield     decimal.Decimal `gorm:"column:strategy_yield;type:decimal(20,8);not null"`
	Status            string          `gorm:"column:status;type:varchar(20);index;not null"`
	OpenedAtDay       int64           `gorm:"column:opened_at_day;not null"`
	LastAccrualDay    int64           `gorm:"column:last_accrual_day;not null"`
}

func (CreditAccountModel) TableName() string { return "credit_accounts" }

type PoolModel struct {
	gorm.Model
	Asset          string          `gorm:"column:asset;type:varchar(16);uniqueIndex;not null"`
	TotalLiquidity decimal.Decimal `gorm:"column:total_liquidity;type:decimal(20,8);not null"`
	TotalBorrowed  decimal.Decimal `gorm:"column:total_borrowed;type:decimal(20,8);not null"`
}

func (PoolModel) TableName() string { return "credit_pools" }

type CreditAccountRepo struct {
	db *gorm.DB
}

func NewCreditAccountRepo(db *gorm.DB) domain.CreditAccountRepository {
	return &CreditAccountRepo{db: db}
}

func (r *CreditAccountRepo) Save(ctx context.Context, acc *domain.CreditAccount) error {
	model := CreditAccountModel{
		AccountID:         acc.AccountID,
		Owner:             acc.Owner,
		CollateralAsset:   acc.CollateralAsset,
		CollateralAmount:  acc.CollateralAmount,
		BorrowedAsset:     acc.BorrowedAsset,
		Principal:         acc.Principal,
		AccruedInterest:   acc.AccruedInterest,
		AvailableCash:     acc.AvailableCash,
		StrategyPrincipal: acc.StrategyPrincipal,
		StrategyYield:     acc.StrategyYield,
		Status:            string(acc.Status),
		OpenedAtDay:       acc.OpenedAtDay,
		LastAccrualDay:    acc.LastAccrualDay,
	}

	var exist CreditAccountModel
	if err := r.db.WithContext(ctx).Where("account_id = ?", acc.AccountID).First(&exist).Error; err == nil {
		model.ID = exist.ID
		model.CreatedAt = exist.CreatedAt
	}

	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *CreditAccountRepo) FindByID(ctx context.Context, accountID string) (*domain.CreditAccount, error) {
	var model CreditAccountModel
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return toDomain(&model), nil
}

func (r *CreditAccountRepo) FindByOwner(ctx context.Context, owner string) ([]*domain.CreditAccount, error) {
	var models []CreditAccountModel
	if err := r.db.WithContext(ctx).Where("owner = ?", owner).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

func (r *CreditAccountRepo) FindByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.CreditAccount, error) {
	var models []CreditAccountModel
	if err := r.db.WithContext(ctx).Where("status = ?", string(status)).Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

func (r *CreditAccountRepo) FindAll(ctx context.Context) ([]*domain.CreditAccount, error) {
	var models []CreditAccountModel
	if err := r.db.WithContext(ctx).Order("account_id").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

func toDomain(m *CreditAccountModel) *domain.CreditAccount {
	return &domain.CreditAccount{
		AccountID:         m.AccountID,
		Owner:             m.Owner,
		CollateralAsset:   m.CollateralAsset,
		CollateralAmount:  m.CollateralAmount,
		BorrowedAsset:     m.BorrowedAsset,
		Principal:         m.Principal,
		AccruedInterest:   m.AccruedInterest,
		AvailableCash:     m.AvailableCash,
		StrategyPrincipal: m.StrategyPrincipal,
		StrategyYield:     m.StrategyYield,
		Status:            domain.AccountStatus(m.Status),
		OpenedAtDay:       m.OpenedAtDay,
		LastAccrualDay:    m.LastAccrualDay,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toDomainList(models []CreditAccountModel) []*domain.CreditAccount {
	result := make([]*domain.CreditAccount, 0, len(models))
	for i := range models {
		result = append(result, toDomain(&models[i]))
	}
	return result
}

type PoolRepo struct {
	db *gorm.DB
}

func NewPoolRepo(db *gorm.DB) domain.PoolRepository {
	return &PoolRepo{db: db}
}

func (r *PoolRepo) Save(ctx context.Context, pool *domain.Pool) error {
	model := PoolModel{
		Asset:          pool.Asset,
		TotalLiquidity: pool.TotalLiquidity,
		TotalBorrowed:  pool.TotalBorrowed,
	}

	var exist PoolModel
	if err := r.db.WithContext(ctx).Where("asset = ?", pool.Asset).First(&exist).Error; err == nil {
		model.ID = exist.ID
		model.CreatedAt = exist.CreatedAt
	}

	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *PoolRepo) FindByAsset(ctx context.Context, asset string) (*domain.Pool, error) {
	var model PoolModel
	if err := r.db.WithContext(ctx).Where("asset = ?", asset).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPoolNotFound
		}
		return nil, err
	}
	return &domain.Pool{
		Asset:          model.Asset,
		TotalLiquidity: model.TotalLiquidity,
		TotalBorrowed:  model.TotalBorrowed,
		UpdatedAt:      model.UpdatedAt,
	}, nil
}
