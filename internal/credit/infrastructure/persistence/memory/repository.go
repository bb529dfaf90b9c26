package memory

import (
	"context"
	"sync"

	"github.com/KostasCherv/protocol-analysis/internal/credit/domain"
)

// CreditAccountRepo 内存账户仓储，用于自包含模拟模式与测试。
type CreditAccountRepo struct {
	mu       sync.RWMutex
	accounts map[string]domain.CreditAccount
}

func NewCreditAccountRepo() *CreditAccountRepo {
	return &CreditAccountRepo{accounts: make(map[string]domain.CreditAccount)}
}

func (r *CreditAccountRepo) Save(ctx context.Context, account *domain.CreditAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.AccountID] = *account
	return nil
}

func (r *CreditAccountRepo) FindByID(ctx context.Context, accountID string) (*domain.CreditAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &acc, nil
}

func (r *CreditAccountRepo) FindByOwner(ctx context.Context, owner string) ([]*domain.CreditAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.CreditAccount
	for _, acc := range r.accounts {
		if acc.Owner == owner {
			copied := acc
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *CreditAccountRepo) FindByStatus(ctx context.Context, status domain.AccountStatus) ([]*domain.CreditAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*domain.CreditAccount
	for _, acc := range r.accounts {
		if acc.Status == status {
			copied := acc
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *CreditAccountRepo) FindAll(ctx context.Context) ([]*domain.CreditAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.CreditAccount, 0, len(r.accounts))
	for _, acc := range r.accounts {
		copied := acc
		result = append(result, &copied)
	}
	return result, nil
}

// PoolRepo 内存借贷池仓储。
type PoolRepo struct {
	mu    sync.RWMutex
	pools map[string]domain.Pool
}

func NewPoolRepo() *PoolRepo {
	return &PoolRepo{pools: make(map[string]domain.Pool)}
}

func (r *PoolRepo) Save(ctx context.Context, pool *domain.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[pool.Asset] = *pool
	return nil
}

func (r *PoolRepo) FindByAsset(ctx context.Context, asset string) (*domain.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.pools[asset]
	if !ok {
		return nil, domain.ErrPoolNotFound
	}
	return &pool, nil
}
