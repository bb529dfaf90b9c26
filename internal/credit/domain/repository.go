package domain

import "context"

type CreditAccountRepository interface {
	Save(ctx context.Context, account *CreditAccount) error
	FindByID(ctx context.Context, accountID string) (*CreditAccount, error)
	FindByOwner(ctx context.Context, owner string) ([]*CreditAccount, error)
	FindByStatus(ctx context.Context, status AccountStatus) ([]*CreditAccount, error)
	FindAll(ctx context.Context) ([]*CreditAccount, error)
}

type PoolRepository interface {
	Save(ctx context.Context, pool *Pool) error
	FindByAsset(ctx context.Context, asset string) (*Pool, error)
}
