package application

import (
	"context"

	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

// AccountRegistry tracks the accounts and the child keys issued for them.
// Every mutation is an atomic read-modify-write on the underlying store.
// Errors other than the domain ones are reported as ErrServiceUnavailable.
type AccountRegistry interface {
	FindByKey(
		ctx context.Context, key wallet.ExtendedPublicKey,
	) (*domain.Account, error)
	CreateWithKeyAndNonce(
		ctx context.Context, key wallet.ExtendedPublicKey, nonce uint32,
	) (*domain.Account, error)
	AppendDerivedChild(
		ctx context.Context, key, child wallet.ExtendedPublicKey,
	) (*domain.Account, error)
	AdvanceNonce(
		ctx context.Context, key wallet.ExtendedPublicKey,
	) (*domain.Account, error)
	ConsumeNonce(
		ctx context.Context, key wallet.ExtendedPublicKey, claimed uint32,
	) (*domain.Account, error)
	CountAccounts(ctx context.Context) (int, error)
}

type accountRegistry struct {
	repository domain.AccountRepository
}

func NewAccountRegistry(repository domain.AccountRepository) AccountRegistry {
	return &accountRegistry{repository}
}

func (r *accountRegistry) FindByKey(
	ctx context.Context, key wallet.ExtendedPublicKey,
) (*domain.Account, error) {
	account, err := r.repository.GetAccount(ctx, key)
	if err != nil {
		return nil, storeError(err)
	}
	return account, nil
}

func (r *accountRegistry) CreateWithKeyAndNonce(
	ctx context.Context, key wallet.ExtendedPublicKey, nonce uint32,
) (*domain.Account, error) {
	account, err := domain.NewAccount(key, nonce)
	if err != nil {
		return nil, err
	}
	if err := r.repository.AddAccount(ctx, account); err != nil {
		return nil, storeError(err)
	}
	return account, nil
}

func (r *accountRegistry) AppendDerivedChild(
	ctx context.Context, key, child wallet.ExtendedPublicKey,
) (*domain.Account, error) {
	return r.update(ctx, key, func(a *domain.Account) error {
		return a.AddDerivedChild(child)
	})
}

func (r *accountRegistry) AdvanceNonce(
	ctx context.Context, key wallet.ExtendedPublicKey,
) (*domain.Account, error) {
	return r.update(ctx, key, func(a *domain.Account) error {
		return a.AdvanceNonce()
	})
}

func (r *accountRegistry) ConsumeNonce(
	ctx context.Context, key wallet.ExtendedPublicKey, claimed uint32,
) (*domain.Account, error) {
	return r.update(ctx, key, func(a *domain.Account) error {
		return a.ConsumeNonce(claimed)
	})
}

func (r *accountRegistry) CountAccounts(ctx context.Context) (int, error) {
	count, err := r.repository.CountAccounts(ctx)
	if err != nil {
		return -1, storeError(err)
	}
	return count, nil
}

func (r *accountRegistry) update(
	ctx context.Context, key wallet.ExtendedPublicKey,
	mutate func(a *domain.Account) error,
) (*domain.Account, error) {
	account, err := r.repository.UpdateAccount(
		ctx, key, func(a *domain.Account) (*domain.Account, error) {
			if err := mutate(a); err != nil {
				return nil, err
			}
			return a, nil
		},
	)
	if err != nil {
		return nil, storeError(err)
	}
	return account, nil
}
