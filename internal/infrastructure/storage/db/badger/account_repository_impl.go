package dbbadger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/wallet"
	"github.com/timshannon/badgerhold/v4"
)

const maxConflictRetries = 1000

// account is the storage model of domain.Account. Keys are stored in hex
// form.
type account struct {
	MasterKey       string
	Nonce           uint32
	DerivedChildren []string
}

func newAccount(a *domain.Account) *account {
	children := make([]string, 0, len(a.DerivedChildren))
	for _, child := range a.DerivedChildren {
		children = append(children, child.Hex())
	}
	return &account{
		MasterKey:       a.MasterKey.Hex(),
		Nonce:           a.Nonce,
		DerivedChildren: children,
	}
}

func (a account) toDomain() (*domain.Account, error) {
	masterKey, err := wallet.DecodeExtendedPublicKeyHex(a.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStoredAccount, err)
	}
	children := make([]wallet.ExtendedPublicKey, 0, len(a.DerivedChildren))
	for _, c := range a.DerivedChildren {
		child, err := wallet.DecodeExtendedPublicKeyHex(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStoredAccount, err)
		}
		children = append(children, child)
	}
	return &domain.Account{
		MasterKey:       masterKey,
		Nonce:           a.Nonce,
		DerivedChildren: children,
	}, nil
}

type accountRepositoryImpl struct {
	store *badgerhold.Store
}

// NewAccountRepositoryImpl returns a badger backed account repository.
// Every write runs in a badger transaction and is retried if it conflicts
// with a concurrent one touching the same account.
func NewAccountRepositoryImpl(store *badgerhold.Store) domain.AccountRepository {
	return accountRepositoryImpl{store}
}

func (r accountRepositoryImpl) AddAccount(
	ctx context.Context, a *domain.Account,
) error {
	if a.IsZero() {
		return domain.ErrNullMasterKey
	}

	acc := newAccount(a)
	err := r.withRetry(ctx, func(txn *badger.Txn) error {
		return r.store.TxInsert(txn, acc.MasterKey, acc)
	})
	if errors.Is(err, badgerhold.ErrKeyExists) {
		return domain.ErrDuplicateAccount
	}
	return err
}

func (r accountRepositoryImpl) GetAccount(
	ctx context.Context, masterKey wallet.ExtendedPublicKey,
) (*domain.Account, error) {
	var acc account
	if err := r.store.Get(masterKey.Hex(), &acc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return acc.toDomain()
}

func (r accountRepositoryImpl) UpdateAccount(
	ctx context.Context, masterKey wallet.ExtendedPublicKey,
	updateFn func(a *domain.Account) (*domain.Account, error),
) (*domain.Account, error) {
	key := masterKey.Hex()

	var updated *domain.Account
	err := r.withRetry(ctx, func(txn *badger.Txn) error {
		var acc account
		if err := r.store.TxGet(txn, key, &acc); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrAccountNotFound
			}
			return err
		}

		current, err := acc.toDomain()
		if err != nil {
			return err
		}
		result, err := updateFn(current)
		if err != nil {
			return err
		}
		if result.MasterKey != masterKey {
			return fmt.Errorf("master key of account %s can't be changed", key)
		}

		if err := r.store.TxUpdate(txn, key, newAccount(result)); err != nil {
			return err
		}
		updated = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r accountRepositoryImpl) CountAccounts(ctx context.Context) (int, error) {
	count, err := r.store.Count(&account{}, nil)
	if err != nil {
		return -1, err
	}
	return int(count), nil
}

func (r accountRepositoryImpl) withRetry(
	ctx context.Context, fn func(txn *badger.Txn) error,
) error {
	for i := 0; i < maxConflictRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.store.Badger().Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return ErrTooManyConflicts
}
