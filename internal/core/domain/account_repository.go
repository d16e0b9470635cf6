package domain

import (
	"context"

	"github.com/tdex-network/xpubd/pkg/wallet"
)

// AccountRepository is the abstraction for any kind of database intended to
// persist Accounts.
type AccountRepository interface {
	// AddAccount adds a new account to the repository. It fails with
	// ErrDuplicateAccount if one with the same master key already exists.
	AddAccount(ctx context.Context, account *Account) error
	// GetAccount returns the account with the given master key.
	GetAccount(
		ctx context.Context, masterKey wallet.ExtendedPublicKey,
	) (*Account, error)
	// UpdateAccount updates the state of an account. The closure function
	// runs in the same transaction the account is read in, so that concurrent
	// updates of the same account never overwrite each other.
	UpdateAccount(
		ctx context.Context, masterKey wallet.ExtendedPublicKey,
		updateFn func(a *Account) (*Account, error),
	) (*Account, error)
	// CountAccounts returns the number of registered accounts.
	CountAccounts(ctx context.Context) (int, error)
}
