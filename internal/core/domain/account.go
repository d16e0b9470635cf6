package domain

import (
	"math"

	"github.com/tdex-network/xpubd/pkg/wallet"
)

// MaxDerivedChildren is the max number of child keys that can be issued for
// a single account.
const MaxDerivedChildren = 255

// Account defines the entity data structure of a client identified by the
// master extended public key it authenticated with.
type Account struct {
	MasterKey wallet.ExtendedPublicKey
	// Nonce is the next value a client must sign to authenticate.
	Nonce uint32
	// DerivedChildren lists the issued child keys in issuance order.
	DerivedChildren []wallet.ExtendedPublicKey
}

// NewAccount returns a new account for the given master key without any
// derived child.
func NewAccount(masterKey wallet.ExtendedPublicKey, nonce uint32) (*Account, error) {
	if masterKey.IsZero() {
		return nil, ErrNullMasterKey
	}
	return &Account{
		MasterKey:       masterKey,
		Nonce:           nonce,
		DerivedChildren: make([]wallet.ExtendedPublicKey, 0),
	}, nil
}

// IsZero returns whether the account is the zero value.
func (a *Account) IsZero() bool {
	return a == nil || a.MasterKey.IsZero()
}

// AddDerivedChild appends child to the list of derived children. The list is
// left unchanged if it's already full.
func (a *Account) AddDerivedChild(child wallet.ExtendedPublicKey) error {
	if child.IsZero() {
		return ErrNullDerivedChild
	}
	if len(a.DerivedChildren) >= MaxDerivedChildren {
		return ErrCapacityExceeded
	}
	a.DerivedChildren = append(a.DerivedChildren, child)
	return nil
}

// HasDerivedChild returns whether key has been issued for this account.
func (a *Account) HasDerivedChild(key wallet.ExtendedPublicKey) bool {
	for _, child := range a.DerivedChildren {
		if child == key {
			return true
		}
	}
	return false
}

// AdvanceNonce increments the account nonce.
func (a *Account) AdvanceNonce() error {
	if a.Nonce == math.MaxUint32 {
		return ErrNonceExhausted
	}
	a.Nonce++
	return nil
}

// ConsumeNonce advances the nonce only if claimed matches the current one.
func (a *Account) ConsumeNonce(claimed uint32) error {
	if a.Nonce != claimed {
		return ErrNonceMismatch
	}
	return a.AdvanceNonce()
}
