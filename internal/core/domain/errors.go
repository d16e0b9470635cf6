package domain

import "errors"

var (
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateAccount is returned when creating an account for a master
	// key that is already registered.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrCapacityExceeded is returned when an account already holds the max
	// number of derived children.
	ErrCapacityExceeded = errors.New("account derived children capacity exceeded")
	// ErrNonceMismatch is returned when the claimed nonce is not the one
	// currently expected for the account.
	ErrNonceMismatch = errors.New("nonce does not match")
	// ErrNonceExhausted is returned when the account nonce can't be advanced
	// any further.
	ErrNonceExhausted = errors.New("account nonce exhausted")
	// ErrNullMasterKey ...
	ErrNullMasterKey = errors.New("master key must not be null")
	// ErrNullDerivedChild ...
	ErrNullDerivedChild = errors.New("derived child must not be null")
)
