package application

import (
	"errors"
	"fmt"

	"github.com/tdex-network/xpubd/internal/core/domain"
)

var (
	// ErrBadSignature is returned when the credentials witness is not a valid
	// signature of the challenge by the claimed key.
	ErrBadSignature = errors.New("signature does not match the claimed key")
	// ErrUnauthorized is returned when the session isn't bound to any account.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServiceUnavailable is the error returned in case of internal errors
	// of the account or session stores.
	ErrServiceUnavailable = errors.New("service is unavailable, try again later")
	// ErrNullSessionID ...
	ErrNullSessionID = errors.New("session id must not be null")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New(
		"amount must be a positive BTC value with at most 8 decimals",
	)
	// ErrInvalidDestination ...
	ErrInvalidDestination = errors.New("invalid destination address")
	// ErrChangeKeyNotDerived is returned when the change key of a template is
	// not one of the child keys issued for the session account.
	ErrChangeKeyNotDerived = errors.New(
		"change key is not a derived child of the account",
	)
	// ErrInvalidWitnessUtxo ...
	ErrInvalidWitnessUtxo = errors.New("invalid input witness utxo")
	// ErrInvalidPsbt ...
	ErrInvalidPsbt = errors.New("invalid psbt")
	// ErrInvalidSignatureEncoding ...
	ErrInvalidSignatureEncoding = errors.New("signature must be in hex format")
)

// storeErrors are the errors of the account store that are meaningful to the
// caller, any other is reported as ErrServiceUnavailable.
var storeErrors = []error{
	domain.ErrAccountNotFound,
	domain.ErrDuplicateAccount,
	domain.ErrCapacityExceeded,
	domain.ErrNonceMismatch,
	domain.ErrNonceExhausted,
	domain.ErrNullMasterKey,
	domain.ErrNullDerivedChild,
}

func storeError(err error) error {
	if err == nil {
		return nil
	}
	for _, e := range storeErrors {
		if errors.Is(err, e) {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrServiceUnavailable, err)
}
