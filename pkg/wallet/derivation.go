package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DeriveChild applies public parent to public child derivation for every
// index of path, in order. The whole path is validated before deriving so a
// hardened index never results in partial work.
func DeriveChild(
	parent ExtendedPublicKey, path DerivationPath,
) (ExtendedPublicKey, error) {
	if parent.IsZero() {
		return ExtendedPublicKey{}, ErrInvalidKeyEncoding
	}
	if len(path) <= 0 {
		return ExtendedPublicKey{}, ErrNullDerivationPath
	}
	if path.IsHardened() {
		return ExtendedPublicKey{}, ErrHardenedIndexRejected
	}
	if int(parent.Depth())+len(path) > 255 {
		return ExtendedPublicKey{}, ErrMaxDepthExceeded
	}

	hdNode := parent.hdKey()
	for _, index := range path {
		child, err := hdNode.Derive(index)
		if err != nil {
			return ExtendedPublicKey{}, derivationError(index, err)
		}
		hdNode = child
	}

	return fromHDKey(hdNode)
}

func derivationError(index uint32, err error) error {
	switch {
	case errors.Is(err, hdkeychain.ErrInvalidChild):
		return fmt.Errorf("%w: index %d", ErrPointAtInfinity, index)
	case errors.Is(err, hdkeychain.ErrDeriveHardFromPublic):
		return ErrHardenedIndexRejected
	case errors.Is(err, hdkeychain.ErrDeriveBeyondMaxDepth):
		return ErrMaxDepthExceeded
	default:
		return err
	}
}
