package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the internal representation of a path in the hierarchical
// deterministic key tree, relative to the key it is applied to.
type DerivationPath []uint32

var (
	// DefaultAccountDerivationPath m/84'/0'/0' is the path of the account
	// extended key generated by the CLI.
	DefaultAccountDerivationPath = DerivationPath{
		hdkeychain.HardenedKeyStart + 84,
		hdkeychain.HardenedKeyStart + 0,
		hdkeychain.HardenedKeyStart + 0,
	}
)

// ParseDerivationPath converts a derivation path string like m/84'/0'/0' or
// 0/5 to the internal binary representation
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	strPath = strings.TrimSpace(strPath)
	if strPath == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if len(elems) == 0 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}

		var offset uint32
		if strings.HasSuffix(elem, "'") || strings.HasSuffix(elem, "h") {
			offset = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(elem[:len(elem)-1])
		}

		value, err := strconv.ParseUint(elem, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid elem '%s'", ErrInvalidDerivationPath, elem)
		}
		if offset > 0 && value > MaxHardenedValue {
			return nil, fmt.Errorf(
				"%w: elem %d must be in hardened range [0, %d]",
				ErrInvalidDerivationPath, value, MaxHardenedValue,
			)
		}

		path = append(path, offset+uint32(value))
	}

	return path, nil
}

// IsHardened returns whether any index of the path requires hardened
// derivation.
func (path DerivationPath) IsHardened() bool {
	for _, index := range path {
		if index >= hdkeychain.HardenedKeyStart {
			return true
		}
	}
	return false
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("m")
	for _, component := range path {
		if component >= hdkeychain.HardenedKeyStart {
			fmt.Fprintf(&sb, "/%d'", component-hdkeychain.HardenedKeyStart)
			continue
		}
		fmt.Fprintf(&sb, "/%d", component)
	}
	return sb.String()
}
