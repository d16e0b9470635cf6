package application

import (
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

// identityField is the session field holding the master key of the
// authenticated account.
const identityField = "identity"

// Credentials are the proof of control of an extended key, submitted at
// login. They are never persisted.
type Credentials struct {
	// Witness is the 65 byte recoverable signature of the challenge.
	Witness []byte
	// ClaimedKey is the canonical 78 byte serialization of the master key.
	ClaimedKey []byte
	// ClaimedNonce is the nonce the challenge was signed for.
	ClaimedNonce uint32
}

// DerivedChildInfo contains a key issued for an account and its address under
// the payment profile.
type DerivedChildInfo struct {
	Key     wallet.ExtendedPublicKey
	Address wallet.Address
}

// AccountInfo is the view of an account returned to its owner.
type AccountInfo struct {
	MasterKey       wallet.ExtendedPublicKey
	Nonce           uint32
	DerivedChildren []DerivedChildInfo
}

// DerivedAddress is the result of a derivation request.
type DerivedAddress struct {
	Address wallet.Address
	Child   wallet.ExtendedPublicKey
	Account AccountInfo
}

// TemplateInput references a previous output to spend. WitnessUtxo is
// optional, when defined both Amount (BTC) and Script (hex) are required.
type TemplateInput struct {
	Txid        string
	Vout        uint32
	Sequence    *uint32
	WitnessUtxo *WitnessUtxo
}

type WitnessUtxo struct {
	Amount string
	Script string
}

// CreateTemplateRequest contains the args to build an unsigned spend
// template. Amounts are decimal BTC strings.
type CreateTemplateRequest struct {
	Inputs       []TemplateInput
	Destination  string
	ChangeKey    wallet.ExtendedPublicKey
	SpendAmount  string
	ChangeAmount string
}

// FinalizeTemplateRequest contains a base64 encoded PSBT and one hex encoded
// schnorr key-path signature per input.
type FinalizeTemplateRequest struct {
	Psbt       string
	Signatures []string
}

type FinalizedTemplate struct {
	Psbt string
	// TxHex is the network serialized transaction, empty if the template
	// can't be extracted yet.
	TxHex string
}

func accountInfo(
	account *domain.Account, profile wallet.ScriptProfile,
) (*AccountInfo, error) {
	children := make([]DerivedChildInfo, 0, len(account.DerivedChildren))
	for _, child := range account.DerivedChildren {
		addr, err := wallet.AddressFor(child, profile)
		if err != nil {
			return nil, err
		}
		children = append(children, DerivedChildInfo{child, addr})
	}
	return &AccountInfo{
		MasterKey:       account.MasterKey,
		Nonce:           account.Nonce,
		DerivedChildren: children,
	}, nil
}
