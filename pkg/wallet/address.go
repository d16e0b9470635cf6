package wallet

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// ScriptType identifies the output script template an address is derived for.
type ScriptType int

const (
	// P2PKH is the legacy pay-to-pubkey-hash script type.
	P2PKH ScriptType = iota
	// P2WPKH is the native segwit v0 pay-to-witness-pubkey-hash script type.
	P2WPKH
)

func (s ScriptType) String() string {
	switch s {
	case P2PKH:
		return "p2pkh"
	case P2WPKH:
		return "p2wpkh"
	default:
		return "unknown"
	}
}

// ScriptProfile binds a network to a script type. Every address computation
// takes one explicitly.
type ScriptProfile struct {
	Network *chaincfg.Params
	Script  ScriptType
}

func (p ScriptProfile) validate() error {
	if p.Network == nil {
		return ErrNullNetwork
	}
	if p.Script != P2PKH && p.Script != P2WPKH {
		return ErrUnknownScriptType
	}
	return nil
}

func (p ScriptProfile) String() string {
	if p.Network == nil {
		return p.Script.String()
	}
	return fmt.Sprintf("%s/%s", p.Network.Name, p.Script)
}

// Address is the encoded payment address for a public key under a profile.
type Address string

func (a Address) String() string {
	return string(a)
}

// AddressFor maps the public key embedded in key to an address under the
// given profile.
func AddressFor(key ExtendedPublicKey, profile ScriptProfile) (Address, error) {
	pubkey, err := key.PublicKey()
	if err != nil {
		return "", err
	}
	return PubKeyAddress(pubkey, true, profile)
}

// PubKeyAddress maps a public key, serialized compressed or not, to an address
// under the given profile.
func PubKeyAddress(
	pubkey *btcec.PublicKey, compressed bool, profile ScriptProfile,
) (Address, error) {
	if err := profile.validate(); err != nil {
		return "", err
	}

	var serialized []byte
	if compressed {
		serialized = pubkey.SerializeCompressed()
	} else {
		serialized = pubkey.SerializeUncompressed()
	}
	pubkeyHash := btcutil.Hash160(serialized)

	var (
		addr btcutil.Address
		err  error
	)
	switch profile.Script {
	case P2WPKH:
		if !compressed {
			return "", fmt.Errorf("segwit addresses require a compressed key")
		}
		addr, err = btcutil.NewAddressWitnessPubKeyHash(pubkeyHash, profile.Network)
	default:
		addr, err = btcutil.NewAddressPubKeyHash(pubkeyHash, profile.Network)
	}
	if err != nil {
		return "", err
	}

	return Address(addr.EncodeAddress()), nil
}

// NetworkByName returns the chain params for one of mainnet, testnet,
// regtest, simnet, signet.
func NetworkByName(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", chaincfg.MainNetParams.Name:
		return &chaincfg.MainNetParams, nil
	case "testnet", chaincfg.TestNet3Params.Name:
		return &chaincfg.TestNet3Params, nil
	case "regtest", chaincfg.RegressionNetParams.Name:
		return &chaincfg.RegressionNetParams, nil
	case chaincfg.SimNetParams.Name:
		return &chaincfg.SimNetParams, nil
	case chaincfg.SigNetParams.Name:
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %s", name)
	}
}
