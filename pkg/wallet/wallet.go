package wallet

import (
	"errors"
	"math"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

const (
	// MaxHardenedValue is the max value for hardened indexes of BIP32
	// derivation paths
	MaxHardenedValue = math.MaxUint32 - hdkeychain.HardenedKeyStart
	// MaxNonHardenedValue is the highest index that can be derived from an
	// extended public key
	MaxNonHardenedValue = hdkeychain.HardenedKeyStart - 1
)

var (
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params are null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullSigningSeed ...
	ErrNullSigningSeed = errors.New("signing seed is null")

	// ErrInvalidKeyEncoding is returned for any malformed extended public key.
	ErrInvalidKeyEncoding = errors.New("invalid extended public key encoding")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
	// ErrHardenedIndexRejected is returned when a hardened index is requested
	// from public key material.
	ErrHardenedIndexRejected = errors.New(
		"hardened derivation requires a private key",
	)
	// ErrPointAtInfinity is returned when a derivation step yields an invalid
	// child key. The index is never skipped.
	ErrPointAtInfinity = errors.New("derived child key is invalid")
	// ErrMaxDepthExceeded ...
	ErrMaxDepthExceeded = errors.New("cannot derive beyond max depth 255")
	// ErrUnknownScriptType ...
	ErrUnknownScriptType = errors.New("unknown script type")

	// ErrMalformedWitness is returned when a signature blob is not a
	// well-formed recoverable signature.
	ErrMalformedWitness = errors.New("malformed recoverable signature")

	// ErrEmptyInputs ...
	ErrEmptyInputs = errors.New("input list must not be empty")
	// ErrNullDestination ...
	ErrNullDestination = errors.New("destination address must not be null")
	// ErrZeroOutputAmount ...
	ErrZeroOutputAmount = errors.New("output amount must not be zero")
	// ErrInvalidInputTxid ...
	ErrInvalidInputTxid = errors.New("input txid must be a 32 byte hex string")
	// ErrNullPsbt ...
	ErrNullPsbt = errors.New("psbt must not be null")
	// ErrInvalidSignaturesLength ...
	ErrInvalidSignaturesLength = errors.New(
		"number of signatures must match number of inputs",
	)
	// ErrInvalidSchnorrSignature ...
	ErrInvalidSchnorrSignature = errors.New(
		"key-path signature must be a 64 or 65 byte schnorr signature",
	)
	// ErrNotTaprootOutput ...
	ErrNotTaprootOutput = errors.New("input does not spend a taproot output")
)

// NewMasterKeyOpts is the struct given to NewMasterKey method
type NewMasterKeyOpts struct {
	Seed           []byte
	Network        *chaincfg.Params
	DerivationPath DerivationPath
}

func (o NewMasterKeyOpts) validate() error {
	if len(o.Seed) <= 0 {
		return ErrNullSigningSeed
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// NewMasterKey derives the extended private key at the given path from the
// seed and returns it with its neutered counterpart.
func NewMasterKey(opts NewMasterKeyOpts) (
	*hdkeychain.ExtendedKey, ExtendedPublicKey, error,
) {
	if err := opts.validate(); err != nil {
		return nil, ExtendedPublicKey{}, err
	}

	hdNode, err := hdkeychain.NewMaster(opts.Seed, opts.Network)
	if err != nil {
		return nil, ExtendedPublicKey{}, err
	}
	for _, step := range opts.DerivationPath {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return nil, ExtendedPublicKey{}, err
		}
	}

	xpub, err := NeuterExtendedKey(hdNode)
	if err != nil {
		return nil, ExtendedPublicKey{}, err
	}
	return hdNode, xpub, nil
}

// NeuterExtendedKey returns the public counterpart of the given extended key
// in its canonical form.
func NeuterExtendedKey(key *hdkeychain.ExtendedKey) (ExtendedPublicKey, error) {
	pub, err := key.Neuter()
	if err != nil {
		return ExtendedPublicKey{}, err
	}
	return fromHDKey(pub)
}

// serializedKey returns the 78 byte payload of a base58check extended key.
func serializedKey(key *hdkeychain.ExtendedKey) []byte {
	raw := base58.Decode(key.String())
	if len(raw) < ExtendedPublicKeyLen {
		return nil
	}
	return raw[:ExtendedPublicKeyLen]
}
