package wallet

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// ExtendedPublicKeyLen is the length of the canonical BIP32 serialization.
const ExtendedPublicKeyLen = 78

const (
	versionLen     = 4
	depthOffset    = 4
	parentFPOffset = 5
	childNumOffset = 9
	chainCodeOff   = 13
	pubKeyOffset   = 45
)

// networks whose BIP32 public version bytes are accepted by the codec
var knownNetworks = []*chaincfg.Params{
	&chaincfg.MainNetParams,
	&chaincfg.TestNet3Params,
	&chaincfg.RegressionNetParams,
	&chaincfg.SimNetParams,
	&chaincfg.SigNetParams,
}

// ExtendedPublicKey is the canonical 78 byte serialization of a BIP32
// extended public key. It is comparable and can be used as a map key.
// Values are only obtained through the decoding functions of this package, so
// a non-zero ExtendedPublicKey is always well formed.
type ExtendedPublicKey struct {
	raw [ExtendedPublicKeyLen]byte
}

// DecodeExtendedPublicKey parses and validates the canonical byte form of an
// extended public key.
func DecodeExtendedPublicKey(b []byte) (ExtendedPublicKey, error) {
	if len(b) != ExtendedPublicKeyLen {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidKeyEncoding, ExtendedPublicKeyLen, len(b),
		)
	}

	var version [versionLen]byte
	copy(version[:], b[:versionLen])
	if networkByVersion(version) == nil {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: unknown public version %x", ErrInvalidKeyEncoding, version,
		)
	}

	depth := b[depthOffset]
	parentFP := binary.BigEndian.Uint32(b[parentFPOffset:childNumOffset])
	childNum := binary.BigEndian.Uint32(b[childNumOffset:chainCodeOff])
	if depth == 0 && (parentFP != 0 || childNum != 0) {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: master key with non zero parent fingerprint or child number",
			ErrInvalidKeyEncoding,
		)
	}

	pubkey := b[pubKeyOffset:]
	if pubkey[0] != 0x02 && pubkey[0] != 0x03 {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: public key must be compressed", ErrInvalidKeyEncoding,
		)
	}
	if _, err := btcec.ParsePubKey(pubkey); err != nil {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: %s", ErrInvalidKeyEncoding, err,
		)
	}

	var k ExtendedPublicKey
	copy(k.raw[:], b)
	return k, nil
}

// DecodeExtendedPublicKeyHex is like DecodeExtendedPublicKey for the hex
// representation of the canonical form.
func DecodeExtendedPublicKeyHex(s string) (ExtendedPublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: %s", ErrInvalidKeyEncoding, err,
		)
	}
	return DecodeExtendedPublicKey(b)
}

// ParseExtendedPublicKey parses the base58check textual form (ie. xpub...,
// tpub...) of an extended public key.
func ParseExtendedPublicKey(s string) (ExtendedPublicKey, error) {
	key, err := hdkeychain.NewKeyFromString(s)
	if err != nil {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: %s", ErrInvalidKeyEncoding, err,
		)
	}
	if key.IsPrivate() {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: got extended private key", ErrInvalidKeyEncoding,
		)
	}
	return fromHDKey(key)
}

func fromHDKey(key *hdkeychain.ExtendedKey) (ExtendedPublicKey, error) {
	if key.IsPrivate() {
		return ExtendedPublicKey{}, fmt.Errorf(
			"%w: got extended private key", ErrInvalidKeyEncoding,
		)
	}
	return DecodeExtendedPublicKey(serializedKey(key))
}

// Bytes returns a copy of the canonical 78 byte form.
func (k ExtendedPublicKey) Bytes() []byte {
	b := make([]byte, ExtendedPublicKeyLen)
	copy(b, k.raw[:])
	return b
}

// Hex returns the hex encoding of the canonical form.
func (k ExtendedPublicKey) Hex() string {
	return hex.EncodeToString(k.raw[:])
}

// String returns the base58check textual form.
func (k ExtendedPublicKey) String() string {
	if k.IsZero() {
		return ""
	}
	return k.hdKey().String()
}

// IsZero returns whether k is the zero value.
func (k ExtendedPublicKey) IsZero() bool {
	return k == ExtendedPublicKey{}
}

// Depth ...
func (k ExtendedPublicKey) Depth() uint8 {
	return k.raw[depthOffset]
}

// ChildIndex ...
func (k ExtendedPublicKey) ChildIndex() uint32 {
	return binary.BigEndian.Uint32(k.raw[childNumOffset:chainCodeOff])
}

// Network returns the params of the network the key version belongs to.
func (k ExtendedPublicKey) Network() *chaincfg.Params {
	var version [versionLen]byte
	copy(version[:], k.raw[:versionLen])
	return networkByVersion(version)
}

// PublicKey returns the embedded compressed public key.
func (k ExtendedPublicKey) PublicKey() (*btcec.PublicKey, error) {
	if k.IsZero() {
		return nil, ErrInvalidKeyEncoding
	}
	return btcec.ParsePubKey(k.raw[pubKeyOffset:])
}

// MarshalText encodes the key as hex of its canonical form.
func (k ExtendedPublicKey) MarshalText() ([]byte, error) {
	return []byte(k.Hex()), nil
}

// UnmarshalText decodes and validates a hex encoded canonical form.
func (k *ExtendedPublicKey) UnmarshalText(text []byte) error {
	key, err := DecodeExtendedPublicKeyHex(string(text))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

func (k ExtendedPublicKey) hdKey() *hdkeychain.ExtendedKey {
	return hdkeychain.NewExtendedKey(
		k.raw[:versionLen],
		k.raw[pubKeyOffset:],
		k.raw[chainCodeOff:pubKeyOffset],
		k.raw[parentFPOffset:childNumOffset],
		k.raw[depthOffset],
		binary.BigEndian.Uint32(k.raw[childNumOffset:chainCodeOff]),
		false,
	)
}

func networkByVersion(version [versionLen]byte) *chaincfg.Params {
	for _, net := range knownNetworks {
		if net.HDPublicKeyID == version {
			return net
		}
	}
	return nil
}
