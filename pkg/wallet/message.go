package wallet

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// SignatureLen is the length of a compact recoverable signature.
	SignatureLen = 65

	// signedMessageMagic is the framing prefix of the Bitcoin signed message
	// digest.
	signedMessageMagic = "Bitcoin Signed Message:\n"

	// header byte bounds: 27-30 uncompressed p2pkh, 31-34 compressed p2pkh,
	// 35-38 segwit-nested, 39-42 native segwit
	minHeaderByte        = 27
	maxHeaderByte        = 42
	compressedHeaderBase = 31
	headerRangeLen       = 4
)

// ChallengeMessage returns the payload a client must sign to authenticate
// with key at the given nonce: the base58check key text immediately followed
// by the decimal nonce.
func ChallengeMessage(key ExtendedPublicKey, nonce uint32) string {
	return key.String() + strconv.FormatUint(uint64(nonce), 10)
}

// MessageDigest returns the double sha256 of the message framed with the
// length prefixed signed message magic.
func MessageDigest(message string) [32]byte {
	var buf bytes.Buffer
	// writes to a bytes.Buffer never fail
	_ = wire.WriteVarString(&buf, 0, signedMessageMagic)
	_ = wire.WriteVarString(&buf, 0, message)

	return chainhash.DoubleHashH(buf.Bytes())
}

// SignMessage signs the digest of message with key and returns the 65 byte
// compact recoverable signature for the compressed public key.
func SignMessage(key *btcec.PrivateKey, message string) []byte {
	digest := MessageDigest(message)
	return ecdsa.SignCompact(key, digest[:], true)
}

// RecoverMessageSigner returns the public key recovered from sig over the
// message digest, and whether the signer declared it in compressed form.
func RecoverMessageSigner(sig []byte, message string) (
	*btcec.PublicKey, bool, error,
) {
	if len(sig) != SignatureLen {
		return nil, false, fmt.Errorf(
			"%w: expected %d bytes, got %d", ErrMalformedWitness, SignatureLen, len(sig),
		)
	}

	header := sig[0]
	if header < minHeaderByte || header > maxHeaderByte {
		return nil, false, fmt.Errorf(
			"%w: invalid header byte %d", ErrMalformedWitness, header,
		)
	}

	// RecoverCompact only understands the p2pkh headers, any segwit flavour
	// is normalized to its compressed p2pkh equivalent.
	compact := make([]byte, SignatureLen)
	copy(compact, sig)
	if header >= compressedHeaderBase+headerRangeLen {
		recID := (header - minHeaderByte) % headerRangeLen
		compact[0] = compressedHeaderBase + recID
	}

	digest := MessageDigest(message)
	pubkey, compressed, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrMalformedWitness, err)
	}
	return pubkey, compressed, nil
}

// VerifyMessage checks that sig is a signature of message by the owner of
// expected, an address computed under profile. A well formed signature by a
// different key returns false without error.
func VerifyMessage(
	sig []byte, message string, expected Address, profile ScriptProfile,
) (bool, error) {
	if err := profile.validate(); err != nil {
		return false, err
	}

	pubkey, compressed, err := RecoverMessageSigner(sig, message)
	if err != nil {
		return false, err
	}

	// an uncompressed key can't own a segwit address
	addr, err := PubKeyAddress(pubkey, compressed, profile)
	if err != nil {
		return false, nil
	}

	return addr == expected, nil
}
