package wallet

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

const (
	testSeed      = "000102030405060708090a0b0c0d0e0f"
	testMasterKey = "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"
	testMasterPrv = "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
)

func TestExtendedPublicKeyCodec(t *testing.T) {
	key, err := ParseExtendedPublicKey(testMasterKey)
	require.NoError(t, err)
	require.False(t, key.IsZero())
	require.Equal(t, testMasterKey, key.String())
	require.Equal(t, &chaincfg.MainNetParams, key.Network())
	require.Zero(t, key.Depth())
	require.Zero(t, key.ChildIndex())

	raw := key.Bytes()
	require.Len(t, raw, ExtendedPublicKeyLen)

	decoded, err := DecodeExtendedPublicKey(raw)
	require.NoError(t, err)
	require.Equal(t, key, decoded)

	decoded, err = DecodeExtendedPublicKeyHex(key.Hex())
	require.NoError(t, err)
	require.Equal(t, key, decoded)

	text, err := key.MarshalText()
	require.NoError(t, err)
	var unmarshaled ExtendedPublicKey
	require.NoError(t, unmarshaled.UnmarshalText(text))
	require.Equal(t, key, unmarshaled)

	// Bytes must return a copy.
	raw[0] = 0xff
	require.Equal(t, key, decoded)
}

func TestFailingDecodeExtendedPublicKey(t *testing.T) {
	key, err := ParseExtendedPublicKey(testMasterKey)
	require.NoError(t, err)
	child, err := DeriveChild(key, DerivationPath{0})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input func() []byte
	}{
		{
			name:  "empty",
			input: func() []byte { return nil },
		},
		{
			name:  "too short",
			input: func() []byte { return key.Bytes()[:ExtendedPublicKeyLen-1] },
		},
		{
			name:  "too long",
			input: func() []byte { return append(key.Bytes(), 0x00) },
		},
		{
			name: "unknown version",
			input: func() []byte {
				b := key.Bytes()
				copy(b[:versionLen], []byte{0xde, 0xad, 0xbe, 0xef})
				return b
			},
		},
		{
			name: "private version",
			input: func() []byte {
				b := key.Bytes()
				copy(b[:versionLen], chaincfg.MainNetParams.HDPrivateKeyID[:])
				return b
			},
		},
		{
			name: "master with child number",
			input: func() []byte {
				b := key.Bytes()
				b[chainCodeOff-1] = 0x01
				return b
			},
		},
		{
			name: "master with parent fingerprint",
			input: func() []byte {
				b := key.Bytes()
				b[parentFPOffset] = 0x01
				return b
			},
		},
		{
			name: "uncompressed prefix",
			input: func() []byte {
				b := child.Bytes()
				b[pubKeyOffset] = 0x04
				return b
			},
		},
		{
			name: "point not on curve",
			input: func() []byte {
				b := child.Bytes()
				for i := pubKeyOffset + 1; i < ExtendedPublicKeyLen; i++ {
					b[i] = 0xff
				}
				return b
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeExtendedPublicKey(tt.input())
			require.ErrorIs(t, err, ErrInvalidKeyEncoding)
			require.True(t, decoded.IsZero())
		})
	}
}

func TestFailingParseExtendedPublicKey(t *testing.T) {
	tests := []string{
		"",
		"xpub",
		testMasterPrv,
		testMasterKey[:len(testMasterKey)-1] + "9",
	}

	for _, tt := range tests {
		_, err := ParseExtendedPublicKey(tt)
		require.ErrorIs(t, err, ErrInvalidKeyEncoding, tt)
	}

	_, err := DecodeExtendedPublicKeyHex("not hex")
	require.ErrorIs(t, err, ErrInvalidKeyEncoding)

	var key ExtendedPublicKey
	require.Error(t, key.UnmarshalText([]byte("00")))
}

func TestNewMasterKey(t *testing.T) {
	seed, _ := hex.DecodeString(testSeed)

	xprv, xpub, err := NewMasterKey(NewMasterKeyOpts{
		Seed:    seed,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)
	require.Equal(t, testMasterPrv, xprv.String())
	require.Equal(t, testMasterKey, xpub.String())

	_, _, err = NewMasterKey(NewMasterKeyOpts{Network: &chaincfg.MainNetParams})
	require.ErrorIs(t, err, ErrNullSigningSeed)

	_, _, err = NewMasterKey(NewMasterKeyOpts{Seed: seed})
	require.ErrorIs(t, err, ErrNullNetwork)
}
