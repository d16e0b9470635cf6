package application_test

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/xpubd/internal/core/application"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

var (
	paymentProfile  = wallet.ScriptProfile{Network: &chaincfg.MainNetParams, Script: wallet.P2WPKH}
	identityProfile = wallet.ScriptProfile{Network: &chaincfg.TestNet3Params, Script: wallet.P2PKH}
)

// testClient holds the extended private key of a client.
type testClient struct {
	xprv *hdkeychain.ExtendedKey
	xpub wallet.ExtendedPublicKey
}

func newTestClient(t *testing.T) *testClient {
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	require.NoError(t, err)

	xprv, xpub, err := wallet.NewMasterKey(wallet.NewMasterKeyOpts{
		Seed:           seed,
		Network:        &chaincfg.MainNetParams,
		DerivationPath: wallet.DefaultAccountDerivationPath,
	})
	require.NoError(t, err)
	return &testClient{xprv, xpub}
}

func (c *testClient) credentials(t *testing.T, nonce uint32) application.Credentials {
	prvkey, err := c.xprv.ECPrivKey()
	require.NoError(t, err)

	message := wallet.ChallengeMessage(c.xpub, nonce)
	return application.Credentials{
		Witness:      wallet.SignMessage(prvkey, message),
		ClaimedKey:   c.xpub.Bytes(),
		ClaimedNonce: nonce,
	}
}

func (c *testClient) child(t *testing.T, first, second uint32) wallet.ExtendedPublicKey {
	child, err := wallet.DeriveChild(c.xpub, wallet.DerivationPath{first, second})
	require.NoError(t, err)
	return child
}

func newTestConfig(t *testing.T) *application.Config {
	cfg := &application.Config{
		DBType:          application.DBBadger,
		DBConfig:        "",
		SessionTTL:      time.Minute,
		PaymentProfile:  paymentProfile,
		IdentityProfile: identityProfile,
	}
	require.NoError(t, cfg.Validate())
	t.Cleanup(cfg.Close)
	return cfg
}
