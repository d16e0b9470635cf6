package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/tdex-network/xpubd/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var genkey = cli.Command{
	Name:  "genkey",
	Usage: "generate a random account key pair and store the private key",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "replace the key already stored in the local state",
		},
	},
	Action: genKeyAction,
}

var credentials = cli.Command{
	Name:  "credentials",
	Usage: "print the login credentials for the given nonce",
	Flags: []cli.Flag{
		&cli.UintFlag{
			Name:  "nonce",
			Usage: "the current nonce of the account",
		},
	},
	Action: credentialsAction,
}

type loginCredentials struct {
	Witness string `json:"witness"`
	Xpub    string `json:"xpub"`
	Nonce   uint32 `json:"nonce"`
}

func genKeyAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}
	if _, ok := state[xprvKey]; ok && !ctx.Bool("force") {
		return fmt.Errorf("a key is already stored, use --force to replace it")
	}

	net, err := wallet.NetworkByName(state[networkKey])
	if err != nil {
		return err
	}

	seed := make([]byte, hdkeychain.RecommendedSeedLen)
	if _, err := rand.Read(seed); err != nil {
		return err
	}

	xprv, xpub, err := wallet.NewMasterKey(wallet.NewMasterKeyOpts{
		Seed:           seed,
		Network:        net,
		DerivationPath: wallet.DefaultAccountDerivationPath,
	})
	if err != nil {
		return err
	}

	if err := setState(map[string]string{
		xprvKey:    xprv.String(),
		sessionKey: "",
	}); err != nil {
		return err
	}

	printJSON(map[string]string{
		"derivation_path": wallet.DefaultAccountDerivationPath.String(),
		"xpub":            xpub.String(),
		"xpub_hex":        xpub.Hex(),
	})
	return nil
}

func credentialsAction(ctx *cli.Context) error {
	nonce, err := parseNonce(ctx.Uint("nonce"))
	if err != nil {
		return err
	}
	creds, err := buildCredentials(nonce)
	if err != nil {
		return err
	}
	printJSON(creds)
	return nil
}

func parseNonce(nonce uint) (uint32, error) {
	if uint64(nonce) > math.MaxUint32 {
		return 0, fmt.Errorf("nonce must not exceed %d", uint32(math.MaxUint32))
	}
	return uint32(nonce), nil
}

func buildCredentials(nonce uint32) (*loginCredentials, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	encodedKey, ok := state[xprvKey]
	if !ok || encodedKey == "" {
		return nil, fmt.Errorf("no key found, generate one with 'genkey'")
	}
	return signCredentials(encodedKey, nonce)
}

// signCredentials signs the login challenge for the given nonce with the
// base58 encoded extended private key.
func signCredentials(encodedKey string, nonce uint32) (*loginCredentials, error) {
	xprv, err := hdkeychain.NewKeyFromString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid stored key: %s", err)
	}
	xpub, err := wallet.NeuterExtendedKey(xprv)
	if err != nil {
		return nil, err
	}
	prvkey, err := xprv.ECPrivKey()
	if err != nil {
		return nil, err
	}

	sig := wallet.SignMessage(prvkey, wallet.ChallengeMessage(xpub, nonce))
	return &loginCredentials{
		Witness: base64.StdEncoding.EncodeToString(sig),
		Xpub:    xpub.Hex(),
		Nonce:   nonce,
	}, nil
}
