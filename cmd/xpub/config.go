package main

import (
	"fmt"

	"github.com/tdex-network/xpubd/pkg/wallet"
	"github.com/urfave/cli/v2"
)

const (
	rpcServerKey = "rpcserver"
	networkKey   = "network"
	xprvKey      = "xprv"
	sessionKey   = "session"
)

var (
	networkFlag = cli.StringFlag{
		Name:  "network",
		Usage: "the network of the generated keys: mainnet, testnet, regtest, signet or simnet",
		Value: "mainnet",
	}

	rpcFlag = cli.StringFlag{
		Name:  "rpcserver",
		Usage: "xpubd daemon base url",
		Value: "http://localhost:8080",
	}
)

var config = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the xpub CLI",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "set a <key> <value> in the local state",
			Action: configSetAction,
		},
		{
			Name:   "init",
			Usage:  "initialize the local state with flags",
			Action: configInitAction,
			Flags: []cli.Flag{
				&networkFlag,
				&rpcFlag,
			},
		},
	},
}

func configAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	for key, value := range state {
		if key == xprvKey {
			value = "(hidden)"
		}
		fmt.Println(key + ": " + value)
	}
	return nil
}

func configSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return &invalidUsageError{c, "set"}
	}

	key, value := c.Args().Get(0), c.Args().Get(1)
	if key == networkKey {
		if _, err := wallet.NetworkByName(value); err != nil {
			return err
		}
	}
	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Printf("%s %s has been set\n", key, value)
	return nil
}

func configInitAction(c *cli.Context) error {
	if _, err := wallet.NetworkByName(c.String("network")); err != nil {
		return err
	}

	if err := setState(map[string]string{
		networkKey:   c.String("network"),
		rpcServerKey: c.String("rpcserver"),
	}); err != nil {
		return err
	}

	fmt.Println("config state initialized")
	return nil
}
