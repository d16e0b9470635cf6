package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/urfave/cli/v2"
)

var info = cli.Command{
	Name:   "info",
	Usage:  "get info about the daemon",
	Action: infoAction,
}

var login = cli.Command{
	Name:  "login",
	Usage: "log in with the stored key and keep the session in the local state",
	Flags: []cli.Flag{
		&cli.UintFlag{
			Name:  "nonce",
			Usage: "the current nonce of the account",
		},
	},
	Action: loginAction,
}

var logout = cli.Command{
	Name:   "logout",
	Usage:  "close the current session",
	Action: logoutAction,
}

var account = cli.Command{
	Name:   "account",
	Usage:  "get the account bound to the current session",
	Action: accountAction,
}

var derive = cli.Command{
	Name:      "derive",
	Usage:     "derive a new address for the account",
	ArgsUsage: "<first_index> <second_index>",
	Action:    deriveAction,
}

func infoAction(ctx *cli.Context) error {
	var resp map[string]interface{}
	if _, err := callDaemon(http.MethodGet, "/info", nil, &resp); err != nil {
		return err
	}
	printJSON(resp)
	return nil
}

func loginAction(ctx *cli.Context) error {
	nonce, err := parseNonce(ctx.Uint("nonce"))
	if err != nil {
		return err
	}
	creds, err := buildCredentials(nonce)
	if err != nil {
		return err
	}

	var account map[string]interface{}
	resp, err := callDaemon(http.MethodPost, "/login", creds, &account)
	if err != nil {
		return err
	}

	session := sessionFromResponse(resp)
	if session == "" {
		return fmt.Errorf("daemon did not return any session")
	}
	if err := setState(map[string]string{sessionKey: session}); err != nil {
		return err
	}

	printJSON(account)
	return nil
}

func logoutAction(ctx *cli.Context) error {
	if _, err := callDaemon(http.MethodPost, "/logout", nil, nil); err != nil {
		return err
	}
	if err := setState(map[string]string{sessionKey: ""}); err != nil {
		return err
	}

	fmt.Println("logged out")
	return nil
}

func accountAction(ctx *cli.Context) error {
	var account map[string]interface{}
	if _, err := callDaemon(http.MethodGet, "/account", nil, &account); err != nil {
		return err
	}
	printJSON(account)
	return nil
}

func deriveAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return &invalidUsageError{ctx, "derive"}
	}

	indexes := make([]uint64, 0, 2)
	for _, arg := range ctx.Args().Slice() {
		index, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid index %s: must be an unsigned 32 bit integer", arg)
		}
		indexes = append(indexes, index)
	}

	var derived map[string]interface{}
	path := fmt.Sprintf("/derive_address/%d/%d", indexes[0], indexes[1])
	if _, err := callDaemon(http.MethodPost, path, nil, &derived); err != nil {
		return err
	}
	printJSON(derived)
	return nil
}
