package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
)

var createpsbt = cli.Command{
	Name:  "createpsbt",
	Usage: "create an unsigned spend template with change to a derived key",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "request",
			Usage:    "path of the JSON file with inputs, destination, change_xpub, spend_amount and change_amount",
			Required: true,
		},
	},
	Action: createPsbtAction,
}

var finalizepsbt = cli.Command{
	Name:  "finalizepsbt",
	Usage: "finalize a template with one schnorr key-path signature per input",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "psbt",
			Usage:    "the base64 encoded template",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "sig",
			Usage: "hex encoded signature, repeated in input order",
		},
	},
	Action: finalizePsbtAction,
}

func createPsbtAction(ctx *cli.Context) error {
	buf, err := os.ReadFile(ctx.String("request"))
	if err != nil {
		return err
	}
	if !json.Valid(buf) {
		return fmt.Errorf("request file must contain a valid JSON object")
	}
	req := json.RawMessage(buf)

	var resp map[string]interface{}
	if _, err := callDaemon(http.MethodPost, "/create_psbt", req, &resp); err != nil {
		return err
	}
	printJSON(resp)
	return nil
}

func finalizePsbtAction(ctx *cli.Context) error {
	sigs := ctx.StringSlice("sig")
	if len(sigs) <= 0 {
		return &invalidUsageError{ctx, "finalizepsbt"}
	}

	var resp map[string]interface{}
	if _, err := callDaemon(http.MethodPost, "/finalize_psbt", map[string]interface{}{
		"psbt":       ctx.String("psbt"),
		"signatures": sigs,
	}, &resp); err != nil {
		return err
	}
	printJSON(resp)
	return nil
}
