package httpinterface

import (
	"encoding/json"

	"github.com/tdex-network/xpubd/internal/core/application"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

type loginRequest struct {
	// Witness is the base64 encoded recoverable signature of the challenge.
	Witness []byte `json:"witness"`
	// Xpub is the hex encoded canonical form of the master key.
	Xpub  string `json:"xpub"`
	Nonce uint32 `json:"nonce"`
}

type derivedChild struct {
	Xpub    wallet.ExtendedPublicKey `json:"xpub"`
	Address string                   `json:"address"`
}

type accountResponse struct {
	Xpub            wallet.ExtendedPublicKey `json:"xpub"`
	Nonce           uint32                   `json:"nonce"`
	DerivedChildren []derivedChild           `json:"derived_children"`
}

type deriveAddressResponse struct {
	Address string                   `json:"address"`
	Child   wallet.ExtendedPublicKey `json:"child"`
	Account accountResponse          `json:"account"`
}

type witnessUtxo struct {
	Amount json.Number `json:"amount"`
	Script string      `json:"script"`
}

type txInput struct {
	Txid        string       `json:"txid"`
	Vout        uint32       `json:"vout"`
	Sequence    *uint32      `json:"sequence,omitempty"`
	WitnessUtxo *witnessUtxo `json:"witness_utxo,omitempty"`
}

// createPsbtRequest amounts are BTC, either as JSON numbers or strings.
type createPsbtRequest struct {
	Inputs       []txInput                `json:"inputs"`
	Destination  string                   `json:"destination"`
	ChangeXpub   wallet.ExtendedPublicKey `json:"change_xpub"`
	SpendAmount  json.Number              `json:"spend_amount"`
	ChangeAmount json.Number              `json:"change_amount"`
}

type createPsbtResponse struct {
	Psbt string `json:"psbt"`
}

type finalizePsbtRequest struct {
	Psbt       string   `json:"psbt"`
	Signatures []string `json:"signatures"`
}

type finalizePsbtResponse struct {
	Psbt string `json:"psbt"`
	Tx   string `json:"tx,omitempty"`
}

type infoResponse struct {
	Name            string   `json:"name"`
	PaymentProfile  string   `json:"payment_profile"`
	IdentityProfile string   `json:"identity_profile"`
	MaxChildren     int      `json:"max_derived_children"`
	Services        []string `json:"services"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toAccountResponse(info *application.AccountInfo) accountResponse {
	children := make([]derivedChild, 0, len(info.DerivedChildren))
	for _, c := range info.DerivedChildren {
		children = append(children, derivedChild{c.Key, c.Address.String()})
	}
	return accountResponse{
		Xpub:            info.MasterKey,
		Nonce:           info.Nonce,
		DerivedChildren: children,
	}
}

func (r createPsbtRequest) toTemplateRequest() application.CreateTemplateRequest {
	inputs := make([]application.TemplateInput, 0, len(r.Inputs))
	for _, in := range r.Inputs {
		var utxo *application.WitnessUtxo
		if in.WitnessUtxo != nil {
			utxo = &application.WitnessUtxo{
				Amount: in.WitnessUtxo.Amount.String(),
				Script: in.WitnessUtxo.Script,
			}
		}
		inputs = append(inputs, application.TemplateInput{
			Txid:        in.Txid,
			Vout:        in.Vout,
			Sequence:    in.Sequence,
			WitnessUtxo: utxo,
		})
	}
	return application.CreateTemplateRequest{
		Inputs:       inputs,
		Destination:  r.Destination,
		ChangeKey:    r.ChangeXpub,
		SpendAmount:  r.SpendAmount.String(),
		ChangeAmount: r.ChangeAmount.String(),
	}
}
