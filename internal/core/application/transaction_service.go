package application

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

const satsPerBTCExp = 8

var maxAmount = decimal.NewFromInt(btcutil.MaxSatoshi)

// TransactionService assembles spend templates whose change goes to a key
// derived for the session account, and finalizes them once signed.
type TransactionService interface {
	// CreateTemplate returns the base64 encoded unsigned PSBT.
	CreateTemplate(
		ctx context.Context, sessionID string, req CreateTemplateRequest,
	) (string, error)
	FinalizeTemplate(
		ctx context.Context, sessionID string, req FinalizeTemplateRequest,
	) (*FinalizedTemplate, error)
}

type transactionService struct {
	auth           AuthService
	paymentProfile wallet.ScriptProfile
}

func NewTransactionService(
	auth AuthService, paymentProfile wallet.ScriptProfile,
) TransactionService {
	return &transactionService{auth, paymentProfile}
}

func (s *transactionService) CreateTemplate(
	ctx context.Context, sessionID string, req CreateTemplateRequest,
) (string, error) {
	account, err := s.auth.SessionAccount(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !account.HasDerivedChild(req.ChangeKey) {
		return "", ErrChangeKeyNotDerived
	}

	net := s.paymentProfile.Network
	destination, err := btcutil.DecodeAddress(req.Destination, net)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDestination, err)
	}
	if !destination.IsForNet(net) {
		return "", fmt.Errorf(
			"%w: address is not for network %s", ErrInvalidDestination, net.Name,
		)
	}

	spendAmount, err := parseAmount(req.SpendAmount)
	if err != nil {
		return "", fmt.Errorf("spend amount: %w", err)
	}
	changeAmount, err := parseAmount(req.ChangeAmount)
	if err != nil {
		return "", fmt.Errorf("change amount: %w", err)
	}

	inputs, err := parseInputs(req.Inputs)
	if err != nil {
		return "", err
	}

	packet, err := wallet.BuildSpendTemplate(wallet.BuildSpendTemplateOpts{
		Inputs:       inputs,
		Destination:  destination,
		ChangeKey:    req.ChangeKey,
		SpendAmount:  spendAmount,
		ChangeAmount: changeAmount,
		Network:      net,
	})
	if err != nil {
		return "", err
	}

	log.Debugf(
		"created template %s for account %s",
		packet.UnsignedTx.TxHash(), account.MasterKey,
	)
	return packet.B64Encode()
}

func (s *transactionService) FinalizeTemplate(
	ctx context.Context, sessionID string, req FinalizeTemplateRequest,
) (*FinalizedTemplate, error) {
	if _, err := s.auth.SessionAccount(ctx, sessionID); err != nil {
		return nil, err
	}

	packet, err := psbt.NewFromRawBytes(strings.NewReader(req.Psbt), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPsbt, err)
	}

	sigs := make([][]byte, 0, len(req.Signatures))
	for _, sigHex := range req.Signatures {
		sig, err := hex.DecodeString(sigHex)
		if err != nil {
			return nil, ErrInvalidSignatureEncoding
		}
		sigs = append(sigs, sig)
	}

	finalized, err := wallet.FinalizeKeyPathSpend(packet, sigs)
	if err != nil {
		return nil, err
	}

	b64, err := finalized.B64Encode()
	if err != nil {
		return nil, err
	}

	txHex, err := wallet.ExtractTransaction(finalized)
	if err != nil {
		log.WithError(err).Debug("finalized template can't be extracted")
		txHex = ""
	}

	return &FinalizedTemplate{
		Psbt:  b64,
		TxHex: txHex,
	}, nil
}

func parseInputs(ins []TemplateInput) ([]wallet.TxInput, error) {
	inputs := make([]wallet.TxInput, 0, len(ins))
	for i, in := range ins {
		sequence := wire.MaxTxInSequenceNum
		if in.Sequence != nil {
			sequence = *in.Sequence
		}

		var witnessUtxo *wire.TxOut
		if in.WitnessUtxo != nil {
			amount, err := parseAmount(in.WitnessUtxo.Amount)
			if err != nil {
				return nil, fmt.Errorf(
					"%w: input %d: %s", ErrInvalidWitnessUtxo, i, err,
				)
			}
			script, err := hex.DecodeString(in.WitnessUtxo.Script)
			if err != nil || len(script) <= 0 {
				return nil, fmt.Errorf(
					"%w: input %d: script must be a non empty hex string",
					ErrInvalidWitnessUtxo, i,
				)
			}
			witnessUtxo = wire.NewTxOut(int64(amount), script)
		}

		inputs = append(inputs, wallet.TxInput{
			Txid:        in.Txid,
			Index:       in.Vout,
			Sequence:    sequence,
			WitnessUtxo: witnessUtxo,
		})
	}
	return inputs, nil
}

// parseAmount converts a decimal BTC amount to satoshis.
func parseAmount(amount string) (btcutil.Amount, error) {
	btc, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !btc.IsPositive() {
		return 0, ErrInvalidAmount
	}

	sats := btc.Shift(satsPerBTCExp)
	if !sats.Equal(sats.Truncate(0)) || sats.GreaterThan(maxAmount) {
		return 0, ErrInvalidAmount
	}
	return btcutil.Amount(sats.IntPart()), nil
}
