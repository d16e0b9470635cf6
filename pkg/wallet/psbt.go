package wallet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

const (
	templateTxVersion = 2

	schnorrSigLen        = 64
	schnorrSigWithType   = 65
	taprootOutputKeyFrom = 2
)

// ErrInvalidKeyPathSignature is returned when a key-path signature does not
// verify against the taproot output key of the spent output.
var ErrInvalidKeyPathSignature = errors.New(
	"key-path signature does not match the spent output key",
)

// TxInput is a reference to a previous output spent by a template. The
// optional WitnessUtxo lets signers compute segwit sighashes.
type TxInput struct {
	Txid        string
	Index       uint32
	Sequence    uint32
	WitnessUtxo *wire.TxOut
}

// BuildSpendTemplateOpts is the struct given to BuildSpendTemplate method.
//
// No UTXO selection nor balance check is made: it's up to the caller to make
// sure that SpendAmount + ChangeAmount does not exceed the value of Inputs,
// the difference being the fee.
type BuildSpendTemplateOpts struct {
	Inputs       []TxInput
	Destination  btcutil.Address
	ChangeKey    ExtendedPublicKey
	SpendAmount  btcutil.Amount
	ChangeAmount btcutil.Amount
	Network      *chaincfg.Params
}

func (o BuildSpendTemplateOpts) validate() error {
	if len(o.Inputs) <= 0 {
		return ErrEmptyInputs
	}
	for _, in := range o.Inputs {
		if _, err := chainhash.NewHashFromStr(in.Txid); err != nil || len(in.Txid) != 2*chainhash.HashSize {
			return ErrInvalidInputTxid
		}
	}
	if o.Destination == nil {
		return ErrNullDestination
	}
	if o.ChangeKey.IsZero() {
		return ErrInvalidKeyEncoding
	}
	if o.SpendAmount <= 0 || o.ChangeAmount <= 0 {
		return ErrZeroOutputAmount
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// BuildSpendTemplate returns an unsigned PSBT with two outputs: the spend to
// the destination and the change locked to a P2WPKH script of the change key.
func BuildSpendTemplate(opts BuildSpendTemplateOpts) (*psbt.Packet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	destScript, err := txscript.PayToAddrScript(opts.Destination)
	if err != nil {
		return nil, err
	}
	changeScript, err := changeScript(opts.ChangeKey, opts.Network)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(templateTxVersion)
	for _, in := range opts.Inputs {
		hash, _ := chainhash.NewHashFromStr(in.Txid)
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: *wire.NewOutPoint(hash, in.Index),
			Sequence:         in.Sequence,
		})
	}
	tx.AddTxOut(wire.NewTxOut(int64(opts.SpendAmount), destScript))
	tx.AddTxOut(wire.NewTxOut(int64(opts.ChangeAmount), changeScript))

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, err
	}
	for i, in := range opts.Inputs {
		if in.WitnessUtxo != nil {
			packet.Inputs[i].WitnessUtxo = in.WitnessUtxo
		}
	}

	return packet, nil
}

// FinalizeKeyPathSpend moves one schnorr signature per input into the final
// script witness and clears the signing metadata that is no longer needed.
// An empty signature falls back to the input's TaprootKeySpendSig.
// The given packet is left untouched.
//
// When every input carries its witness utxo, signatures are verified against
// the taproot output keys before finalizing.
func FinalizeKeyPathSpend(packet *psbt.Packet, sigs [][]byte) (*psbt.Packet, error) {
	if packet == nil || packet.UnsignedTx == nil {
		return nil, ErrNullPsbt
	}
	if len(sigs) != len(packet.Inputs) {
		return nil, ErrInvalidSignaturesLength
	}

	finalized, err := copyPacket(packet)
	if err != nil {
		return nil, err
	}

	keySpendSigs := make([][]byte, 0, len(sigs))
	for i, sig := range sigs {
		in := &finalized.Inputs[i]
		if len(sig) == 0 {
			sig = in.TaprootKeySpendSig
		}
		if len(sig) != schnorrSigLen && len(sig) != schnorrSigWithType {
			return nil, fmt.Errorf("input %d: %w", i, ErrInvalidSchnorrSignature)
		}
		if _, err := schnorr.ParseSignature(sig[:schnorrSigLen]); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, ErrInvalidSchnorrSignature)
		}
		if len(sig) == schnorrSigWithType && !isKeyPathSigHashType(sig[schnorrSigLen]) {
			return nil, fmt.Errorf("input %d: %w", i, ErrInvalidSchnorrSignature)
		}
		if in.WitnessUtxo != nil && !txscript.IsPayToTaproot(in.WitnessUtxo.PkScript) {
			return nil, fmt.Errorf("input %d: %w", i, ErrNotTaprootOutput)
		}
		keySpendSigs = append(keySpendSigs, sig)
	}

	if err := verifyKeyPathSigs(finalized, keySpendSigs); err != nil {
		return nil, err
	}

	for i, sig := range keySpendSigs {
		var witness bytes.Buffer
		if err := psbt.WriteTxWitness(&witness, wire.TxWitness{sig}); err != nil {
			return nil, err
		}

		in := &finalized.Inputs[i]
		in.FinalScriptWitness = witness.Bytes()
		in.PartialSigs = nil
		in.SighashType = 0
		in.RedeemScript = nil
		in.WitnessScript = nil
		in.Bip32Derivation = nil
		in.TaprootKeySpendSig = nil
		in.TaprootScriptSpendSig = nil
		in.TaprootLeafScript = nil
		in.TaprootBip32Derivation = nil
		in.TaprootInternalKey = nil
		in.TaprootMerkleRoot = nil
	}

	return finalized, nil
}

// ExtractTransaction returns the hex encoded network transaction of a fully
// finalized packet.
func ExtractTransaction(packet *psbt.Packet) (string, error) {
	if packet == nil {
		return "", ErrNullPsbt
	}
	tx, err := psbt.Extract(packet)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func changeScript(key ExtendedPublicKey, net *chaincfg.Params) ([]byte, error) {
	pubkey, err := key.PublicKey()
	if err != nil {
		return nil, err
	}
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(pubkey.SerializeCompressed()), net,
	)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

// isKeyPathSigHashType reports whether b may trail a 64-byte schnorr
// signature. SigHashDefault is only valid when implied by the 64-byte form.
func isKeyPathSigHashType(b byte) bool {
	switch txscript.SigHashType(b) {
	case txscript.SigHashAll, txscript.SigHashNone, txscript.SigHashSingle,
		txscript.SigHashAll | txscript.SigHashAnyOneCanPay,
		txscript.SigHashNone | txscript.SigHashAnyOneCanPay,
		txscript.SigHashSingle | txscript.SigHashAnyOneCanPay:
		return true
	default:
		return false
	}
}

func verifyKeyPathSigs(packet *psbt.Packet, sigs [][]byte) error {
	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(packet.Inputs))
	for i, in := range packet.Inputs {
		if in.WitnessUtxo == nil {
			return nil
		}
		prevOuts[packet.UnsignedTx.TxIn[i].PreviousOutPoint] = in.WitnessUtxo
	}

	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, fetcher)

	for i, sig := range sigs {
		hashType := txscript.SigHashDefault
		if len(sig) == schnorrSigWithType {
			hashType = txscript.SigHashType(sig[schnorrSigLen])
		}

		sigHash, err := txscript.CalcTaprootSignatureHash(
			sigHashes, hashType, packet.UnsignedTx, i, fetcher,
		)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}

		outputKey, err := schnorr.ParsePubKey(
			packet.Inputs[i].WitnessUtxo.PkScript[taprootOutputKeyFrom:],
		)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}

		signature, _ := schnorr.ParseSignature(sig[:schnorrSigLen])
		if !signature.Verify(sigHash, outputKey) {
			return fmt.Errorf("input %d: %w", i, ErrInvalidKeyPathSignature)
		}
	}

	return nil
}

func copyPacket(packet *psbt.Packet) (*psbt.Packet, error) {
	var buf bytes.Buffer
	if err := packet.Serialize(&buf); err != nil {
		return nil, err
	}
	return psbt.NewFromRawBytes(&buf, false)
}
