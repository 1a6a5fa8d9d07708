package wallet

import (
	"encoding/hex"

	"github.com/btccom/txsigner/script"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/fastsha256"
	"github.com/pkg/errors"
)

// GetP2SHScriptPubKey takes a redeemScript, and returns the scriptPubKey
// as a byte slice
func GetP2SHScriptPubKey(rs []byte, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressScriptHash(rs, params)
	if err != nil {
		return nil, err
	}

	return txscript.PayToAddrScript(addr)
}

// GetP2WSHWitnessProgram computes the sha256 hash
// of the provided witness script and encodes this
// into a segwit v0 p2wsh witness program.
func GetP2WSHWitnessProgram(ws []byte) []byte {
	scriptHash := fastsha256.Sum256(ws)
	wp := []byte{txscript.OP_0, txscript.OP_DATA_32}
	return append(wp, scriptHash[:]...)
}

// GetP2WKHWitnessProgram encodes the hash160 of a public
// key into a segwit v0 p2wpkh witness program.
func GetP2WKHWitnessProgram(pubKey []byte) []byte {
	wp := []byte{txscript.OP_0, txscript.OP_DATA_20}
	return append(wp, btcutil.Hash160(pubKey)...)
}

// BaseInput is a convenience function taking a hex string for
// the scriptPubKey, creates a bare scriptPubKey txOut, and
// initializes the InputSignData.
func BaseInput(txOutValue int64, spkStr string) (*InputSignData, error) {
	spk, err := hex.DecodeString(spkStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid scriptPubKey hex")
	}

	return NewInputSignData(wire.NewTxOut(txOutValue, spk), nil, nil), nil
}

// P2SHInput is a convenience function taking a hex string for
// the REDEEMSCRIPT, creates the associated P2SH script and txOut,
// and initializes the InputSignData
func P2SHInput(txOutValue int64, rsStr string, params *chaincfg.Params) (*InputSignData, error) {
	rs, err := hex.DecodeString(rsStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redeemScript hex")
	}

	spk, err := GetP2SHScriptPubKey(rs, params)
	if err != nil {
		return nil, err
	}

	return NewInputSignData(wire.NewTxOut(txOutValue, spk), rs, nil), nil
}

// P2WSHInput is a convenience function taking a hex string for
// the WITNESS SCRIPT, creates the associated P2WSH script and txOut,
// and initializes the InputSignData
func P2WSHInput(txOutValue int64, wsStr string) (*InputSignData, error) {
	ws, err := hex.DecodeString(wsStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid witnessScript hex")
	}

	wp := GetP2WSHWitnessProgram(ws)

	return NewInputSignData(wire.NewTxOut(txOutValue, wp), nil, ws), nil
}

// P2SHP2WSHInput is a convenience function taking a hex string for
// the WITNESS SCRIPT, creates the associated P2SH redeemScript (a P2WSH
// witness program), creates the associated P2SH scriptPubKey and txOut,
// and initializes the InputSignData. Unless allowComplex is set, the
// witness script must be directly signable.
func P2SHP2WSHInput(txOutValue int64, wsStr string, params *chaincfg.Params,
	allowComplex bool) (*InputSignData, error) {

	ws, err := hex.DecodeString(wsStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid witnessScript hex")
	}

	if signType := script.Classify(ws).Type; !allowComplex && !script.CanSignType(signType) {
		return nil, errors.Wrapf(ErrUnsupportedScriptType,
			"witnessScript was %s", signType)
	}

	wp := GetP2WSHWitnessProgram(ws)
	p2shScript, err := GetP2SHScriptPubKey(wp, params)
	if err != nil {
		return nil, err
	}

	return NewInputSignData(wire.NewTxOut(txOutValue, p2shScript), wp, ws), nil
}
