package script

import (
	"github.com/btcsuite/btcd/txscript"
)

// allowedP2sh represents the list of script types
// we are prepared to accept if the script is P2SH.
var allowedP2sh = map[txscript.ScriptClass]bool{
	txscript.WitnessV0PubKeyHashTy: true,
	txscript.WitnessV0ScriptHashTy: true,
	txscript.PubKeyHashTy:          true,
	txscript.PubKeyTy:              true,
	txscript.MultiSigTy:            true,
}

// canSign is the list of script types we can directly
// sign
var canSign = map[txscript.ScriptClass]bool{
	txscript.PubKeyHashTy: true,
	txscript.PubKeyTy:     true,
	txscript.MultiSigTy:   true,
}

// IsAllowedP2shType returns whether the provided
// script type is a valid P2SH redeem script.
func IsAllowedP2shType(sc txscript.ScriptClass) bool {
	return allowedP2sh[sc]
}

// CanSignType returns whether the provided script
// type can be directly signed.
func CanSignType(sc txscript.ScriptClass) bool {
	return canSign[sc]
}

// OutputData captures what was learned by classifying a
// script - its type, and the data embedded in the pattern.
// Solution holds the public key (P2PK), the key hash (P2PKH,
// P2WKH), the script hash (P2SH, P2WSH) or the key set
// (multisig). It is nil for nonstandard scripts.
type OutputData struct {
	Type         txscript.ScriptClass
	Script       []byte
	Solution     [][]byte
	RequiredSigs int
}

// CanSign returns whether the script type is
// immediately signable, ie, not a script-hash
// type
func (o *OutputData) CanSign() bool {
	return CanSignType(o.Type)
}

// IsAllowedP2SH returns whether the script type is
// immediately signable, or is a witness type (which
// can be nested in P2SH)
func (o *OutputData) IsAllowedP2SH() bool {
	return IsAllowedP2shType(o.Type)
}

// Classify determines the pattern of script. Matching is purely
// structural, and a script which fits no known pattern is
// returned as txscript.NonStandardTy.
func Classify(script []byte) *OutputData {
	data := &OutputData{
		Type:   txscript.NonStandardTy,
		Script: script,
	}

	switch {
	case len(script) == 23 && script[0] == txscript.OP_HASH160 &&
		script[1] == txscript.OP_DATA_20 && script[22] == txscript.OP_EQUAL:
		data.Type = txscript.ScriptHashTy
		data.Solution = [][]byte{script[2:22]}
		return data

	case len(script) == 22 && script[0] == txscript.OP_0 &&
		script[1] == txscript.OP_DATA_20:
		data.Type = txscript.WitnessV0PubKeyHashTy
		data.Solution = [][]byte{script[2:]}
		return data

	case len(script) == 34 && script[0] == txscript.OP_0 &&
		script[1] == txscript.OP_DATA_32:
		data.Type = txscript.WitnessV0ScriptHashTy
		data.Solution = [][]byte{script[2:]}
		return data
	}

	ops, err := Decode(script)
	if err != nil {
		return data
	}

	if match, ok := MatchSignable(ops, false); ok {
		data.Type = match.Type
		data.Solution = match.Solution
		data.RequiredSigs = match.RequiredSigs
	}

	return data
}
