package wallet

import (
	"bytes"

	"github.com/btccom/txsigner/script"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/fastsha256"
	"github.com/pkg/errors"
)

// fullyQualifiedScript encapsulates all OutputData
// for a script from its scriptPubKey, to the script
// that is actually signed/run.
// If an RS is present, it has been qualified against the SPK,
// If a WS is present, it was qualified against the SPK or RS.
// By solving this structure, we also learn sigVersion
type fullyQualifiedScript struct {
	spk  *script.OutputData
	rs   *script.OutputData
	ws   *script.OutputData
	sign *script.OutputData

	// witnessKeyHash is the P2PKH script standing in
	// for a P2WKH program.
	witnessKeyHash *script.OutputData

	sigVersion SigVersion
}

// solveScripts unwraps scriptPubKey down to the script which is
// signed, recovering the redeemScript and witnessScript from the
// existing scriptSig and witness or from signData. It returns the
// stack items left for the sign script.
func solveScripts(params *chaincfg.Params, signData *InputSignData,
	spk []byte, scriptSig []byte, witness wire.TxWitness,
	allowComplex bool) (*fullyQualifiedScript, [][]byte, error) {

	fqs := &fullyQualifiedScript{
		sigVersion: SigVersionBase,
	}

	solution := script.Classify(spk)
	fqs.spk = solution
	if !allowComplex && solution.Type != txscript.ScriptHashTy &&
		!solution.IsAllowedP2SH() {

		return nil, nil, errors.Wrapf(ErrUnsupportedScriptType,
			"scriptPubKey was %s", solution.Type)
	}

	sigChunks, err := script.EvalPushOnly(scriptSig)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrInvalidExistingSignatures,
			"invalid scriptSig: %v", err)
	}

	if solution.Type == txscript.ScriptHashTy {
		rs, err := findScriptAndCheck(sigChunks, signData.RedeemScript,
			ErrMissingRedeemScript, ErrRedeemScriptMismatch)
		if err != nil {
			return nil, nil, err
		}

		if !bytes.Equal(solution.Solution[0], btcutil.Hash160(rs)) {
			return nil, nil, errors.Wrap(ErrRedeemScriptMismatch,
				"redeemScript doesn't satisfy pay-to-script-hash")
		}

		solution = script.Classify(rs)
		fqs.rs = solution
		if !allowComplex && !solution.IsAllowedP2SH() {
			return nil, nil, errors.Wrapf(ErrUnsupportedScriptType,
				"redeemScript was %s", solution.Type)
		}

		sigChunks = removeLast(sigChunks)
	} else if len(signData.RedeemScript) > 0 {
		return nil, nil, errors.Wrap(ErrRedeemScriptMismatch,
			"superfluous redeemScript")
	}

	switch solution.Type {
	case txscript.WitnessV0PubKeyHashTy:
		if len(sigChunks) > 0 {
			return nil, nil, errors.Wrap(ErrInvalidExistingSignatures,
				"scriptSig has data for a witness program")
		}
		if len(signData.WitnessScript) > 0 {
			return nil, nil, errors.Wrap(ErrWitnessScriptMismatch,
				"superfluous witnessScript")
		}

		pkAddr, err := btcutil.NewAddressPubKeyHash(solution.Solution[0], params)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid p2wpkh program")
		}
		p2pkh, err := txscript.PayToAddrScript(pkAddr)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create p2wpkh sign script")
		}

		solution = script.Classify(p2pkh)
		fqs.witnessKeyHash = solution
		fqs.sigVersion = SigVersionWitnessV0
		sigChunks = witness

	case txscript.WitnessV0ScriptHashTy:
		if len(sigChunks) > 0 {
			return nil, nil, errors.Wrap(ErrInvalidExistingSignatures,
				"scriptSig has data for a witness program")
		}

		ws, err := findScriptAndCheck(witness, signData.WitnessScript,
			ErrMissingWitnessScript, ErrWitnessScriptMismatch)
		if err != nil {
			return nil, nil, err
		}

		witnessScriptHash := fastsha256.Sum256(ws)
		if !bytes.Equal(witnessScriptHash[:], solution.Solution[0]) {
			return nil, nil, errors.Wrap(ErrWitnessScriptMismatch,
				"witnessScript doesn't satisfy witness-script-hash")
		}

		solution = script.Classify(ws)
		fqs.ws = solution
		if !allowComplex && !solution.CanSign() {
			return nil, nil, errors.Wrapf(ErrUnsupportedScriptType,
				"witnessScript was %s", solution.Type)
		}

		fqs.sigVersion = SigVersionWitnessV0
		sigChunks = removeLast(witness)

	default:
		if len(signData.WitnessScript) > 0 {
			return nil, nil, errors.Wrap(ErrWitnessScriptMismatch,
				"superfluous witnessScript")
		}
		if len(witness) > 0 {
			return nil, nil, errors.Wrap(ErrInvalidExistingSignatures,
				"witness data for a non-witness input")
		}
	}

	if !allowComplex && !solution.CanSign() {
		return nil, nil, errors.Wrapf(ErrUnsupportedScriptType,
			"sign script was %s", solution.Type)
	}
	fqs.sign = solution

	return fqs, sigChunks, nil
}

// encodeStack takes the stack for the sign script and produces
// the txin's scriptSig and witness fields. Witness programs take
// the stack in the witness, and the redeemScript or witnessScript
// is pushed last at its own layer.
func (fqs *fullyQualifiedScript) encodeStack(stack [][]byte) ([]byte, wire.TxWitness, error) {
	sigData := stack
	var witnessData wire.TxWitness

	solution := fqs.spk
	if solution.Type == txscript.ScriptHashTy {
		solution = fqs.rs
	}

	switch solution.Type {
	case txscript.WitnessV0PubKeyHashTy:
		witnessData = stack
		sigData = nil
	case txscript.WitnessV0ScriptHashTy:
		witnessData = append(append(wire.TxWitness{}, stack...), fqs.ws.Script)
		sigData = nil
	}

	if fqs.rs != nil {
		sigData = append(append([][]byte{}, sigData...), fqs.rs.Script)
	}

	scriptSig, err := script.PushAll(sigData)
	if err != nil {
		return nil, nil, err
	}

	return scriptSig, witnessData, nil
}

// isSegwit returns whether the sign script is run
// as a witness program.
func (fqs *fullyQualifiedScript) isSegwit() bool {
	return fqs.sigVersion == SigVersionWitnessV0
}

// findScriptAndCheck takes the redeemScript/witnessScript
// from the last element of a decompiled scriptSig/witness,
// or from the committed script. If both are available,
// they are compared for consistency.
func findScriptAndCheck(chunks [][]byte, committedScript []byte,
	errMissing, errMismatch error) ([]byte, error) {

	if len(chunks) > 0 {
		elem := chunks[len(chunks)-1]
		if len(committedScript) > 0 && !bytes.Equal(elem, committedScript) {
			return nil, errors.Wrap(errMismatch,
				"last element of chunks didn't match provided script")
		}
		return elem, nil
	}

	if len(committedScript) == 0 {
		return nil, errors.Wrap(errMissing,
			"not provided in sign data, and chunks were empty")
	}

	return committedScript, nil
}

// removes last []byte from a [][]byte
func removeLast(chunks [][]byte) [][]byte {
	length := len(chunks)
	if length > 0 {
		return chunks[:length-1]
	}

	return make([][]byte, 0)
}
