package wallet

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/pkg/errors"
)

// InputSignData is the data required to verify/sign a
// transaction input, beyond the transaction itself.
type InputSignData struct {
	TxOut *wire.TxOut

	RedeemScript  []byte
	WitnessScript []byte

	// SignaturePolicy replaces the network's default
	// verification flags.
	SignaturePolicy fn.Option[txscript.ScriptFlags]

	// LogicalPath selects the branch of a script with
	// conditionals, one value per OP_IF/OP_NOTIF executed.
	LogicalPath fn.Option[[]bool]
}

// NewInputSignData takes the txOut being spent and the
// optional redeemScript and witnessScript.
func NewInputSignData(txOut *wire.TxOut, rs []byte, ws []byte) *InputSignData {
	signData := &InputSignData{
		TxOut: txOut,
	}
	if len(rs) > 0 {
		signData.RedeemScript = rs
	}
	if len(ws) > 0 {
		signData.WitnessScript = ws
	}
	return signData
}

// WithSignaturePolicy sets the verification flags.
func (d *InputSignData) WithSignaturePolicy(flags txscript.ScriptFlags) *InputSignData {
	d.SignaturePolicy = fn.Some(flags)
	return d
}

// WithLogicalPath sets the branch to sign for.
func (d *InputSignData) WithLogicalPath(path ...bool) *InputSignData {
	d.LogicalPath = fn.Some(path)
	return d
}

// verifyFlags resolves the flags the input is verified with.
func (d *InputSignData) verifyFlags(defaults txscript.ScriptFlags) (txscript.ScriptFlags, error) {
	flags := d.SignaturePolicy.UnwrapOr(defaults)

	if flags&txscript.ScriptBip16 == 0 {
		if flags&txscript.ScriptVerifyWitness != 0 {
			return 0, errors.Wrap(ErrInvalidSignaturePolicy,
				"witness verification requires P2SH")
		}
		if flags&txscript.ScriptVerifyCleanStack != 0 {
			return 0, errors.Wrap(ErrInvalidSignaturePolicy,
				"clean stack verification requires P2SH")
		}
	}

	return flags, nil
}
