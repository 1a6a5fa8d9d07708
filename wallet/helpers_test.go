package wallet

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	_assert "github.com/stretchr/testify/require"
)

const spendTxID = "abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234abcd1234"

// testKey returns a compressed signing key whose secret is
// seed repeated.
func testKey(seed byte) *SigningKey {
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{seed}, 32))
	return NewSigningKey(priv, true)
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}

func buildScript(t *testing.T, f func(b *txscript.ScriptBuilder)) []byte {
	builder := txscript.NewScriptBuilder()
	f(builder)
	script, err := builder.Script()
	_assert.NoError(t, err)
	return script
}

func p2pkhScript(t *testing.T, pubKey []byte) []byte {
	return buildScript(t, func(b *txscript.ScriptBuilder) {
		b.AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).
			AddData(btcutil.Hash160(pubKey)).AddOp(txscript.OP_EQUALVERIFY).
			AddOp(txscript.OP_CHECKSIG)
	})
}

func multisigScript(t *testing.T, m int, keys ...*SigningKey) []byte {
	return buildScript(t, func(b *txscript.ScriptBuilder) {
		b.AddInt64(int64(m))
		for _, key := range keys {
			b.AddData(key.SerializePubKey())
		}
		b.AddInt64(int64(len(keys))).AddOp(txscript.OP_CHECKMULTISIG)
	})
}

// spendTx returns an unsigned transaction with one input
// and one output.
func spendTx(t *testing.T) *wire.MsgTx {
	hash, err := chainhash.NewHashFromStr(spendTxID)
	_assert.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(90000, p2pkhScript(t, testKey(0x77).SerializePubKey())))
	return tx
}

// newInputSigner prepares input 0 of tx on testnet, without
// classifying it.
func newInputSigner(t *testing.T, tx *wire.MsgTx, signData *InputSignData,
	opts ...InputOption) *InputSigner {

	fetcher := txscript.NewCannedPrevOutputFetcher(signData.TxOut.PkScript,
		signData.TxOut.Value)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	input, err := NewInputSigner(BtcTestNetwork, tx, 0, sigHashes, signData, opts...)
	_assert.NoError(t, err)
	return input
}

// extractInput prepares input 0 of tx and classifies it
// from the transaction.
func extractInput(t *testing.T, tx *wire.MsgTx, signData *InputSignData,
	opts ...InputOption) *InputSigner {

	input := newInputSigner(t, tx, signData, opts...)
	_assert.NoError(t, input.Extract())
	return input
}

// applySigValues returns a copy of tx with the input's
// signatures set on input 0.
func applySigValues(t *testing.T, tx *wire.MsgTx, input *InputSigner) *wire.MsgTx {
	sigValues, err := input.SerializeSignatures()
	_assert.NoError(t, err)

	txCopy := tx.Copy()
	txCopy.TxIn[0].SignatureScript = sigValues.ScriptSig
	txCopy.TxIn[0].Witness = sigValues.Witness
	return txCopy
}

// serializedSig returns the serialization of signature slot
// idx of the first checksig.
func serializedSig(t *testing.T, input *InputSigner, idx int) []byte {
	sigs := input.Signatures()
	_assert.NotNil(t, sigs[idx])
	return sigs[idx].Serialize()
}
