package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
	_assert "github.com/stretchr/testify/require"
)

func TestIsDefinedHashType(t *testing.T) {
	defined := []txscript.SigHashType{
		txscript.SigHashAll,
		txscript.SigHashNone,
		txscript.SigHashSingle,
		txscript.SigHashAll | txscript.SigHashAnyOneCanPay,
		txscript.SigHashNone | txscript.SigHashAnyOneCanPay,
		txscript.SigHashSingle | txscript.SigHashAnyOneCanPay,
	}
	for _, hashType := range defined {
		_assert.True(t, IsDefinedHashType(hashType), "0x%x", uint32(hashType))
	}

	undefined := []txscript.SigHashType{0, 4, 0x41, txscript.SigHashAnyOneCanPay}
	for _, hashType := range undefined {
		_assert.False(t, IsDefinedHashType(hashType), "0x%x", uint32(hashType))
	}
}

func TestParsePubKeyAndSig(t *testing.T) {
	key := testKey(0x01)
	pubKey := key.SerializePubKey()
	sig := (&TxSignature{
		HashType:  txscript.SigHashAll,
		Signature: ecdsa.Sign(key.Key, make([]byte, 32)),
	}).Serialize()

	t.Run("invalid sigs are rejected", func(t *testing.T) {
		pub, txSig, err := parsePubKeyAndSig(pubKey, []byte{})
		_assert.Nil(t, pub)
		_assert.Nil(t, txSig)
		_assert.EqualError(t, err, "TxSignature too short")
	})

	t.Run("invalid keys are rejected", func(t *testing.T) {
		pub, txSig, err := parsePubKeyAndSig([]byte{}, sig)
		_assert.Nil(t, pub)
		_assert.Nil(t, txSig)
		_assert.EqualError(t, err, "invalid public key encoding")
	})

	t.Run("returns values if parsable", func(t *testing.T) {
		pub, txSig, err := parsePubKeyAndSig(pubKey, sig)
		_assert.NoError(t, err)
		_assert.Equal(t, pubKey, pub.Serialized)
		_assert.Equal(t, txscript.SigHashAll, txSig.HashType)
	})
}

func TestCheckerCreatorErrorConditions(t *testing.T) {
	tx := spendTx(t)

	for _, nIn := range []int{-1, 1} {
		checker, err := BitcoinCheckerCreator(tx, nil, nIn, 0)
		_assert.Nil(t, checker)
		_assert.EqualError(t, err, "no input at this index")
	}
}

func TestBitcoinChecker(t *testing.T) {
	key := testKey(0x01)
	pubKey := key.SerializePubKey()
	signScript := p2pkhScript(t, pubKey)
	tx := spendTx(t)

	fetcher := txscript.NewCannedPrevOutputFetcher(signScript, 100000)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	checker, err := BitcoinCheckerCreator(tx, sigHashes, 0, 100000)
	_assert.NoError(t, err)

	t.Run("base sighash", func(t *testing.T) {
		hash, err := checker.GetSigHash(signScript, txscript.SigHashAll, SigVersionBase)
		_assert.NoError(t, err)

		expected, err := txscript.CalcSignatureHash(signScript, txscript.SigHashAll, tx, 0)
		_assert.NoError(t, err)
		_assert.Equal(t, expected, hash)

		again, err := checker.GetSigHash(signScript, txscript.SigHashAll, SigVersionBase)
		_assert.NoError(t, err)
		_assert.Equal(t, hash, again)
	})

	t.Run("witness sighash", func(t *testing.T) {
		hash, err := checker.GetSigHash(signScript, txscript.SigHashAll, SigVersionWitnessV0)
		_assert.NoError(t, err)

		expected, err := txscript.CalcWitnessSigHash(signScript, sigHashes,
			txscript.SigHashAll, tx, 0, 100000)
		_assert.NoError(t, err)
		_assert.Equal(t, expected, hash)

		base, err := checker.GetSigHash(signScript, txscript.SigHashAll, SigVersionBase)
		_assert.NoError(t, err)
		_assert.NotEqual(t, base, hash)
	})

	t.Run("rejects undefined hash types", func(t *testing.T) {
		_, err := checker.GetSigHash(signScript, 0x04, SigVersionBase)
		_assert.True(t, errors.Is(err, ErrInvalidSigHashType))

		_, err = checker.GetSigHash(signScript, txscript.SigHashAll, SigVersion(2))
		_assert.Error(t, err)
	})

	t.Run("checks signatures", func(t *testing.T) {
		hash, err := checker.GetSigHash(signScript, txscript.SigHashAll, SigVersionBase)
		_assert.NoError(t, err)

		sig := (&TxSignature{
			HashType:  txscript.SigHashAll,
			Signature: ecdsa.Sign(key.Key, hash),
		}).Serialize()

		valid, err := checker.CheckSig(signScript, pubKey, sig, SigVersionBase)
		_assert.NoError(t, err)
		_assert.Equal(t, pubKey, valid.pubKey.Serialized)
		_assert.Equal(t, hash, valid.hash)
		_assert.Equal(t, sig, valid.sig.Serialize())

		// Same signature, wrong key.
		_, err = checker.CheckSig(signScript, testKey(0x02).SerializePubKey(),
			sig, SigVersionBase)
		_assert.EqualError(t, err, "invalid signature")

		// Same signature, claiming a different hash type.
		sig[len(sig)-1] = byte(txscript.SigHashNone)
		_, err = checker.CheckSig(signScript, pubKey, sig, SigVersionBase)
		_assert.EqualError(t, err, "invalid signature")

		// Same signature, over the witness digest.
		sig[len(sig)-1] = byte(txscript.SigHashAll)
		_, err = checker.CheckSig(signScript, pubKey, sig, SigVersionWitnessV0)
		_assert.EqualError(t, err, "invalid signature")
	})
}

func TestSigVersionString(t *testing.T) {
	_assert.Equal(t, "base", SigVersionBase.String())
	_assert.Equal(t, "witness_v0", SigVersionWitnessV0.String())
	_assert.Equal(t, "unknown", SigVersion(7).String())
}
