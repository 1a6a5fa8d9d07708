package wallet

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	_assert "github.com/stretchr/testify/require"
)

func TestParsePublicKeyInfo(t *testing.T) {
	key := testKey(0x01)
	compressed := key.PubKey().SerializeCompressed()
	uncompressed := key.PubKey().SerializeUncompressed()

	t.Run("compressed", func(t *testing.T) {
		info, err := ParsePublicKeyInfo(compressed)
		_assert.NoError(t, err)
		_assert.True(t, info.IsCompressed())
		_assert.True(t, info.Equal(compressed))
		_assert.True(t, info.Key.IsEqual(key.PubKey()))
	})

	t.Run("uncompressed", func(t *testing.T) {
		info, err := ParsePublicKeyInfo(uncompressed)
		_assert.NoError(t, err)
		_assert.False(t, info.IsCompressed())
		_assert.False(t, info.Equal(compressed))
	})

	hybrid := append([]byte{0x06}, uncompressed[1:]...)
	notOnCurve := append([]byte{0x02}, bytes.Repeat([]byte{0xff}, 32)...)

	fixtures := map[string][]byte{
		"empty":        {},
		"hybrid":       hybrid,
		"wrong length": compressed[:32],
		"bad prefix":   append([]byte{0x04}, compressed[1:]...),
		"not on curve": notOnCurve,
	}
	for name, keyBytes := range fixtures {
		keyBytes := keyBytes
		t.Run(name, func(t *testing.T) {
			info, err := ParsePublicKeyInfo(keyBytes)
			_assert.Nil(t, info)
			_assert.Error(t, err)
		})
	}
}

func TestParseTxSignature(t *testing.T) {
	key := testKey(0x01)
	hash := chainhash.DoubleHashB([]byte("message"))
	sig := ecdsa.Sign(key.Key, hash)

	txSig := &TxSignature{
		HashType:  txscript.SigHashSingle | txscript.SigHashAnyOneCanPay,
		Signature: sig,
	}
	serialized := txSig.Serialize()
	_assert.Equal(t, byte(0x83), serialized[len(serialized)-1])

	parsed, err := ParseTxSignature(serialized)
	_assert.NoError(t, err)
	_assert.Equal(t, txSig.HashType, parsed.HashType)
	_assert.True(t, parsed.Signature.Verify(hash, key.PubKey()))
	_assert.Equal(t, serialized, parsed.Serialize())

	_, err = ParseTxSignature(nil)
	_assert.EqualError(t, err, "TxSignature too short")

	_, err = ParseTxSignature([]byte{0x30, 0x01, 0x01})
	_assert.Error(t, err)
}

func TestSigningKeyFromWIF(t *testing.T) {
	key := testKey(0x01)

	for _, compress := range []bool{true, false} {
		wif, err := btcutil.NewWIF(key.Key, &chaincfg.TestNet3Params, compress)
		_assert.NoError(t, err)

		loaded, err := SigningKeyFromWIF(wif.String(), &chaincfg.TestNet3Params)
		_assert.NoError(t, err)
		_assert.Equal(t, compress, loaded.Compressed)
		_assert.Equal(t, key.Key.Serialize(), loaded.Key.Serialize())

		if compress {
			_assert.Len(t, loaded.SerializePubKey(), 33)
		} else {
			_assert.Len(t, loaded.SerializePubKey(), 65)
		}

		_, err = SigningKeyFromWIF(wif.String(), &chaincfg.MainNetParams)
		_assert.Error(t, err)
	}

	_, err := SigningKeyFromWIF("notawif", &chaincfg.TestNet3Params)
	_assert.Error(t, err)
}
