package wallet

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

const (
	compressedKeyLen   = 33
	uncompressedKeyLen = 65
)

// SigningKey is a private key along with the public key
// encoding it signs for.
type SigningKey struct {
	Key        *btcec.PrivateKey
	Compressed bool
}

// NewSigningKey wraps a private key. Compressed selects
// the public key serialization matched against scripts.
func NewSigningKey(key *btcec.PrivateKey, compressed bool) *SigningKey {
	return &SigningKey{
		Key:        key,
		Compressed: compressed,
	}
}

// SigningKeyFromWIF decodes a WIF string, and checks it
// belongs to params.
func SigningKeyFromWIF(wif string, params *chaincfg.Params) (*SigningKey, error) {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode WIF")
	}

	if !decoded.IsForNet(params) {
		return nil, errors.Errorf("WIF is not for network %s", params.Name)
	}

	return NewSigningKey(decoded.PrivKey, decoded.CompressPubKey), nil
}

// PubKey returns the public key of the signing key.
func (k *SigningKey) PubKey() *btcec.PublicKey {
	return k.Key.PubKey()
}

// SerializePubKey serializes the public key in the
// configured format.
func (k *SigningKey) SerializePubKey() []byte {
	if k.Compressed {
		return k.Key.PubKey().SerializeCompressed()
	}

	return k.Key.PubKey().SerializeUncompressed()
}

// PublicKeyInfo encapsulates a parsed public key along with
// the exact serialization found in a script or stack.
type PublicKeyInfo struct {
	Key        *btcec.PublicKey
	Serialized []byte
}

// ParsePublicKeyInfo takes keyBytes and produces
// a PublicKeyInfo struct. Only compressed and uncompressed
// encodings are accepted.
func ParsePublicKeyInfo(keyBytes []byte) (*PublicKeyInfo, error) {
	switch {
	case len(keyBytes) == compressedKeyLen &&
		(keyBytes[0] == 0x02 || keyBytes[0] == 0x03):
	case len(keyBytes) == uncompressedKeyLen &&
		keyBytes[0] == 0x04:
	default:
		return nil, errors.New("invalid public key encoding")
	}

	pubKey, err := btcec.ParsePubKey(keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "parse PublicKeyInfo failed")
	}

	return &PublicKeyInfo{
		Key:        pubKey,
		Serialized: keyBytes,
	}, nil
}

// IsCompressed returns whether the key was serialized
// in compressed form.
func (keyInfo *PublicKeyInfo) IsCompressed() bool {
	return len(keyInfo.Serialized) == compressedKeyLen
}

// Equal compares the serialized forms of two keys.
func (keyInfo *PublicKeyInfo) Equal(other []byte) bool {
	return bytes.Equal(keyInfo.Serialized, other)
}

// TxSignature captures the parsed ecdsa.Signature
// and the signatures hashtype.
type TxSignature struct {
	HashType  txscript.SigHashType
	Signature *ecdsa.Signature
}

// ParseTxSignature takes a byte vector and parses
// a TxSignature struct
func ParseTxSignature(sig []byte) (*TxSignature, error) {
	if len(sig) < 1 {
		return nil, errors.New("TxSignature too short")
	}

	hashType := txscript.SigHashType(sig[len(sig)-1])
	signature, err := ecdsa.ParseDERSignature(sig[:len(sig)-1])
	if err != nil {
		return nil, errors.Wrap(err, "invalid DER signature")
	}

	return &TxSignature{
		HashType:  hashType,
		Signature: signature,
	}, nil
}

// Serialize will take the hashType and signature and
// produce the txin signature
func (sigInfo *TxSignature) Serialize() []byte {
	ecSig := sigInfo.Signature.Serialize()
	return append(ecSig, byte(sigInfo.HashType))
}
