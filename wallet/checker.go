package wallet

import (
	"sync"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// SigVersion selects the signature hashing algorithm.
type SigVersion int

const (
	// SigVersionBase is the original transaction digest.
	SigVersionBase SigVersion = 0

	// SigVersionWitnessV0 is the BIP143 digest, used by
	// version 0 witness programs.
	SigVersionWitnessV0 SigVersion = 1
)

// String returns the name of the sig version.
func (v SigVersion) String() string {
	switch v {
	case SigVersionBase:
		return "base"
	case SigVersionWitnessV0:
		return "witness_v0"
	default:
		return "unknown"
	}
}

// IsDefinedHashType returns whether hashType is one of ALL, NONE
// or SINGLE, optionally combined with ANYONECANPAY.
func IsDefinedHashType(hashType txscript.SigHashType) bool {
	base := hashType &^ txscript.SigHashAnyOneCanPay
	return base >= txscript.SigHashAll && base <= txscript.SigHashSingle
}

// validSignature is an internal structure for capturing
// the fields of a valid signature
type validSignature struct {
	pubKey *PublicKeyInfo
	sig    *TxSignature
	hash   []byte
}

// parsePubKeyAndSig is a helper function for
// CheckerInterface::CheckSig implementations
func parsePubKeyAndSig(vchPubKey []byte, vchSig []byte) (*PublicKeyInfo, *TxSignature, error) {
	pubKey, err := ParsePublicKeyInfo(vchPubKey)
	if err != nil {
		return nil, nil, err
	}

	txSig, err := ParseTxSignature(vchSig)
	if err != nil {
		return nil, nil, err
	}

	return pubKey, txSig, nil
}

// checkTxSig verifies txSig by pubKey over hash.
func checkTxSig(txSig *TxSignature, pubKey *PublicKeyInfo, hash []byte) (*validSignature, error) {
	if !txSig.Signature.Verify(hash, pubKey.Key) {
		return nil, errors.New("invalid signature")
	}

	return &validSignature{
		pubKey: pubKey,
		sig:    txSig,
		hash:   hash,
	}, nil
}

// sigHashKey identifies a memoized digest.
type sigHashKey struct {
	sigVersion SigVersion
	hashType   txscript.SigHashType
	script     string
}

// bitcoinChecker implements CheckerInterface for the bitcoin network
type bitcoinChecker struct {
	tx        *wire.MsgTx
	nIn       int
	amount    int64
	sigHashes *txscript.TxSigHashes

	// mu guards cache, which is written by read-locked callers.
	mu    sync.Mutex
	cache map[sigHashKey][]byte
}

// GetSigHash returns the digest signed for script, memoized per
// sig version, hash type and script.
func (c *bitcoinChecker) GetSigHash(script []byte, hashType txscript.SigHashType,
	sigVersion SigVersion) ([]byte, error) {

	if !IsDefinedHashType(hashType) {
		return nil, errors.Wrapf(ErrInvalidSigHashType, "0x%x", uint32(hashType))
	}

	key := sigHashKey{sigVersion, hashType, string(script)}
	c.mu.Lock()
	hash, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return hash, nil
	}

	var err error
	switch sigVersion {
	case SigVersionBase:
		hash, err = txscript.CalcSignatureHash(script, hashType, c.tx, c.nIn)
	case SigVersionWitnessV0:
		hash, err = txscript.CalcWitnessSigHash(script, c.sigHashes,
			hashType, c.tx, c.nIn, c.amount)
	default:
		return nil, errors.Errorf("unknown sig version %d", sigVersion)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute sighash")
	}

	c.mu.Lock()
	c.cache[key] = hash
	c.mu.Unlock()
	return hash, nil
}

// CheckSig implements signature checking on the bitcoin network
func (c *bitcoinChecker) CheckSig(script []byte, vchPubKey []byte, vchSig []byte,
	sigVersion SigVersion) (*validSignature, error) {

	pubKey, txSig, err := parsePubKeyAndSig(vchPubKey, vchSig)
	if err != nil {
		return nil, errors.Wrap(err, "checker failed to parse pubkey/sig")
	}

	hash, err := c.GetSigHash(script, txSig.HashType, sigVersion)
	if err != nil {
		return nil, errors.Wrap(err, "checker failed to create sighash")
	}

	return checkTxSig(txSig, pubKey, hash)
}

// CheckerInterface exposes an interface for operations
// related to a transaction inputs signature
type CheckerInterface interface {
	// GetSigHash returns the signature hash given some input params
	GetSigHash(script []byte, hashType txscript.SigHashType, sigVersion SigVersion) ([]byte, error)

	// CheckSig verifies a signature given some input params
	CheckSig(script []byte, vchPubKey []byte, vchSig []byte, sigVersion SigVersion) (*validSignature, error)
}

// CheckerCreator produces the CheckerInterface for one input.
type CheckerCreator func(tx *wire.MsgTx, sigHashes *txscript.TxSigHashes, nIn int, value int64) (CheckerInterface, error)

// BitcoinCheckerCreator is a factory function, that produces a CheckerInterface
// for the Bitcoin network.
func BitcoinCheckerCreator(tx *wire.MsgTx, sigHashes *txscript.TxSigHashes,
	nIn int, value int64) (CheckerInterface, error) {

	if nIn < 0 || nIn > len(tx.TxIn)-1 {
		return nil, errors.New("no input at this index")
	}

	return &bitcoinChecker{
		tx:        tx,
		sigHashes: sigHashes,
		nIn:       nIn,
		amount:    value,
		cache:     make(map[sigHashKey][]byte),
	}, nil
}
