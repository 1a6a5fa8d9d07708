package wallet

import (
	"sync"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// SignerFactory is a factory function that produces a TxSigner
// for the provided transaction. It should take care of configuring
// the signer.
type SignerFactory func(tx *wire.MsgTx) *TxSigner

// NewSignerFactory produces a SignerFactory out of a Network.
func NewSignerFactory(network *Network, opts ...InputOption) SignerFactory {
	return func(tx *wire.MsgTx) *TxSigner {
		return NewTxSigner(network, tx, opts...)
	}
}

// prevOutFetcher serves the outputs spent by the transaction.
// Outputs which were never added are returned empty, since only
// taproot sighashing needs to know every prevout.
type prevOutFetcher struct {
	*txscript.MultiPrevOutFetcher
}

// FetchPrevOutput returns the output spent by op.
func (f *prevOutFetcher) FetchPrevOutput(op wire.OutPoint) *wire.TxOut {
	if txOut := f.MultiPrevOutFetcher.FetchPrevOutput(op); txOut != nil {
		return txOut
	}

	return &wire.TxOut{}
}

// NewTxSigner is a low level constructor for a TxSigner.
// The options are applied to every input.
func NewTxSigner(network *Network, tx *wire.MsgTx, opts ...InputOption) *TxSigner {
	return &TxSigner{
		network: network,
		tx:      tx,
		opts:    opts,
		vSigner: make(map[int]*InputSigner, len(tx.TxIn)),
		prevOuts: &prevOutFetcher{
			MultiPrevOutFetcher: txscript.NewMultiPrevOutFetcher(nil),
		},
	}
}

// TxSigner contains the state for signing the inputs of a
// transaction. The transaction is read, never modified.
type TxSigner struct {
	sync.RWMutex
	network   *Network
	tx        *wire.MsgTx
	opts      []InputOption
	vSigner   map[int]*InputSigner
	prevOuts  *prevOutFetcher
	sigHashes *txscript.TxSigHashes
}

// Build reconstructs a Tx message by applying
// any new signatures to the signature script / witness
func (signer *TxSigner) Build() (*wire.MsgTx, error) {
	signer.RLock()
	defer signer.RUnlock()

	txCopy := signer.tx.Copy()
	for i, input := range signer.vSigner {
		sigValues, err := input.SerializeSignatures()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to serialize input %d", i)
		}

		txCopy.TxIn[i].SignatureScript = sigValues.ScriptSig
		txCopy.TxIn[i].Witness = sigValues.Witness
	}

	return txCopy, nil
}

// getSigHashes returns the TxSigHashes value for the transaction,
// computing it on first use.
func (signer *TxSigner) getSigHashes() *txscript.TxSigHashes {
	if signer.sigHashes == nil {
		signer.sigHashes = txscript.NewTxSigHashes(signer.tx, signer.prevOuts)
	}

	return signer.sigHashes
}

// Input takes nInput, accesses that input, and initializes
// the InputSigner. The InputSignData element is used to
// supplement script information for a completely unsigned
// transaction. The scriptPubKey ultimately drives what
// information is required. Later calls return the same
// InputSigner.
func (signer *TxSigner) Input(nInput int, signData *InputSignData) (*InputSigner, error) {
	signer.Lock()
	defer signer.Unlock()

	if inputSigner, exists := signer.vSigner[nInput]; exists {
		return inputSigner, nil
	}

	numInputs := len(signer.tx.TxIn)
	if nInput < 0 || nInput >= numInputs {
		return nil, errors.Errorf("Requested out of range input %d, but transaction has %d", nInput, numInputs)
	}
	if signData == nil || signData.TxOut == nil {
		return nil, errors.New("sign data must include the txOut")
	}

	signer.prevOuts.AddPrevOut(signer.tx.TxIn[nInput].PreviousOutPoint, signData.TxOut)

	inputSigner, err := NewInputSigner(signer.network, signer.tx, nInput,
		signer.getSigHashes(), signData, signer.opts...)
	if err != nil {
		return nil, err
	}

	if err := inputSigner.Extract(); err != nil {
		return nil, err
	}

	signer.vSigner[nInput] = inputSigner

	return inputSigner, nil
}

// SignInput signs a previously loaded input with each of keys.
// Keys without a slot in the input are skipped. It returns
// the number of keys which matched.
func (signer *TxSigner) SignInput(nInput int, keys []*SigningKey,
	hashType txscript.SigHashType) (int, error) {

	signer.RLock()
	input, exists := signer.vSigner[nInput]
	signer.RUnlock()
	if !exists {
		return 0, errors.Errorf("input %d has not been loaded", nInput)
	}

	matched := 0
	for i, key := range keys {
		err := input.Sign(key, hashType)
		if errors.Is(err, ErrWrongPrivateKey) {
			log.Tracef("Input %d: key %d has no slot", nInput, i)
			continue
		}
		if err != nil {
			return matched, err
		}
		matched++
	}

	return matched, nil
}
