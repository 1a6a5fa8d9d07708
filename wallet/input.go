package wallet

import (
	"bytes"
	"sync"

	"github.com/btccom/txsigner/script"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/pkg/errors"
)

// signerState tracks the lifecycle of an InputSigner.
type signerState uint8

const (
	stateUnclassified signerState = iota
	stateClassified
	stateSigned
)

// InputOption configures an InputSigner.
type InputOption func(*InputSigner)

// AllowComplexScripts accepts sign scripts made of several
// signable patterns, optionally behind OP_IF/OP_NOTIF.
func AllowComplexScripts(allow bool) InputOption {
	return func(input *InputSigner) {
		input.allowComplexScripts = allow
	}
}

// TolerateInvalidPublicKey keeps multisig slots with an
// unparsable public key, instead of failing. Such slots
// can never be signed.
func TolerateInvalidPublicKey(tolerate bool) InputOption {
	return func(input *InputSigner) {
		input.tolerateInvalidPublicKey = tolerate
	}
}

// SigValues holds the unlocking data for an input.
type SigValues struct {
	ScriptSig []byte
	Witness   wire.TxWitness
}

// InputSigner exposes an API for extracting an inputs
// signatures, signing, and verifying.
type InputSigner struct {
	sync.RWMutex

	network   *Network
	tx        *wire.MsgTx
	nInput    int
	signData  *InputSignData
	sigHashes *txscript.TxSigHashes
	checker   CheckerInterface
	flags     txscript.ScriptFlags

	allowComplexScripts      bool
	tolerateInvalidPublicKey bool

	state signerState
	fqs   *fullyQualifiedScript
	steps []Step
}

// NewInputSigner prepares signing of input nInput of tx. The input
// is unclassified until Extract or Solve is called. sigHashes must
// be computed over tx, and tx must not change while the signer is
// in use.
func NewInputSigner(network *Network, tx *wire.MsgTx, nInput int,
	sigHashes *txscript.TxSigHashes, signData *InputSignData,
	opts ...InputOption) (*InputSigner, error) {

	if nInput < 0 || nInput >= len(tx.TxIn) {
		return nil, errors.Errorf("input %d does not exist in transaction", nInput)
	}
	if signData == nil || signData.TxOut == nil {
		return nil, errors.New("sign data must include the txOut")
	}

	flags, err := signData.verifyFlags(network.DefaultFlags)
	if err != nil {
		return nil, err
	}

	checker, err := network.CheckerCreator(tx, sigHashes, nInput, signData.TxOut.Value)
	if err != nil {
		return nil, err
	}

	input := &InputSigner{
		network:   network,
		tx:        tx,
		nInput:    nInput,
		signData:  signData,
		sigHashes: sigHashes,
		checker:   checker,
		flags:     flags,
	}
	for _, opt := range opts {
		opt(input)
	}

	return input, nil
}

// Extract classifies the input using the scriptSig and
// witness currently in the transaction.
func (input *InputSigner) Extract() error {
	txIn := input.tx.TxIn[input.nInput]
	return input.Solve(txIn.SignatureScript, txIn.Witness)
}

// Solve classifies the output being spent and reconciles
// scriptSig and witness with it, building the step sequence.
// Existing signatures are checked before anything is kept.
func (input *InputSigner) Solve(scriptSig []byte, witness wire.TxWitness) error {
	input.Lock()
	defer input.Unlock()

	if input.state != stateUnclassified {
		return ErrAlreadyClassified
	}

	fqs, chunks, err := solveScripts(input.network.Params, input.signData,
		input.signData.TxOut.PkScript, scriptSig, witness,
		input.allowComplexScripts)
	if err != nil {
		return err
	}

	steps, err := input.extractSteps(fqs, chunks)
	if err != nil {
		return err
	}

	if len(chunks) > 0 && stepsFullySigned(steps) {
		err := input.verifyScripts(scriptSig, witness, input.flags, fqs.isSegwit())
		if err != nil {
			return errors.Wrapf(ErrInvalidExistingSignatures,
				"script execution failed: %v", err)
		}
	}

	input.fqs = fqs
	input.steps = steps
	input.state = stateClassified

	log.Debugf("Input %d classified: spk=%s sign=%s sigversion=%s steps=%d",
		input.nInput, fqs.spk.Type, fqs.sign.Type, fqs.sigVersion, len(steps))
	log.Tracef("Input %d steps: %v", input.nInput, spewSteps(steps))

	return nil
}

// extractSteps selects the branch of the sign script and maps the
// stack items onto its steps. Items are taken from the top of the
// stack (the end of chunks) in execution order.
func (input *InputSigner) extractSteps(fqs *fullyQualifiedScript,
	chunks [][]byte) ([]Step, error) {

	tree, err := script.NewBranchTree(fqs.sign.Script)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupportedScriptType,
			"sign script: %v", err)
	}

	var path []bool
	if tree.HasMultipleBranches() {
		path, err = input.signData.LogicalPath.UnwrapOrErr(
			errors.Wrap(ErrBranchPathMismatch,
				"script has branches but no logical path was given"))
		if err != nil {
			return nil, err
		}
	}

	segments, err := tree.SelectBranch(path)
	if err != nil {
		return nil, err
	}

	stack := append([][]byte{}, chunks...)
	pop := func(n int) [][]byte {
		items := stack[len(stack)-n:]
		stack = stack[:len(stack)-n]
		return items
	}

	var (
		steps    []Step
		pathUsed int
	)
	for _, segment := range segments {
		if segment.IsLoneLogicalOp() {
			conditional := newConditional(segment.Ops[0].Opcode)
			value := path[pathUsed]
			pathUsed++

			if len(stack) > 0 {
				if castToBool(pop(1)[0]) != value {
					return nil, errors.Wrap(ErrBranchPathMismatch,
						"existing stack doesn't follow branch path")
				}
			}
			conditional.setValue(value)
			steps = append(steps, conditional)
			continue
		}

		matches, err := script.ParseSequence(segment.Ops)
		if err != nil {
			return nil, errors.Wrapf(ErrUnsupportedScriptType,
				"sign script: %v", err)
		}

		for _, match := range matches {
			checksig := newChecksig(match)

			var items [][]byte
			switch match.Type {
			case txscript.PubKeyTy:
				if len(stack) > 0 {
					items = pop(1)
				}
			case txscript.PubKeyHashTy:
				if len(stack) == 1 {
					return nil, errors.Wrap(ErrInvalidExistingSignatures,
						"pay-to-pubkey-hash needs a signature and key")
				}
				if len(stack) > 0 {
					items = pop(2)
				}
			case txscript.MultiSigTy:
				n := 1 + match.RequiredSigs
				if len(stack) < n {
					n = len(stack)
				}
				items = pop(n)
			}

			err := input.extractFromValues(fqs, checksig, items)
			if err != nil {
				return nil, err
			}
			steps = append(steps, checksig)
		}
	}

	if len(stack) > 0 {
		return nil, errors.Wrapf(ErrInvalidExistingSignatures,
			"%d unexpected stack items", len(stack))
	}

	if !input.allowComplexScripts && len(steps) != 1 {
		return nil, errors.Wrapf(ErrUnsupportedScriptType,
			"found %d steps in a simple script", len(steps))
	}

	return steps, nil
}

// extractFromValues fills a Checksig step from its stack items,
// checking every signature found.
func (input *InputSigner) extractFromValues(fqs *fullyQualifiedScript,
	checksig *Checksig, items [][]byte) error {

	signScript := fqs.sign.Script

	switch checksig.scriptType {
	case txscript.PubKeyTy:
		key, err := input.parseStepPublicKey(checksig.solution[0])
		if err != nil {
			return err
		}
		checksig.keys[0] = key

		if len(items) == 1 {
			valid, err := input.checker.CheckSig(signScript,
				checksig.solution[0], items[0], fqs.sigVersion)
			if err != nil {
				return errors.Wrapf(ErrInvalidExistingSignatures,
					"pay-to-pubkey: %v", err)
			}
			checksig.sigs[0] = valid.sig
		}

	case txscript.PubKeyHashTy:
		if len(items) == 2 {
			if !bytes.Equal(btcutil.Hash160(items[1]), checksig.solution[0]) {
				return errors.Wrap(ErrInvalidExistingSignatures,
					"public key doesn't match pay-to-pubkey-hash")
			}

			valid, err := input.checker.CheckSig(signScript, items[1],
				items[0], fqs.sigVersion)
			if err != nil {
				return errors.Wrapf(ErrInvalidExistingSignatures,
					"pay-to-pubkey-hash: %v", err)
			}
			checksig.keys[0] = valid.pubKey
			checksig.sigs[0] = valid.sig
		}

	case txscript.MultiSigTy:
		for i, keyBytes := range checksig.solution {
			key, err := input.parseStepPublicKey(keyBytes)
			if err != nil {
				return err
			}
			checksig.keys[i] = key
		}

		if len(items) == 0 {
			return nil
		}
		if len(items[0]) != 0 {
			return errors.Wrap(ErrInvalidExistingSignatures,
				"multisig dummy element must be empty")
		}

		sigs := items[1:]
		links, err := LinkSignatures(sigs, checksig.solution,
			func(sig, key []byte) bool {
				_, err := input.checker.CheckSig(signScript, key,
					sig, fqs.sigVersion)
				return err == nil
			},
		)
		if err != nil {
			return err
		}
		if len(links) != len(sigs) {
			return errors.Wrapf(ErrInvalidExistingSignatures,
				"linked %d of %d signatures", len(links), len(sigs))
		}

		for keyIdx, sigIdx := range links {
			txSig, err := ParseTxSignature(sigs[sigIdx])
			if err != nil {
				return errors.Wrapf(ErrInvalidExistingSignatures,
					"multisig: %v", err)
			}
			checksig.sigs[keyIdx] = txSig
		}

	default:
		return errors.Wrapf(ErrUnsupportedScriptType,
			"cannot extract %s step", checksig.scriptType)
	}

	return nil
}

// parseStepPublicKey parses a public key from the script,
// returning nil for bad keys if they are tolerated.
func (input *InputSigner) parseStepPublicKey(keyBytes []byte) (*PublicKeyInfo, error) {
	key, err := ParsePublicKeyInfo(keyBytes)
	if err != nil {
		if input.tolerateInvalidPublicKey {
			return nil, nil
		}
		return nil, errors.Wrapf(ErrUnsupportedScriptType,
			"script public key: %v", err)
	}

	return key, nil
}

// castToBool interprets a stack item the way script does: false
// for empty values, zeroes, and negative zero.
func castToBool(value []byte) bool {
	for i, b := range value {
		if b != 0 {
			// Negative zero is still zero.
			if i == len(value)-1 && b == 0x80 {
				return false
			}
			return true
		}
	}

	return false
}

// stepsFullySigned returns whether every conditional has
// a value and every checksig enough signatures.
func stepsFullySigned(steps []Step) bool {
	for _, step := range steps {
		switch s := step.(type) {
		case *Conditional:
			if !s.HasValue() {
				return false
			}
		case *Checksig:
			if !s.IsFullySigned() {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// Sign adds signatures by key with hashType. Steps are walked in
// execution order: complete steps are skipped, and after trying the
// key on an incomplete Checksig the walk stops unless that step
// became complete. Signing again with a key that already signed is
// a no-op, as is signing a multisig step that already holds its
// required signatures with a key whose slot is still empty; both
// return nil. ErrWrongPrivateKey is returned if the key has no slot.
func (input *InputSigner) Sign(key *SigningKey, hashType txscript.SigHashType) error {
	input.Lock()
	defer input.Unlock()

	if input.state == stateUnclassified {
		return ErrNotClassified
	}
	if !IsDefinedHashType(hashType) {
		return errors.Wrapf(ErrInvalidSigHashType, "0x%x", uint32(hashType))
	}
	if input.fqs.isSegwit() && !key.Compressed {
		return ErrUncompressedKeyInSegwit
	}

	pubKey := key.SerializePubKey()
	matched := false

walk:
	for _, step := range input.steps {
		switch s := step.(type) {
		case *Conditional:
			if !s.HasValue() {
				break walk
			}

		case *Checksig:
			wasSigned := s.IsFullySigned()
			ok, err := input.signChecksig(s, key, pubKey, hashType)
			if err != nil {
				return err
			}
			matched = matched || ok

			if !wasSigned && !s.IsFullySigned() {
				break walk
			}

		default:
			return errors.Errorf("unknown step type %T", step)
		}
	}

	if !matched {
		return ErrWrongPrivateKey
	}

	input.state = stateSigned
	return nil
}

// signChecksig signs the slots of checksig belonging to pubKey, up
// to the required number of signatures. It returns whether any slot
// belongs to the key.
func (input *InputSigner) signChecksig(checksig *Checksig, key *SigningKey,
	pubKey []byte, hashType txscript.SigHashType) (bool, error) {

	switch checksig.scriptType {
	case txscript.PubKeyTy:
		if checksig.keys[0] == nil || !checksig.keys[0].Equal(pubKey) {
			return false, nil
		}

	case txscript.PubKeyHashTy:
		if !bytes.Equal(btcutil.Hash160(pubKey), checksig.solution[0]) {
			return false, nil
		}
		if checksig.keys[0] == nil {
			keyInfo, err := ParsePublicKeyInfo(pubKey)
			if err != nil {
				return false, errors.Wrap(err, "cannot parse public key info")
			}
			checksig.keys[0] = keyInfo
		}

	case txscript.MultiSigTy:
		matched := false
		for i, keyInfo := range checksig.keys {
			if keyInfo == nil || !keyInfo.Equal(pubKey) {
				continue
			}
			matched = true

			if checksig.sigs[i] != nil || checksig.IsFullySigned() {
				continue
			}

			sig, err := input.calculateSignature(key, hashType)
			if err != nil {
				return false, err
			}
			checksig.sigs[i] = sig
			log.Debugf("Input %d: signed multisig slot %d", input.nInput, i)
		}
		return matched, nil

	default:
		return false, errors.Wrapf(ErrUnsupportedScriptType,
			"cannot sign %s step", checksig.scriptType)
	}

	if checksig.sigs[0] == nil {
		sig, err := input.calculateSignature(key, hashType)
		if err != nil {
			return false, err
		}
		checksig.sigs[0] = sig
		log.Debugf("Input %d: signed %s", input.nInput, checksig.scriptType)
	}

	return true, nil
}

// calculateSignature produces a deterministic signature over
// the sighash of the sign script.
func (input *InputSigner) calculateSignature(key *SigningKey,
	hashType txscript.SigHashType) (*TxSignature, error) {

	hash, err := input.checker.GetSigHash(input.fqs.sign.Script, hashType,
		input.fqs.sigVersion)
	if err != nil {
		return nil, err
	}

	return &TxSignature{
		HashType:  hashType,
		Signature: ecdsa.Sign(key.Key, hash),
	}, nil
}

// serializeSteps produces the stack for the sign script. Only the
// determined prefix of the steps is included: it ends at an unset
// conditional, at a checksig without signatures, or after a
// partially signed checksig.
func (input *InputSigner) serializeSteps() ([][]byte, error) {
	var groups [][][]byte

walk:
	for _, step := range input.steps {
		switch s := step.(type) {
		case *Conditional:
			if !s.HasValue() {
				break walk
			}
			groups = append(groups, s.serialize())

		case *Checksig:
			if s.SignatureCount() == 0 {
				break walk
			}
			values, err := s.serialize()
			if err != nil {
				return nil, err
			}
			groups = append(groups, values)

			if !s.IsFullySigned() {
				break walk
			}

		default:
			return nil, errors.Errorf("unknown step type %T", step)
		}
	}

	// The first step consumes the top of the stack, so it is
	// pushed last.
	var stack [][]byte
	for i := len(groups) - 1; i >= 0; i-- {
		stack = append(stack, groups[i]...)
	}

	return stack, nil
}

// SerializeSignatures produces the scriptSig and witness
// for the signatures collected so far.
func (input *InputSigner) SerializeSignatures() (*SigValues, error) {
	input.RLock()
	defer input.RUnlock()

	return input.serializeSignatures()
}

func (input *InputSigner) serializeSignatures() (*SigValues, error) {
	if input.state == stateUnclassified {
		return nil, ErrNotClassified
	}

	stack, err := input.serializeSteps()
	if err != nil {
		return nil, err
	}

	scriptSig, witness, err := input.fqs.encodeStack(stack)
	if err != nil {
		return nil, err
	}

	return &SigValues{
		ScriptSig: scriptSig,
		Witness:   witness,
	}, nil
}

// Verify runs the serialized signatures through the script
// engine with the input's verification flags.
func (input *InputSigner) Verify() bool {
	return input.VerifyWithFlags(input.flags)
}

// VerifyWithFlags runs the serialized signatures through the
// script engine with flags. P2SH, and witness for witness
// inputs, are always enabled.
func (input *InputSigner) VerifyWithFlags(flags txscript.ScriptFlags) bool {
	input.RLock()
	defer input.RUnlock()

	sigValues, err := input.serializeSignatures()
	if err != nil {
		return false
	}

	err = input.verifyScripts(sigValues.ScriptSig, sigValues.Witness,
		flags, input.fqs.isSegwit())
	if err != nil {
		log.Debugf("Input %d failed verification: %v", input.nInput, err)
		return false
	}

	return true
}

// verifyScripts executes the spend of the input's txOut with
// scriptSig and witness, on a copy of the transaction.
func (input *InputSigner) verifyScripts(scriptSig []byte, witness wire.TxWitness,
	flags txscript.ScriptFlags, segwit bool) error {

	flags |= txscript.ScriptBip16
	if segwit {
		flags |= txscript.ScriptVerifyWitness
	}

	txCopy := input.tx.Copy()
	txCopy.TxIn[input.nInput].SignatureScript = scriptSig
	txCopy.TxIn[input.nInput].Witness = witness

	txOut := input.signData.TxOut
	fetcher := txscript.NewCannedPrevOutputFetcher(txOut.PkScript, txOut.Value)

	vm, err := txscript.NewEngine(txOut.PkScript, txCopy, input.nInput,
		flags, nil, input.sigHashes, txOut.Value, fetcher)
	if err != nil {
		return err
	}

	return vm.Execute()
}

// IsFullySigned returns whether every step is complete.
func (input *InputSigner) IsFullySigned() bool {
	input.RLock()
	defer input.RUnlock()

	if input.state == stateUnclassified {
		return false
	}

	return stepsFullySigned(input.steps)
}

// RequiredSigs returns the number of signatures needed by
// all Checksig steps.
func (input *InputSigner) RequiredSigs() int {
	input.RLock()
	defer input.RUnlock()

	count := 0
	for _, step := range input.steps {
		if checksig, ok := step.(*Checksig); ok {
			count += checksig.requiredSigs
		}
	}
	return count
}

// firstChecksig returns the first Checksig step.
func (input *InputSigner) firstChecksig() *Checksig {
	for _, step := range input.steps {
		if checksig, ok := step.(*Checksig); ok {
			return checksig
		}
	}
	return nil
}

// Signatures returns the signature slots of the
// first Checksig step.
func (input *InputSigner) Signatures() []*TxSignature {
	input.RLock()
	defer input.RUnlock()

	if checksig := input.firstChecksig(); checksig != nil {
		return checksig.Signatures()
	}
	return nil
}

// PublicKeys returns the key slots of the first
// Checksig step.
func (input *InputSigner) PublicKeys() []*PublicKeyInfo {
	input.RLock()
	defer input.RUnlock()

	if checksig := input.firstChecksig(); checksig != nil {
		return checksig.Keys()
	}
	return nil
}

// Steps returns the step sequence.
func (input *InputSigner) Steps() []Step {
	input.RLock()
	defer input.RUnlock()

	return append([]Step{}, input.steps...)
}

// SignScript returns the script that is signed. It is the
// scriptPubKey, redeemScript or witnessScript, or the
// P2PKH script of a P2WKH program.
func (input *InputSigner) SignScript() *script.OutputData {
	input.RLock()
	defer input.RUnlock()

	if input.fqs == nil {
		return nil
	}
	return input.fqs.sign
}

// ScriptPubKey returns the classified txOut script.
func (input *InputSigner) ScriptPubKey() *script.OutputData {
	input.RLock()
	defer input.RUnlock()

	if input.fqs == nil {
		return nil
	}
	return input.fqs.spk
}

// RedeemScript returns the classified P2SH redeemScript.
func (input *InputSigner) RedeemScript() fn.Option[*script.OutputData] {
	input.RLock()
	defer input.RUnlock()

	if input.fqs == nil || input.fqs.rs == nil {
		return fn.None[*script.OutputData]()
	}
	return fn.Some(input.fqs.rs)
}

// WitnessScript returns the classified P2WSH witnessScript.
func (input *InputSigner) WitnessScript() fn.Option[*script.OutputData] {
	input.RLock()
	defer input.RUnlock()

	if input.fqs == nil || input.fqs.ws == nil {
		return fn.None[*script.OutputData]()
	}
	return fn.Some(input.fqs.ws)
}

// WitnessKeyHash returns the P2PKH script signed in place of a
// P2WKH program, found either as the txOut or the redeemScript.
func (input *InputSigner) WitnessKeyHash() fn.Option[*script.OutputData] {
	input.RLock()
	defer input.RUnlock()

	if input.fqs == nil || input.fqs.witnessKeyHash == nil {
		return fn.None[*script.OutputData]()
	}
	return fn.Some(input.fqs.witnessKeyHash)
}

// IsP2SH returns whether the txOut is P2SH.
func (input *InputSigner) IsP2SH() bool {
	return input.RedeemScript().IsSome()
}

// IsP2WSH returns whether the txOut or redeemScript is P2WSH.
func (input *InputSigner) IsP2WSH() bool {
	return input.WitnessScript().IsSome()
}

// SigVersion returns the sighash algorithm of the input.
func (input *InputSigner) SigVersion() SigVersion {
	input.RLock()
	defer input.RUnlock()

	if input.fqs == nil {
		return SigVersionBase
	}
	return input.fqs.sigVersion
}

// Flags returns the flags the input is verified with.
func (input *InputSigner) Flags() txscript.ScriptFlags {
	return input.flags
}

// SigHash returns the digest a signature with hashType
// must commit to.
func (input *InputSigner) SigHash(hashType txscript.SigHashType) ([]byte, error) {
	input.RLock()
	defer input.RUnlock()

	if input.state == stateUnclassified {
		return nil, ErrNotClassified
	}

	return input.checker.GetSigHash(input.fqs.sign.Script, hashType,
		input.fqs.sigVersion)
}
