package wallet

import (
	"github.com/btccom/txsigner/script"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/pkg/errors"
)

// Step is one element of the sequence of actions needed to satisfy
// a sign script. It is either a *Conditional or a *Checksig.
type Step interface {
	isStep()
}

// Conditional is a step for an OP_IF or OP_NOTIF. Its value
// is the boolean the opcode finds on the stack.
type Conditional struct {
	opcode byte
	value  fn.Option[bool]
}

func (*Conditional) isStep() {}

func newConditional(opcode byte) *Conditional {
	return &Conditional{
		opcode: opcode,
		value:  fn.None[bool](),
	}
}

// Opcode returns OP_IF or OP_NOTIF.
func (c *Conditional) Opcode() byte {
	return c.opcode
}

// Value returns the value of the conditional, if resolved.
func (c *Conditional) Value() fn.Option[bool] {
	return c.value
}

// HasValue returns whether the conditional is resolved.
func (c *Conditional) HasValue() bool {
	return c.value.IsSome()
}

func (c *Conditional) setValue(value bool) {
	c.value = fn.Some(value)
}

// serialize returns the stack element selecting the branch.
func (c *Conditional) serialize() [][]byte {
	if c.value.UnwrapOr(false) {
		return [][]byte{{0x01}}
	}

	return [][]byte{{}}
}

// Checksig is a step for a P2PK, P2PKH or multisig pattern. Keys
// and signatures are held by slot, with one slot for P2PK and P2PKH
// and one per public key for multisig. A nil key is a slot whose
// key is not yet known, or could not be parsed.
type Checksig struct {
	scriptType   txscript.ScriptClass
	solution     [][]byte
	requiredSigs int
	verify       bool

	keys []*PublicKeyInfo
	sigs []*TxSignature
}

func (*Checksig) isStep() {}

func newChecksig(match *script.Match) *Checksig {
	slots := 1
	if match.Type == txscript.MultiSigTy {
		slots = len(match.Solution)
	}

	return &Checksig{
		scriptType:   match.Type,
		solution:     match.Solution,
		requiredSigs: match.RequiredSigs,
		verify:       match.Verify,
		keys:         make([]*PublicKeyInfo, slots),
		sigs:         make([]*TxSignature, slots),
	}
}

// Type returns the pattern of the step.
func (c *Checksig) Type() txscript.ScriptClass {
	return c.scriptType
}

// Solution returns the keys, or key hash, committed to by the step.
func (c *Checksig) Solution() [][]byte {
	return c.solution
}

// RequiredSigs returns the number of signatures the step needs.
func (c *Checksig) RequiredSigs() int {
	return c.requiredSigs
}

// IsVerify returns whether the pattern ends in a VERIFY opcode.
func (c *Checksig) IsVerify() bool {
	return c.verify
}

// Keys returns the public key of each slot.
func (c *Checksig) Keys() []*PublicKeyInfo {
	keys := make([]*PublicKeyInfo, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// Signatures returns the signature of each slot.
func (c *Checksig) Signatures() []*TxSignature {
	sigs := make([]*TxSignature, len(c.sigs))
	copy(sigs, c.sigs)
	return sigs
}

// HasSignature returns whether slot idx is signed.
func (c *Checksig) HasSignature(idx int) bool {
	return c.sigs[idx] != nil
}

// SignatureCount returns the number of signed slots.
func (c *Checksig) SignatureCount() int {
	count := 0
	for _, sig := range c.sigs {
		if sig != nil {
			count++
		}
	}
	return count
}

// IsFullySigned returns whether the step has enough signatures.
func (c *Checksig) IsFullySigned() bool {
	return c.SignatureCount() >= c.requiredSigs
}

// serialize produces the stack elements satisfying the step,
// deepest first. Multisig gets its dummy element and the
// signatures follow key order.
func (c *Checksig) serialize() ([][]byte, error) {
	switch c.scriptType {
	case txscript.PubKeyTy:
		if c.sigs[0] == nil {
			return nil, nil
		}
		return [][]byte{c.sigs[0].Serialize()}, nil

	case txscript.PubKeyHashTy:
		if c.sigs[0] == nil || c.keys[0] == nil {
			return nil, nil
		}
		return [][]byte{c.sigs[0].Serialize(), c.keys[0].Serialized}, nil

	case txscript.MultiSigTy:
		values := [][]byte{{}}
		for _, sig := range c.sigs {
			if sig != nil {
				values = append(values, sig.Serialize())
			}
		}
		return values, nil

	default:
		return nil, errors.Wrapf(ErrUnsupportedScriptType,
			"cannot serialize %s step", c.scriptType)
	}
}
