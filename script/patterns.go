package script

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

// ErrInvalidScript is returned when a run of operations cannot be
// split into signable patterns.
var ErrInvalidScript = errors.New("invalid script")

// Match is a signable pattern found within a run of operations.
type Match struct {
	Type txscript.ScriptClass

	// Solution holds the public keys (PubKeyTy, MultiSigTy) or
	// the public key hash (PubKeyHashTy) committed to by the pattern.
	Solution [][]byte

	// RequiredSigs is the number of signatures needed to satisfy
	// the pattern.
	RequiredSigs int

	// Verify is set if the pattern ends in the VERIFY form of its
	// checksig opcode.
	Verify bool
}

// matcher inspects ops and returns a Match if they form
// exactly one signable pattern.
type matcher func(ops []Operation, allowVerify bool) (*Match, bool)

// signMatchers are tried in order, the first to match wins.
var signMatchers = []matcher{
	matchMultisig,
	matchPubKey,
	matchPubKeyHash,
}

// isPubKeyPush checks for a direct push of a compressed
// or uncompressed public key.
func isPubKeyPush(op Operation) bool {
	switch op.Opcode {
	case txscript.OP_DATA_33:
		return op.Data[0] == 0x02 || op.Data[0] == 0x03
	case txscript.OP_DATA_65:
		return op.Data[0] == 0x04
	}
	return false
}

// checksigOp tests op against the checksig opcode, or its
// VERIFY form if allowVerify is set.
func checksigOp(op Operation, checksig, checksigVerify byte, allowVerify bool) (bool, bool) {
	if op.Opcode == checksig {
		return true, false
	}
	if allowVerify && op.Opcode == checksigVerify {
		return true, true
	}
	return false, false
}

// matchMultisig matches OP_M <pubkey>{N} OP_N OP_CHECKMULTISIG
func matchMultisig(ops []Operation, allowVerify bool) (*Match, bool) {
	l := len(ops)
	if l < 4 {
		return nil, false
	}

	ok, verify := checksigOp(ops[l-1], txscript.OP_CHECKMULTISIG,
		txscript.OP_CHECKMULTISIGVERIFY, allowVerify)
	if !ok {
		return nil, false
	}

	m, ok := smallInt(ops[0].Opcode)
	if !ok || m < 1 {
		return nil, false
	}
	n, ok := smallInt(ops[l-2].Opcode)
	if !ok || n < m || n != l-3 {
		return nil, false
	}

	keys := make([][]byte, 0, n)
	for _, op := range ops[1 : l-2] {
		if !isPubKeyPush(op) {
			return nil, false
		}
		keys = append(keys, op.Data)
	}

	return &Match{
		Type:         txscript.MultiSigTy,
		Solution:     keys,
		RequiredSigs: m,
		Verify:       verify,
	}, true
}

// matchPubKey matches <pubkey> OP_CHECKSIG
func matchPubKey(ops []Operation, allowVerify bool) (*Match, bool) {
	if len(ops) != 2 || !isPubKeyPush(ops[0]) {
		return nil, false
	}

	ok, verify := checksigOp(ops[1], txscript.OP_CHECKSIG,
		txscript.OP_CHECKSIGVERIFY, allowVerify)
	if !ok {
		return nil, false
	}

	return &Match{
		Type:         txscript.PubKeyTy,
		Solution:     [][]byte{ops[0].Data},
		RequiredSigs: 1,
		Verify:       verify,
	}, true
}

// matchPubKeyHash matches
// OP_DUP OP_HASH160 <hash160> OP_EQUALVERIFY OP_CHECKSIG
func matchPubKeyHash(ops []Operation, allowVerify bool) (*Match, bool) {
	if len(ops) != 5 {
		return nil, false
	}

	if ops[0].Opcode != txscript.OP_DUP ||
		ops[1].Opcode != txscript.OP_HASH160 ||
		ops[2].Opcode != txscript.OP_DATA_20 ||
		ops[3].Opcode != txscript.OP_EQUALVERIFY {
		return nil, false
	}

	ok, verify := checksigOp(ops[4], txscript.OP_CHECKSIG,
		txscript.OP_CHECKSIGVERIFY, allowVerify)
	if !ok {
		return nil, false
	}

	return &Match{
		Type:         txscript.PubKeyHashTy,
		Solution:     [][]byte{ops[2].Data},
		RequiredSigs: 1,
		Verify:       verify,
	}, true
}

// MatchSignable returns the first signable pattern which
// exactly covers ops.
func MatchSignable(ops []Operation, allowVerify bool) (*Match, bool) {
	for _, match := range signMatchers {
		if m, ok := match(ops, allowVerify); ok {
			return m, true
		}
	}

	return nil, false
}

// ParseSequence splits a run of operations into consecutive
// signable patterns. Starting from the first unconsumed operation,
// windows of increasing length are tried until one matches, and
// the cursor advances past it. VERIFY forms are accepted, so that
// patterns can be chained.
func ParseSequence(ops []Operation) ([]*Match, error) {
	var result []*Match

	for j, l := 0, len(ops); j < l; {
		var (
			match *Match
			width int
		)
		for width = 1; width <= l-j; width++ {
			if m, ok := MatchSignable(ops[j:j+width], true); ok {
				match = m
				break
			}
		}

		if match == nil {
			return nil, errors.Wrapf(ErrInvalidScript,
				"no signable pattern at operation %d", j)
		}

		result = append(result, match)
		j += width
	}

	return result, nil
}
