package script

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

// ErrNotPushOnly is returned when a script which must only
// push data (a scriptSig) contains another kind of opcode.
var ErrNotPushOnly = errors.New("script contained a non-push opcode")

// Operation is a single decoded opcode, along with the
// data it pushes (if any).
type Operation struct {
	Opcode byte
	Data   []byte
}

// IsPush returns whether the operation only places
// a value on the stack.
func (o Operation) IsPush() bool {
	return o.Opcode <= txscript.OP_16 && o.Opcode != txscript.OP_RESERVED
}

// IsConditional returns whether the operation opens a
// new conditional branch.
func (o Operation) IsConditional() bool {
	return o.Opcode == txscript.OP_IF || o.Opcode == txscript.OP_NOTIF
}

// PushValue returns the stack element produced by a push
// operation, expanding the small integer opcodes into their
// minimally encoded value.
func (o Operation) PushValue() ([]byte, error) {
	switch {
	case o.Opcode == txscript.OP_0:
		return []byte{}, nil
	case o.Opcode == txscript.OP_1NEGATE:
		return []byte{0x81}, nil
	case o.Opcode >= txscript.OP_1 && o.Opcode <= txscript.OP_16:
		return []byte{o.Opcode - (txscript.OP_1 - 1)}, nil
	case o.Opcode <= txscript.OP_PUSHDATA4:
		return o.Data, nil
	}

	return nil, ErrNotPushOnly
}

// Decode splits a script into its operations. An error
// is returned if a push runs past the end of the script.
func Decode(script []byte) ([]Operation, error) {
	ops := make([]Operation, 0, len(script))
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		ops = append(ops, Operation{
			Opcode: tokenizer.Opcode(),
			Data:   tokenizer.Data(),
		})
	}
	if err := tokenizer.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to decode script")
	}

	return ops, nil
}

// EvalPushOnly decodes a push-only script (a scriptSig) into
// the stack it would produce, first pushed element first.
func EvalPushOnly(script []byte) ([][]byte, error) {
	ops, err := Decode(script)
	if err != nil {
		return nil, err
	}

	stack := make([][]byte, 0, len(ops))
	for _, op := range ops {
		if !op.IsPush() {
			return nil, ErrNotPushOnly
		}

		value, err := op.PushValue()
		if err != nil {
			return nil, err
		}
		stack = append(stack, value)
	}

	return stack, nil
}

// smallInt returns the number pushed by OP_0 and OP_1 to OP_16.
func smallInt(op byte) (int, bool) {
	if op == txscript.OP_0 {
		return 0, true
	}
	if op >= txscript.OP_1 && op <= txscript.OP_16 {
		return int(op - (txscript.OP_1 - 1)), true
	}

	return 0, false
}
