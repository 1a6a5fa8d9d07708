package script

import (
	"github.com/btcsuite/btcd/txscript"
)

// PushAll takes a list of stack elements and produces a script
// that is PUSHONLY compliant. Empty elements are pushed with OP_0,
// single bytes 1-16 with OP_1 to OP_16, and anything else with
// the smallest push opcode for its length.
func PushAll(values [][]byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	for _, value := range values {
		switch {
		case len(value) == 0:
			builder.AddOp(txscript.OP_0)
		case len(value) == 1 && value[0] >= 1 && value[0] <= 16:
			builder.AddOp(txscript.OP_1 - 1 + value[0])
		default:
			builder.AddFullData(value)
		}
	}

	return builder.Script()
}
