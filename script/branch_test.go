package script

import (
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
	_assert "github.com/stretchr/testify/require"
)

// segmentOpcodes flattens each segment into its opcodes, so
// branches can be compared without the pushed data.
func segmentOpcodes(segments []Segment) [][]byte {
	result := make([][]byte, 0, len(segments))
	for _, segment := range segments {
		ops := make([]byte, 0, len(segment.Ops))
		for _, op := range segment.Ops {
			ops = append(ops, op.Opcode)
		}
		result = append(result, ops)
	}
	return result
}

func TestBranchTreeSingleBranch(t *testing.T) {
	pubKey1 := decodeHex(t, pubKey1Hex)
	script := buildScript(t, func(b *txscript.ScriptBuilder) {
		b.AddData(pubKey1).AddOp(txscript.OP_CHECKSIG)
	})

	tree, err := NewBranchTree(script)
	_assert.NoError(t, err)
	_assert.False(t, tree.HasMultipleBranches())

	segments, err := tree.SelectBranch(nil)
	_assert.NoError(t, err)
	_assert.Len(t, segments, 1)
	_assert.False(t, segments[0].IsLoneLogicalOp())
	_assert.Equal(t, [][]byte{{txscript.OP_DATA_33, txscript.OP_CHECKSIG}},
		segmentOpcodes(segments))

	_, err = tree.SelectBranch([]bool{true})
	_assert.True(t, errors.Is(err, ErrBranchPathMismatch))
}

func TestBranchTreeIfElse(t *testing.T) {
	pubKey1 := decodeHex(t, pubKey1Hex)
	pubKey2 := decodeHex(t, pubKey2Hex)

	// IF <key1> CHECKSIG ELSE 1 <key1> <key2> 2 CHECKMULTISIG ENDIF
	script := buildScript(t, func(b *txscript.ScriptBuilder) {
		b.AddOp(txscript.OP_IF)
		b.AddData(pubKey1).AddOp(txscript.OP_CHECKSIG)
		b.AddOp(txscript.OP_ELSE)
		b.AddOp(txscript.OP_1).AddData(pubKey1).AddData(pubKey2).
			AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG)
		b.AddOp(txscript.OP_ENDIF)
	})

	tree, err := NewBranchTree(script)
	_assert.NoError(t, err)
	_assert.True(t, tree.HasMultipleBranches())

	t.Run("true path", func(t *testing.T) {
		segments, err := tree.SelectBranch([]bool{true})
		_assert.NoError(t, err)
		_assert.Len(t, segments, 2)
		_assert.True(t, segments[0].IsLoneLogicalOp())
		_assert.False(t, segments[1].IsLoneLogicalOp())
		_assert.Equal(t, [][]byte{
			{txscript.OP_IF},
			{txscript.OP_DATA_33, txscript.OP_CHECKSIG},
		}, segmentOpcodes(segments))
	})

	t.Run("false path", func(t *testing.T) {
		segments, err := tree.SelectBranch([]bool{false})
		_assert.NoError(t, err)
		_assert.Equal(t, [][]byte{
			{txscript.OP_IF},
			{txscript.OP_1, txscript.OP_DATA_33, txscript.OP_DATA_33,
				txscript.OP_2, txscript.OP_CHECKMULTISIG},
		}, segmentOpcodes(segments))
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := tree.SelectBranch(nil)
		_assert.True(t, errors.Is(err, ErrBranchPathMismatch))
	})

	t.Run("excess path", func(t *testing.T) {
		_, err := tree.SelectBranch([]bool{true, false})
		_assert.True(t, errors.Is(err, ErrBranchPathMismatch))
	})
}

func TestBranchTreeNotIf(t *testing.T) {
	pubKey1 := decodeHex(t, pubKey1Hex)
	pubKey2 := decodeHex(t, pubKey2Hex)

	// NOTIF <key1> CHECKSIGVERIFY ENDIF <key2> CHECKSIG
	script := buildScript(t, func(b *txscript.ScriptBuilder) {
		b.AddOp(txscript.OP_NOTIF)
		b.AddData(pubKey1).AddOp(txscript.OP_CHECKSIGVERIFY)
		b.AddOp(txscript.OP_ENDIF)
		b.AddData(pubKey2).AddOp(txscript.OP_CHECKSIG)
	})

	tree, err := NewBranchTree(script)
	_assert.NoError(t, err)

	segments, err := tree.SelectBranch([]bool{false})
	_assert.NoError(t, err)
	_assert.Equal(t, [][]byte{
		{txscript.OP_NOTIF},
		{txscript.OP_DATA_33, txscript.OP_CHECKSIGVERIFY},
		{txscript.OP_DATA_33, txscript.OP_CHECKSIG},
	}, segmentOpcodes(segments))

	segments, err = tree.SelectBranch([]bool{true})
	_assert.NoError(t, err)
	_assert.Equal(t, [][]byte{
		{txscript.OP_NOTIF},
		{txscript.OP_DATA_33, txscript.OP_CHECKSIG},
	}, segmentOpcodes(segments))
}

func TestBranchTreeNested(t *testing.T) {
	pubKey1 := decodeHex(t, pubKey1Hex)
	pubKey2 := decodeHex(t, pubKey2Hex)

	// IF IF <key1> CHECKSIG ELSE <key2> CHECKSIG ENDIF ELSE <key1> CHECKSIG ENDIF
	script := buildScript(t, func(b *txscript.ScriptBuilder) {
		b.AddOp(txscript.OP_IF)
		b.AddOp(txscript.OP_IF)
		b.AddData(pubKey1).AddOp(txscript.OP_CHECKSIG)
		b.AddOp(txscript.OP_ELSE)
		b.AddData(pubKey2).AddOp(txscript.OP_CHECKSIG)
		b.AddOp(txscript.OP_ENDIF)
		b.AddOp(txscript.OP_ELSE)
		b.AddData(pubKey1).AddOp(txscript.OP_CHECKSIG)
		b.AddOp(txscript.OP_ENDIF)
	})

	tree, err := NewBranchTree(script)
	_assert.NoError(t, err)

	segments, err := tree.SelectBranch([]bool{true, false})
	_assert.NoError(t, err)
	_assert.Len(t, segments, 3)
	_assert.Equal(t, pubKey2, segments[2].Ops[0].Data)

	// The inner conditional is skipped on the outer else branch,
	// so only one value is consumed.
	segments, err = tree.SelectBranch([]bool{false})
	_assert.NoError(t, err)
	_assert.Len(t, segments, 2)
	_assert.Equal(t, pubKey1, segments[1].Ops[0].Data)

	_, err = tree.SelectBranch([]bool{true})
	_assert.True(t, errors.Is(err, ErrBranchPathMismatch))
}

func TestBranchTreeUnbalanced(t *testing.T) {
	fixtures := map[string][]byte{
		"missing endif":  {txscript.OP_IF, txscript.OP_1},
		"orphan else":    {txscript.OP_1, txscript.OP_ELSE, txscript.OP_ENDIF},
		"orphan endif":   {txscript.OP_1, txscript.OP_ENDIF},
		"nested missing": {txscript.OP_IF, txscript.OP_NOTIF, txscript.OP_ENDIF},
	}

	for name, script := range fixtures {
		script := script
		t.Run(name, func(t *testing.T) {
			tree, err := NewBranchTree(script)
			_assert.Nil(t, tree)
			_assert.True(t, errors.Is(err, ErrUnbalancedConditional))
		})
	}

	_, err := NewBranchTree([]byte{txscript.OP_DATA_5, 0x01})
	_assert.Error(t, err)
}
