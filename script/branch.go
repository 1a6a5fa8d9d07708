package script

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

var (
	// ErrUnbalancedConditional is returned for scripts whose
	// OP_IF/OP_NOTIF, OP_ELSE and OP_ENDIF do not pair up.
	ErrUnbalancedConditional = errors.New("unbalanced conditional")

	// ErrBranchPathMismatch is returned when a logical path is too
	// short or too long for the branch it selects.
	ErrBranchPathMismatch = errors.New("logical path does not match script branches")
)

// Segment is a run of operations executed along a branch. It
// is either a lone OP_IF/OP_NOTIF, or the operations found
// between two conditional opcodes.
type Segment struct {
	Ops []Operation

	logicalOp bool
}

// IsLoneLogicalOp returns whether the segment holds a single
// OP_IF or OP_NOTIF.
func (s *Segment) IsLoneLogicalOp() bool {
	return s.logicalOp
}

// BranchTree is the set of mutually exclusive execution paths
// of a script. A branch is identified by the logical path taken
// through it: one boolean per OP_IF/OP_NOTIF executed, in order,
// holding the value found on the stack by that opcode.
type BranchTree struct {
	ops          []Operation
	conditionals int
}

// NewBranchTree decodes script and checks that its
// conditionals are balanced.
func NewBranchTree(script []byte) (*BranchTree, error) {
	ops, err := Decode(script)
	if err != nil {
		return nil, err
	}

	depth, conditionals := 0, 0
	for i, op := range ops {
		switch {
		case op.IsConditional():
			depth++
			conditionals++
		case op.Opcode == txscript.OP_ELSE:
			if depth == 0 {
				return nil, errors.Wrapf(ErrUnbalancedConditional,
					"OP_ELSE without OP_IF at operation %d", i)
			}
		case op.Opcode == txscript.OP_ENDIF:
			if depth == 0 {
				return nil, errors.Wrapf(ErrUnbalancedConditional,
					"OP_ENDIF without OP_IF at operation %d", i)
			}
			depth--
		}
	}
	if depth != 0 {
		return nil, errors.Wrap(ErrUnbalancedConditional,
			"OP_IF without OP_ENDIF")
	}

	return &BranchTree{
		ops:          ops,
		conditionals: conditionals,
	}, nil
}

// HasMultipleBranches returns whether the script contains any
// conditional, and so more than one path.
func (t *BranchTree) HasMultipleBranches() bool {
	return t.conditionals > 0
}

// SelectBranch walks the script along path, returning the
// segments executed. One boolean is consumed for each OP_IF or
// OP_NOTIF reached, and the whole path must be used.
func (t *BranchTree) SelectBranch(path []bool) ([]Segment, error) {
	var (
		segments []Segment
		current  []Operation
		vfExec   []bool
		used     int
	)

	executing := func() bool {
		for _, exec := range vfExec {
			if !exec {
				return false
			}
		}
		return true
	}

	flush := func() {
		if len(current) > 0 {
			segments = append(segments, Segment{Ops: current})
			current = nil
		}
	}

	for _, op := range t.ops {
		switch {
		case op.IsConditional():
			if !executing() {
				vfExec = append(vfExec, false)
				continue
			}

			flush()
			if used >= len(path) {
				return nil, errors.Wrap(ErrBranchPathMismatch,
					"path exhausted before reaching the end of the branch")
			}

			value := path[used]
			used++

			segments = append(segments, Segment{
				Ops:       []Operation{op},
				logicalOp: true,
			})

			if op.Opcode == txscript.OP_NOTIF {
				value = !value
			}
			vfExec = append(vfExec, value)

		case op.Opcode == txscript.OP_ELSE:
			flush()
			vfExec[len(vfExec)-1] = !vfExec[len(vfExec)-1]

		case op.Opcode == txscript.OP_ENDIF:
			flush()
			vfExec = vfExec[:len(vfExec)-1]

		default:
			if executing() {
				current = append(current, op)
			}
		}
	}
	flush()

	if used != len(path) {
		return nil, errors.Wrapf(ErrBranchPathMismatch,
			"branch used %d of %d path values", used, len(path))
	}

	return segments, nil
}
