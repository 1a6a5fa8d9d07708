package bip32util

import (
	"math"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/pkg/errors"
)

var (
	// ErrPathAlreadyMaxDepth is returned when the
	// BIP32 key has reached its theoretical maximum
	// depth of 255, since additional derivations cannot
	// safely be serialized in a uint8
	ErrPathAlreadyMaxDepth = errors.New("Cannot create child path, currently at max BIP32 depth")

	// ErrPathNotAbsolute is returned for paths which
	// don't start at the master key.
	ErrPathNotAbsolute = errors.New("Absolute BIP32 path is required")
)

const (
	privatePathPrefix = "m"
	publicPathPrefix  = "M"
	maxBip32Depth     = math.MaxUint8
)

// Path is an absolute BIP32 derivation path. Private
// paths start at m, public ones at M.
type Path struct {
	private bool
	Indices []uint32
}

// NewPrivatePath initializes a path for `m`
func NewPrivatePath() *Path {
	return &Path{private: true}
}

// NewPublicPath initializes a path for `M`
func NewPublicPath() *Path {
	return &Path{}
}

// ParsePath parses paths like m/44'/0'/0'/0/1. Hardened
// indices are marked with ' or h.
func ParsePath(path string) (*Path, error) {
	if path == "" {
		return nil, errors.New("Path cannot be empty string")
	}

	pieces := strings.Split(path, "/")
	p := &Path{}
	switch pieces[0] {
	case privatePathPrefix:
		p.private = true
	case publicPathPrefix:
	default:
		return nil, ErrPathNotAbsolute
	}

	pieces = pieces[1:]
	if len(pieces) > maxBip32Depth {
		return nil, errors.Errorf("The provided path exceeds the maximum number of allowed derivations: %d", maxBip32Depth)
	}

	p.Indices = make([]uint32, 0, len(pieces))
	for _, piece := range pieces {
		index, err := parseIndex(piece)
		if err != nil {
			return nil, err
		}
		p.Indices = append(p.Indices, index)
	}

	return p, nil
}

// parseIndex parses one path element.
func parseIndex(piece string) (uint32, error) {
	hardened := false
	if trimmed := strings.TrimRight(piece, "'h"); trimmed != piece {
		if len(piece)-len(trimmed) > 1 {
			return 0, errors.Errorf("Improperly formatted BIP32 derivation %q", piece)
		}
		hardened = true
		piece = trimmed
	}

	index, err := strconv.ParseUint(piece, 10, 31)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid BIP32 index %q", piece)
	}

	if hardened {
		return uint32(index) + hdkeychain.HardenedKeyStart, nil
	}
	return uint32(index), nil
}

// FormatIndex returns the string form of a path element,
// with a ' suffix for hardened indices.
func FormatIndex(index uint32) string {
	if index >= hdkeychain.HardenedKeyStart {
		return strconv.FormatUint(uint64(index-hdkeychain.HardenedKeyStart), 10) + "'"
	}
	return strconv.FormatUint(uint64(index), 10)
}

// Child returns a new path extended with index.
func (p *Path) Child(index uint32) (*Path, error) {
	if p.Depth()+1 > maxBip32Depth {
		return nil, ErrPathAlreadyMaxDepth
	}

	indices := make([]uint32, 0, p.Depth()+1)
	indices = append(indices, p.Indices...)

	return &Path{
		private: p.private,
		Indices: append(indices, index),
	}, nil
}

// ToPublic returns the same path, starting at M.
func (p *Path) ToPublic() *Path {
	return &Path{
		Indices: p.Indices,
	}
}

// Depth returns the current depth of the path
func (p *Path) Depth() int {
	return len(p.Indices)
}

// IsPrivate returns whether the path is for a
// public (false) or private (true) key.
func (p *Path) IsPrivate() bool {
	return p.private
}

// IsContainedIn checks that p is a prefix of other.
func (p *Path) IsContainedIn(other *Path) bool {
	if p.Depth() > other.Depth() {
		return false
	}

	for i, index := range p.Indices {
		if other.Indices[i] != index {
			return false
		}
	}

	return true
}

// String encodes the path, eg, m/44'/0'/0'/0/1
func (p *Path) String() string {
	steps := make([]string, 0, 1+p.Depth())
	if p.private {
		steps = append(steps, privatePathPrefix)
	} else {
		steps = append(steps, publicPathPrefix)
	}

	for _, index := range p.Indices {
		steps = append(steps, FormatIndex(index))
	}

	return strings.Join(steps, "/")
}
