package bip32util

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	_assert "github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	private := NewPrivatePath()
	_assert.True(t, private.IsPrivate())
	_assert.Equal(t, 0, private.Depth())
	_assert.Equal(t, "m", private.String())

	public := NewPublicPath()
	_assert.False(t, public.IsPrivate())
	_assert.Equal(t, 0, public.Depth())
	_assert.Equal(t, "M", public.String())
}

func TestParsePath(t *testing.T) {
	fixtures := []struct {
		path    string
		private bool
		depth   int
	}{
		{"m", true, 0},
		{"M", false, 0},
		{"m/0", true, 1},
		{"M/0'", false, 1},
		{"m/1/2'/3/4'/5'/6/7/8'/9'/10", true, 10},
		{"m/2147483647'", true, 1},
	}

	for _, fixture := range fixtures {
		fixture := fixture
		t.Run(fixture.path, func(t *testing.T) {
			path, err := ParsePath(fixture.path)
			_assert.NoError(t, err)
			_assert.Equal(t, fixture.private, path.IsPrivate())
			_assert.Equal(t, fixture.depth, path.Depth())
			_assert.Equal(t, fixture.path, path.String())
		})
	}

	t.Run("h marks hardened indices", func(t *testing.T) {
		path, err := ParsePath("m/44h/0h/0h/0/1")
		_assert.NoError(t, err)
		_assert.Equal(t, []uint32{
			44 + hdkeychain.HardenedKeyStart,
			hdkeychain.HardenedKeyStart,
			hdkeychain.HardenedKeyStart,
			0, 1,
		}, path.Indices)
		_assert.Equal(t, "m/44'/0'/0'/0/1", path.String())
	})
}

func TestParsePathErrors(t *testing.T) {
	fixtures := map[string]string{
		"empty":         "",
		"bad prefix":    "G/0",
		"relative":      "0/1",
		"double marker": "m/0''",
		"out of range":  "m/2147483648'",
		"not a number":  "m/a",
		"empty index":   "m/0//1",
	}

	for name, path := range fixtures {
		path := path
		t.Run(name, func(t *testing.T) {
			p, err := ParsePath(path)
			_assert.Error(t, err)
			_assert.Nil(t, p)
		})
	}

	_, err := ParsePath("G/0")
	_assert.Equal(t, ErrPathNotAbsolute, err)
}

func TestPathChild(t *testing.T) {
	parent, err := ParsePath("m/0'")
	_assert.NoError(t, err)

	child, err := parent.Child(7)
	_assert.NoError(t, err)
	_assert.Equal(t, "m/0'/7", child.String())
	_assert.Equal(t, "m/0'", parent.String())

	_assert.True(t, parent.IsContainedIn(child))
	_assert.False(t, child.IsContainedIn(parent))

	other, err := ParsePath("m/1'/7")
	_assert.NoError(t, err)
	_assert.False(t, parent.IsContainedIn(other))

	_assert.Equal(t, "M/0'/7", child.ToPublic().String())

	deep := NewPrivatePath()
	for i := 0; i < maxBip32Depth; i++ {
		deep, err = deep.Child(0)
		_assert.NoError(t, err)
	}
	_, err = deep.Child(0)
	_assert.Equal(t, ErrPathAlreadyMaxDepth, err)
}
