package bip32util

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
)

var (
	// ErrKeyPathMismatch is produced when the
	// path doesn't match an attribute of the key.
	ErrKeyPathMismatch = errors.New("key matched with wrong path, both should equal")

	// ErrBadRootKey is produced when the provided
	// key doesn't match the expected attributes of a _root_
	// BIP32 key.
	ErrBadRootKey = errors.New("root key must have a depth and parent fingerprint of 0")

	// ErrKeyIsAlreadyPublic is returned when a codepath
	// requests a public key be converted to a public key.
	ErrKeyIsAlreadyPublic = errors.New("key is already public")

	// ErrPathNotDescendant is returned when deriving a
	// path which doesn't extend the key's own path.
	ErrPathNotDescendant = errors.New("path does not descend from key")
)

// Key captures a BIP32 key along with its entire
// derivation path.
type Key struct {
	Key  *hdkeychain.ExtendedKey
	Path *Path
}

// NewMasterKey will initialize a Key for a root ExtendedKey.
func NewMasterKey(key *hdkeychain.ExtendedKey) (*Key, error) {
	if key.ParentFingerprint() != 0 || key.Depth() != 0 {
		return nil, ErrBadRootKey
	}

	if key.IsPrivate() {
		return &Key{Key: key, Path: NewPrivatePath()}, nil
	}

	return &Key{Key: key, Path: NewPublicPath()}, nil
}

// ParseMasterKey decodes a serialized root key, checking
// it belongs to params.
func ParseMasterKey(xkey string, params *chaincfg.Params) (*Key, error) {
	key, err := hdkeychain.NewKeyFromString(xkey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid extended key")
	}

	if !key.IsForNet(params) {
		return nil, errors.Errorf("extended key is not for network %s", params.Name)
	}

	return NewMasterKey(key)
}

// Child derives the child key at index.
func (k *Key) Child(index uint32) (*Key, error) {
	path, err := k.Path.Child(index)
	if err != nil {
		return nil, err
	}

	key, err := k.Key.Derive(index)
	if err != nil {
		return nil, err
	}

	return &Key{Key: key, Path: path}, nil
}

// DerivePath derives the key at path, which must extend
// the key's own path. A public path on a private key
// returns the public key.
func (k *Key) DerivePath(path *Path) (*Key, error) {
	if path.IsPrivate() && !k.IsPrivate() {
		return nil, ErrKeyPathMismatch
	}
	if !k.Path.IsContainedIn(path) {
		return nil, ErrPathNotDescendant
	}

	key := k
	for _, index := range path.Indices[k.Path.Depth():] {
		var err error
		key, err = key.Child(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive %s", path)
		}
	}

	if key.IsPrivate() && !path.IsPrivate() {
		return key.ToPublic()
	}

	return key, nil
}

// IsPrivate returns true if the key is private,
// false if public.
func (k *Key) IsPrivate() bool {
	return k.Key.IsPrivate()
}

// ToPublic converts the key and its path to
// the public form, or returns an error if the
// Key is already public.
func (k *Key) ToPublic() (*Key, error) {
	if !k.IsPrivate() {
		return nil, ErrKeyIsAlreadyPublic
	}

	key, err := k.Key.Neuter()
	if err != nil {
		return nil, err
	}

	return &Key{Key: key, Path: k.Path.ToPublic()}, nil
}

// PrivKey returns the private key for signing.
func (k *Key) PrivKey() (*btcec.PrivateKey, error) {
	return k.Key.ECPrivKey()
}

// PubKey returns the compressed public key.
func (k *Key) PubKey() ([]byte, error) {
	pubKey, err := k.Key.ECPubKey()
	if err != nil {
		return nil, err
	}

	return pubKey.SerializeCompressed(), nil
}
