package wallet

import (
	"github.com/pkg/errors"
)

// SignatureCheck reports whether sig is a valid signature by key.
type SignatureCheck func(sig, key []byte) bool

// LinkSignatures associates each signature with the key that produced
// it, following the order OP_CHECKMULTISIG consumes them in: both lists
// are walked once, a signature is only tested against keys after the
// previous match, and the walk fails as soon as more signatures remain
// than keys. The result maps key index to signature index.
func LinkSignatures(sigs [][]byte, keys [][]byte, check SignatureCheck) (map[int]int, error) {
	result := make(map[int]int, len(sigs))

	isig, ikey := 0, 0
	for isig < len(sigs) {
		if len(sigs)-isig > len(keys)-ikey {
			return nil, errors.Wrapf(ErrInvalidExistingSignatures,
				"%d signatures left for %d keys", len(sigs)-isig,
				len(keys)-ikey)
		}

		if check(sigs[isig], keys[ikey]) {
			result[ikey] = isig
			isig++
		}
		ikey++
	}

	return result, nil
}
