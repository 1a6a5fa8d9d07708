package wallet

import (
	"github.com/btccom/txsigner/bip32util"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
)

// KeyOrigin contains information about how to retrieve a
// signing key. It is either a WIF string, or an extended
// private key with the BIP32 path of the signing key.
type KeyOrigin struct {
	WIF string

	Xprv  string
	Bip32 *bip32util.Path
}

// WIFKeyOrigin returns a KeyOrigin for a WIF string.
func WIFKeyOrigin(wif string) *KeyOrigin {
	return &KeyOrigin{WIF: wif}
}

// Bip32KeyOrigin returns a KeyOrigin for the key at path,
// derived from the extended private key xprv.
func Bip32KeyOrigin(xprv string, path *bip32util.Path) *KeyOrigin {
	return &KeyOrigin{Xprv: xprv, Bip32: path}
}

// SigningKey loads the key for params. BIP32 keys always
// sign for their compressed public key.
func (origin *KeyOrigin) SigningKey(params *chaincfg.Params) (*SigningKey, error) {
	switch {
	case origin.WIF != "" && origin.Xprv != "":
		return nil, errors.New("key origin has both WIF and extended key")

	case origin.WIF != "":
		return SigningKeyFromWIF(origin.WIF, params)

	case origin.Xprv != "":
		if origin.Bip32 == nil {
			return nil, errors.New("extended key requires a BIP32 path")
		}
		if !origin.Bip32.IsPrivate() {
			return nil, errors.Errorf("signing requires a private path, got %s",
				origin.Bip32)
		}

		master, err := bip32util.ParseMasterKey(origin.Xprv, params)
		if err != nil {
			return nil, err
		}

		key, err := master.DerivePath(origin.Bip32)
		if err != nil {
			return nil, err
		}

		privKey, err := key.PrivKey()
		if err != nil {
			return nil, err
		}

		return NewSigningKey(privKey, true), nil
	}

	return nil, errors.New("key origin is empty")
}
