package main

import (
	"strings"

	"github.com/btccom/txsigner/bip32util"
	"github.com/btccom/txsigner/wallet"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

const (
	defaultNetwork    = wallet.NetBtc
	defaultDebugLevel = "info"
)

// policyFlags names the script verification flags accepted
// by --policy.
var policyFlags = map[string]txscript.ScriptFlags{
	"p2sh":                txscript.ScriptBip16,
	"strictencoding":      txscript.ScriptVerifyStrictEncoding,
	"dersig":              txscript.ScriptVerifyDERSignatures,
	"lows":                txscript.ScriptVerifyLowS,
	"nulldummy":           txscript.ScriptStrictMultiSig,
	"sigpushonly":         txscript.ScriptVerifySigPushOnly,
	"minimaldata":         txscript.ScriptVerifyMinimalData,
	"cleanstack":          txscript.ScriptVerifyCleanStack,
	"checklocktimeverify": txscript.ScriptVerifyCheckLockTimeVerify,
	"checksequenceverify": txscript.ScriptVerifyCheckSequenceVerify,
	"witness":             txscript.ScriptVerifyWitness,
	"minimalif":           txscript.ScriptVerifyMinimalIf,
	"nullfail":            txscript.ScriptVerifyNullFail,
	"witnesspubkeytype":   txscript.ScriptVerifyWitnessPubKeyType,
	"standard":            txscript.StandardVerifyFlags,
}

type config struct {
	Network string `long:"network" description:"The network to sign for" choice:"btc" choice:"tbtc" choice:"rbtc" choice:"sbtc"`
	Tx      string `long:"tx" description:"The unsigned or partially signed transaction, hex encoded" required:"true"`
	Input   int    `long:"input" description:"Index of the input to sign"`
	Value   int64  `long:"value" description:"Value of the output being spent, in satoshis" required:"true"`

	PkScript      string `long:"pkscript" description:"Hex scriptPubKey of the output being spent" required:"true"`
	RedeemScript  string `long:"redeemscript" description:"Hex P2SH redeemScript"`
	WitnessScript string `long:"witnessscript" description:"Hex P2WSH witnessScript"`
	LogicalPath   string `long:"path" description:"Comma separated 0/1 values selecting the branch of each OP_IF/OP_NOTIF"`

	WIF     []string `long:"wif" description:"A WIF encoded private key to sign with"`
	Xprv    string   `long:"xprv" description:"An extended private key to derive signing keys from"`
	KeyPath []string `long:"keypath" description:"A BIP32 path, relative to --xprv, of a key to sign with"`

	SigHash      string   `long:"sighash" description:"The signature hash type, the network default if unset" choice:"all" choice:"none" choice:"single"`
	AnyoneCanPay bool     `long:"anyonecanpay" description:"Combine the sighash type with ANYONECANPAY"`
	Policy       []string `long:"policy" description:"A script verification flag to check the input with, replacing the network defaults"`

	AllowComplex bool   `long:"allowcomplex" description:"Accept scripts with conditionals or several signature checks"`
	DebugLevel   string `long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical, off}"`
}

var defaultConfig = config{
	Network:    defaultNetwork,
	DebugLevel: defaultDebugLevel,
}

// hashType returns the sighash type selected by the flags,
// falling back to the network's default type.
func (c *config) hashType(network *wallet.Network) txscript.SigHashType {
	var hashType txscript.SigHashType
	switch c.SigHash {
	case "all":
		hashType = txscript.SigHashAll
	case "none":
		hashType = txscript.SigHashNone
	case "single":
		hashType = txscript.SigHashSingle
	default:
		hashType = network.DefaultHashType
	}

	if c.AnyoneCanPay {
		hashType |= txscript.SigHashAnyOneCanPay
	}
	return hashType
}

// policy combines the --policy flags. The second return is
// false when none were given.
func (c *config) policy() (txscript.ScriptFlags, bool, error) {
	if len(c.Policy) == 0 {
		return 0, false, nil
	}

	var flags txscript.ScriptFlags
	for _, name := range c.Policy {
		flag, ok := policyFlags[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, false, errors.Errorf("unknown policy flag %q", name)
		}
		flags |= flag
	}
	return flags, true, nil
}

// logicalPath parses the --path flag.
func (c *config) logicalPath() ([]bool, error) {
	if c.LogicalPath == "" {
		return nil, nil
	}

	var path []bool
	for _, value := range strings.Split(c.LogicalPath, ",") {
		switch strings.TrimSpace(value) {
		case "1":
			path = append(path, true)
		case "0":
			path = append(path, false)
		default:
			return nil, errors.Errorf("invalid logical path value %q", value)
		}
	}
	return path, nil
}

// keyOrigins returns the origin of every key named by the flags.
func (c *config) keyOrigins() ([]*wallet.KeyOrigin, error) {
	if len(c.KeyPath) > 0 && c.Xprv == "" {
		return nil, errors.New("--keypath requires --xprv")
	}

	origins := make([]*wallet.KeyOrigin, 0, len(c.WIF)+len(c.KeyPath))
	for _, wif := range c.WIF {
		origins = append(origins, wallet.WIFKeyOrigin(wif))
	}
	for _, keyPath := range c.KeyPath {
		path, err := bip32util.ParsePath(keyPath)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid key path %q", keyPath)
		}
		origins = append(origins, wallet.Bip32KeyOrigin(c.Xprv, path))
	}

	if len(origins) == 0 {
		return nil, errors.New("no signing keys, use --wif or --xprv with --keypath")
	}
	return origins, nil
}
