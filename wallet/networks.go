package wallet

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"
)

const (
	// NetBtc is the constant for the bitcoin network
	NetBtc = "btc"

	// NetBtcTest is the constant for the bitcoin testnet network
	NetBtcTest = "tbtc"

	// NetBtcRegtest is the constant for the bitcoin regtest network
	NetBtcRegtest = "rbtc"

	// NetBtcSignet is the constant for the bitcoin signet network
	NetBtcSignet = "sbtc"
)

// DefaultVerifyFlags are the script verification flags inputs
// are checked with unless their sign data carries a policy.
const DefaultVerifyFlags = txscript.ScriptVerifyDERSignatures |
	txscript.ScriptBip16 |
	txscript.ScriptVerifyCheckLockTimeVerify |
	txscript.ScriptVerifyCheckSequenceVerify |
	txscript.ScriptVerifyWitness

// CheckNetwork validates that the network is valid
func CheckNetwork(network string) (string, error) {
	switch network {
	case NetBtc, NetBtcTest, NetBtcRegtest, NetBtcSignet:
		return network, nil
	default:
		return "", errors.New("Network is invalid")
	}
}

// Network captures customizations which differ
// from network to network. It covers the obvious
// chainParams, but also has a network specific
// CheckerCreator (for signature validation), and
// defaults for signing and verification.
type Network struct {

	// Params holds the networks chain params
	Params *chaincfg.Params

	// CheckerCreator produces the struct responsible
	// for sighashing and sig validation.
	CheckerCreator CheckerCreator

	// DefaultHashType is the hash type used when
	// the caller doesn't pick one.
	DefaultHashType txscript.SigHashType

	// DefaultFlags are the verification flags used
	// when sign data has no signature policy.
	DefaultFlags txscript.ScriptFlags
}

func newBitcoinNetwork(params *chaincfg.Params) *Network {
	return &Network{
		Params:          params,
		CheckerCreator:  BitcoinCheckerCreator,
		DefaultHashType: txscript.SigHashAll,
		DefaultFlags:    DefaultVerifyFlags,
	}
}

var (
	// BtcNetwork defines the behaviour on the Bitcoin network
	BtcNetwork = newBitcoinNetwork(&chaincfg.MainNetParams)

	// BtcTestNetwork defines the behaviour on the Bitcoin testnet
	BtcTestNetwork = newBitcoinNetwork(&chaincfg.TestNet3Params)

	// BtcRegtestNetwork defines the behaviour on the Bitcoin regtest network
	BtcRegtestNetwork = newBitcoinNetwork(&chaincfg.RegressionNetParams)

	// BtcSignetNetwork defines the behaviour on the default Bitcoin signet
	BtcSignetNetwork = newBitcoinNetwork(&chaincfg.SigNetParams)
)

// GetNetworkParams takes a network string shortcode
// and returns the *Network params
func GetNetworkParams(network string) (*Network, error) {
	switch network {
	case NetBtc:
		return BtcNetwork, nil
	case NetBtcTest:
		return BtcTestNetwork, nil
	case NetBtcRegtest:
		return BtcRegtestNetwork, nil
	case NetBtcSignet:
		return BtcSignetNetwork, nil
	}

	return nil, errors.New("Invalid network")
}
