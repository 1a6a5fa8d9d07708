// Command txsigner signs one input of a bitcoin transaction and
// prints the resulting transaction.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/btccom/txsigner/wallet"
	"github.com/btcsuite/btcd/wire"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

func main() {
	if err := start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func start() error {
	cfg := defaultConfig

	parser := flags.NewParser(&cfg, flags.Default)
	_, err := parser.Parse()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	}
	if err != nil {
		return err
	}

	if !setLogLevel(cfg.DebugLevel) {
		return errors.Errorf("invalid debug level %q", cfg.DebugLevel)
	}

	network, err := wallet.GetNetworkParams(cfg.Network)
	if err != nil {
		return err
	}

	tx, err := decodeTx(cfg.Tx)
	if err != nil {
		return err
	}

	signData, err := inputSignData(&cfg)
	if err != nil {
		return err
	}

	origins, err := cfg.keyOrigins()
	if err != nil {
		return err
	}
	keys := make([]*wallet.SigningKey, 0, len(origins))
	for _, origin := range origins {
		key, err := origin.SigningKey(network.Params)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	signer := wallet.NewTxSigner(network, tx,
		wallet.AllowComplexScripts(cfg.AllowComplex))

	input, err := signer.Input(cfg.Input, signData)
	if err != nil {
		return errors.Wrapf(err, "unable to load input %d", cfg.Input)
	}

	matched, err := signer.SignInput(cfg.Input, keys, cfg.hashType(network))
	if err != nil {
		return errors.Wrapf(err, "unable to sign input %d", cfg.Input)
	}
	log.Infof("Signed input %d with %d of %d keys", cfg.Input, matched, len(keys))

	signed, err := signer.Build()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := signed.Serialize(&buf); err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(buf.Bytes()))
	fmt.Printf("fully_signed=%v verified=%v\n", input.IsFullySigned(),
		input.Verify())

	return nil
}

// decodeTx parses a hex encoded transaction.
func decodeTx(txHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid transaction hex")
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(err, "invalid transaction")
	}
	return tx, nil
}

// inputSignData builds the sign data of the input from the
// script flags.
func inputSignData(cfg *config) (*wallet.InputSignData, error) {
	scripts := make([][]byte, 3)
	for i, s := range []string{cfg.PkScript, cfg.RedeemScript, cfg.WitnessScript} {
		decoded, err := hex.DecodeString(s)
		if err != nil {
			return nil, errors.Wrap(err, "invalid script hex")
		}
		scripts[i] = decoded
	}

	signData := wallet.NewInputSignData(wire.NewTxOut(cfg.Value, scripts[0]),
		scripts[1], scripts[2])

	path, err := cfg.logicalPath()
	if err != nil {
		return nil, err
	}
	if path != nil {
		signData.WithLogicalPath(path...)
	}

	policy, ok, err := cfg.policy()
	if err != nil {
		return nil, err
	}
	if ok {
		signData.WithSignaturePolicy(policy)
	}

	return signData, nil
}
