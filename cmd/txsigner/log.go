package main

import (
	"os"

	"github.com/btccom/txsigner/wallet"
	"github.com/btcsuite/btclog"
)

var (
	backendLog = btclog.NewBackend(os.Stderr)

	log       = backendLog.Logger("TXSN")
	walletLog = backendLog.Logger(wallet.Subsystem)
)

func init() {
	wallet.UseLogger(walletLog)
}

// setLogLevel sets the level of every subsystem logger.
func setLogLevel(debugLevel string) bool {
	level, ok := btclog.LevelFromString(debugLevel)
	if !ok {
		return false
	}

	log.SetLevel(level)
	walletLog.SetLevel(level)
	return true
}
