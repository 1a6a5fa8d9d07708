package wallet

import (
	"github.com/btccom/txsigner/script"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedScriptType is returned when a script is outside the
	// signable set and complex scripts are not allowed.
	ErrUnsupportedScriptType = errors.New("unsupported script type")

	// ErrRedeemScriptMismatch is returned when a redeemScript does not
	// hash to the P2SH commitment, or two sources disagree.
	ErrRedeemScriptMismatch = errors.New("redeemScript mismatch")

	// ErrWitnessScriptMismatch is returned when a witnessScript does not
	// hash to the P2WSH commitment, or two sources disagree.
	ErrWitnessScriptMismatch = errors.New("witnessScript mismatch")

	// ErrMissingRedeemScript is returned when neither the scriptSig nor
	// the sign data provide the redeemScript.
	ErrMissingRedeemScript = errors.New("missing redeemScript")

	// ErrMissingWitnessScript is returned when neither the witness nor
	// the sign data provide the witnessScript.
	ErrMissingWitnessScript = errors.New("missing witnessScript")

	// ErrInvalidExistingSignatures is returned when the data already
	// in the input does not check out.
	ErrInvalidExistingSignatures = errors.New("existing signatures are invalid")

	// ErrBranchPathMismatch is returned when the logical path is
	// inconsistent with the script or the existing stack.
	ErrBranchPathMismatch = script.ErrBranchPathMismatch

	// ErrWrongPrivateKey is returned when a key matches no
	// unsigned slot.
	ErrWrongPrivateKey = errors.New("signing with the wrong private key")

	// ErrUncompressedKeyInSegwit is returned when an uncompressed key
	// is used to sign a witness input.
	ErrUncompressedKeyInSegwit = errors.New("uncompressed keys are disallowed in segwit scripts")

	// ErrInvalidSignaturePolicy is returned for verification flags
	// which can never be satisfied.
	ErrInvalidSignaturePolicy = errors.New("invalid signature policy")

	// ErrInvalidSigHashType is returned for undefined sighash types.
	ErrInvalidSigHashType = errors.New("invalid sighash type")

	// ErrNotClassified is returned when an input is used before
	// it was solved.
	ErrNotClassified = errors.New("input has not been classified")

	// ErrAlreadyClassified is returned when solving an input twice.
	ErrAlreadyClassified = errors.New("input is already classified")
)
