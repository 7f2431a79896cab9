package txpipeline

import (
	"errors"
	"fmt"

	"certchain/internal/wallet"
)

// ErrUserRejected means the wallet holder declined the signature prompt
var ErrUserRejected = wallet.ErrUserRejected

// ErrWalletNotConnected is returned when no signer-bound contract is available
var ErrWalletNotConnected = errors.New("Please connect your wallet first")

// UserRejectedMessage is shown when the holder declines
const UserRejectedMessage = "Transaction rejected by user."

// ValidationError is a stage-1 failure; nothing reached the network
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SimulationRevertedError means the dry run reverted; no transaction was sent
type SimulationRevertedError struct {
	Reason string
	Err    error
}

func (e *SimulationRevertedError) Error() string {
	return "Simulation reverted: " + e.Reason
}

func (e *SimulationRevertedError) Unwrap() error {
	return e.Err
}

// GasEstimationDegraded is the non-fatal warning recorded when the fallback gas limit was used
type GasEstimationDegraded struct {
	Fallback uint64
	Err      error
}

func (e *GasEstimationDegraded) Error() string {
	return fmt.Sprintf("gas estimation failed, using fallback %d: %v", e.Fallback, e.Err)
}

func (e *GasEstimationDegraded) Unwrap() error {
	return e.Err
}

// SubmissionError is a failure while sending or confirming the transaction
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	return e.Reason
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// UnknownError wraps a failure that had no usable message
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return "Unknown error"
}

func (e *UnknownError) Unwrap() error {
	return e.Err
}
