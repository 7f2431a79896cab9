// Package txpipeline drives a contract operation from validated input to a
// mined receipt.
//
// A run validates the request, dry-runs the call to surface reverts before
// anything is signed, estimates gas (falling back to a fixed ceiling per
// operation kind), submits with 20% headroom, and waits for confirmation.
// Every stage is reported to a Reporter. Once submission starts the run
// ignores caller cancellation.
package txpipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"certchain/internal/chain"
	"certchain/internal/wallet"
)

// Contract is the signer-bound contract handle a run drives
type Contract interface {
	Simulate(ctx context.Context, op chain.Operation) error
	EstimateGas(ctx context.Context, op chain.Operation) (uint64, error)
	Send(ctx context.Context, op chain.Operation, gasLimit uint64) (*types.Transaction, error)
	WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	Account() common.Address
}

var fallbackGasLimits = map[chain.Kind]uint64{
	chain.KindIssue:       500000,
	chain.KindRevoke:      200000,
	chain.KindAddAdmin:    150000,
	chain.KindRemoveAdmin: 150000,
}

// FallbackGasLimit is the conservative estimate used when the node cannot estimate
func FallbackGasLimit(kind chain.Kind) uint64 {
	if v, ok := fallbackGasLimits[kind]; ok {
		return v
	}
	return fallbackGasLimits[chain.KindIssue]
}

// GasLimit adds 20% headroom to an estimate, rounding down
func GasLimit(estimate uint64) uint64 {
	if estimate > math.MaxUint64/120 {
		return estimate / 100 * 120
	}
	return estimate * 120 / 100
}

type kindLabel struct {
	action  string
	success string
}

var kindLabels = map[chain.Kind]kindLabel{
	chain.KindIssue:       {"issuing certificate", "Certificate issued"},
	chain.KindRevoke:      {"revoking certificate", "Certificate revoked"},
	chain.KindAddAdmin:    {"adding admin", "Admin added"},
	chain.KindRemoveAdmin: {"removing admin", "Admin removed"},
}

// Pipeline runs contract operations
type Pipeline struct {
	logger *logrus.Entry
	now    func() time.Time
}

// New creates a pipeline
func New(logger *logrus.Entry) *Pipeline {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{
		logger: logger.WithField("component", "tx-pipeline"),
		now:    time.Now,
	}
}

type run struct {
	p   *Pipeline
	out *Outcome
	rep Reporter
}

func (r *run) report(stage Stage, level, message string) {
	r.out.Message = message
	r.out.Stages = append(r.out.Stages, StageRecord{Stage: stage, Level: level, Message: message, At: r.p.now()})

	ev := StatusEvent{
		OperationID: r.out.OperationID,
		Kind:        r.out.Kind,
		Subject:     r.out.Subject,
		Account:     r.out.Account,
		Stage:       stage,
		Status:      r.out.Status,
		Level:       level,
		Message:     message,
		GasLimit:    r.out.GasLimit,
		GasFallback: r.out.GasFallback,
		BlockNumber: r.out.BlockNumber,
		At:          r.p.now(),
	}
	if r.out.TxHash != (common.Hash{}) {
		ev.TxHash = r.out.TxHash.Hex()
	}
	if r.rep != nil {
		r.rep.Report(ev)
	}
}

func (r *run) fail(stage Stage, status Status, err error, message string) (*Outcome, error) {
	r.out.Status = status
	r.out.Err = err
	r.report(stage, chain.LevelError, message)
	return r.out, err
}

// Submit runs req against contract. The returned outcome is never nil; on
// failure it carries the terminal stage and the error is also returned.
func (p *Pipeline) Submit(ctx context.Context, contract Contract, req Request, rep Reporter) (*Outcome, error) {
	r := &run{
		p:   p,
		rep: rep,
		out: &Outcome{
			OperationID: uuid.NewString(),
			Kind:        req.Kind(),
			Status:      StatusPending,
		},
	}
	label := kindLabels[req.Kind()]

	// 1. validation
	op, err := req.Build()
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			verr = &ValidationError{Reason: err.Error()}
		}
		return r.fail(StageInvalid, StatusInvalid, verr, verr.Reason)
	}
	r.out.Subject = op.Subject

	if contract == nil {
		return r.fail(StageInvalid, StatusInvalid, ErrWalletNotConnected, ErrWalletNotConnected.Error())
	}
	r.out.Account = contract.Account()

	// 2. dry run
	r.report(StageSimulating, chain.LevelInfo, "Simulating transaction (no gas)...")
	if err := contract.Simulate(ctx, op); err != nil {
		reason := chain.DecodeRevertReason(err)
		if reason == "" {
			reason = messageOf(err)
		}
		simErr := &SimulationRevertedError{Reason: reason, Err: err}
		return r.fail(StageSimulationReverted, StatusReverted, simErr, simErr.Error())
	}
	r.out.Status = StatusSimulated
	r.report(StageSimulated, chain.LevelInfo, "Simulation OK, estimating gas...")

	// 3. gas
	estimate, err := contract.EstimateGas(ctx, op)
	if err != nil {
		fallback := FallbackGasLimit(op.Kind)
		r.out.Warning = &GasEstimationDegraded{Fallback: fallback, Err: err}
		r.out.GasFallback = true
		estimate = fallback
		p.logger.WithField("op", r.out.OperationID).Warnf("Gas estimation failed, using fallback %d: %v", fallback, err)
	}
	r.out.Estimate = estimate
	r.out.GasLimit = GasLimit(estimate)
	if r.out.GasFallback {
		r.report(StageGasFallback, chain.LevelWarning, "Could not auto-estimate gas; using fallback gas limit")
	} else {
		r.report(StageGasEstimated, chain.LevelInfo, fmt.Sprintf("Gas estimated at %d, limit %d", estimate, r.out.GasLimit))
	}

	// 4. submit; from here on the caller cannot abort
	sendCtx := context.WithoutCancel(ctx)
	r.report(StageSubmitting, chain.LevelInfo, "Submitting transaction... (confirm in wallet)")
	tx, err := contract.Send(sendCtx, op, r.out.GasLimit)
	if err != nil {
		return r.failSubmission(err, label)
	}
	r.out.TxHash = tx.Hash()
	r.out.Status = StatusSubmitted
	r.report(StageSubmitted, chain.LevelInfo, "Transaction submitted: "+tx.Hash().Hex())

	// 5. confirmation
	receipt, err := contract.WaitConfirmed(sendCtx, tx)
	if receipt != nil && receipt.BlockNumber != nil {
		r.out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if err != nil {
		return r.failSubmission(err, label)
	}
	r.out.ReceiptHash = receipt.TxHash
	r.out.Status = StatusConfirmed
	r.report(StageConfirmed, chain.LevelSuccess, label.success+": "+receipt.TxHash.Hex())
	return r.out, nil
}

func (r *run) failSubmission(err error, label kindLabel) (*Outcome, error) {
	classified := Classify(err)
	if errors.Is(classified, ErrUserRejected) {
		return r.fail(StageRejected, StatusRejected, classified, UserRejectedMessage)
	}
	return r.fail(StageFailed, StatusFailed, classified, "Error "+label.action+": "+classified.Error())
}

// Classify maps a send or confirmation error onto the failure taxonomy:
// user rejection first, then a decoded revert reason, then the raw message.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if wallet.IsUserRejected(err) {
		if errors.Is(err, ErrUserRejected) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUserRejected, err)
	}
	if errors.Is(err, chain.ErrReceiptFailed) {
		return &SubmissionError{Reason: chain.ErrReceiptFailed.Error(), Err: err}
	}
	if reason := chain.DecodeRevertReason(err); reason != "" {
		return &SubmissionError{Reason: reason, Err: err}
	}
	if msg := err.Error(); msg != "" {
		return &SubmissionError{Reason: msg, Err: err}
	}
	return &UnknownError{Err: err}
}

func messageOf(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return (&UnknownError{}).Error()
}
