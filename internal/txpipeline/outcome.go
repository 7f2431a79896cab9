package txpipeline

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"certchain/internal/chain"
)

// Stage is a step of a pipeline run
type Stage string

const (
	StageSimulating         Stage = "simulating"
	StageSimulated          Stage = "simulated"
	StageGasEstimated       Stage = "gas_estimated"
	StageGasFallback        Stage = "gas_fallback"
	StageSubmitting         Stage = "submitting"
	StageSubmitted          Stage = "submitted"
	StageConfirmed          Stage = "confirmed"
	StageInvalid            Stage = "invalid"
	StageSimulationReverted Stage = "simulation_reverted"
	StageRejected           Stage = "rejected"
	StageFailed             Stage = "failed"
)

// Status is the coarse state of a run as stored in the journal
type Status string

const (
	StatusPending   Status = "pending"
	StatusSimulated Status = "simulated"
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusReverted  Status = "reverted"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
	StatusInvalid   Status = "invalid"
)

// Terminal reports whether no further stage can follow
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusReverted, StatusRejected, StatusFailed, StatusInvalid:
		return true
	}
	return false
}

// StageRecord is one entry of an outcome's progression
type StageRecord struct {
	Stage   Stage     `json:"stage"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Outcome is the full record of a pipeline run
type Outcome struct {
	OperationID string
	Kind        chain.Kind
	Subject     string
	Account     common.Address
	Status      Status
	Stages      []StageRecord

	Estimate    uint64
	GasLimit    uint64
	GasFallback bool
	Warning     *GasEstimationDegraded

	TxHash      common.Hash
	ReceiptHash common.Hash
	BlockNumber uint64

	// Message is the last human-readable status; Err is set on failure
	Message string
	Err     error
}

// StatusEvent is what reporters receive at every stage
type StatusEvent struct {
	OperationID string
	Kind        chain.Kind
	Subject     string
	Account     common.Address
	Stage       Stage
	Status      Status
	Level       string
	Message     string
	GasLimit    uint64
	GasFallback bool
	TxHash      string
	BlockNumber uint64
	At          time.Time
}
