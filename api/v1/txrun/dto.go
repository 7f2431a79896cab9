package txrun

import (
	"github.com/ethereum/go-ethereum/common"

	"certchain/internal/txpipeline"
)

// OutcomeDTO is the JSON form of a pipeline outcome
type OutcomeDTO struct {
	OperationID string                   `json:"operationId"`
	Kind        string                   `json:"kind"`
	Subject     string                   `json:"subject,omitempty"`
	Account     string                   `json:"account,omitempty"`
	Status      string                   `json:"status"`
	GasLimit    uint64                   `json:"gasLimit,omitempty"`
	GasFallback bool                     `json:"gasFallback"`
	Warning     string                   `json:"warning,omitempty"`
	TxHash      string                   `json:"txHash,omitempty"`
	ReceiptHash string                   `json:"receiptHash,omitempty"`
	BlockNumber uint64                   `json:"blockNumber,omitempty"`
	Message     string                   `json:"message"`
	Stages      []txpipeline.StageRecord `json:"stages"`
}

// NewOutcomeDTO converts an outcome; nil yields nil
func NewOutcomeDTO(out *txpipeline.Outcome) *OutcomeDTO {
	if out == nil {
		return nil
	}
	dto := &OutcomeDTO{
		OperationID: out.OperationID,
		Kind:        string(out.Kind),
		Subject:     out.Subject,
		Status:      string(out.Status),
		GasLimit:    out.GasLimit,
		GasFallback: out.GasFallback,
		BlockNumber: out.BlockNumber,
		Message:     out.Message,
		Stages:      out.Stages,
	}
	if out.Account != (common.Address{}) {
		dto.Account = out.Account.Hex()
	}
	if out.Warning != nil {
		dto.Warning = "Could not auto-estimate gas; using fallback gas limit"
	}
	if out.TxHash != (common.Hash{}) {
		dto.TxHash = out.TxHash.Hex()
	}
	if out.ReceiptHash != (common.Hash{}) {
		dto.ReceiptHash = out.ReceiptHash.Hex()
	}
	return dto
}
