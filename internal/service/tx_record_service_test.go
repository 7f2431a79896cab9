package service

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"certchain/internal/chain"
	"certchain/internal/model"
	"certchain/internal/txpipeline"
)

func TestApplyEvent_Progression(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	rec := &model.TxRecord{OperationID: "op-1", Kind: string(chain.KindIssue)}
	at := time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC)

	events := []txpipeline.StatusEvent{
		{OperationID: "op-1", Kind: chain.KindIssue, Subject: "CERT-1", Account: account, Stage: txpipeline.StageSimulating, Status: txpipeline.StatusPending, Level: chain.LevelInfo, Message: "Simulating transaction (no gas)...", At: at},
		{OperationID: "op-1", Kind: chain.KindIssue, Subject: "CERT-1", Account: account, Stage: txpipeline.StageGasFallback, Status: txpipeline.StatusSimulated, Level: chain.LevelWarning, Message: "Could not auto-estimate gas; using fallback gas limit", GasLimit: 600000, GasFallback: true, At: at},
		{OperationID: "op-1", Kind: chain.KindIssue, Subject: "CERT-1", Account: account, Stage: txpipeline.StageSubmitted, Status: txpipeline.StatusSubmitted, Level: chain.LevelInfo, Message: "Transaction submitted", GasLimit: 600000, TxHash: "0xabc", At: at},
		{OperationID: "op-1", Kind: chain.KindIssue, Subject: "CERT-1", Account: account, Stage: txpipeline.StageConfirmed, Status: txpipeline.StatusConfirmed, Level: chain.LevelSuccess, Message: "Certificate issued: 0xabc", GasLimit: 600000, TxHash: "0xabc", BlockNumber: 42, At: at},
	}

	for _, ev := range events {
		if err := ApplyEvent(rec, ev); err != nil {
			t.Fatalf("ApplyEvent() failed: %v", err)
		}
	}

	if rec.Status != string(txpipeline.StatusConfirmed) {
		t.Errorf("Expected status confirmed, got %s", rec.Status)
	}
	if rec.Subject != "CERT-1" || rec.Account != account.Hex() {
		t.Errorf("Unexpected subject/account: %s %s", rec.Subject, rec.Account)
	}
	if rec.GasLimit != 600000 || !rec.GasFallback {
		t.Errorf("Expected fallback gas limit 600000, got %d fallback=%v", rec.GasLimit, rec.GasFallback)
	}
	if rec.TxHash != "0xabc" || rec.BlockNumber != 42 {
		t.Errorf("Unexpected tx hash/block: %s %d", rec.TxHash, rec.BlockNumber)
	}
	if rec.LastError != nil {
		t.Errorf("Expected no error, got %s", *rec.LastError)
	}

	var stages []txpipeline.StageRecord
	if err := json.Unmarshal(rec.Stages, &stages); err != nil {
		t.Fatalf("Failed to decode stages: %v", err)
	}
	if len(stages) != 4 {
		t.Fatalf("Expected 4 stages, got %d", len(stages))
	}
	if stages[1].Stage != txpipeline.StageGasFallback || stages[1].Level != chain.LevelWarning {
		t.Errorf("Unexpected second stage: %+v", stages[1])
	}
}

func TestApplyEvent_ErrorRecordsLastError(t *testing.T) {
	rec := &model.TxRecord{OperationID: "op-2"}
	ev := txpipeline.StatusEvent{
		OperationID: "op-2",
		Kind:        chain.KindRevoke,
		Stage:       txpipeline.StageSimulationReverted,
		Status:      txpipeline.StatusReverted,
		Level:       chain.LevelError,
		Message:     "Simulation reverted: Not admin",
	}
	if err := ApplyEvent(rec, ev); err != nil {
		t.Fatalf("ApplyEvent() failed: %v", err)
	}
	if rec.LastError == nil || *rec.LastError != "Simulation reverted: Not admin" {
		t.Errorf("Expected last error to be recorded, got %v", rec.LastError)
	}
	if rec.TxHash != "" {
		t.Errorf("Expected no tx hash for a reverted simulation, got %s", rec.TxHash)
	}
}

func TestApplyEvent_CorruptStages(t *testing.T) {
	rec := &model.TxRecord{Stages: []byte("{not json")}
	if err := ApplyEvent(rec, txpipeline.StatusEvent{}); err == nil {
		t.Error("Expected error for corrupt stages")
	}
}

func TestEventFromStatus(t *testing.T) {
	ev := txpipeline.StatusEvent{
		OperationID: "op-3",
		Kind:        chain.KindAddAdmin,
		Subject:     "0x2222222222222222222222222222222222222222",
		Stage:       txpipeline.StageSubmitted,
		Status:      txpipeline.StatusSubmitted,
		Level:       chain.LevelInfo,
		Message:     strings.Repeat("x", 600),
		TxHash:      "0xdef",
	}
	event := EventFromStatus(ev)
	if event.OperationID != "op-3" || event.Kind != "add_admin" || event.Stage != "submitted" {
		t.Errorf("Unexpected event: %+v", event)
	}
	if len(event.Message) != 512 {
		t.Errorf("Expected message truncated to 512, got %d", len(event.Message))
	}
	if event.TxHash != "0xdef" {
		t.Errorf("Expected tx hash 0xdef, got %s", event.TxHash)
	}
}

func TestTxFilter_Normalize(t *testing.T) {
	tests := []struct {
		name         string
		in           TxFilter
		wantPage     int
		wantPageSize int
	}{
		{"defaults", TxFilter{}, 1, 20},
		{"keeps valid", TxFilter{Page: 3, PageSize: 50}, 3, 50},
		{"caps page size", TxFilter{Page: 1, PageSize: 1000}, 1, 100},
		{"negative page", TxFilter{Page: -2, PageSize: 10}, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.in
			f.Normalize()
			if f.Page != tt.wantPage || f.PageSize != tt.wantPageSize {
				t.Errorf("Normalize() = (%d, %d), want (%d, %d)", f.Page, f.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}
