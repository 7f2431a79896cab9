package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"certchain/internal/cert"
	"certchain/internal/chain"
	"certchain/internal/txpipeline"
)

// printer writes pipeline status events line by line
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

func (p *printer) Report(ev txpipeline.StatusEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %-8s %s\n", ev.At.Format("15:04:05"), levelTag(ev.Level), ev.Message)
}

func levelTag(level string) string {
	switch level {
	case chain.LevelError:
		return "ERROR"
	case chain.LevelWarning:
		return "WARN"
	case chain.LevelSuccess:
		return "OK"
	}
	return "INFO"
}

func printVerification(out io.Writer, r *cert.VerificationResult) {
	fmt.Fprintf(out, "Certificate: %s\n", r.CertificateID)
	fmt.Fprintf(out, "Status:      %s\n", r.Message)
	if r.Status == cert.StatusNotFound {
		return
	}
	fmt.Fprintf(out, "Product:     %s\n", r.ProductName)
	fmt.Fprintf(out, "Maker:       %s\n", r.MfgName)
	fmt.Fprintf(out, "Mfg date:    %s\n", r.MfgDateText)
}

func printHistory(out io.Writer, certID string, entries []chain.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(out, "No events for %s\n", certID)
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("#%d %s tx %s", e.BlockNumber, e.Event, e.TxHash)
		if e.ProductName != "" {
			line += fmt.Sprintf(" (%s by %s, %s)", e.ProductName, e.MfgName, e.MfgDateText)
		}
		fmt.Fprintln(out, strings.TrimSpace(line))
	}
}

func printOutcome(out io.Writer, o *txpipeline.Outcome) {
	if o == nil {
		return
	}
	fmt.Fprintf(out, "Operation %s: %s\n", o.OperationID, o.Status)
	if o.GasFallback {
		fmt.Fprintf(out, "Gas limit %d (fallback)\n", o.GasLimit)
	}
	if o.TxHash != (common.Hash{}) {
		fmt.Fprintf(out, "Tx %s in block %d\n", o.TxHash.Hex(), o.BlockNumber)
	}
}
