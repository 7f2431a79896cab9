package txpipeline

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certchain/internal/chain"
)

type fakeContract struct {
	simulateErr error
	estimate    uint64
	estimateErr error
	sendErr     error
	waitErr     error

	simulateCalls int
	sendCalls     int
	sentGasLimit  uint64
	sendCtxErr    error
}

func (f *fakeContract) Simulate(ctx context.Context, op chain.Operation) error {
	f.simulateCalls++
	return f.simulateErr
}

func (f *fakeContract) EstimateGas(ctx context.Context, op chain.Operation) (uint64, error) {
	return f.estimate, f.estimateErr
}

func (f *fakeContract) Send(ctx context.Context, op chain.Operation, gasLimit uint64) (*types.Transaction, error) {
	f.sendCalls++
	f.sentGasLimit = gasLimit
	f.sendCtxErr = ctx.Err()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	to := common.HexToAddress("0xcc8a9a1d20ba4da17130be63ff12a74229d11fa8")
	return types.NewTx(&types.LegacyTx{Nonce: 7, To: &to, Gas: gasLimit, GasPrice: big.NewInt(1)}), nil
}

func (f *fakeContract) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt := &types.Receipt{TxHash: tx.Hash(), BlockNumber: big.NewInt(42), Status: types.ReceiptStatusSuccessful}
	if f.waitErr != nil {
		receipt.Status = types.ReceiptStatusFailed
		return receipt, f.waitErr
	}
	return receipt, nil
}

func (f *fakeContract) Account() common.Address {
	return common.HexToAddress("0x1111111111111111111111111111111111111111")
}

type recorder struct {
	events []StatusEvent
}

func (r *recorder) Report(ev StatusEvent) { r.events = append(r.events, ev) }

func (r *recorder) stages() []Stage {
	out := make([]Stage, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Stage)
	}
	return out
}

func validIssue() IssueRequest {
	return IssueRequest{
		CertificateID: "CERT-1",
		ProductName:   "Widget",
		MfgName:       "ACME Corp",
		MfgDate:       "28-Sep-2025",
	}
}

type revertErr struct{ data string }

func (e *revertErr) Error() string          { return "execution reverted" }
func (e *revertErr) ErrorData() interface{} { return e.data }

func TestSubmit_Confirmed(t *testing.T) {
	contract := &fakeContract{estimate: 100000}
	rec := &recorder{}

	out, err := New(nil).Submit(context.Background(), contract, validIssue(), rec)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, out.Status)
	assert.Equal(t, uint64(120000), contract.sentGasLimit)
	assert.Equal(t, uint64(120000), out.GasLimit)
	assert.False(t, out.GasFallback)
	assert.Nil(t, out.Warning)
	assert.Equal(t, out.TxHash, out.ReceiptHash)
	assert.Equal(t, uint64(42), out.BlockNumber)
	assert.Equal(t, "CERT-1", out.Subject)
	assert.NotEmpty(t, out.OperationID)

	assert.Equal(t, []Stage{
		StageSimulating, StageSimulated, StageGasEstimated, StageSubmitting, StageSubmitted, StageConfirmed,
	}, rec.stages())
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, chain.LevelSuccess, last.Level)
	assert.Equal(t, "Certificate issued: "+out.ReceiptHash.Hex(), last.Message)
}

func TestSubmit_ValidationNeverTouchesNetwork(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"blank certificate id", IssueRequest{CertificateID: "  ", ProductName: "P", MfgName: "M", MfgDate: "2025-09-28"}, "certificateId"},
		{"blank product", IssueRequest{CertificateID: "C", ProductName: "", MfgName: "M", MfgDate: "2025-09-28"}, "productName"},
		{"nil date", IssueRequest{CertificateID: "C", ProductName: "P", MfgName: "M"}, "mfgDate"},
		{"unknown month", IssueRequest{CertificateID: "C", ProductName: "P", MfgName: "M", MfgDate: "28-Zzz-2025"}, "mfgDate"},
		{"blank revoke id", RevokeRequest{CertificateID: " "}, "certificateId"},
		{"blank admin", AdminRequest{Address: ""}, "address"},
		{"bad admin address", AdminRequest{Address: "0x1234"}, "address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := &fakeContract{}
			out, err := New(nil).Submit(context.Background(), contract, tt.req, nil)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, StatusInvalid, out.Status)
			assert.Zero(t, contract.simulateCalls)
			assert.Zero(t, contract.sendCalls)
		})
	}
}

func TestSubmit_WalletNotConnected(t *testing.T) {
	out, err := New(nil).Submit(context.Background(), nil, RevokeRequest{CertificateID: "CERT-1"}, nil)
	assert.ErrorIs(t, err, ErrWalletNotConnected)
	assert.Equal(t, StatusInvalid, out.Status)
}

func TestSubmit_SimulationRevertNeverSubmits(t *testing.T) {
	// Error(string) "Certificate already exists"
	data := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"000000000000000000000000000000000000000000000000000000000000001a" +
		"436572746966696361746520616c726561647920657869737473000000000000"

	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"decoded reason", &revertErr{data: data}, "Certificate already exists"},
		{"raw message", errors.New("execution reverted"), "execution reverted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := &fakeContract{simulateErr: tt.err}
			rec := &recorder{}
			out, err := New(nil).Submit(context.Background(), contract, validIssue(), rec)

			var simErr *SimulationRevertedError
			require.ErrorAs(t, err, &simErr)
			assert.Equal(t, tt.reason, simErr.Reason)
			assert.Equal(t, StatusReverted, out.Status)
			assert.Zero(t, contract.sendCalls)
			assert.Equal(t, []Stage{StageSimulating, StageSimulationReverted}, rec.stages())
			assert.Equal(t, "Simulation reverted: "+tt.reason, out.Message)
		})
	}
}

func TestSubmit_GasFallback(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want uint64
	}{
		{"issue", validIssue(), 600000},
		{"revoke", RevokeRequest{CertificateID: "CERT-1"}, 240000},
		{"add admin", AdminRequest{Address: "0x2222222222222222222222222222222222222222"}, 180000},
		{"remove admin", AdminRequest{Remove: true, Address: "0x2222222222222222222222222222222222222222"}, 180000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := &fakeContract{estimateErr: errors.New("method not supported")}
			rec := &recorder{}
			out, err := New(nil).Submit(context.Background(), contract, tt.req, rec)
			require.NoError(t, err)

			assert.Equal(t, tt.want, contract.sentGasLimit)
			assert.True(t, out.GasFallback)
			require.NotNil(t, out.Warning)
			assert.Equal(t, FallbackGasLimit(tt.req.Kind()), out.Warning.Fallback)
			assert.Contains(t, rec.stages(), StageGasFallback)
			assert.Equal(t, StatusConfirmed, out.Status)
		})
	}
}

func TestSubmit_UserRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", ErrUserRejected},
		{"text", errors.New("MetaMask Tx Signature: User denied transaction signature.")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contract := &fakeContract{estimate: 50000, sendErr: tt.err}
			out, err := New(nil).Submit(context.Background(), contract, RevokeRequest{CertificateID: "CERT-1"}, nil)

			assert.ErrorIs(t, err, ErrUserRejected)
			assert.Equal(t, StatusRejected, out.Status)
			assert.Equal(t, UserRejectedMessage, out.Message)
		})
	}
}

func TestSubmit_ReceiptFailed(t *testing.T) {
	contract := &fakeContract{estimate: 50000, waitErr: chain.ErrReceiptFailed}
	out, err := New(nil).Submit(context.Background(), contract, RevokeRequest{CertificateID: "CERT-1"}, nil)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "transaction reverted on-chain", subErr.Reason)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, uint64(42), out.BlockNumber)
	assert.Equal(t, "Error revoking certificate: transaction reverted on-chain", out.Message)
}

func TestSubmit_IgnoresCancellationAfterSubmission(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	contract := &fakeContract{estimate: 50000}
	rep := ReporterFunc(func(ev StatusEvent) {
		if ev.Stage == StageSubmitting {
			cancel()
		}
	})

	out, err := New(nil).Submit(ctx, contract, RevokeRequest{CertificateID: "CERT-1"}, rep)
	require.NoError(t, err)
	assert.NoError(t, contract.sendCtxErr)
	assert.Equal(t, StatusConfirmed, out.Status)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	silent := errors.New("")
	var unknown *UnknownError
	classified := Classify(silent)
	require.ErrorAs(t, classified, &unknown)
	assert.Equal(t, "Unknown error", unknown.Error())
	assert.ErrorIs(t, classified, silent)

	var sub *SubmissionError
	require.ErrorAs(t, Classify(errors.New("insufficient funds for gas")), &sub)
	assert.Equal(t, "insufficient funds for gas", sub.Reason)
}

func TestGasLimit(t *testing.T) {
	tests := []struct {
		estimate uint64
		want     uint64
	}{
		{0, 0},
		{1, 1},
		{21000, 25200},
		{100001, 120001},
		{500000, 600000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GasLimit(tt.estimate), "estimate %d", tt.estimate)
	}
}

func TestMultiReporter(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	MultiReporter{a, nil, b}.Report(StatusEvent{Stage: StageSimulating, At: time.Now()})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
