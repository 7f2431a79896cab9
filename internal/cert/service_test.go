package cert

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"certchain/internal/chain"
	"certchain/internal/chain/chaintest"
)

var contractAddr = common.HexToAddress("0xcc8a9a1d20ba4da17130be63ff12a74229d11fa8")

func newTestService(t *testing.T, backend *chaintest.Backend) *Service {
	t.Helper()
	reader, err := chain.NewReader(backend, contractAddr, chain.DefaultChainID, 0)
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	return NewService(&Config{Reader: reader})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		rec      *chain.CertificateRecord
		want     Status
		dateText string
	}{
		{
			name: "empty record is not found",
			rec:  &chain.CertificateRecord{},
			want: StatusNotFound,
		},
		{
			name: "whitespace product and zero date is not found",
			rec:  &chain.CertificateRecord{ProductName: "  ", MfgName: "ACME"},
			want: StatusNotFound,
		},
		{
			name:     "valid certificate",
			rec:      &chain.CertificateRecord{ProductName: "Widget", MfgName: "ACME", MfgDate: 1759017600, IsValid: true},
			want:     StatusValid,
			dateText: "2025-09-28",
		},
		{
			name:     "revoked certificate",
			rec:      &chain.CertificateRecord{ProductName: "Widget", MfgName: "ACME", MfgDate: 1759017600, IsValid: false},
			want:     StatusRevoked,
			dateText: "2025-09-28",
		},
		{
			name:     "existing certificate without date",
			rec:      &chain.CertificateRecord{ProductName: "Widget", IsValid: false},
			want:     StatusRevoked,
			dateText: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("X", tt.rec)
			if got.Status != tt.want {
				t.Errorf("Classify() status = %s, want %s", got.Status, tt.want)
			}
			if got.MfgDateText != tt.dateText {
				t.Errorf("Classify() date = %q, want %q", got.MfgDateText, tt.dateText)
			}
		})
	}
}

func TestVerify_NotFoundIsNotRevoked(t *testing.T) {
	backend := chaintest.NewBackend()
	backend.SetReturn(chain.MethodGetCertificate, "", "", big.NewInt(0), false)
	svc := newTestService(t, backend)

	result, err := svc.Verify(context.Background(), " X ")
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if result.Status != StatusNotFound {
		t.Errorf("Expected not_found, got %s", result.Status)
	}
	if result.CertificateID != "X" {
		t.Errorf("Expected trimmed ID, got %q", result.CertificateID)
	}
}

func TestVerify_Errors(t *testing.T) {
	svc := newTestService(t, chaintest.NewBackend())
	if _, err := svc.Verify(context.Background(), "   "); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Expected ErrEmptyID, got %v", err)
	}

	unavailable := NewService(&Config{})
	if _, err := unavailable.Verify(context.Background(), "X"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}

	backend := chaintest.NewBackend()
	backend.SetError(chain.MethodGetCertificate, errors.New("upstream timeout"))
	if _, err := newTestService(t, backend).Verify(context.Background(), "X"); err == nil {
		t.Error("Expected error when the contract call fails")
	}
}

func TestCheckAdmin(t *testing.T) {
	owner := common.HexToAddress("0xAbCdEf0000000000000000000000000000000001")
	other := "0x2222222222222222222222222222222222222222"

	tests := []struct {
		name    string
		address string
		isAdmin bool
		want    AdminStatus
	}{
		{"owner matched case-insensitively", "0xabcdef0000000000000000000000000000000001", true, AdminStatusOwner},
		{"owner without 0x prefix", "abcdef0000000000000000000000000000000001", true, AdminStatusOwner},
		{"owner with surrounding spaces", "  0xABCDEF0000000000000000000000000000000001 ", true, AdminStatusOwner},
		{"admin", other, true, AdminStatusAdmin},
		{"not admin", other, false, AdminStatusNotAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := chaintest.NewBackend()
			backend.SetReturn(chain.MethodIsAdmin, tt.isAdmin)
			backend.SetReturn(chain.MethodOwner, owner)
			backend.SetReturn(chain.MethodGetAllAdminInfo, big.NewInt(4), false, false)

			result, err := newTestService(t, backend).CheckAdmin(context.Background(), tt.address)
			if err != nil {
				t.Fatalf("CheckAdmin() failed: %v", err)
			}
			if result.Status != tt.want {
				t.Errorf("CheckAdmin() status = %s, want %s", result.Status, tt.want)
			}
			if result.TotalAdmins != 4 {
				t.Errorf("Expected 4 admins, got %d", result.TotalAdmins)
			}
			if result.Owner != owner.Hex() {
				t.Errorf("Expected owner %s, got %s", owner.Hex(), result.Owner)
			}
		})
	}
}

func TestCheckAdmin_InvalidInput(t *testing.T) {
	svc := newTestService(t, chaintest.NewBackend())

	if _, err := svc.CheckAdmin(context.Background(), ""); !errors.Is(err, ErrEmptyAddress) {
		t.Errorf("Expected ErrEmptyAddress, got %v", err)
	}
	if _, err := svc.CheckAdmin(context.Background(), "0xnothex"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Expected ErrInvalidAddress, got %v", err)
	}
}

func TestAdminSummary(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	backend := chaintest.NewBackend()
	backend.SetReturn(chain.MethodOwner, owner)
	backend.SetReturn(chain.MethodGetAllAdminInfo, big.NewInt(3), true, true)

	summary, err := newTestService(t, backend).AdminSummary(context.Background(), owner)
	if err != nil {
		t.Fatalf("AdminSummary() failed: %v", err)
	}
	if summary.TotalAdmins != 3 || summary.Owner != owner.Hex() {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}
