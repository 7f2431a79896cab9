package acme

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/go-acme/lego/v4/registration"
)

func selfSigned(t *testing.T, notAfter time.Time) *Result {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "certs.example.com"},
		DNSNames:     []string{"certs.example.com"},
		NotBefore:    notAfter.Add(-90 * 24 * time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() failed: %v", err)
	}
	keyPem, err := encodePrivateKey(key)
	if err != nil {
		t.Fatalf("encodePrivateKey() failed: %v", err)
	}
	return &Result{
		CertPem: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPem:  []byte(keyPem),
	}
}

type fakeObtainer struct {
	result *Result
	err    error
	calls  int
}

func (f *fakeObtainer) Obtain(domains []string) (*Result, error) {
	f.calls++
	return f.result, f.err
}

func TestNeedsRenewal(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		notAfter time.Time
		want     bool
	}{
		{"far from expiry", now.Add(60 * 24 * time.Hour), false},
		{"exactly 30 days", now.Add(RenewBefore), true},
		{"inside window", now.Add(10 * 24 * time.Hour), true},
		{"expired", now.Add(-time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsRenewal(tt.notAfter, now); got != tt.want {
				t.Errorf("NeedsRenewal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManager_ReusesStoredCertificate(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	if err := store.SaveCertificate(selfSigned(t, time.Now().Add(60*24*time.Hour))); err != nil {
		t.Fatalf("SaveCertificate() failed: %v", err)
	}

	obtainer := &fakeObtainer{err: errors.New("should not be called")}
	m := NewManager(store, obtainer, []string{"certs.example.com"}, nil)
	if err := m.Ensure(); err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}
	if obtainer.calls != 0 {
		t.Errorf("Expected stored certificate to be reused, obtainer called %d times", obtainer.calls)
	}
	if _, err := m.GetCertificate(nil); err != nil {
		t.Errorf("GetCertificate() failed: %v", err)
	}
}

func TestManager_RenewsNearExpiry(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	if err := store.SaveCertificate(selfSigned(t, time.Now().Add(5*24*time.Hour))); err != nil {
		t.Fatalf("SaveCertificate() failed: %v", err)
	}

	fresh := selfSigned(t, time.Now().Add(90*24*time.Hour))
	obtainer := &fakeObtainer{result: fresh}
	m := NewManager(store, obtainer, []string{"certs.example.com"}, nil)
	if err := m.Ensure(); err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}
	if obtainer.calls != 1 {
		t.Fatalf("Expected one obtain call, got %d", obtainer.calls)
	}

	_, notAfter, err := store.LoadCertificate()
	if err != nil {
		t.Fatalf("LoadCertificate() failed: %v", err)
	}
	if NeedsRenewal(notAfter, time.Now()) {
		t.Error("Expected the renewed certificate to be persisted")
	}

	// A second Ensure uses the in-memory certificate
	if err := m.Ensure(); err != nil {
		t.Fatalf("Ensure() failed: %v", err)
	}
	if obtainer.calls != 1 {
		t.Errorf("Expected no further obtain calls, got %d", obtainer.calls)
	}
}

func TestManager_ObtainFailure(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	m := NewManager(store, &fakeObtainer{err: errors.New("challenge failed")}, []string{"certs.example.com"}, nil)
	if err := m.Ensure(); err == nil {
		t.Fatal("Expected error when obtain fails")
	}
	if _, err := m.GetCertificate(nil); err == nil {
		t.Error("Expected no certificate to be served")
	}
}

func TestStore_AccountRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}

	keyPem, reg, err := store.LoadAccount()
	if err != nil || keyPem != "" || reg != nil {
		t.Fatalf("Expected empty account, got %q %v %v", keyPem, reg, err)
	}

	key, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	encoded, err := encodePrivateKey(key)
	if err != nil {
		t.Fatalf("encodePrivateKey() failed: %v", err)
	}
	if err := store.SaveAccount(encoded, &registration.Resource{URI: "https://acme.example/acct/1"}); err != nil {
		t.Fatalf("SaveAccount() failed: %v", err)
	}

	keyPem, reg, err = store.LoadAccount()
	if err != nil {
		t.Fatalf("LoadAccount() failed: %v", err)
	}
	if reg == nil || reg.URI != "https://acme.example/acct/1" {
		t.Errorf("Unexpected registration: %+v", reg)
	}
	if _, err := parsePrivateKey(keyPem); err != nil {
		t.Errorf("Stored key does not parse: %v", err)
	}
}
