package acme

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-acme/lego/v4/registration"
)

const (
	accountKeyFile = "account.key"
	accountRegFile = "account.json"
	certFile       = "cert.pem"
	keyFile        = "key.pem"
)

// Store persists the ACME account and the portal certificate in a directory
type Store struct {
	dir string
}

// NewStore creates the directory if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create ACME dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// LoadAccount returns the account key PEM and registration, empty when none is stored
func (s *Store) LoadAccount() (string, *registration.Resource, error) {
	keyPem, err := os.ReadFile(s.path(accountKeyFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read account key: %w", err)
	}

	data, err := os.ReadFile(s.path(accountRegFile))
	if errors.Is(err, os.ErrNotExist) {
		return string(keyPem), nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read account registration: %w", err)
	}
	var reg registration.Resource
	if err := json.Unmarshal(data, &reg); err != nil {
		return "", nil, fmt.Errorf("failed to decode account registration: %w", err)
	}
	return string(keyPem), &reg, nil
}

// SaveAccount writes the account key and registration
func (s *Store) SaveAccount(keyPem string, reg *registration.Resource) error {
	if err := os.WriteFile(s.path(accountKeyFile), []byte(keyPem), 0o600); err != nil {
		return fmt.Errorf("failed to write account key: %w", err)
	}
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to encode account registration: %w", err)
	}
	if err := os.WriteFile(s.path(accountRegFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write account registration: %w", err)
	}
	return nil
}

// LoadCertificate returns the stored certificate and its leaf expiry
func (s *Store) LoadCertificate() (*tls.Certificate, time.Time, error) {
	certPem, err := os.ReadFile(s.path(certFile))
	if err != nil {
		return nil, time.Time{}, err
	}
	keyPem, err := os.ReadFile(s.path(keyFile))
	if err != nil {
		return nil, time.Time{}, err
	}
	return parseCertificate(certPem, keyPem)
}

// SaveCertificate writes a certificate bundle
func (s *Store) SaveCertificate(res *Result) error {
	if err := os.WriteFile(s.path(certFile), res.CertPem, 0o600); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.WriteFile(s.path(keyFile), res.KeyPem, 0o600); err != nil {
		return fmt.Errorf("failed to write certificate key: %w", err)
	}
	return nil
}

func parseCertificate(certPem, keyPem []byte) (*tls.Certificate, time.Time, error) {
	pair, err := tls.X509KeyPair(certPem, keyPem)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load key pair: %w", err)
	}

	block, _ := pem.Decode(certPem)
	if block == nil {
		return nil, time.Time{}, errors.New("failed to decode certificate PEM")
	}
	leaf, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse certificate: %w", err)
	}
	pair.Leaf = leaf
	return &pair, leaf.NotAfter, nil
}
