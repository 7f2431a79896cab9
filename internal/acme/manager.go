package acme

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// RenewBefore is how close to expiry a stored certificate is still reused
const RenewBefore = 30 * 24 * time.Hour

// Manager keeps a valid portal certificate loaded
type Manager struct {
	store    *Store
	obtainer Obtainer
	domains  []string
	logger   *logrus.Entry
	now      func() time.Time

	current atomic.Pointer[tls.Certificate]
	expiry  atomic.Int64
}

// NewManager creates a certificate manager
func NewManager(store *Store, obtainer Obtainer, domains []string, logger *logrus.Entry) *Manager {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		store:    store,
		obtainer: obtainer,
		domains:  domains,
		logger:   logger.WithField("component", "acme"),
		now:      time.Now,
	}
}

// NeedsRenewal reports whether a certificate expiring at notAfter must be replaced
func NeedsRenewal(notAfter, now time.Time) bool {
	return notAfter.Sub(now) <= RenewBefore
}

// Ensure loads the stored certificate, obtaining a new one when it is
// missing or within RenewBefore of expiry
func (m *Manager) Ensure() error {
	if cert := m.current.Load(); cert != nil && !NeedsRenewal(time.Unix(m.expiry.Load(), 0), m.now()) {
		return nil
	}

	cert, notAfter, err := m.store.LoadCertificate()
	switch {
	case err == nil && !NeedsRenewal(notAfter, m.now()):
		m.set(cert, notAfter)
		m.logger.Infof("Reusing stored certificate, expires %s", notAfter.Format(time.RFC3339))
		return nil
	case err == nil:
		m.logger.Infof("Stored certificate expires %s, renewing", notAfter.Format(time.RFC3339))
	case errors.Is(err, os.ErrNotExist):
		m.logger.Info("No stored certificate, requesting one")
	default:
		m.logger.WithError(err).Warn("Stored certificate unreadable, requesting a new one")
	}

	res, err := m.obtainer.Obtain(m.domains)
	if err != nil {
		return err
	}
	cert, notAfter, err = parseCertificate(res.CertPem, res.KeyPem)
	if err != nil {
		return fmt.Errorf("issued certificate unusable: %w", err)
	}
	if err := m.store.SaveCertificate(res); err != nil {
		return err
	}
	m.set(cert, notAfter)
	m.logger.Infof("Certificate obtained for %v, expires %s", m.domains, notAfter.Format(time.RFC3339))
	return nil
}

func (m *Manager) set(cert *tls.Certificate, notAfter time.Time) {
	m.current.Store(cert)
	m.expiry.Store(notAfter.Unix())
}

// GetCertificate serves the current certificate to tls.Config
func (m *Manager) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert := m.current.Load()
	if cert == nil {
		return nil, errors.New("no certificate loaded")
	}
	return cert, nil
}

// TLSConfig returns a server TLS config backed by the manager
func (m *Manager) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: m.GetCertificate,
	}
}
