package cert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"certchain/internal/cache"
	"certchain/internal/chain"
	"certchain/internal/datenorm"
)

// Input and availability errors, worded for display
var (
	ErrEmptyID        = errors.New("Please enter a certificate ID")
	ErrUnavailable    = errors.New("Blockchain connection not available")
	ErrEmptyAddress   = errors.New("Please enter an address")
	ErrInvalidAddress = errors.New("Please enter a valid Ethereum address")
)

// ContractReader is the read-only contract surface the service uses
type ContractReader interface {
	Owner(ctx context.Context) (common.Address, error)
	IsAdmin(ctx context.Context, account common.Address) (bool, error)
	AdminInfo(ctx context.Context, from common.Address) (*chain.AdminInfo, error)
	GetCertificate(ctx context.Context, certID string) (*chain.CertificateRecord, error)
	History(ctx context.Context, certID string) ([]chain.HistoryEntry, error)
}

// Config holds the service's collaborators. A nil Reader disables
// verification; a nil Cache disables result caching.
type Config struct {
	Reader   ContractReader
	Cache    *redis.Client
	CacheTTL time.Duration
	Logger   *logrus.Entry
}

// Service answers public verification and admin lookups
type Service struct {
	reader ContractReader
	cache  *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

// NewService creates a verification service
func NewService(cfg *Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		reader: cfg.Reader,
		cache:  cfg.Cache,
		ttl:    ttl,
		logger: logger.WithField("component", "cert-verify"),
	}
}

// Available reports whether a read connection exists
func (s *Service) Available() bool {
	return s.reader != nil
}

// Verify looks up a certificate and classifies it
func (s *Service) Verify(ctx context.Context, certID string) (*VerificationResult, error) {
	id := strings.TrimSpace(certID)
	if id == "" {
		return nil, ErrEmptyID
	}
	if s.reader == nil {
		return nil, ErrUnavailable
	}

	if cached, ok := s.fromCache(ctx, id); ok {
		return cached, nil
	}

	rec, err := s.reader.GetCertificate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate %s: %w", id, err)
	}

	result := Classify(id, rec)
	s.toCache(ctx, result)
	return result, nil
}

// Invalidate drops the cached result for a certificate ID
func (s *Service) Invalidate(ctx context.Context, certID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(strings.TrimSpace(certID))).Err(); err != nil {
		s.logger.Warnf("Failed to invalidate cached verification for %s: %v", certID, err)
	}
}

func cacheKey(id string) string {
	return cache.Key("verify", id)
}

func (s *Service) fromCache(ctx context.Context, id string) (*VerificationResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warnf("Verification cache read failed: %v", err)
		}
		return nil, false
	}
	var result VerificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (s *Service) toCache(ctx context.Context, result *VerificationResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(result.CertificateID), data, s.ttl).Err(); err != nil {
		s.logger.Warnf("Verification cache write failed: %v", err)
	}
}

// Classify turns a raw getCertificate response into a verification result.
// Empty product name and zero date together mean the ID was never issued.
func Classify(certID string, rec *chain.CertificateRecord) *VerificationResult {
	result := &VerificationResult{CertificateID: certID}
	if rec == nil || (strings.TrimSpace(rec.ProductName) == "" && rec.MfgDate == 0) {
		result.Status = StatusNotFound
		result.Message = "No certificate found with ID: " + certID
		return result
	}

	result.ProductName = rec.ProductName
	result.MfgName = rec.MfgName
	result.MfgDate = rec.MfgDate
	result.MfgDateText = formatDate(rec.MfgDate)
	if rec.IsValid {
		result.Status = StatusValid
		result.Message = "Valid"
	} else {
		result.Status = StatusRevoked
		result.Message = "Invalid/Revoked"
	}
	return result
}

func formatDate(ts uint64) string {
	if ts > uint64(^uint64(0)>>1) {
		return "-"
	}
	return datenorm.Format(int64(ts))
}

// History returns the certificate's issue and revoke events
func (s *Service) History(ctx context.Context, certID string) ([]chain.HistoryEntry, error) {
	id := strings.TrimSpace(certID)
	if id == "" {
		return nil, ErrEmptyID
	}
	if s.reader == nil {
		return nil, ErrUnavailable
	}
	entries, err := s.reader.History(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].MfgDate != 0 {
			entries[i].MfgDateText = formatDate(entries[i].MfgDate)
		}
	}
	return entries, nil
}
