// Package session holds the connection between the portal and a signing wallet.
//
// A Session is created by a successful Connect and stays valid until the
// wallet reports an account or chain change, at which point it is dropped and
// (for a non-empty account list) rebuilt.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"certchain/internal/chain"
	"certchain/internal/wallet"
)

// ErrNotConnected is returned when an action needs a session and none is active
var ErrNotConnected = errors.New("wallet not connected")

// WrongChainError is returned when the wallet is on a different chain than the contract
type WrongChainError struct {
	Want uint64
	Got  uint64
}

func (e *WrongChainError) Error() string {
	return fmt.Sprintf("Please switch the wallet to the correct network (Chain ID: %d).", e.Want)
}

// Session is a connected signing account bound to the certificate contract
type Session struct {
	ID          string
	Account     common.Address
	ChainID     uint64
	Network     string
	Binding     *chain.Binding
	ConnectedAt time.Time
}

// AdminReader is the read access the manager needs for role detection
type AdminReader interface {
	AdminInfo(ctx context.Context, from common.Address) (*chain.AdminInfo, error)
}

// Config holds the manager's collaborators
type Config struct {
	Wallet   wallet.Wallet
	Backend  chain.Backend
	Reader   AdminReader
	Contract common.Address
	ChainID  uint64
	Logger   *logrus.Entry
}

// Listener is notified with the new wallet status after every session change
type Listener func(status WalletStatus)

// Manager owns the current session
type Manager struct {
	wallet   wallet.Wallet
	backend  chain.Backend
	reader   AdminReader
	contract common.Address
	chainID  uint64
	logger   *logrus.Entry

	current    atomic.Pointer[Session]
	lastReason atomic.Value

	mu        sync.Mutex
	listeners []Listener
}

// NewManager creates a manager with no active session
func NewManager(cfg *Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		wallet:   cfg.Wallet,
		backend:  cfg.Backend,
		reader:   cfg.Reader,
		contract: cfg.Contract,
		chainID:  cfg.ChainID,
		logger:   logger.WithField("component", "session"),
	}
}

// OnChange registers a listener for session changes
func (m *Manager) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) notify(ctx context.Context) {
	m.mu.Lock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	if len(listeners) == 0 {
		return
	}
	status := m.Status(ctx)
	for _, l := range listeners {
		l(status)
	}
}

// Current returns the active session, or nil
func (m *Manager) Current() *Session {
	return m.current.Load()
}

// Connect builds a session for the wallet's first account. It fails when the
// wallet has no account or is on the wrong chain.
func (m *Manager) Connect(ctx context.Context) (*Session, error) {
	if m.wallet == nil || m.backend == nil {
		return nil, ErrNotConnected
	}

	accounts, err := m.wallet.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, wallet.ErrNoAccounts
	}
	account := accounts[0]

	chainID, err := m.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet chain id: %w", err)
	}
	if chainID.Uint64() != m.chainID {
		m.Invalidate(ctx, (&WrongChainError{Want: m.chainID, Got: chainID.Uint64()}).Error())
		return nil, &WrongChainError{Want: m.chainID, Got: chainID.Uint64()}
	}

	binding, err := chain.NewBinding(m.backend, m.contract, account, m.wallet.SignerFn(account, chainID))
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:          uuid.NewString(),
		Account:     account,
		ChainID:     chainID.Uint64(),
		Network:     chain.NetworkName(chainID.Uint64()),
		Binding:     binding,
		ConnectedAt: time.Now(),
	}
	m.current.Store(s)
	m.lastReason.Store("")
	m.logger.WithFields(logrus.Fields{"account": account.Hex(), "session": s.ID}).Info("Wallet connected")
	m.notify(ctx)
	return s, nil
}

// Invalidate drops the current session
func (m *Manager) Invalidate(ctx context.Context, reason string) {
	m.lastReason.Store(reason)
	if old := m.current.Swap(nil); old != nil {
		m.logger.WithFields(logrus.Fields{"account": old.Account.Hex(), "session": old.ID}).Infof("Session invalidated: %s", reason)
	}
	m.notify(ctx)
}

// Watch applies wallet events until the stream closes or ctx is done
func (m *Manager) Watch(ctx context.Context, events <-chan wallet.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handle(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) handle(ctx context.Context, ev wallet.Event) {
	switch ev.Kind {
	case wallet.AccountsChanged:
		if len(ev.Accounts) == 0 {
			m.Invalidate(ctx, DisconnectedMessage)
			return
		}
		if _, err := m.Connect(ctx); err != nil {
			m.logger.Warnf("Reconnect after account change failed: %v", err)
		}
	case wallet.ChainChanged:
		m.Invalidate(ctx, "Network changed. Reconnecting...")
		if _, err := m.Connect(ctx); err != nil {
			m.logger.Warnf("Reconnect after chain change failed: %v", err)
		}
	}
}

// balance in ether with four decimals
func formatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0000"
	}
	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18))
	return eth.Text('f', 4)
}
