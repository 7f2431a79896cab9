package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/external"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// remoteSigner is the subset of *external.ExternalSigner the wallet uses
type remoteSigner interface {
	Accounts() []accounts.Account
	SignTx(account accounts.Account, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// ExternalConfig holds the configuration for an external signer wallet
type ExternalConfig struct {
	URL         string
	IntervalSec int
	Logger      *logrus.Entry
}

// ExternalWallet delegates signing to an external signer such as clef.
// The signer's operator may decline any request.
type ExternalWallet struct {
	signer   remoteSigner
	interval time.Duration
	logger   *logrus.Entry
}

// NewExternalWallet connects to the external signer endpoint
func NewExternalWallet(cfg *ExternalConfig) (*ExternalWallet, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("external signer URL is required")
	}
	signer, err := external.NewExternalSigner(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to external signer: %w", err)
	}
	return newExternalWallet(signer, cfg.IntervalSec, cfg.Logger), nil
}

func newExternalWallet(signer remoteSigner, intervalSec int, logger *logrus.Entry) *ExternalWallet {
	if intervalSec <= 0 {
		intervalSec = 5
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ExternalWallet{
		signer:   signer,
		interval: time.Duration(intervalSec) * time.Second,
		logger:   logger.WithField("component", "external-wallet"),
	}
}

func (w *ExternalWallet) addresses() []common.Address {
	accs := w.signer.Accounts()
	out := make([]common.Address, 0, len(accs))
	for _, acc := range accs {
		out = append(out, acc.Address)
	}
	return out
}

// Accounts asks the signer which accounts it will sign for
func (w *ExternalWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	return w.addresses(), nil
}

// SignerFn forwards signing to the external signer; a decline becomes ErrUserRejected
func (w *ExternalWallet) SignerFn(account common.Address, chainID *big.Int) bind.SignerFn {
	return func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if addr != account {
			return nil, bind.ErrNotAuthorized
		}
		signed, err := w.signer.SignTx(accounts.Account{Address: addr}, tx, chainID)
		if err != nil {
			if IsUserRejected(err) {
				return nil, fmt.Errorf("%w: %v", ErrUserRejected, err)
			}
			return nil, fmt.Errorf("external signer failed: %w", err)
		}
		return signed, nil
	}
}

// Subscribe polls the signer's account list and emits AccountsChanged on difference
func (w *ExternalWallet) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event, 4)
	last := w.addresses()
	go func() {
		defer close(out)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				current := w.addresses()
				if sameAccounts(last, current) {
					continue
				}
				last = current
				w.logger.WithField("accounts", len(current)).Info("External signer accounts changed")
				select {
				case out <- Event{Kind: AccountsChanged, Accounts: current}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close is a no-op; external signers do not support being closed remotely
func (w *ExternalWallet) Close() error {
	return nil
}
