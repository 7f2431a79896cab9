package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// KeystoreConfig holds the configuration for a keystore-backed wallet
type KeystoreConfig struct {
	Dir        string
	Account    string // optional; pins the wallet to one address
	Passphrase string
	LightKDF   bool
	Logger     *logrus.Entry
}

// KeystoreWallet signs with keys from a go-ethereum keystore directory
type KeystoreWallet struct {
	ks         *keystore.KeyStore
	pinned     common.Address
	passphrase string
	logger     *logrus.Entry
}

// NewKeystoreWallet opens the keystore directory
func NewKeystoreWallet(cfg *KeystoreConfig) (*KeystoreWallet, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("keystore directory is required")
	}
	var pinned common.Address
	if cfg.Account != "" {
		if !common.IsHexAddress(cfg.Account) {
			return nil, fmt.Errorf("invalid wallet account %q", cfg.Account)
		}
		pinned = common.HexToAddress(cfg.Account)
	}

	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if cfg.LightKDF {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &KeystoreWallet{
		ks:         keystore.NewKeyStore(cfg.Dir, scryptN, scryptP),
		pinned:     pinned,
		passphrase: cfg.Passphrase,
		logger:     logger.WithField("component", "keystore-wallet"),
	}, nil
}

// KeyStore exposes the underlying keystore
func (w *KeystoreWallet) KeyStore() *keystore.KeyStore {
	return w.ks
}

func (w *KeystoreWallet) addresses() []common.Address {
	var out []common.Address
	for _, acc := range w.ks.Accounts() {
		if w.pinned != (common.Address{}) && acc.Address != w.pinned {
			continue
		}
		out = append(out, acc.Address)
	}
	return out
}

// Accounts returns the keystore accounts, or only the pinned one when configured
func (w *KeystoreWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	return w.addresses(), nil
}

// SignerFn signs with the account's key unlocked by the configured passphrase
func (w *KeystoreWallet) SignerFn(account common.Address, chainID *big.Int) bind.SignerFn {
	return func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if addr != account {
			return nil, bind.ErrNotAuthorized
		}
		signed, err := w.ks.SignTxWithPassphrase(accounts.Account{Address: addr}, w.passphrase, tx, chainID)
		if err != nil {
			return nil, fmt.Errorf("keystore signing failed: %w", err)
		}
		return signed, nil
	}
}

// Subscribe turns keystore wallet arrivals and drops into AccountsChanged events
func (w *KeystoreWallet) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event, 4)
	last := w.addresses()
	sink := make(chan accounts.WalletEvent, 16)
	sub := w.ks.Subscribe(sink)

	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		for {
			select {
			case ev := <-sink:
				if ev.Kind == accounts.WalletOpened {
					continue
				}
				current := w.addresses()
				if sameAccounts(last, current) {
					continue
				}
				last = current
				w.logger.WithField("accounts", len(current)).Info("Keystore accounts changed")
				select {
				case out <- Event{Kind: AccountsChanged, Accounts: current}:
				case <-ctx.Done():
					return
				}
			case err := <-sub.Err():
				if err != nil {
					w.logger.Warnf("Keystore subscription ended: %v", err)
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close is a no-op; the keystore has no connection to release
func (w *KeystoreWallet) Close() error {
	return nil
}
