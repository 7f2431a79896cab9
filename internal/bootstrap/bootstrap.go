// Package bootstrap wires the chain, wallet and session components shared by
// the portal server and the certctl command.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"certchain/internal/cert"
	"certchain/internal/chain"
	"certchain/internal/config"
	"certchain/internal/session"
	"certchain/internal/wallet"
)

// ErrInvalidContract is returned when the configured contract address is not hex
var ErrInvalidContract = errors.New("contract address is not a valid Ethereum address")

// Logger configures the standard logrus logger and returns its root entry
func Logger(cfg config.LogConfig, app string) *logrus.Entry {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logrus.WithField("app", app)
}

// Chain holds the read-side connection to the certificate contract
type Chain struct {
	Client   *ethclient.Client
	Reader   *chain.Reader
	Contract common.Address
	Network  chain.NetworkStatus
}

// DialChain connects to the RPC endpoint and checks the contract. A reachable
// endpoint with a missing contract is not an error; Network says what is wrong.
func DialChain(ctx context.Context, cfg config.ChainConfig) (*Chain, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, ErrInvalidContract
	}
	contract := common.HexToAddress(cfg.ContractAddress)

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.RPCURL, err)
	}
	reader, err := chain.NewReader(client, contract, cfg.ChainID, cfg.HistoryFromBlock)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &Chain{
		Client:   client,
		Reader:   reader,
		Contract: contract,
		Network:  reader.Init(ctx),
	}, nil
}

// Close closes the RPC connection
func (c *Chain) Close() {
	if c != nil && c.Client != nil {
		c.Client.Close()
	}
}

// NewVerifier builds the verification service. Lookups are only enabled when
// the startup network check passed; otherwise they fail with
// cert.ErrUnavailable instead of querying a missing contract.
func NewVerifier(c *Chain, cache *redis.Client, ttl time.Duration, logger *logrus.Entry) *cert.Service {
	cfg := &cert.Config{Cache: cache, CacheTTL: ttl, Logger: logger}
	if c != nil && c.Reader != nil && c.Network.Ready {
		cfg.Reader = c.Reader
	}
	return cert.NewService(cfg)
}

// OpenWallet opens the configured signing wallet. It returns nil for mode none.
func OpenWallet(cfg config.WalletConfig, logger *logrus.Entry) (wallet.Wallet, error) {
	switch cfg.Mode {
	case config.WalletModeKeystore:
		w, err := wallet.NewKeystoreWallet(&wallet.KeystoreConfig{
			Dir:        cfg.KeystoreDir,
			Account:    cfg.Account,
			Passphrase: cfg.Passphrase,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.WalletModeExternal:
		w, err := wallet.NewExternalWallet(&wallet.ExternalConfig{
			URL:         cfg.ExternalURL,
			IntervalSec: cfg.WatchIntervalSec,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.WalletModeNone, "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown wallet mode %q", cfg.Mode)
}

// NewSessions builds the session manager. When w is non-nil it also starts
// applying wallet and chain events until ctx is done.
func NewSessions(ctx context.Context, c *Chain, w wallet.Wallet, cfg *config.Config, logger *logrus.Entry) *session.Manager {
	sc := &session.Config{
		Contract: c.Contract,
		ChainID:  cfg.Chain.ChainID,
		Logger:   logger,
	}
	// Interface fields stay nil rather than holding typed nils
	if c.Client != nil {
		sc.Backend = c.Client
	}
	if c.Reader != nil {
		sc.Reader = c.Reader
	}
	if w != nil {
		sc.Wallet = w
	}
	m := session.NewManager(sc)

	if w != nil && c.Client != nil {
		watcher := wallet.NewWatcher(&wallet.WatcherConfig{
			Backend:     c.Client,
			IntervalSec: cfg.Wallet.WatchIntervalSec,
			Logger:      logger,
		})
		go m.Watch(ctx, wallet.Merge(ctx, w.Subscribe(ctx), watcher.Subscribe(ctx)))
	}
	return m
}
