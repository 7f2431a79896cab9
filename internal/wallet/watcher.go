package wallet

import (
	"context"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
)

// ChainIDReader reports the chain an RPC endpoint serves
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// WatcherConfig holds the configuration for the chain watcher
type WatcherConfig struct {
	Backend     ChainIDReader
	IntervalSec int
	TimeoutSec  int
	Logger      *logrus.Entry
}

// Watcher polls the signing endpoint's chain ID and reports changes
type Watcher struct {
	backend  ChainIDReader
	interval time.Duration
	timeout  time.Duration
	logger   *logrus.Entry
}

// NewWatcher creates a chain watcher
func NewWatcher(cfg *WatcherConfig) *Watcher {
	interval := time.Duration(cfg.IntervalSec) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Watcher{
		backend:  cfg.Backend,
		interval: interval,
		timeout:  timeout,
		logger:   logger.WithField("component", "chain-watcher"),
	}
}

func (w *Watcher) poll(ctx context.Context) (uint64, bool) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	id, err := w.backend.ChainID(ctx)
	if err != nil {
		w.logger.Warnf("Failed to read chain id: %v", err)
		return 0, false
	}
	return id.Uint64(), true
}

// Subscribe starts polling. The first successful read is the baseline; every
// later change emits ChainChanged.
func (w *Watcher) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event, 4)
	last, known := w.poll(ctx)
	go func() {
		defer close(out)
		w.logger.Info("Starting chain watcher...")
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				current, ok := w.poll(ctx)
				if !ok {
					continue
				}
				if !known {
					last, known = current, true
					continue
				}
				if current == last {
					continue
				}
				w.logger.WithFields(logrus.Fields{"from": last, "to": current}).Info("Chain changed")
				last = current
				select {
				case out <- Event{Kind: ChainChanged, ChainID: current}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				w.logger.Info("Stopping chain watcher...")
				return
			}
		}
	}()
	return out
}
