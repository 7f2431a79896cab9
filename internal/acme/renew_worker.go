package acme

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RenewWorker periodically re-runs Manager.Ensure so a certificate is
// replaced before it enters the renewal window
type RenewWorker struct {
	manager  *Manager
	interval time.Duration
	logger   *logrus.Entry
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewRenewWorker creates a new RenewWorker
func NewRenewWorker(manager *Manager, interval time.Duration) *RenewWorker {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RenewWorker{
		manager:  manager,
		interval: interval,
		logger:   manager.logger.WithField("worker", "renew"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the worker
func (w *RenewWorker) Start() {
	w.logger.Infof("Starting with interval=%s", w.interval)
	go w.run()
}

// Stop stops the worker
func (w *RenewWorker) Stop() {
	w.cancel()
}

func (w *RenewWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.manager.Ensure(); err != nil {
				w.logger.WithError(err).Error("Certificate renewal failed")
			}
		case <-w.ctx.Done():
			w.logger.Info("Stopped")
			return
		}
	}
}
