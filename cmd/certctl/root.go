package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"certchain/internal/bootstrap"
	"certchain/internal/cert"
	"certchain/internal/config"
	"certchain/internal/session"
	"certchain/internal/txpipeline"
	"certchain/internal/wallet"
)

// app holds the lazily built collaborators shared by subcommands
type app struct {
	out        io.Writer
	configFile string
	timeout    time.Duration

	cfg    *config.Config
	logger *logrus.Entry
	chain  *bootstrap.Chain
	wallet wallet.Wallet
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "certctl",
		Short:         "Verify, issue and revoke on-chain product certificates",
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "INI config file (ENV still wins)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 5*time.Minute, "overall command timeout")

	root.AddCommand(
		newVerifyCmd(a),
		newHistoryCmd(a),
		newIssueCmd(a),
		newRevokeCmd(a),
		newAdminCmd(a),
		newDateCmd(a),
	)
	return root
}

func (a *app) loadConfig() error {
	if a.cfg != nil {
		return nil
	}
	var (
		cfg *config.Config
		err error
	)
	if a.configFile != "" {
		cfg, err = config.LoadFromINI(a.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = bootstrap.Logger(cfg.Log, "certctl")
	return nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// connectChain dials the RPC endpoint once per invocation
func (a *app) connectChain(ctx context.Context) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if a.chain != nil {
		return nil
	}
	c, err := bootstrap.DialChain(ctx, a.cfg.Chain)
	if err != nil {
		return err
	}
	a.chain = c
	if !c.Network.Ready {
		return fmt.Errorf("%s", c.Network.Message)
	}
	return nil
}

func (a *app) verifier(ctx context.Context) (*cert.Service, error) {
	if err := a.connectChain(ctx); err != nil {
		return nil, err
	}
	return bootstrap.NewVerifier(a.chain, nil, 0, a.logger), nil
}

// submit connects the configured wallet and runs req through the pipeline,
// printing each stage as it happens
func (a *app) submit(ctx context.Context, req txpipeline.Request) (*txpipeline.Outcome, error) {
	if err := a.connectChain(ctx); err != nil {
		return nil, err
	}
	w, err := bootstrap.OpenWallet(a.cfg.Wallet, a.logger)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("no signing wallet configured; set WALLET_MODE to keystore or external")
	}
	a.wallet = w

	sessions := session.NewManager(&session.Config{
		Wallet:   w,
		Backend:  a.chain.Client,
		Reader:   a.chain.Reader,
		Contract: a.chain.Contract,
		ChainID:  a.cfg.Chain.ChainID,
		Logger:   a.logger,
	})
	s, err := sessions.Connect(ctx)
	if err != nil {
		return nil, err
	}
	status := sessions.Status(ctx)
	fmt.Fprintf(a.out, "Wallet %s on %s: %s\n", status.Account, status.Network, status.Message)

	return txpipeline.New(a.logger).Submit(ctx, s.Binding, req, newPrinter(a.out))
}

func (a *app) close() {
	if a.wallet != nil {
		a.wallet.Close()
	}
	a.chain.Close()
}
