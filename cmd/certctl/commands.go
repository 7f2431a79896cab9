package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"certchain/internal/datenorm"
	"certchain/internal/txpipeline"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <certificate-id>",
		Short: "Check whether a certificate is valid, revoked or unknown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			svc, err := a.verifier(ctx)
			if err != nil {
				return err
			}
			result, err := svc.Verify(ctx, args[0])
			if err != nil {
				return err
			}
			printVerification(a.out, result)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <certificate-id>",
		Short: "List issue and revoke events for a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			svc, err := a.verifier(ctx)
			if err != nil {
				return err
			}
			entries, err := svc.History(ctx, args[0])
			if err != nil {
				return err
			}
			printHistory(a.out, args[0], entries)
			return nil
		},
	}
}

func newIssueCmd(a *app) *cobra.Command {
	var req txpipeline.IssueRequest
	var date string
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				req.MfgDate = date
			}
			return a.run(cmd, req)
		},
	}
	cmd.Flags().StringVar(&req.CertificateID, "id", "", "certificate ID")
	cmd.Flags().StringVar(&req.ProductName, "product", "", "product name")
	cmd.Flags().StringVar(&req.MfgName, "mfg", "", "manufacturer name")
	cmd.Flags().StringVar(&date, "date", "", "manufacturing date (2025-09-28, 28 Sep 2025 or Unix seconds/ms)")
	return cmd
}

func newRevokeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <certificate-id>",
		Short: "Revoke a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, txpipeline.RevokeRequest{CertificateID: args[0]})
		},
	}
}

func newAdminCmd(a *app) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Inspect and manage contract admins",
	}

	check := &cobra.Command{
		Use:   "check <address>",
		Short: "Report whether an address is the owner, an admin, or neither",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			svc, err := a.verifier(ctx)
			if err != nil {
				return err
			}
			result, err := svc.CheckAdmin(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, result.Message)
			fmt.Fprintf(a.out, "Total admins: %d, owner: %s\n", result.TotalAdmins, result.Owner)
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <address>",
		Short: "Grant admin rights (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, txpipeline.AdminRequest{Address: args[0]})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <address>",
		Short: "Revoke admin rights (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, txpipeline.AdminRequest{Remove: true, Address: args[0]})
		},
	}

	admin.AddCommand(check, add, remove)
	return admin
}

func newDateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "date <input>",
		Short: "Show how a manufacturing date would be stored on-chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := datenorm.Normalize(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d (%s)\n", ts, datenorm.Format(ts))
			return nil
		},
	}
}

// run validates req locally before touching the network, then submits it
func (a *app) run(cmd *cobra.Command, req txpipeline.Request) error {
	if _, err := req.Build(); err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()
	out, err := a.submit(ctx, req)
	printOutcome(a.out, out)
	return err
}
