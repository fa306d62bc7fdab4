// ABOUTME: codes subcommands for identity-admin
// ABOUTME: Generate, count and redeem two-factor recovery codes

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// recoveryCodeBytes is the entropy of one generated code.
const recoveryCodeBytes = 5

func newCodesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Manage two-factor recovery codes",
	}

	cmd.AddCommand(newCodesGenerateCommand(a))

	cmd.AddCommand(&cobra.Command{
		Use:   "count <username>",
		Short: "Show how many recovery codes remain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}
				n, err := s.users.CountCodes(ctx, user)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s has %d recovery codes left\n", args[0], n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "redeem <username> <code>",
		Short: "Redeem a recovery code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}
				ok, err := s.users.RedeemCode(ctx, user, args[1])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("code not valid for %s", args[0])
				}
				printOK(out, "Redeemed code for %s", args[0])
				return nil
			})
		},
	})

	return cmd
}

func newCodesGenerateCommand(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "generate <username>",
		Short: "Replace a user's recovery codes with fresh ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				count = a.cfg.Admin.RecoveryCodes
			}
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}

				codes, err := generateCodes(count)
				if err != nil {
					return err
				}
				if err := s.users.ReplaceCodes(ctx, user, codes); err != nil {
					return err
				}

				printOK(out, "Generated %d recovery codes for %s", len(codes), args[0])
				yellow := color.New(color.FgYellow)
				for _, c := range codes {
					yellow.Fprintf(out, "    %s\n", c)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of codes (default from config)")

	return cmd
}

// generateCodes returns n random hex codes.
func generateCodes(n int) ([]string, error) {
	codes := make([]string, n)
	buf := make([]byte, recoveryCodeBytes)
	for i := range codes {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generating recovery code: %w", err)
		}
		codes[i] = hex.EncodeToString(buf)
	}
	return codes, nil
}
