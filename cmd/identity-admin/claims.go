// ABOUTME: claims and logins subcommands for identity-admin
// ABOUTME: Claims target a user by default or a role with --role

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/2389/docstore-identity/internal/identity"
)

func newClaimsCommand(a *app) *cobra.Command {
	var onRole bool

	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Manage user and role claims",
	}
	cmd.PersistentFlags().BoolVar(&onRole, "role", false, "treat the subject as a role name")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <subject> <type> <value>",
		Short: "Add a claim",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				claim := identity.Claim{Type: args[1], Value: args[2]}
				if onRole {
					role, err := a.role(ctx, s, args[0])
					if err != nil {
						return err
					}
					if err := s.roles.AddClaim(ctx, role, &claim); err != nil {
						return err
					}
				} else {
					user, err := a.user(ctx, s, args[0])
					if err != nil {
						return err
					}
					if err := s.users.AddClaims(ctx, user, []identity.Claim{claim}); err != nil {
						return err
					}
				}
				printOK(out, "Added %s=%s to %s", claim.Type, claim.Value, args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <subject>",
		Short: "List claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				var claims []identity.Claim
				if onRole {
					role, err := a.role(ctx, s, args[0])
					if err != nil {
						return err
					}
					if claims, err = s.roles.GetClaims(ctx, role); err != nil {
						return err
					}
				} else {
					user, err := a.user(ctx, s, args[0])
					if err != nil {
						return err
					}
					if claims, err = s.users.GetClaims(ctx, user); err != nil {
						return err
					}
				}

				printHeading(out, "Claims of "+args[0])
				if len(claims) == 0 {
					printNone(out)
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "  TYPE\tVALUE")
				for _, c := range claims {
					fmt.Fprintf(tw, "  %s\t%s\n", c.Type, c.Value)
				}
				return tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <subject> <type> <value>",
		Short: "Remove every matching claim",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				claim := identity.Claim{Type: args[1], Value: args[2]}
				if onRole {
					role, err := a.role(ctx, s, args[0])
					if err != nil {
						return err
					}
					if err := s.roles.RemoveClaim(ctx, role, &claim); err != nil {
						return err
					}
				} else {
					user, err := a.user(ctx, s, args[0])
					if err != nil {
						return err
					}
					if err := s.users.RemoveClaims(ctx, user, []identity.Claim{claim}); err != nil {
						return err
					}
				}
				printOK(out, "Removed %s=%s from %s", claim.Type, claim.Value, args[0])
				return nil
			})
		},
	})

	return cmd
}

func newLoginsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logins",
		Short: "Inspect external logins",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <username>",
		Short: "List a user's external logins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}
				logins, err := s.users.GetLogins(ctx, user)
				if err != nil {
					return err
				}

				printHeading(out, "Logins of "+args[0])
				if len(logins) == 0 {
					printNone(out)
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "  PROVIDER\tKEY\tDISPLAY NAME")
				for _, l := range logins {
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", l.LoginProvider, l.ProviderKey, l.ProviderDisplayName)
				}
				return tw.Flush()
			})
		},
	})

	return cmd
}
