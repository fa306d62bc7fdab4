// ABOUTME: roles subcommands for identity-admin
// ABOUTME: Create, list and delete roles, and grant or revoke membership

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/2389/docstore-identity/internal/identity"
)

func newRolesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage roles and memberships",
	}

	cmd.AddCommand(newRolesCreateCommand(a))
	cmd.AddCommand(newRolesListCommand(a))
	cmd.AddCommand(newRolesDeleteCommand(a))
	cmd.AddCommand(newRolesGrantCommand(a))
	cmd.AddCommand(newRolesRevokeCommand(a))
	cmd.AddCommand(newRolesMembersCommand(a))

	return cmd
}

func newRolesCreateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				name := args[0]
				if existing, err := s.roles.FindByName(ctx, a.normalizer.NormalizeName(name)); err != nil {
					return err
				} else if existing != nil {
					return fmt.Errorf("role %q already exists", name)
				}

				role := &identity.Role{}
				if err := s.roles.SetName(ctx, role, name); err != nil {
					return err
				}
				if err := s.roles.SetNormalizedName(ctx, role, name); err != nil {
					return err
				}
				if err := s.roles.Create(ctx, role); err != nil {
					return err
				}

				id, err := s.roles.GetRoleID(ctx, role)
				if err != nil {
					return err
				}
				printOK(out, "Created role %s (%s)", name, id)
				return nil
			})
		},
	}
}

func newRolesListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				roles, err := s.roles.Roles(ctx)
				if err != nil {
					return err
				}

				printHeading(out, "Roles")
				if len(roles) == 0 {
					printNone(out)
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "  ID\tNAME\tNORMALIZED")
				for _, r := range roles {
					id, err := s.roles.GetRoleID(ctx, r)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", id, r.Name, r.NormalizedName)
				}
				return tw.Flush()
			})
		},
	}
}

func newRolesDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				role, err := a.role(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.roles.Delete(ctx, role); err != nil {
					return err
				}
				printOK(out, "Deleted role %s", args[0])
				return nil
			})
		},
	}
}

func newRolesGrantCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <username> <role>",
		Short: "Add a user to a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.users.AddToRole(ctx, user, a.normalizer.NormalizeName(args[1])); err != nil {
					return err
				}
				printOK(out, "Granted %s to %s", args[1], args[0])
				return nil
			})
		},
	}
}

func newRolesRevokeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <username> <role>",
		Short: "Remove a user from a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.users.RemoveFromRole(ctx, user, a.normalizer.NormalizeName(args[1])); err != nil {
					return err
				}
				printOK(out, "Revoked %s from %s", args[1], args[0])
				return nil
			})
		},
	}
}

func newRolesMembersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "members <role>",
		Short: "List the users in a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				users, err := s.users.GetUsersInRole(ctx, a.normalizer.NormalizeName(args[0]))
				if err != nil {
					return err
				}

				printHeading(out, "Members of "+args[0])
				if len(users) == 0 {
					printNone(out)
					return nil
				}
				for _, u := range users {
					fmt.Fprintf(out, "  %s\n", u.UserName)
				}
				return nil
			})
		},
	}
}
