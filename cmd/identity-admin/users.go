// ABOUTME: users subcommands for identity-admin
// ABOUTME: Create, list, delete, lock and unlock user accounts

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/docstore-identity/internal/identity"
	"github.com/2389/docstore-identity/internal/store"
)

// permanentLockout is how far ahead "lock" without --for pushes the lockout end.
const permanentLockout = 100 * 365 * 24 * time.Hour

func newUsersCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	cmd.AddCommand(newUsersCreateCommand(a))
	cmd.AddCommand(newUsersListCommand(a))
	cmd.AddCommand(newUsersDeleteCommand(a))
	cmd.AddCommand(newUsersLockCommand(a))
	cmd.AddCommand(newUsersUnlockCommand(a))

	return cmd
}

func newUsersCreateCommand(a *app) *cobra.Command {
	var email, password, phone string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				name := args[0]
				user := &identity.User{
					UserName:           name,
					NormalizedUserName: a.normalizer.NormalizeName(name),
					Email:              email,
					PhoneNumber:        phone,
					SecurityStamp:      uuid.NewString(),
					LockoutEnabled:     true,
				}
				if email != "" {
					user.NormalizedEmail = a.normalizer.NormalizeEmail(email)
				}

				if existing, err := s.users.FindByName(ctx, user.NormalizedUserName); err != nil {
					return err
				} else if existing != nil {
					return fmt.Errorf("user %q already exists", name)
				}

				if password != "" {
					hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cfg.Admin.BcryptCost)
					if err != nil {
						return fmt.Errorf("hashing password: %w", err)
					}
					user.PasswordHash = string(hash)
				}

				if err := s.users.Create(ctx, user); err != nil {
					return err
				}

				id, err := s.users.GetUserID(ctx, user)
				if err != nil {
					return err
				}
				printOK(out, "Created user %s (%s)", name, id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "initial password (stored as a bcrypt hash)")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")

	return cmd
}

func newUsersListCommand(a *app) *cobra.Command {
	var offset, limit int
	var match string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				q := store.UserQuery{Offset: offset, Limit: limit}
				if match != "" {
					needle := a.normalizer.NormalizeName(match)
					q.Filter = func(u *identity.User) bool {
						return strings.Contains(u.NormalizedUserName, needle)
					}
				}

				users, err := s.users.QueryUsers(ctx, q)
				if err != nil {
					return err
				}

				printHeading(out, "Users")
				if len(users) == 0 {
					printNone(out)
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "  ID\tUSERNAME\tEMAIL\tSTATUS")
				for _, u := range users {
					id, err := s.users.GetUserID(ctx, u)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", id, u.UserName, u.Email, userStatus(u))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "number of users to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of users (0 for all)")
	cmd.Flags().StringVar(&match, "match", "", "only users whose name contains this text")

	return cmd
}

func userStatus(u *identity.User) string {
	if u.LockoutEnd != nil && u.LockoutEnd.After(time.Now()) {
		return color.RedString("locked")
	}
	return "active"
}

func newUsersDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}
				if err := s.users.Delete(ctx, user); err != nil {
					return err
				}
				printOK(out, "Deleted user %s", args[0])
				return nil
			})
		},
	}
}

func newUsersLockCommand(a *app) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "lock <username>",
		Short: "Lock a user out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				duration = permanentLockout
			}
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}

				end := time.Now().Add(duration)
				if err := s.users.SetLockoutEnabled(ctx, user, true); err != nil {
					return err
				}
				if err := s.users.SetLockoutEndDate(ctx, user, &end); err != nil {
					return err
				}
				if err := s.users.Update(ctx, user); err != nil {
					return err
				}
				printOK(out, "Locked %s until %s", args[0], end.UTC().Format(time.RFC3339))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&duration, "for", 0, "lockout length (default: indefinitely)")

	return cmd
}

func newUsersUnlockCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <username>",
		Short: "Clear a user's lockout and failed attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, s *session, out io.Writer) error {
				user, err := a.user(ctx, s, args[0])
				if err != nil {
					return err
				}

				if err := s.users.SetLockoutEndDate(ctx, user, nil); err != nil {
					return err
				}
				if err := s.users.ResetAccessFailedCount(ctx, user); err != nil {
					return err
				}
				if err := s.users.Update(ctx, user); err != nil {
					return err
				}
				printOK(out, "Unlocked %s", args[0])
				return nil
			})
		},
	}
}
