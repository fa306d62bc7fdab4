// ABOUTME: Admin CLI for the document-backed identity stores
// ABOUTME: Manages users, roles, claims, logins and recovery codes in a database file

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/2389/docstore-identity/internal/config"
	"github.com/2389/docstore-identity/internal/identity"
	"github.com/2389/docstore-identity/internal/store"
)

const banner = `
 _     _            _   _ _
(_) __| | ___ _ __ | |_(_) |_ _   _
| |/ _' |/ _ \ '_ \| __| | __| | | |
| | (_| |  __/ | | | |_| | |_| |_| |
|_|\__,_|\___|_| |_|\__|_|\__|\__, |
                              |___/
`

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the resolved configuration for one invocation.
type app struct {
	configPath string
	database   string

	cfg        *config.Config
	logger     *slog.Logger
	normalizer identity.Normalizer
}

// session is an open store context with both stores built on it.
type session struct {
	sc    *store.Context
	users *store.UserStore
	roles *store.RoleStore
}

func newRootCommand() *cobra.Command {
	a := &app{normalizer: identity.UpperNormalizer{}}

	cmd := &cobra.Command{
		Use:           "identity-admin",
		Short:         "Manage identity users and roles",
		Long:          strings.TrimPrefix(banner, "\n") + "\nAdministers users, roles, claims, external logins and recovery codes\nstored in an identity database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("IDENTITY_CONFIG"), "config file (YAML or TOML)")
	cmd.PersistentFlags().StringVar(&a.database, "db", "", "database descriptor, overrides the config")

	cmd.AddCommand(newUsersCommand(a))
	cmd.AddCommand(newRolesCommand(a))
	cmd.AddCommand(newClaimsCommand(a))
	cmd.AddCommand(newLoginsCommand(a))
	cmd.AddCommand(newCodesCommand(a))

	return cmd
}

// configure loads the config file (or environment defaults), applies the
// --db override and builds the logger.
func (a *app) configure(stderr io.Writer) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return err
	}

	if a.database != "" {
		cfg.Database.Connection = a.database
	}

	a.cfg = cfg
	a.logger = setupLogger(cfg.Logging, stderr)
	return nil
}

// setupLogger builds the slog logger described by cfg.
func setupLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// open builds a store context and both stores for one command.
func (a *app) open(ctx context.Context) (*session, error) {
	schema, err := store.NewSchema()
	if err != nil {
		return nil, err
	}

	sc, err := store.NewContext(a.cfg.Database.Descriptor(), schema, store.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", a.cfg.Database.Connection, err)
	}

	users, err := store.NewUserStore(ctx, sc)
	if err != nil {
		_ = sc.Close()
		return nil, err
	}
	roles, err := store.NewRoleStore(ctx, sc, store.WithNormalizer(a.normalizer))
	if err != nil {
		_ = sc.Close()
		return nil, err
	}

	return &session{sc: sc, users: users, roles: roles}, nil
}

func (s *session) Close() error {
	_ = s.users.Close()
	_ = s.roles.Close()
	return s.sc.Close()
}

// run opens a session, hands it to fn and closes it afterwards.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, s *session, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s, cmd.OutOrStdout())
}

// user resolves a user by display name.
func (a *app) user(ctx context.Context, s *session, name string) (*identity.User, error) {
	u, err := s.users.FindByName(ctx, a.normalizer.NormalizeName(name))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q not found", name)
	}
	return u, nil
}

// role resolves a role by display name.
func (a *app) role(ctx context.Context, s *session, name string) (*identity.Role, error) {
	r, err := s.roles.FindByName(ctx, a.normalizer.NormalizeName(name))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("role %q not found", name)
	}
	return r, nil
}

func printOK(out io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprint(out, "  ✓ ")
	fmt.Fprintf(out, format+"\n", args...)
}

func printHeading(out io.Writer, title string) {
	cyan := color.New(color.FgCyan)
	fmt.Fprintln(out)
	cyan.Fprintf(out, "  %s\n", title)
	cyan.Fprintf(out, "  %s\n", strings.Repeat("-", len(title)))
}

func printNone(out io.Writer) {
	color.New(color.FgHiBlack).Fprintln(out, "  (none)")
}
