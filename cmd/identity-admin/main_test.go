// ABOUTME: Tests for the identity-admin command tree
// ABOUTME: Runs commands end to end against a temporary database file

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "identity.db")
}

// execute runs the CLI with --db set and returns its stdout.
func execute(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func mustExecute(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := execute(t, db, args...)
	require.NoError(t, err, "identity-admin %s", strings.Join(args, " "))
	return out
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	commands := [][]string{
		{"users", "create"}, {"users", "list"}, {"users", "delete"}, {"users", "lock"}, {"users", "unlock"},
		{"roles", "create"}, {"roles", "list"}, {"roles", "delete"}, {"roles", "grant"}, {"roles", "revoke"}, {"roles", "members"},
		{"claims", "add"}, {"claims", "list"}, {"claims", "remove"},
		{"logins", "list"},
		{"codes", "generate"}, {"codes", "count"}, {"codes", "redeem"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := newRootCommand()

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestUsersLifecycle(t *testing.T) {
	db := testDB(t)

	out := mustExecute(t, db, "users", "create", "alice", "--email", "alice@example.com", "--password", "hunter22")
	assert.Contains(t, out, "Created user alice")
	mustExecute(t, db, "users", "create", "bob")

	_, err := execute(t, db, "users", "create", "ALICE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out = mustExecute(t, db, "users", "list")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "bob")

	out = mustExecute(t, db, "users", "list", "--match", "bo")
	assert.NotContains(t, out, "alice")
	assert.Contains(t, out, "bob")

	out = mustExecute(t, db, "users", "list", "--offset", "1", "--limit", "1")
	assert.NotContains(t, out, "alice")
	assert.Contains(t, out, "bob")

	mustExecute(t, db, "users", "delete", "bob")
	out = mustExecute(t, db, "users", "list")
	assert.NotContains(t, out, "bob")

	_, err = execute(t, db, "users", "delete", "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestUsersLockUnlock(t *testing.T) {
	db := testDB(t)
	mustExecute(t, db, "users", "create", "alice")

	out := mustExecute(t, db, "users", "lock", "alice", "--for", "1h")
	assert.Contains(t, out, "Locked alice")

	out = mustExecute(t, db, "users", "list")
	assert.Contains(t, out, "locked")

	mustExecute(t, db, "users", "unlock", "alice")
	out = mustExecute(t, db, "users", "list")
	assert.Contains(t, out, "active")
	assert.NotContains(t, out, "locked")
}

func TestRolesAndMembership(t *testing.T) {
	db := testDB(t)
	mustExecute(t, db, "users", "create", "alice")
	mustExecute(t, db, "users", "create", "bob")
	mustExecute(t, db, "roles", "create", "admin")

	out := mustExecute(t, db, "roles", "list")
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "ADMIN")

	mustExecute(t, db, "roles", "grant", "alice", "admin")
	mustExecute(t, db, "roles", "grant", "bob", "Admin")

	out = mustExecute(t, db, "roles", "members", "admin")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")

	mustExecute(t, db, "roles", "revoke", "bob", "admin")
	out = mustExecute(t, db, "roles", "members", "admin")
	assert.Contains(t, out, "alice")
	assert.NotContains(t, out, "bob")

	_, err := execute(t, db, "roles", "grant", "alice", "ghosts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GHOSTS")

	mustExecute(t, db, "roles", "delete", "admin")
	out = mustExecute(t, db, "roles", "list")
	assert.Contains(t, out, "(none)")
}

func TestClaims(t *testing.T) {
	db := testDB(t)
	mustExecute(t, db, "users", "create", "alice")
	mustExecute(t, db, "roles", "create", "admin")

	mustExecute(t, db, "claims", "add", "alice", "dept", "eng")
	mustExecute(t, db, "claims", "add", "--role", "admin", "scope", "all")

	out := mustExecute(t, db, "claims", "list", "alice")
	assert.Contains(t, out, "dept")
	assert.Contains(t, out, "eng")
	assert.NotContains(t, out, "scope")

	out = mustExecute(t, db, "claims", "list", "--role", "admin")
	assert.Contains(t, out, "scope")

	mustExecute(t, db, "claims", "remove", "alice", "dept", "eng")
	out = mustExecute(t, db, "claims", "list", "alice")
	assert.Contains(t, out, "(none)")
}

func TestLoginsList_None(t *testing.T) {
	db := testDB(t)
	mustExecute(t, db, "users", "create", "alice")

	out := mustExecute(t, db, "logins", "list", "alice")
	assert.Contains(t, out, "Logins of alice")
	assert.Contains(t, out, "(none)")
}

func TestRecoveryCodes(t *testing.T) {
	db := testDB(t)
	mustExecute(t, db, "users", "create", "alice")

	out := mustExecute(t, db, "codes", "generate", "alice", "-n", "3")
	assert.Contains(t, out, "Generated 3 recovery codes")

	var codes []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "    ") {
			codes = append(codes, strings.TrimSpace(line))
		}
	}
	require.Len(t, codes, 3)
	for _, c := range codes {
		assert.Len(t, c, 2*recoveryCodeBytes)
	}

	out = mustExecute(t, db, "codes", "count", "alice")
	assert.Contains(t, out, "3 recovery codes left")

	mustExecute(t, db, "codes", "redeem", "alice", codes[1])

	_, err := execute(t, db, "codes", "redeem", "alice", codes[1])
	require.Error(t, err, "a code redeems only once")

	out = mustExecute(t, db, "codes", "count", "alice")
	assert.Contains(t, out, "2 recovery codes left")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "from-config.db")
	path := filepath.Join(dir, "identity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  connection: \""+db+"\"\nadmin:\n  recovery_codes: 2\n"), 0o600))

	buf := &bytes.Buffer{}
	cmd := newRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", path, "users", "create", "alice"})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(db)
	require.NoError(t, err, "the configured database file is used")

	buf.Reset()
	cmd = newRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", path, "codes", "generate", "alice"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Generated 2 recovery codes")
}

func TestArgumentErrors(t *testing.T) {
	db := testDB(t)

	_, err := execute(t, db, "users", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")

	_, err = execute(t, db, "users", "list", "--offset", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset")
}

func TestGenerateCodes(t *testing.T) {
	codes, err := generateCodes(5)
	require.NoError(t, err)
	require.Len(t, codes, 5)

	seen := map[string]bool{}
	for _, c := range codes {
		assert.NotContains(t, c, ";")
		assert.False(t, seen[c])
		seen[c] = true
	}
}
