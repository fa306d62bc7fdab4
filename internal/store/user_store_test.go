// ABOUTME: Tests for UserStore core operations
// ABOUTME: Covers CRUD, lookups, staged field accessors, queries and entry checks

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/2389/docstore-identity/internal/identity"
)

func createUser(t *testing.T, s *UserStore, name string) *identity.User {
	t.Helper()
	n := identity.UpperNormalizer{}
	email := name + "@example.com"
	user := &identity.User{
		UserName:           name,
		NormalizedUserName: n.NormalizeName(name),
		Email:              email,
		NormalizedEmail:    n.NormalizeEmail(email),
	}
	require.NoError(t, s.Create(context.Background(), user))
	return user
}

func TestUserStore_CreateAndFind(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	assert.False(t, alice.ID.IsZero())
	assert.NotEmpty(t, alice.ConcurrencyStamp)

	id, err := s.GetUserID(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, alice.ID.Hex(), id)

	byID, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, alice, byID)

	byName, err := s.FindByName(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice, byName)

	byEmail, err := s.FindByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, alice, byEmail)
}

func TestUserStore_GetUserID_Unsaved(t *testing.T) {
	s, _ := newTestStores(t)

	id, err := s.GetUserID(context.Background(), &identity.User{})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestUserStore_FindAbsent(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()
	createUser(t, s, "alice")

	user, err := s.FindByID(ctx, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.FindByID(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.FindByName(ctx, "BOB")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.FindByEmail(ctx, "BOB@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserStore_Delete(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	require.NoError(t, s.AddClaims(ctx, alice, []identity.Claim{{Type: "t", Value: "v"}}))
	require.NoError(t, s.Delete(ctx, alice))

	found, err := s.FindByName(ctx, "ALICE")
	require.NoError(t, err)
	assert.Nil(t, found)

	// Child rows are not cascaded.
	claims, err := s.GetClaims(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, claims, 1)

	assert.NoError(t, s.Delete(ctx, alice), "deleting an absent user succeeds")
}

func TestUserStore_UpdatePersistsFields(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	lockoutEnd := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.SetUserName(ctx, alice, "alicia"))
	require.NoError(t, s.SetNormalizedUserName(ctx, alice, "ALICIA"))
	require.NoError(t, s.SetEmail(ctx, alice, "alicia@example.com"))
	require.NoError(t, s.SetNormalizedEmail(ctx, alice, "ALICIA@EXAMPLE.COM"))
	require.NoError(t, s.SetEmailConfirmed(ctx, alice, true))
	require.NoError(t, s.SetPasswordHash(ctx, alice, "hash"))
	require.NoError(t, s.SetSecurityStamp(ctx, alice, "stamp"))
	require.NoError(t, s.SetPhoneNumber(ctx, alice, "555-0100"))
	require.NoError(t, s.SetPhoneNumberConfirmed(ctx, alice, true))
	require.NoError(t, s.SetTwoFactorEnabled(ctx, alice, true))
	require.NoError(t, s.SetLockoutEnabled(ctx, alice, true))
	require.NoError(t, s.SetLockoutEndDate(ctx, alice, &lockoutEnd))
	_, err := s.IncrementAccessFailedCount(ctx, alice)
	require.NoError(t, err)

	stored, err := s.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.UserName, "setters do not write through")
	assert.Nil(t, stored.LockoutEnd)

	require.NoError(t, s.Update(ctx, alice))

	stored, err = s.FindByName(ctx, "ALICIA")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "alicia", stored.UserName)
	assert.Equal(t, "alicia@example.com", stored.Email)
	assert.True(t, stored.EmailConfirmed)
	assert.Equal(t, "hash", stored.PasswordHash)
	assert.Equal(t, "stamp", stored.SecurityStamp)
	assert.Equal(t, "555-0100", stored.PhoneNumber)
	assert.True(t, stored.PhoneNumberConfirmed)
	assert.True(t, stored.TwoFactorEnabled)
	assert.True(t, stored.LockoutEnabled)
	assert.Equal(t, 1, stored.AccessFailedCount)
	require.NotNil(t, stored.LockoutEnd)
	assert.True(t, lockoutEnd.Equal(*stored.LockoutEnd))
	assert.Equal(t, alice.ConcurrencyStamp, stored.ConcurrencyStamp)

	byEmail, err := s.FindByEmail(ctx, "ALICIA@EXAMPLE.COM")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, alice.ID, byEmail.ID)
}

func TestUserStore_UpdateLastWriteWins(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	second, err := s.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)

	alice.PhoneNumber = "1"
	require.NoError(t, s.Update(ctx, alice))

	second.PhoneNumber = "2"
	require.NoError(t, s.Update(ctx, second))

	stored, err := s.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "2", stored.PhoneNumber)
}

func TestUserStore_UpdateWithConcurrencyCheck(t *testing.T) {
	plain, _ := newTestStores(t)
	ctx := context.Background()

	s, err := NewUserStore(ctx, plain.sc, WithUserConcurrencyCheck())
	require.NoError(t, err)
	alice := createUser(t, s, "alice")

	stale, err := s.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)

	alice.PhoneNumber = "1"
	require.NoError(t, s.Update(ctx, alice))

	stale.PhoneNumber = "2"
	err = s.Update(ctx, stale)
	assert.ErrorIs(t, err, identity.ErrConcurrencyFailure)

	stored, err := s.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "1", stored.PhoneNumber)
}

func TestUserStore_UpdateMissingUser(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	require.NoError(t, s.Delete(ctx, alice))

	alice.Email = "gone@example.com"
	require.NoError(t, s.Update(ctx, alice))

	found, err := s.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, found, "update does not bring a deleted user back")

	require.NoError(t, s.Update(ctx, &identity.User{ID: primitive.NewObjectID()}))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserStore_LockoutEndRoundTrip(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	end := time.Date(2030, 1, 2, 3, 4, 5, 123456789, time.UTC)
	require.NoError(t, s.SetLockoutEndDate(ctx, alice, &end))
	require.NoError(t, s.Update(ctx, alice))

	stored, err := s.FindByID(ctx, alice.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, stored.LockoutEnd)
	assert.True(t, alice.LockoutEnd.Equal(*stored.LockoutEnd), "staged and stored lockout end agree")
	assert.True(t, stored.LockoutEnd.Equal(time.Date(2030, 1, 2, 3, 4, 5, 123000000, time.UTC)))
}

func TestUserStore_Accessors(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()
	user := &identity.User{}

	has, err := s.HasPassword(ctx, user)
	require.NoError(t, err)
	assert.False(t, has)
	require.NoError(t, s.SetPasswordHash(ctx, user, "h"))
	has, err = s.HasPassword(ctx, user)
	require.NoError(t, err)
	assert.True(t, has)
	hash, err := s.GetPasswordHash(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "h", hash)

	// Empty values are accepted; only nil entities are rejected.
	require.NoError(t, s.SetUserName(ctx, user, ""))
	require.NoError(t, s.SetEmail(ctx, user, ""))

	email, err := s.GetEmail(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, email)

	require.NoError(t, s.SetSecurityStamp(ctx, user, "s1"))
	stamp, err := s.GetSecurityStamp(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "s1", stamp)
	require.NoError(t, s.SetSecurityStamp(ctx, user, ""))
	stamp, err = s.GetSecurityStamp(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, stamp)

	phone, err := s.GetPhoneNumber(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, phone)
	confirmed, err := s.GetPhoneNumberConfirmed(ctx, user)
	require.NoError(t, err)
	assert.False(t, confirmed)
	confirmed, err = s.GetEmailConfirmed(ctx, user)
	require.NoError(t, err)
	assert.False(t, confirmed)
	twoFactor, err := s.GetTwoFactorEnabled(ctx, user)
	require.NoError(t, err)
	assert.False(t, twoFactor)

	normalized, err := s.GetNormalizedEmail(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, normalized)
	normalized, err = s.GetNormalizedUserName(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, normalized)
	name, err := s.GetUserName(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestUserStore_Lockout(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()
	user := &identity.User{}

	end, err := s.GetLockoutEndDate(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, end)

	local := time.Date(2030, 6, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	require.NoError(t, s.SetLockoutEndDate(ctx, user, &local))
	end, err = s.GetLockoutEndDate(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.True(t, local.Equal(*end))
	assert.Equal(t, time.UTC, end.Location())

	require.NoError(t, s.SetLockoutEndDate(ctx, user, nil))
	assert.Nil(t, user.LockoutEnd)

	for want := 1; want <= 3; want++ {
		got, err := s.IncrementAccessFailedCount(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	count, err := s.GetAccessFailedCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, s.ResetAccessFailedCount(ctx, user))
	count, err = s.GetAccessFailedCount(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, s.SetLockoutEnabled(ctx, user, true))
	enabled, err := s.GetLockoutEnabled(ctx, user)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestUserStore_QueryUsers(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()

	all, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		createUser(t, s, name)
	}

	all, err = s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)

	tests := []struct {
		name  string
		query UserQuery
		want  []string
	}{
		{"all", UserQuery{}, []string{"a", "b", "c", "d", "e"}},
		{"first page", UserQuery{Limit: 2}, []string{"a", "b"}},
		{"second page", UserQuery{Offset: 2, Limit: 2}, []string{"c", "d"}},
		{"last page", UserQuery{Offset: 4, Limit: 2}, []string{"e"}},
		{"past the end", UserQuery{Offset: 9}, []string{}},
		{"filtered", UserQuery{Filter: func(u *identity.User) bool { return u.UserName > "b" }, Limit: 2}, []string{"c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := s.QueryUsers(ctx, tt.query)
			require.NoError(t, err)
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.UserName)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	_, err = s.QueryUsers(ctx, UserQuery{Offset: -1})
	assert.ErrorIs(t, err, identity.ErrInvalidArgument)
	_, err = s.QueryUsers(ctx, UserQuery{Limit: -1})
	assert.ErrorIs(t, err, identity.ErrInvalidArgument)
}

func TestUserStore_UsersIsSnapshot(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()
	createUser(t, s, "alice")

	snapshot, err := s.Users(ctx)
	require.NoError(t, err)
	createUser(t, s, "bob")

	assert.Len(t, snapshot, 1)
}

// userOps calls every UserStore operation that takes a user.
func userOps(s *UserStore, user *identity.User) map[string]func(context.Context) error {
	claim := &identity.Claim{Type: "t", Value: "v"}
	login := &identity.LoginInfo{LoginProvider: "p", ProviderKey: "k"}
	end := time.Now()

	ops := map[string]func(context.Context) error{
		"Create":                  func(ctx context.Context) error { return s.Create(ctx, user) },
		"Update":                  func(ctx context.Context) error { return s.Update(ctx, user) },
		"Delete":                  func(ctx context.Context) error { return s.Delete(ctx, user) },
		"SetUserName":             func(ctx context.Context) error { return s.SetUserName(ctx, user, "x") },
		"SetNormalizedUserName":   func(ctx context.Context) error { return s.SetNormalizedUserName(ctx, user, "X") },
		"SetPasswordHash":         func(ctx context.Context) error { return s.SetPasswordHash(ctx, user, "h") },
		"SetSecurityStamp":        func(ctx context.Context) error { return s.SetSecurityStamp(ctx, user, "s") },
		"SetEmail":                func(ctx context.Context) error { return s.SetEmail(ctx, user, "e") },
		"SetEmailConfirmed":       func(ctx context.Context) error { return s.SetEmailConfirmed(ctx, user, true) },
		"SetNormalizedEmail":      func(ctx context.Context) error { return s.SetNormalizedEmail(ctx, user, "E") },
		"SetLockoutEndDate":       func(ctx context.Context) error { return s.SetLockoutEndDate(ctx, user, &end) },
		"ResetAccessFailedCount":  func(ctx context.Context) error { return s.ResetAccessFailedCount(ctx, user) },
		"SetLockoutEnabled":       func(ctx context.Context) error { return s.SetLockoutEnabled(ctx, user, true) },
		"SetPhoneNumber":          func(ctx context.Context) error { return s.SetPhoneNumber(ctx, user, "1") },
		"SetPhoneNumberConfirmed": func(ctx context.Context) error { return s.SetPhoneNumberConfirmed(ctx, user, true) },
		"SetTwoFactorEnabled":     func(ctx context.Context) error { return s.SetTwoFactorEnabled(ctx, user, true) },
		"AddClaims":               func(ctx context.Context) error { return s.AddClaims(ctx, user, []identity.Claim{*claim}) },
		"ReplaceClaim":            func(ctx context.Context) error { return s.ReplaceClaim(ctx, user, claim, claim) },
		"RemoveClaims":            func(ctx context.Context) error { return s.RemoveClaims(ctx, user, []identity.Claim{*claim}) },
		"AddToRole":               func(ctx context.Context) error { return s.AddToRole(ctx, user, "ADMIN") },
		"RemoveFromRole":          func(ctx context.Context) error { return s.RemoveFromRole(ctx, user, "ADMIN") },
		"AddLogin":                func(ctx context.Context) error { return s.AddLogin(ctx, user, login) },
		"RemoveLogin":             func(ctx context.Context) error { return s.RemoveLogin(ctx, user, "p", "k") },
		"SetToken":                func(ctx context.Context) error { return s.SetToken(ctx, user, "p", "n", "v") },
		"RemoveToken":             func(ctx context.Context) error { return s.RemoveToken(ctx, user, "p", "n") },
		"SetAuthenticatorKey":     func(ctx context.Context) error { return s.SetAuthenticatorKey(ctx, user, "k") },
		"ReplaceCodes":            func(ctx context.Context) error { return s.ReplaceCodes(ctx, user, []string{"a"}) },
	}

	reads := map[string]func(context.Context) (any, error){
		"GetUserID":                  func(ctx context.Context) (any, error) { return s.GetUserID(ctx, user) },
		"GetUserName":                func(ctx context.Context) (any, error) { return s.GetUserName(ctx, user) },
		"GetNormalizedUserName":      func(ctx context.Context) (any, error) { return s.GetNormalizedUserName(ctx, user) },
		"GetPasswordHash":            func(ctx context.Context) (any, error) { return s.GetPasswordHash(ctx, user) },
		"HasPassword":                func(ctx context.Context) (any, error) { return s.HasPassword(ctx, user) },
		"GetSecurityStamp":           func(ctx context.Context) (any, error) { return s.GetSecurityStamp(ctx, user) },
		"GetEmail":                   func(ctx context.Context) (any, error) { return s.GetEmail(ctx, user) },
		"GetEmailConfirmed":          func(ctx context.Context) (any, error) { return s.GetEmailConfirmed(ctx, user) },
		"GetNormalizedEmail":         func(ctx context.Context) (any, error) { return s.GetNormalizedEmail(ctx, user) },
		"GetLockoutEndDate":          func(ctx context.Context) (any, error) { return s.GetLockoutEndDate(ctx, user) },
		"IncrementAccessFailedCount": func(ctx context.Context) (any, error) { return s.IncrementAccessFailedCount(ctx, user) },
		"GetAccessFailedCount":       func(ctx context.Context) (any, error) { return s.GetAccessFailedCount(ctx, user) },
		"GetLockoutEnabled":          func(ctx context.Context) (any, error) { return s.GetLockoutEnabled(ctx, user) },
		"GetPhoneNumber":             func(ctx context.Context) (any, error) { return s.GetPhoneNumber(ctx, user) },
		"GetPhoneNumberConfirmed":    func(ctx context.Context) (any, error) { return s.GetPhoneNumberConfirmed(ctx, user) },
		"GetTwoFactorEnabled":        func(ctx context.Context) (any, error) { return s.GetTwoFactorEnabled(ctx, user) },
		"GetClaims":                  func(ctx context.Context) (any, error) { return s.GetClaims(ctx, user) },
		"GetRoles":                   func(ctx context.Context) (any, error) { return s.GetRoles(ctx, user) },
		"IsInRole":                   func(ctx context.Context) (any, error) { return s.IsInRole(ctx, user, "ADMIN") },
		"GetLogins":                  func(ctx context.Context) (any, error) { return s.GetLogins(ctx, user) },
		"GetToken":                   func(ctx context.Context) (any, error) { return s.GetToken(ctx, user, "p", "n") },
		"GetAuthenticatorKey":        func(ctx context.Context) (any, error) { return s.GetAuthenticatorKey(ctx, user) },
		"RedeemCode":                 func(ctx context.Context) (any, error) { return s.RedeemCode(ctx, user, "a") },
		"CountCodes":                 func(ctx context.Context) (any, error) { return s.CountCodes(ctx, user) },
	}
	for name, read := range reads {
		ops[name] = func(ctx context.Context) error {
			_, err := read(ctx)
			return err
		}
	}
	return ops
}

func TestUserStore_NilUser(t *testing.T) {
	s, _ := newTestStores(t)

	for name, op := range userOps(s, nil) {
		t.Run(name, func(t *testing.T) {
			err := op(context.Background())
			assert.ErrorIs(t, err, identity.ErrInvalidArgument)

			var argErr *identity.ArgumentError
			require.ErrorAs(t, err, &argErr)
			assert.Equal(t, "user", argErr.Name)
		})
	}
}

func TestUserStore_RequiredKeys(t *testing.T) {
	s, _ := newTestStores(t)
	ctx := context.Background()
	user := createUser(t, s, "alice")

	tests := map[string]func() error{
		"FindByID":          func() error { _, err := s.FindByID(ctx, ""); return err },
		"FindByName":        func() error { _, err := s.FindByName(ctx, ""); return err },
		"FindByEmail":       func() error { _, err := s.FindByEmail(ctx, ""); return err },
		"AddClaims nil":     func() error { return s.AddClaims(ctx, user, nil) },
		"RemoveClaims nil":  func() error { return s.RemoveClaims(ctx, user, nil) },
		"ReplaceClaim old":  func() error { return s.ReplaceClaim(ctx, user, nil, &identity.Claim{}) },
		"ReplaceClaim new":  func() error { return s.ReplaceClaim(ctx, user, &identity.Claim{}, nil) },
		"GetUsersForClaim":  func() error { _, err := s.GetUsersForClaim(ctx, nil); return err },
		"AddToRole":         func() error { return s.AddToRole(ctx, user, "") },
		"RemoveFromRole":    func() error { return s.RemoveFromRole(ctx, user, "") },
		"IsInRole":          func() error { _, err := s.IsInRole(ctx, user, ""); return err },
		"GetUsersInRole":    func() error { _, err := s.GetUsersInRole(ctx, ""); return err },
		"AddLogin nil":      func() error { return s.AddLogin(ctx, user, nil) },
		"AddLogin provider": func() error { return s.AddLogin(ctx, user, &identity.LoginInfo{ProviderKey: "k"}) },
		"AddLogin key":      func() error { return s.AddLogin(ctx, user, &identity.LoginInfo{LoginProvider: "p"}) },
		"RemoveLogin":       func() error { return s.RemoveLogin(ctx, user, "", "k") },
		"FindByLogin":       func() error { _, err := s.FindByLogin(ctx, "p", ""); return err },
		"SetToken provider": func() error { return s.SetToken(ctx, user, "", "n", "v") },
		"SetToken name":     func() error { return s.SetToken(ctx, user, "p", "", "v") },
		"GetToken":          func() error { _, err := s.GetToken(ctx, user, "", "n"); return err },
		"RemoveToken":       func() error { return s.RemoveToken(ctx, user, "p", "") },
		"ReplaceCodes nil":  func() error { return s.ReplaceCodes(ctx, user, nil) },
	}

	for name, op := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), identity.ErrInvalidArgument)
		})
	}
}

func TestUserStore_AfterClose(t *testing.T) {
	s, _ := newTestStores(t)
	user := createUser(t, s, "alice")
	require.NoError(t, s.Close())

	ops := userOps(s, user)
	ops["FindByID"] = func(ctx context.Context) error { _, err := s.FindByID(ctx, user.ID.Hex()); return err }
	ops["Users"] = func(ctx context.Context) error { _, err := s.Users(ctx); return err }
	ops["FindByLogin"] = func(ctx context.Context) error { _, err := s.FindByLogin(ctx, "p", "k"); return err }
	ops["GetUsersInRole"] = func(ctx context.Context) error { _, err := s.GetUsersInRole(ctx, "ADMIN"); return err }

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(context.Background()), identity.ErrDisposed)
		})
	}

	// Disposal is checked before arguments.
	assert.ErrorIs(t, s.Create(context.Background(), nil), identity.ErrDisposed)
	assert.NoError(t, s.Close(), "closing twice is a no-op")
}

func TestUserStore_Canceled(t *testing.T) {
	s, _ := newTestStores(t)
	user := createUser(t, s, "alice")
	ctx := canceledContext()

	for name, op := range userOps(s, user) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(ctx), context.Canceled)
		})
	}

	_, err := s.FindByName(ctx, "ALICE")
	assert.ErrorIs(t, err, context.Canceled)

	// Cancellation is checked before disposal and arguments.
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Create(ctx, nil), context.Canceled)
}
