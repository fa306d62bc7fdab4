// ABOUTME: UserStore persists users and their related rows in the document database
// ABOUTME: Core CRUD, lookups, in-memory field accessors and queryable access

package store

import (
	"context"
	"errors"
	"time"

	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
	"github.com/2389/docstore-identity/internal/validate"
)

var (
	_ identity.QueryableUserStore             = (*UserStore)(nil)
	_ identity.UserClaimStore                 = (*UserStore)(nil)
	_ identity.UserRoleStore                  = (*UserStore)(nil)
	_ identity.UserLoginStore                 = (*UserStore)(nil)
	_ identity.UserPasswordStore              = (*UserStore)(nil)
	_ identity.UserSecurityStampStore         = (*UserStore)(nil)
	_ identity.UserEmailStore                 = (*UserStore)(nil)
	_ identity.UserLockoutStore               = (*UserStore)(nil)
	_ identity.UserPhoneNumberStore           = (*UserStore)(nil)
	_ identity.UserTwoFactorStore             = (*UserStore)(nil)
	_ identity.UserAuthenticationTokenStore   = (*UserStore)(nil)
	_ identity.UserAuthenticatorKeyStore      = (*UserStore)(nil)
	_ identity.UserTwoFactorRecoveryCodeStore = (*UserStore)(nil)
)

// UserStore stores users together with their claims, role memberships,
// external logins and tokens.
type UserStore struct {
	*lifecycle
	users      *docdb.Collection[identity.User]
	roles      *docdb.Collection[identity.Role]
	claims     *docdb.Collection[identity.UserClaim]
	userRoles  *docdb.Collection[identity.UserRole]
	logins     *docdb.Collection[identity.UserLogin]
	userTokens *docdb.Collection[identity.UserToken]
}

// UserOption configures NewUserStore.
type UserOption func(*UserStore)

// WithUserConcurrencyCheck makes Update refuse a user whose concurrency
// stamp no longer matches the stored one.
func WithUserConcurrencyCheck() UserOption {
	return func(s *UserStore) { s.checkStamps = true }
}

// NewUserStore returns a UserStore backed by sc.
func NewUserStore(ctx context.Context, sc *Context, opts ...UserOption) (*UserStore, error) {
	lc, err := newLifecycle("UserStore", sc)
	if err != nil {
		return nil, err
	}

	s := &UserStore{lifecycle: lc}
	for _, opt := range opts {
		opt(s)
	}
	if s.users, err = collection[identity.User](ctx, lc.db); err != nil {
		return nil, err
	}
	if s.roles, err = collection[identity.Role](ctx, lc.db); err != nil {
		return nil, err
	}
	if s.claims, err = collection[identity.UserClaim](ctx, lc.db); err != nil {
		return nil, err
	}
	if s.userRoles, err = collection[identity.UserRole](ctx, lc.db); err != nil {
		return nil, err
	}
	if s.logins, err = collection[identity.UserLogin](ctx, lc.db); err != nil {
		return nil, err
	}
	if s.userTokens, err = collection[identity.UserToken](ctx, lc.db); err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts user and assigns its identifier.
func (s *UserStore) Create(ctx context.Context, user *identity.User) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}

	if user.ConcurrencyStamp == "" {
		user.ConcurrencyStamp = newStamp()
	}
	if _, err := s.users.Insert(ctx, user); err != nil {
		return s.fail("creating user", err)
	}

	s.logger.Debug("created user", "id", user.ID.Hex(), "user_name", user.UserName)
	return nil
}

// Update persists user as given, last write wins. Updating a user that is
// not stored does nothing. With WithUserConcurrencyCheck, a user changed
// since it was read fails with identity.ErrConcurrencyFailure.
func (s *UserStore) Update(ctx context.Context, user *identity.User) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}

	found, err := updateStamped(ctx, s.db, s.users, user.ID, user, func(u *identity.User) *string { return &u.ConcurrencyStamp }, s.checkStamps)
	if err != nil {
		return s.fail("updating user", err)
	}

	s.logger.Debug("updated user", "id", user.ID.Hex(), "found", found)
	return nil
}

// Delete removes user. Claims, logins, tokens and role memberships are not
// removed with it.
func (s *UserStore) Delete(ctx context.Context, user *identity.User) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}

	if _, err := s.users.Delete(ctx, user.ID); err != nil {
		return s.fail("deleting user", err)
	}

	s.logger.Debug("deleted user", "id", user.ID.Hex())
	return nil
}

// FindByID returns the user with the given hex identifier, or nil.
func (s *UserStore) FindByID(ctx context.Context, userID string) (*identity.User, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotEmpty(userID, "userID"); err != nil {
		return nil, err
	}

	id, ok := parseID(userID)
	if !ok {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, docdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("finding user", err)
	}
	return user, nil
}

// FindByName returns the user whose normalized user name matches
// case-insensitively, or nil.
func (s *UserStore) FindByName(ctx context.Context, normalizedUserName string) (*identity.User, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotEmpty(normalizedUserName, "normalizedUserName"); err != nil {
		return nil, err
	}

	return s.findUser(ctx, "finding user by name", func(u *identity.User) bool {
		return identity.FoldEqual(u.NormalizedUserName, normalizedUserName)
	})
}

// FindByEmail returns the user whose normalized email matches
// case-insensitively, or nil.
func (s *UserStore) FindByEmail(ctx context.Context, normalizedEmail string) (*identity.User, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotEmpty(normalizedEmail, "normalizedEmail"); err != nil {
		return nil, err
	}

	return s.findUser(ctx, "finding user by email", func(u *identity.User) bool {
		return identity.FoldEqual(u.NormalizedEmail, normalizedEmail)
	})
}

func (s *UserStore) findUser(ctx context.Context, action string, pred func(*identity.User) bool) (*identity.User, error) {
	user, err := s.users.FindOne(ctx, pred)
	if errors.Is(err, docdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(action, err)
	}
	return user, nil
}

// Users returns a snapshot of every user.
func (s *UserStore) Users(ctx context.Context) ([]*identity.User, error) {
	return s.QueryUsers(ctx, UserQuery{})
}

// UserQuery selects a page of users. A nil Filter matches every user and a
// zero Limit means no limit.
type UserQuery struct {
	Filter func(*identity.User) bool
	Offset int
	Limit  int
}

// QueryUsers returns the users matching q in identifier order. The result is
// a snapshot, not a live view.
func (s *UserStore) QueryUsers(ctx context.Context, q UserQuery) ([]*identity.User, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if q.Offset < 0 {
		return nil, &identity.ArgumentError{Name: "offset", Message: "offset must not be negative"}
	}
	if q.Limit < 0 {
		return nil, &identity.ArgumentError{Name: "limit", Message: "limit must not be negative"}
	}

	users, err := s.users.Find(ctx, q.Filter)
	if err != nil {
		return nil, s.fail("listing users", err)
	}

	if q.Offset >= len(users) {
		return []*identity.User{}, nil
	}
	users = users[q.Offset:]
	if q.Limit > 0 && q.Limit < len(users) {
		users = users[:q.Limit]
	}
	return users, nil
}

// getField runs the entry checks and reads one field of user.
func getField[V any](ctx context.Context, s *UserStore, user *identity.User, read func(*identity.User) V) (V, error) {
	var zero V
	if err := s.enter(ctx); err != nil {
		return zero, err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return zero, err
	}
	return read(user), nil
}

// setField runs the entry checks and changes user in memory.
func (s *UserStore) setField(ctx context.Context, user *identity.User, write func(*identity.User)) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	write(user)
	return nil
}

func (s *UserStore) GetUserID(ctx context.Context, user *identity.User) (string, error) {
	return getField(ctx, s, user, func(u *identity.User) string { return formatID(u.ID) })
}

func (s *UserStore) GetUserName(ctx context.Context, user *identity.User) (string, error) {
	return getField(ctx, s, user, func(u *identity.User) string { return u.UserName })
}

func (s *UserStore) SetUserName(ctx context.Context, user *identity.User, userName string) error {
	return s.setField(ctx, user, func(u *identity.User) { u.UserName = userName })
}

func (s *UserStore) GetNormalizedUserName(ctx context.Context, user *identity.User) (string, error) {
	return getField(ctx, s, user, func(u *identity.User) string { return u.NormalizedUserName })
}

// SetNormalizedUserName stores normalizedName as given.
func (s *UserStore) SetNormalizedUserName(ctx context.Context, user *identity.User, normalizedName string) error {
	return s.setField(ctx, user, func(u *identity.User) { u.NormalizedUserName = normalizedName })
}

func (s *UserStore) SetPasswordHash(ctx context.Context, user *identity.User, passwordHash string) error {
	return s.setField(ctx, user, func(u *identity.User) { u.PasswordHash = passwordHash })
}

func (s *UserStore) GetPasswordHash(ctx context.Context, user *identity.User) (string, error) {
	return getField(ctx, s, user, func(u *identity.User) string { return u.PasswordHash })
}

func (s *UserStore) HasPassword(ctx context.Context, user *identity.User) (bool, error) {
	return getField(ctx, s, user, func(u *identity.User) bool { return u.PasswordHash != "" })
}

func (s *UserStore) SetSecurityStamp(ctx context.Context, user *identity.User, stamp string) error {
	return s.setField(ctx, user, func(u *identity.User) { u.SecurityStamp = stamp })
}

func (s *UserStore) GetSecurityStamp(ctx context.Context, user *identity.User) (string, error) {
	return getField(ctx, s, user, func(u *identity.User) string { return u.SecurityStamp })
}

func (s *UserStore) SetEmail(ctx context.Context, user *identity.User, email string) error {
	return s.setField(ctx, user, func(u *identity.User) { u.Email = email })
}

func (s *UserStore) GetEmail(ctx context.Context, user *identity.User) (string, error) {
	return getField(ctx, s, user, func(u *identity.User) string { return u.Email })
}

func (s *UserStore) GetEmailConfirmed(ctx context.Context, user *identity.User) (bool, error) {
	return getField(ctx, s, user, func(u *identity.User) bool { return u.EmailConfirmed })
}

func (s *UserStore) SetEmailConfirmed(ctx context.Context, user *identity.User, confirmed bool) error {
	return s.setField(ctx, user, func(u *identity.User) { u.EmailConfirmed = confirmed })
}

func (s *UserStore) GetNormalizedEmail(ctx context.Context, user *identity.User) (string, error) {
	return getField(ctx, s, user, func(u *identity.User) string { return u.NormalizedEmail })
}

func (s *UserStore) SetNormalizedEmail(ctx context.Context, user *identity.User, normalizedEmail string) error {
	return s.setField(ctx, user, func(u *identity.User) { u.NormalizedEmail = normalizedEmail })
}

// GetLockoutEndDate returns a copy of the lockout end, or nil when the user
// is not locked out.
func (s *UserStore) GetLockoutEndDate(ctx context.Context, user *identity.User) (*time.Time, error) {
	return getField(ctx, s, user, func(u *identity.User) *time.Time {
		if u.LockoutEnd == nil {
			return nil
		}
		end := *u.LockoutEnd
		return &end
	})
}

// SetLockoutEndDate sets the lockout end; nil clears it.
func (s *UserStore) SetLockoutEndDate(ctx context.Context, user *identity.User, lockoutEnd *time.Time) error {
	return s.setField(ctx, user, func(u *identity.User) {
		if lockoutEnd == nil {
			u.LockoutEnd = nil
			return
		}
		// Stored datetimes keep millisecond precision.
		end := lockoutEnd.UTC().Truncate(time.Millisecond)
		u.LockoutEnd = &end
	})
}

// IncrementAccessFailedCount increments the counter in memory and returns
// the new value.
func (s *UserStore) IncrementAccessFailedCount(ctx context.Context, user *identity.User) (int, error) {
	if err := s.setField(ctx, user, func(u *identity.User) { u.AccessFailedCount++ }); err != nil {
		return 0, err
	}
	return user.AccessFailedCount, nil
}

func (s *UserStore) ResetAccessFailedCount(ctx context.Context, user *identity.User) error {
	return s.setField(ctx, user, func(u *identity.User) { u.AccessFailedCount = 0 })
}

func (s *UserStore) GetAccessFailedCount(ctx context.Context, user *identity.User) (int, error) {
	return getField(ctx, s, user, func(u *identity.User) int { return u.AccessFailedCount })
}

func (s *UserStore) GetLockoutEnabled(ctx context.Context, user *identity.User) (bool, error) {
	return getField(ctx, s, user, func(u *identity.User) bool { return u.LockoutEnabled })
}

func (s *UserStore) SetLockoutEnabled(ctx context.Context, user *identity.User, enabled bool) error {
	return s.setField(ctx, user, func(u *identity.User) { u.LockoutEnabled = enabled })
}

func (s *UserStore) SetPhoneNumber(ctx context.Context, user *identity.User, phoneNumber string) error {
	return s.setField(ctx, user, func(u *identity.User) { u.PhoneNumber = phoneNumber })
}

func (s *UserStore) GetPhoneNumber(ctx context.Context, user *identity.User) (string, error) {
	return getField(ctx, s, user, func(u *identity.User) string { return u.PhoneNumber })
}

func (s *UserStore) GetPhoneNumberConfirmed(ctx context.Context, user *identity.User) (bool, error) {
	return getField(ctx, s, user, func(u *identity.User) bool { return u.PhoneNumberConfirmed })
}

func (s *UserStore) SetPhoneNumberConfirmed(ctx context.Context, user *identity.User, confirmed bool) error {
	return s.setField(ctx, user, func(u *identity.User) { u.PhoneNumberConfirmed = confirmed })
}

func (s *UserStore) SetTwoFactorEnabled(ctx context.Context, user *identity.User, enabled bool) error {
	return s.setField(ctx, user, func(u *identity.User) { u.TwoFactorEnabled = enabled })
}

func (s *UserStore) GetTwoFactorEnabled(ctx context.Context, user *identity.User) (bool, error) {
	return getField(ctx, s, user, func(u *identity.User) bool { return u.TwoFactorEnabled })
}
