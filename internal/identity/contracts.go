// ABOUTME: Store contracts consumed by the identity framework
// ABOUTME: Split per capability so hosts can depend on only what they use

package identity

import (
	"context"
	"time"
)

// UserStore is the core user persistence contract.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByName(ctx context.Context, normalizedUserName string) (*User, error)
	GetUserID(ctx context.Context, user *User) (string, error)
	GetUserName(ctx context.Context, user *User) (string, error)
	SetUserName(ctx context.Context, user *User, userName string) error
	GetNormalizedUserName(ctx context.Context, user *User) (string, error)
	SetNormalizedUserName(ctx context.Context, user *User, normalizedName string) error
	Close() error
}

// UserClaimStore manages claims attached to users.
type UserClaimStore interface {
	UserStore
	GetClaims(ctx context.Context, user *User) ([]Claim, error)
	AddClaims(ctx context.Context, user *User, claims []Claim) error
	ReplaceClaim(ctx context.Context, user *User, claim, newClaim *Claim) error
	RemoveClaims(ctx context.Context, user *User, claims []Claim) error
	GetUsersForClaim(ctx context.Context, claim *Claim) ([]*User, error)
}

// UserRoleStore manages role membership.
type UserRoleStore interface {
	UserStore
	AddToRole(ctx context.Context, user *User, normalizedRoleName string) error
	RemoveFromRole(ctx context.Context, user *User, normalizedRoleName string) error
	GetRoles(ctx context.Context, user *User) ([]string, error)
	IsInRole(ctx context.Context, user *User, normalizedRoleName string) (bool, error)
	GetUsersInRole(ctx context.Context, normalizedRoleName string) ([]*User, error)
}

// UserLoginStore manages external logins.
type UserLoginStore interface {
	UserStore
	AddLogin(ctx context.Context, user *User, login *LoginInfo) error
	RemoveLogin(ctx context.Context, user *User, loginProvider, providerKey string) error
	GetLogins(ctx context.Context, user *User) ([]LoginInfo, error)
	FindByLogin(ctx context.Context, loginProvider, providerKey string) (*User, error)
}

// UserPasswordStore manages password hashes.
type UserPasswordStore interface {
	UserStore
	SetPasswordHash(ctx context.Context, user *User, passwordHash string) error
	GetPasswordHash(ctx context.Context, user *User) (string, error)
	HasPassword(ctx context.Context, user *User) (bool, error)
}

// UserSecurityStampStore manages security stamps.
type UserSecurityStampStore interface {
	UserStore
	SetSecurityStamp(ctx context.Context, user *User, stamp string) error
	GetSecurityStamp(ctx context.Context, user *User) (string, error)
}

// UserEmailStore manages email addresses.
type UserEmailStore interface {
	UserStore
	SetEmail(ctx context.Context, user *User, email string) error
	GetEmail(ctx context.Context, user *User) (string, error)
	GetEmailConfirmed(ctx context.Context, user *User) (bool, error)
	SetEmailConfirmed(ctx context.Context, user *User, confirmed bool) error
	FindByEmail(ctx context.Context, normalizedEmail string) (*User, error)
	GetNormalizedEmail(ctx context.Context, user *User) (string, error)
	SetNormalizedEmail(ctx context.Context, user *User, normalizedEmail string) error
}

// UserLockoutStore manages lockout state.
type UserLockoutStore interface {
	UserStore
	GetLockoutEndDate(ctx context.Context, user *User) (*time.Time, error)
	SetLockoutEndDate(ctx context.Context, user *User, lockoutEnd *time.Time) error
	IncrementAccessFailedCount(ctx context.Context, user *User) (int, error)
	ResetAccessFailedCount(ctx context.Context, user *User) error
	GetAccessFailedCount(ctx context.Context, user *User) (int, error)
	GetLockoutEnabled(ctx context.Context, user *User) (bool, error)
	SetLockoutEnabled(ctx context.Context, user *User, enabled bool) error
}

// UserPhoneNumberStore manages phone numbers.
type UserPhoneNumberStore interface {
	UserStore
	SetPhoneNumber(ctx context.Context, user *User, phoneNumber string) error
	GetPhoneNumber(ctx context.Context, user *User) (string, error)
	GetPhoneNumberConfirmed(ctx context.Context, user *User) (bool, error)
	SetPhoneNumberConfirmed(ctx context.Context, user *User, confirmed bool) error
}

// UserTwoFactorStore manages the two-factor flag.
type UserTwoFactorStore interface {
	UserStore
	SetTwoFactorEnabled(ctx context.Context, user *User, enabled bool) error
	GetTwoFactorEnabled(ctx context.Context, user *User) (bool, error)
}

// UserAuthenticationTokenStore manages named per-user tokens.
type UserAuthenticationTokenStore interface {
	UserStore
	SetToken(ctx context.Context, user *User, loginProvider, name, value string) error
	RemoveToken(ctx context.Context, user *User, loginProvider, name string) error
	GetToken(ctx context.Context, user *User, loginProvider, name string) (string, error)
}

// UserAuthenticatorKeyStore manages the authenticator app key.
type UserAuthenticatorKeyStore interface {
	UserStore
	SetAuthenticatorKey(ctx context.Context, user *User, key string) error
	GetAuthenticatorKey(ctx context.Context, user *User) (string, error)
}

// UserTwoFactorRecoveryCodeStore manages single-use recovery codes.
type UserTwoFactorRecoveryCodeStore interface {
	UserStore
	ReplaceCodes(ctx context.Context, user *User, recoveryCodes []string) error
	RedeemCode(ctx context.Context, user *User, code string) (bool, error)
	CountCodes(ctx context.Context, user *User) (int, error)
}

// QueryableUserStore exposes a point-in-time snapshot of every user.
type QueryableUserStore interface {
	UserStore
	Users(ctx context.Context) ([]*User, error)
}

// RoleStore is the core role persistence contract.
type RoleStore interface {
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, role *Role) error
	FindByID(ctx context.Context, roleID string) (*Role, error)
	FindByName(ctx context.Context, normalizedRoleName string) (*Role, error)
	GetRoleID(ctx context.Context, role *Role) (string, error)
	GetName(ctx context.Context, role *Role) (string, error)
	SetName(ctx context.Context, role *Role, roleName string) error
	GetNormalizedName(ctx context.Context, role *Role) (string, error)
	SetNormalizedName(ctx context.Context, role *Role, normalizedName string) error
	Close() error
}

// RoleClaimStore manages claims attached to roles.
type RoleClaimStore interface {
	RoleStore
	GetClaims(ctx context.Context, role *Role) ([]Claim, error)
	AddClaim(ctx context.Context, role *Role, claim *Claim) error
	RemoveClaim(ctx context.Context, role *Role, claim *Claim) error
}

// QueryableRoleStore exposes a point-in-time snapshot of every role.
type QueryableRoleStore interface {
	RoleStore
	Roles(ctx context.Context) ([]*Role, error)
}
