// ABOUTME: Entity types persisted by the identity stores
// ABOUTME: Each entity is a BSON document keyed by a primitive.ObjectID

package identity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account managed by the user store.
type User struct {
	ID                   primitive.ObjectID `bson:"_id"`
	UserName             string             `bson:"userName"`
	NormalizedUserName   string             `bson:"normalizedUserName"`
	Email                string             `bson:"email"`
	NormalizedEmail      string             `bson:"normalizedEmail"`
	EmailConfirmed       bool               `bson:"emailConfirmed"`
	PasswordHash         string             `bson:"passwordHash"`
	SecurityStamp        string             `bson:"securityStamp"`
	ConcurrencyStamp     string             `bson:"concurrencyStamp"`
	PhoneNumber          string             `bson:"phoneNumber"`
	PhoneNumberConfirmed bool               `bson:"phoneNumberConfirmed"`
	TwoFactorEnabled     bool               `bson:"twoFactorEnabled"`
	LockoutEnd           *time.Time         `bson:"lockoutEnd,omitempty"`
	LockoutEnabled       bool               `bson:"lockoutEnabled"`
	AccessFailedCount    int                `bson:"accessFailedCount"`
}

// Role is a named group users can be members of.
type Role struct {
	ID               primitive.ObjectID `bson:"_id"`
	Name             string             `bson:"name"`
	NormalizedName   string             `bson:"normalizedName"`
	ConcurrencyStamp string             `bson:"concurrencyStamp"`
}

// UserClaim attaches a claim to a user.
type UserClaim struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     primitive.ObjectID `bson:"userId"`
	ClaimType  string             `bson:"claimType"`
	ClaimValue string             `bson:"claimValue"`
}

// Claim projects the row to its type/value pair.
func (c *UserClaim) Claim() Claim {
	return Claim{Type: c.ClaimType, Value: c.ClaimValue}
}

// RoleClaim attaches a claim to a role.
type RoleClaim struct {
	ID         primitive.ObjectID `bson:"_id"`
	RoleID     primitive.ObjectID `bson:"roleId"`
	ClaimType  string             `bson:"claimType"`
	ClaimValue string             `bson:"claimValue"`
}

// Claim projects the row to its type/value pair.
func (c *RoleClaim) Claim() Claim {
	return Claim{Type: c.ClaimType, Value: c.ClaimValue}
}

// UserRole links a user to a role. There is one row per membership.
type UserRole struct {
	ID     primitive.ObjectID `bson:"_id"`
	UserID primitive.ObjectID `bson:"userId"`
	RoleID primitive.ObjectID `bson:"roleId"`
}

// UserLogin records an external login for a user. Its natural key is
// (LoginProvider, ProviderKey).
type UserLogin struct {
	ID                  primitive.ObjectID `bson:"_id"`
	UserID              primitive.ObjectID `bson:"userId"`
	LoginProvider       string             `bson:"loginProvider"`
	ProviderKey         string             `bson:"providerKey"`
	ProviderDisplayName string             `bson:"providerDisplayName"`
}

// Info projects the row to the login info handed back to callers.
func (l *UserLogin) Info() LoginInfo {
	return LoginInfo{
		LoginProvider:       l.LoginProvider,
		ProviderKey:         l.ProviderKey,
		ProviderDisplayName: l.ProviderDisplayName,
	}
}

// UserToken is a named token value. Its natural key is
// (UserID, LoginProvider, Name).
type UserToken struct {
	ID            primitive.ObjectID `bson:"_id"`
	UserID        primitive.ObjectID `bson:"userId"`
	LoginProvider string             `bson:"loginProvider"`
	Name          string             `bson:"name"`
	Value         string             `bson:"value"`
}
