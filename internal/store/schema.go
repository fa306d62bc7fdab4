// ABOUTME: Schema registry for the identity collections
// ABOUTME: Maps each identity entity type to a collection named after the type

package store

import (
	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
)

// Collection names, one per entity type.
const (
	CollectionUser      = "User"
	CollectionRole      = "Role"
	CollectionUserClaim = "UserClaim"
	CollectionRoleClaim = "RoleClaim"
	CollectionUserRole  = "UserRole"
	CollectionUserLogin = "UserLogin"
	CollectionUserToken = "UserToken"
)

// NewSchema builds the mapping for every identity entity. Build it once at
// startup and share it between contexts; the result is read-only.
func NewSchema() (*docdb.Mapper, error) {
	return docdb.NewMapperBuilder().
		Entity(identity.User{}, CollectionUser, "ID", true).
		Entity(identity.Role{}, CollectionRole, "ID", true).
		Entity(identity.UserClaim{}, CollectionUserClaim, "ID", true).
		Entity(identity.RoleClaim{}, CollectionRoleClaim, "ID", true).
		Entity(identity.UserRole{}, CollectionUserRole, "ID", true).
		Entity(identity.UserLogin{}, CollectionUserLogin, "ID", true).
		Entity(identity.UserToken{}, CollectionUserToken, "ID", true).
		Build()
}
