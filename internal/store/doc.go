// Package store persists identity entities in a docdb document database.
//
// # Architecture
//
// A Context owns one docdb.DB for one unit of work. RoleStore and UserStore
// are built on a Context and implement the contracts in package identity:
//
//   - RoleStore: identity.QueryableRoleStore, identity.RoleClaimStore
//   - UserStore: every identity.User*Store contract plus QueryableUserStore
//
// Each entity type lives in its own collection named after the type (User,
// Role, UserClaim, RoleClaim, UserRole, UserLogin, UserToken). NewSchema
// builds the mapping once; hosts pass the same schema to every Context:
//
//	schema, err := store.NewSchema()
//	sc, err := store.NewContext("identity.db", schema)
//	defer sc.Close()
//	users, err := store.NewUserStore(ctx, sc)
//
// # Entry Checks
//
// Every operation checks, in order: context cancellation, whether the store
// or its Context has been closed, then its arguments. Lookups that find
// nothing return nil or an empty slice rather than an error.
//
// # Writes
//
// Setters change the entity in memory only; Update persists it as given and
// the last write wins. Updating an entity that is not stored does nothing.
// Create and Update maintain ConcurrencyStamp. Stores built with
// WithRoleConcurrencyCheck or WithUserConcurrencyCheck refuse a stale copy
// with identity.ErrConcurrencyFailure.
//
// Multi-step writes (role membership, claim replacement, token upserts and
// recovery-code redemption) run inside one docdb transaction. Delete does
// not cascade: removing a user or role leaves its claims, logins, tokens and
// memberships in place until the caller removes them.
package store
