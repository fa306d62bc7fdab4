// Package identity defines the entities, value types, errors and store
// contracts shared by the identity persistence layer.
//
// # Entities
//
// Every entity is keyed by a 12-byte primitive.ObjectID stored in the
// document's _id field:
//
//   - User: account data, normalized lookup keys, lockout and 2FA flags
//   - Role: display name and normalized name
//   - UserClaim / RoleClaim: type/value pairs owned by a user or role
//   - UserRole: one row per user-to-role membership
//   - UserLogin: external login keyed by (provider, provider key)
//   - UserToken: named token keyed by (user, provider, name)
//
// Normalized fields are the authoritative case-insensitive lookup keys.
// The persistence layer compares them case-insensitively on read and never
// rewrites them on write; callers keep them in sync with the display fields.
//
// # Errors
//
// Failures are classified with sentinels that callers test with errors.Is:
//
//   - ErrInvalidArgument: nil or missing required input
//   - ErrDisposed: the store or context has been closed
//   - ErrOperation: a descriptive failure such as ErrRoleNotFound
//   - ErrConfiguration: missing connection descriptor or schema
//
// Cancellation surfaces as the context's own error. "Not found" is never an
// error: lookups return nil and listings return empty slices.
package identity
