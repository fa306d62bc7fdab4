// ABOUTME: RoleStore persists roles and role claims in the document database
// ABOUTME: Implements identity.QueryableRoleStore and identity.RoleClaimStore

package store

import (
	"context"
	"errors"

	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
	"github.com/2389/docstore-identity/internal/validate"
)

var (
	_ identity.QueryableRoleStore = (*RoleStore)(nil)
	_ identity.RoleClaimStore     = (*RoleStore)(nil)
)

// RoleStore stores roles and their claims.
type RoleStore struct {
	*lifecycle
	normalizer identity.Normalizer
	roles      *docdb.Collection[identity.Role]
	claims     *docdb.Collection[identity.RoleClaim]
}

// RoleOption configures NewRoleStore.
type RoleOption func(*RoleStore)

// WithNormalizer sets the normalizer SetNormalizedName applies. The default
// is identity.UpperNormalizer.
func WithNormalizer(n identity.Normalizer) RoleOption {
	return func(s *RoleStore) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithRoleConcurrencyCheck makes Update refuse a role whose concurrency
// stamp no longer matches the stored one.
func WithRoleConcurrencyCheck() RoleOption {
	return func(s *RoleStore) { s.checkStamps = true }
}

// NewRoleStore returns a RoleStore backed by sc.
func NewRoleStore(ctx context.Context, sc *Context, opts ...RoleOption) (*RoleStore, error) {
	lc, err := newLifecycle("RoleStore", sc)
	if err != nil {
		return nil, err
	}

	s := &RoleStore{lifecycle: lc, normalizer: identity.UpperNormalizer{}}
	for _, opt := range opts {
		opt(s)
	}

	if s.roles, err = collection[identity.Role](ctx, lc.db); err != nil {
		return nil, err
	}
	if s.claims, err = collection[identity.RoleClaim](ctx, lc.db); err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts role and assigns its identifier.
func (s *RoleStore) Create(ctx context.Context, role *identity.Role) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return err
	}

	if role.ConcurrencyStamp == "" {
		role.ConcurrencyStamp = newStamp()
	}
	if _, err := s.roles.Insert(ctx, role); err != nil {
		return s.fail("creating role", err)
	}

	s.logger.Debug("created role", "id", role.ID.Hex(), "name", role.Name)
	return nil
}

// Update persists role as given, last write wins. Updating a role that is
// not stored does nothing. With WithRoleConcurrencyCheck, a role changed
// since it was read fails with identity.ErrConcurrencyFailure.
func (s *RoleStore) Update(ctx context.Context, role *identity.Role) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return err
	}

	found, err := updateStamped(ctx, s.db, s.roles, role.ID, role, func(r *identity.Role) *string { return &r.ConcurrencyStamp }, s.checkStamps)
	if err != nil {
		return s.fail("updating role", err)
	}

	s.logger.Debug("updated role", "id", role.ID.Hex(), "found", found)
	return nil
}

// Delete removes role. Deleting a role that does not exist succeeds. Claims
// and memberships referring to the role are left in place.
func (s *RoleStore) Delete(ctx context.Context, role *identity.Role) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return err
	}

	if _, err := s.roles.Delete(ctx, role.ID); err != nil {
		return s.fail("deleting role", err)
	}

	s.logger.Debug("deleted role", "id", role.ID.Hex())
	return nil
}

// FindByID returns the role with the given hex identifier, or nil.
func (s *RoleStore) FindByID(ctx context.Context, roleID string) (*identity.Role, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotEmpty(roleID, "roleID"); err != nil {
		return nil, err
	}

	id, ok := parseID(roleID)
	if !ok {
		return nil, nil
	}
	role, err := s.roles.FindByID(ctx, id)
	if errors.Is(err, docdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("finding role", err)
	}
	return role, nil
}

// FindByName returns the role whose normalized name matches
// normalizedRoleName case-insensitively. A role whose display name matches
// is returned when no normalized name does.
func (s *RoleStore) FindByName(ctx context.Context, normalizedRoleName string) (*identity.Role, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	role, err := lookupRole(ctx, s.roles, normalizedRoleName)
	if err != nil {
		return nil, s.fail("finding role", err)
	}
	return role, nil
}

func (s *RoleStore) GetRoleID(ctx context.Context, role *identity.Role) (string, error) {
	if err := s.enter(ctx); err != nil {
		return "", err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return "", err
	}
	return formatID(role.ID), nil
}

func (s *RoleStore) GetName(ctx context.Context, role *identity.Role) (string, error) {
	if err := s.enter(ctx); err != nil {
		return "", err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return "", err
	}
	return role.Name, nil
}

// SetName changes the display name in memory. Call Update to persist it.
func (s *RoleStore) SetName(ctx context.Context, role *identity.Role, roleName string) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return err
	}
	role.Name = roleName
	return nil
}

func (s *RoleStore) GetNormalizedName(ctx context.Context, role *identity.Role) (string, error) {
	if err := s.enter(ctx); err != nil {
		return "", err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return "", err
	}
	return role.NormalizedName, nil
}

// SetNormalizedName stores the normalized form of normalizedName in memory.
// Call Update to persist it.
func (s *RoleStore) SetNormalizedName(ctx context.Context, role *identity.Role, normalizedName string) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return err
	}
	role.NormalizedName = s.normalizer.NormalizeName(normalizedName)
	return nil
}

// GetClaims returns the claims attached to role in no particular order.
func (s *RoleStore) GetClaims(ctx context.Context, role *identity.Role) ([]identity.Claim, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return nil, err
	}

	rows, err := s.claims.Find(ctx, func(c *identity.RoleClaim) bool {
		return c.RoleID == role.ID
	})
	if err != nil {
		return nil, s.fail("listing role claims", err)
	}

	claims := make([]identity.Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, row.Claim())
	}
	return claims, nil
}

// AddClaim attaches claim to role. Identical claims may be added more than once.
func (s *RoleStore) AddClaim(ctx context.Context, role *identity.Role, claim *identity.Claim) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return err
	}
	if err := validate.NotNil(claim, "claim"); err != nil {
		return err
	}

	row := &identity.RoleClaim{RoleID: role.ID, ClaimType: claim.Type, ClaimValue: claim.Value}
	if _, err := s.claims.Insert(ctx, row); err != nil {
		return s.fail("adding role claim", err)
	}

	s.logger.Debug("added role claim", "role", role.ID.Hex(), "type", claim.Type)
	return nil
}

// RemoveClaim removes every claim on role with exactly claim's type and value.
func (s *RoleStore) RemoveClaim(ctx context.Context, role *identity.Role, claim *identity.Claim) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(role, "role"); err != nil {
		return err
	}
	if err := validate.NotNil(claim, "claim"); err != nil {
		return err
	}

	var removed int
	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		var err error
		removed, err = s.claims.In(tx).DeleteMany(ctx, func(c *identity.RoleClaim) bool {
			return c.RoleID == role.ID && c.Claim().Matches(claim.Type, claim.Value)
		})
		return err
	})
	if err != nil {
		return s.fail("removing role claim", err)
	}

	s.logger.Debug("removed role claim", "role", role.ID.Hex(), "type", claim.Type, "count", removed)
	return nil
}

// Roles returns a snapshot of every role.
func (s *RoleStore) Roles(ctx context.Context) ([]*identity.Role, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}

	roles, err := s.roles.FindAll(ctx)
	if err != nil {
		return nil, s.fail("listing roles", err)
	}
	return roles, nil
}

// lookupRole resolves a role name, preferring a normalized-name match over a
// display-name match. It returns nil when nothing matches.
func lookupRole(ctx context.Context, roles *docdb.Collection[identity.Role], name string) (*identity.Role, error) {
	all, err := roles.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if identity.FoldEqual(r.NormalizedName, name) {
			return r, nil
		}
	}
	for _, r := range all {
		if identity.FoldEqual(r.Name, name) {
			return r, nil
		}
	}
	return nil, nil
}
