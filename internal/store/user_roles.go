// ABOUTME: Role membership for UserStore
// ABOUTME: Memberships are UserRole rows linking a user id to a role resolved by name

package store

import (
	"context"

	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
	"github.com/2389/docstore-identity/internal/validate"
)

// AddToRole makes user a member of the named role. It fails with
// identity.ErrRoleNotFound when no role matches; an existing membership is
// left as is.
func (s *UserStore) AddToRole(ctx context.Context, user *identity.User, normalizedRoleName string) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotEmpty(normalizedRoleName, "normalizedRoleName"); err != nil {
		return err
	}

	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		role, err := lookupRole(ctx, s.roles.In(tx), normalizedRoleName)
		if err != nil {
			return err
		}
		if role == nil {
			return &identity.RoleNotFoundError{Name: normalizedRoleName}
		}

		memberships := s.userRoles.In(tx)
		n, err := memberships.Count(ctx, func(ur *identity.UserRole) bool {
			return ur.UserID == user.ID && ur.RoleID == role.ID
		})
		if err != nil || n > 0 {
			return err
		}

		_, err = memberships.Insert(ctx, &identity.UserRole{UserID: user.ID, RoleID: role.ID})
		return err
	})
	if err != nil {
		return s.fail("adding user to role", err)
	}

	s.logger.Debug("added user to role", "user", user.ID.Hex(), "role", normalizedRoleName)
	return nil
}

// RemoveFromRole ends user's membership of the named role. Unknown roles and
// missing memberships are ignored.
func (s *UserStore) RemoveFromRole(ctx context.Context, user *identity.User, normalizedRoleName string) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotEmpty(normalizedRoleName, "normalizedRoleName"); err != nil {
		return err
	}

	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		role, err := lookupRole(ctx, s.roles.In(tx), normalizedRoleName)
		if err != nil || role == nil {
			return err
		}

		_, err = s.userRoles.In(tx).DeleteMany(ctx, func(ur *identity.UserRole) bool {
			return ur.UserID == user.ID && ur.RoleID == role.ID
		})
		return err
	})
	if err != nil {
		return s.fail("removing user from role", err)
	}

	s.logger.Debug("removed user from role", "user", user.ID.Hex(), "role", normalizedRoleName)
	return nil
}

// GetRoles returns the display names of the roles user belongs to.
func (s *UserStore) GetRoles(ctx context.Context, user *identity.User) ([]string, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return nil, err
	}

	memberships, err := s.userRoles.Find(ctx, func(ur *identity.UserRole) bool {
		return ur.UserID == user.ID
	})
	if err != nil {
		return nil, s.fail("listing memberships", err)
	}
	if len(memberships) == 0 {
		return []string{}, nil
	}

	ids := idSet{}
	for _, m := range memberships {
		ids.add(m.RoleID)
	}
	roles, err := s.roles.Find(ctx, func(r *identity.Role) bool {
		return ids.has(r.ID)
	})
	if err != nil {
		return nil, s.fail("loading roles", err)
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

// IsInRole reports whether user belongs to the named role.
func (s *UserStore) IsInRole(ctx context.Context, user *identity.User, normalizedRoleName string) (bool, error) {
	if err := s.enter(ctx); err != nil {
		return false, err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return false, err
	}
	if err := validate.NotEmpty(normalizedRoleName, "normalizedRoleName"); err != nil {
		return false, err
	}

	role, err := lookupRole(ctx, s.roles, normalizedRoleName)
	if err != nil {
		return false, s.fail("finding role", err)
	}
	if role == nil {
		return false, nil
	}

	n, err := s.userRoles.Count(ctx, func(ur *identity.UserRole) bool {
		return ur.UserID == user.ID && ur.RoleID == role.ID
	})
	if err != nil {
		return false, s.fail("checking membership", err)
	}
	return n > 0, nil
}

// GetUsersInRole returns the members of the named role. An unknown role has
// no members.
func (s *UserStore) GetUsersInRole(ctx context.Context, normalizedRoleName string) ([]*identity.User, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotEmpty(normalizedRoleName, "normalizedRoleName"); err != nil {
		return nil, err
	}

	role, err := lookupRole(ctx, s.roles, normalizedRoleName)
	if err != nil {
		return nil, s.fail("finding role", err)
	}
	if role == nil {
		return []*identity.User{}, nil
	}

	memberships, err := s.userRoles.Find(ctx, func(ur *identity.UserRole) bool {
		return ur.RoleID == role.ID
	})
	if err != nil {
		return nil, s.fail("listing members", err)
	}

	ids := idSet{}
	for _, m := range memberships {
		ids.add(m.UserID)
	}
	return s.usersIn(ctx, ids)
}
