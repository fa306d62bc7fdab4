// ABOUTME: Claim management for UserStore
// ABOUTME: Bulk add, attribute-match removal, persisted replacement and reverse lookup

package store

import (
	"context"

	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
	"github.com/2389/docstore-identity/internal/validate"
)

// GetClaims returns the claims attached to user in no particular order.
func (s *UserStore) GetClaims(ctx context.Context, user *identity.User) ([]identity.Claim, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return nil, err
	}

	rows, err := s.claims.Find(ctx, func(c *identity.UserClaim) bool {
		return c.UserID == user.ID
	})
	if err != nil {
		return nil, s.fail("listing user claims", err)
	}

	claims := make([]identity.Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, row.Claim())
	}
	return claims, nil
}

// AddClaims attaches one row per claim to user.
func (s *UserStore) AddClaims(ctx context.Context, user *identity.User, claims []identity.Claim) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotNil(claims, "claims"); err != nil {
		return err
	}

	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		rows := s.claims.In(tx)
		for _, claim := range claims {
			row := &identity.UserClaim{UserID: user.ID, ClaimType: claim.Type, ClaimValue: claim.Value}
			if _, err := rows.Insert(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.fail("adding user claims", err)
	}

	s.logger.Debug("added user claims", "user", user.ID.Hex(), "count", len(claims))
	return nil
}

// ReplaceClaim rewrites every claim on user matching claim to newClaim.
func (s *UserStore) ReplaceClaim(ctx context.Context, user *identity.User, claim, newClaim *identity.Claim) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotNil(claim, "claim"); err != nil {
		return err
	}
	if err := validate.NotNil(newClaim, "newClaim"); err != nil {
		return err
	}

	var replaced int
	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		rows := s.claims.In(tx)
		matches, err := rows.Find(ctx, func(c *identity.UserClaim) bool {
			return c.UserID == user.ID && c.Claim().Matches(claim.Type, claim.Value)
		})
		if err != nil {
			return err
		}

		for _, row := range matches {
			row.ClaimType = newClaim.Type
			row.ClaimValue = newClaim.Value
			if _, err := rows.Update(ctx, row); err != nil {
				return err
			}
		}
		replaced = len(matches)
		return nil
	})
	if err != nil {
		return s.fail("replacing user claim", err)
	}

	s.logger.Debug("replaced user claim", "user", user.ID.Hex(), "type", claim.Type, "count", replaced)
	return nil
}

// RemoveClaims removes every claim on user that exactly matches one of claims.
func (s *UserStore) RemoveClaims(ctx context.Context, user *identity.User, claims []identity.Claim) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotNil(claims, "claims"); err != nil {
		return err
	}

	var removed int
	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		n, err := s.claims.In(tx).DeleteMany(ctx, func(c *identity.UserClaim) bool {
			if c.UserID != user.ID {
				return false
			}
			for _, claim := range claims {
				if c.Claim().Matches(claim.Type, claim.Value) {
					return true
				}
			}
			return false
		})
		removed = n
		return err
	})
	if err != nil {
		return s.fail("removing user claims", err)
	}

	s.logger.Debug("removed user claims", "user", user.ID.Hex(), "count", removed)
	return nil
}

// GetUsersForClaim returns every user holding claim. Matching user ids are
// collected from the claim rows first, then the users are loaded.
func (s *UserStore) GetUsersForClaim(ctx context.Context, claim *identity.Claim) ([]*identity.User, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotNil(claim, "claim"); err != nil {
		return nil, err
	}

	rows, err := s.claims.Find(ctx, func(c *identity.UserClaim) bool {
		return c.Claim().Matches(claim.Type, claim.Value)
	})
	if err != nil {
		return nil, s.fail("finding claim holders", err)
	}

	ids := idSet{}
	for _, row := range rows {
		ids.add(row.UserID)
	}
	return s.usersIn(ctx, ids)
}

// usersIn loads the users whose identifiers are in ids.
func (s *UserStore) usersIn(ctx context.Context, ids idSet) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	users, err := s.users.Find(ctx, func(u *identity.User) bool {
		return ids.has(u.ID)
	})
	if err != nil {
		return nil, s.fail("loading users", err)
	}
	return users, nil
}
