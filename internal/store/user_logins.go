// ABOUTME: External login management for UserStore
// ABOUTME: Logins are keyed by (provider, provider key) across all users

package store

import (
	"context"
	"errors"

	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
	"github.com/2389/docstore-identity/internal/validate"
)

// AddLogin associates an external login with user. A (provider, key) pair
// already associated with any user is rejected with an operation error.
func (s *UserStore) AddLogin(ctx context.Context, user *identity.User, login *identity.LoginInfo) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotNil(login, "login"); err != nil {
		return err
	}
	if err := validate.NotEmpty(login.LoginProvider, "loginProvider"); err != nil {
		return err
	}
	if err := validate.NotEmpty(login.ProviderKey, "providerKey"); err != nil {
		return err
	}

	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		rows := s.logins.In(tx)
		n, err := rows.Count(ctx, matchLogin(login.LoginProvider, login.ProviderKey))
		if err != nil {
			return err
		}
		if n > 0 {
			return &identity.OperationError{Op: "add login", Message: "login is already associated with a user"}
		}

		_, err = rows.Insert(ctx, &identity.UserLogin{
			UserID:              user.ID,
			LoginProvider:       login.LoginProvider,
			ProviderKey:         login.ProviderKey,
			ProviderDisplayName: login.ProviderDisplayName,
		})
		return err
	})
	if err != nil {
		return s.fail("adding login", err)
	}

	s.logger.Debug("added login", "user", user.ID.Hex(), "provider", login.LoginProvider)
	return nil
}

// RemoveLogin removes user's login for (loginProvider, providerKey). A
// missing login is ignored.
func (s *UserStore) RemoveLogin(ctx context.Context, user *identity.User, loginProvider, providerKey string) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotEmpty(loginProvider, "loginProvider"); err != nil {
		return err
	}
	if err := validate.NotEmpty(providerKey, "providerKey"); err != nil {
		return err
	}

	match := matchLogin(loginProvider, providerKey)
	_, err := s.logins.DeleteMany(ctx, func(l *identity.UserLogin) bool {
		return l.UserID == user.ID && match(l)
	})
	if err != nil {
		return s.fail("removing login", err)
	}

	s.logger.Debug("removed login", "user", user.ID.Hex(), "provider", loginProvider)
	return nil
}

// GetLogins returns user's external logins.
func (s *UserStore) GetLogins(ctx context.Context, user *identity.User) ([]identity.LoginInfo, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return nil, err
	}

	rows, err := s.logins.Find(ctx, func(l *identity.UserLogin) bool {
		return l.UserID == user.ID
	})
	if err != nil {
		return nil, s.fail("listing logins", err)
	}

	logins := make([]identity.LoginInfo, 0, len(rows))
	for _, row := range rows {
		logins = append(logins, row.Info())
	}
	return logins, nil
}

// FindByLogin returns the user owning (loginProvider, providerKey), or nil.
func (s *UserStore) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*identity.User, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}
	if err := validate.NotEmpty(loginProvider, "loginProvider"); err != nil {
		return nil, err
	}
	if err := validate.NotEmpty(providerKey, "providerKey"); err != nil {
		return nil, err
	}

	login, err := s.logins.FindOne(ctx, matchLogin(loginProvider, providerKey))
	if errors.Is(err, docdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("finding login", err)
	}

	user, err := s.users.FindByID(ctx, login.UserID)
	if errors.Is(err, docdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("finding login owner", err)
	}
	return user, nil
}

func matchLogin(loginProvider, providerKey string) func(*identity.UserLogin) bool {
	return func(l *identity.UserLogin) bool {
		return l.LoginProvider == loginProvider && l.ProviderKey == providerKey
	}
}
