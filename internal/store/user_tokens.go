// ABOUTME: Named token storage for UserStore
// ABOUTME: Generic tokens plus the authenticator key and recovery codes kept under a reserved provider

package store

import (
	"context"
	"errors"
	"strings"

	"github.com/2389/docstore-identity/internal/docdb"
	"github.com/2389/docstore-identity/internal/identity"
	"github.com/2389/docstore-identity/internal/validate"
)

// Reserved token keys used for two-factor data.
const (
	InternalLoginProvider = "[AspNetUserStore]"
	AuthenticatorKeyToken = "AuthenticatorKey"
	RecoveryCodesToken    = "RecoveryCodes"
	recoveryCodeSeparator = ";"
)

// SetToken stores value under (loginProvider, name) for user, replacing any
// previous value.
func (s *UserStore) SetToken(ctx context.Context, user *identity.User, loginProvider, name, value string) error {
	if err := s.enterToken(ctx, user, loginProvider, name); err != nil {
		return err
	}

	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		return putToken(ctx, s.userTokens.In(tx), user, loginProvider, name, value)
	})
	if err != nil {
		return s.fail("setting token", err)
	}

	s.logger.Debug("set token", "user", user.ID.Hex(), "provider", loginProvider, "name", name)
	return nil
}

// RemoveToken removes the token stored under (loginProvider, name).
func (s *UserStore) RemoveToken(ctx context.Context, user *identity.User, loginProvider, name string) error {
	if err := s.enterToken(ctx, user, loginProvider, name); err != nil {
		return err
	}

	if _, err := s.userTokens.DeleteMany(ctx, matchToken(user, loginProvider, name)); err != nil {
		return s.fail("removing token", err)
	}

	s.logger.Debug("removed token", "user", user.ID.Hex(), "provider", loginProvider, "name", name)
	return nil
}

// GetToken returns the token stored under (loginProvider, name), or "" when
// there is none.
func (s *UserStore) GetToken(ctx context.Context, user *identity.User, loginProvider, name string) (string, error) {
	if err := s.enterToken(ctx, user, loginProvider, name); err != nil {
		return "", err
	}

	value, err := readToken(ctx, s.userTokens, user, loginProvider, name)
	if err != nil {
		return "", s.fail("reading token", err)
	}
	return value, nil
}

func (s *UserStore) SetAuthenticatorKey(ctx context.Context, user *identity.User, key string) error {
	return s.SetToken(ctx, user, InternalLoginProvider, AuthenticatorKeyToken, key)
}

func (s *UserStore) GetAuthenticatorKey(ctx context.Context, user *identity.User) (string, error) {
	return s.GetToken(ctx, user, InternalLoginProvider, AuthenticatorKeyToken)
}

// ReplaceCodes replaces user's recovery codes. Codes must be non-empty and
// must not contain the separator.
func (s *UserStore) ReplaceCodes(ctx context.Context, user *identity.User, recoveryCodes []string) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotNil(recoveryCodes, "recoveryCodes"); err != nil {
		return err
	}
	for _, code := range recoveryCodes {
		if code == "" || strings.Contains(code, recoveryCodeSeparator) {
			return &identity.ArgumentError{
				Name:    "recoveryCodes",
				Message: "recovery codes must be non-empty and must not contain " + recoveryCodeSeparator,
			}
		}
	}

	return s.SetToken(ctx, user, InternalLoginProvider, RecoveryCodesToken, strings.Join(recoveryCodes, recoveryCodeSeparator))
}

// RedeemCode consumes code if it is one of user's recovery codes and reports
// whether it was. The read and rewrite of the code list run in one
// transaction, so concurrent redemptions never lose each other's updates.
func (s *UserStore) RedeemCode(ctx context.Context, user *identity.User, code string) (bool, error) {
	if err := s.enter(ctx); err != nil {
		return false, err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return false, err
	}
	if code == "" {
		return false, nil
	}

	redeemed := false
	err := s.db.Tx(ctx, func(tx *docdb.Tx) error {
		tokens := s.userTokens.In(tx)
		stored, err := readToken(ctx, tokens, user, InternalLoginProvider, RecoveryCodesToken)
		if err != nil {
			return err
		}

		codes := splitCodes(stored)
		remaining := make([]string, 0, len(codes))
		for _, c := range codes {
			if !redeemed && c == code {
				redeemed = true
				continue
			}
			remaining = append(remaining, c)
		}
		if !redeemed {
			return nil
		}
		return putToken(ctx, tokens, user, InternalLoginProvider, RecoveryCodesToken, strings.Join(remaining, recoveryCodeSeparator))
	})
	if err != nil {
		return false, s.fail("redeeming recovery code", err)
	}

	s.logger.Debug("redeem recovery code", "user", user.ID.Hex(), "redeemed", redeemed)
	return redeemed, nil
}

// CountCodes returns how many recovery codes user has left.
func (s *UserStore) CountCodes(ctx context.Context, user *identity.User) (int, error) {
	if err := s.enter(ctx); err != nil {
		return 0, err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return 0, err
	}

	stored, err := readToken(ctx, s.userTokens, user, InternalLoginProvider, RecoveryCodesToken)
	if err != nil {
		return 0, s.fail("counting recovery codes", err)
	}
	return len(splitCodes(stored)), nil
}

func (s *UserStore) enterToken(ctx context.Context, user *identity.User, loginProvider, name string) error {
	if err := s.enter(ctx); err != nil {
		return err
	}
	if err := validate.NotNil(user, "user"); err != nil {
		return err
	}
	if err := validate.NotEmpty(loginProvider, "loginProvider"); err != nil {
		return err
	}
	return validate.NotEmpty(name, "name")
}

func matchToken(user *identity.User, loginProvider, name string) func(*identity.UserToken) bool {
	return func(t *identity.UserToken) bool {
		return t.UserID == user.ID && t.LoginProvider == loginProvider && t.Name == name
	}
}

func readToken(ctx context.Context, tokens *docdb.Collection[identity.UserToken], user *identity.User, loginProvider, name string) (string, error) {
	token, err := tokens.FindOne(ctx, matchToken(user, loginProvider, name))
	if errors.Is(err, docdb.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token.Value, nil
}

// putToken updates the token row in place or inserts a new one.
func putToken(ctx context.Context, tokens *docdb.Collection[identity.UserToken], user *identity.User, loginProvider, name, value string) error {
	token, err := tokens.FindOne(ctx, matchToken(user, loginProvider, name))
	if errors.Is(err, docdb.ErrNotFound) {
		_, err = tokens.Insert(ctx, &identity.UserToken{
			UserID:        user.ID,
			LoginProvider: loginProvider,
			Name:          name,
			Value:         value,
		})
		return err
	}
	if err != nil {
		return err
	}

	token.Value = value
	_, err = tokens.Update(ctx, token)
	return err
}

// splitCodes parses a stored code list. An empty list has no codes.
func splitCodes(stored string) []string {
	if stored == "" {
		return nil
	}
	var codes []string
	for _, c := range strings.Split(stored, recoveryCodeSeparator) {
		if c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}
