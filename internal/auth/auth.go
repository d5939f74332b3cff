// Package auth gates admin operations. The secret is never stored in code;
// only a bcrypt hash comes from configuration.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/huntboard/pkg/errs"
)

// Sentinel kinds.
var (
	ErrDisabled     = errors.New("admin access is not configured")
	ErrUnauthorized = errors.New("invalid admin credentials")
)

// Authorizer decides whether a presented secret grants admin access.
type Authorizer interface {
	Verify(ctx context.Context, secret string) error
}

// BcryptAuthorizer compares secrets against one bcrypt hash.
type BcryptAuthorizer struct {
	hash []byte
}

// NewBcrypt returns an authorizer for hash. An empty hash disables admin access.
func NewBcrypt(hash string) (*BcryptAuthorizer, error) {
	if hash == "" {
		return &BcryptAuthorizer{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, errs.Wrap("auth.NewBcrypt", err)
	}
	return &BcryptAuthorizer{hash: []byte(hash)}, nil
}

// Enabled reports whether a hash is configured.
func (a *BcryptAuthorizer) Enabled() bool { return len(a.hash) > 0 }

// Verify implements Authorizer.
func (a *BcryptAuthorizer) Verify(_ context.Context, secret string) error {
	const op = "auth.Verify"
	if !a.Enabled() {
		return errs.NewKind(op, ErrDisabled)
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(secret)); err != nil {
		return errs.WrapKind(op, ErrUnauthorized, err)
	}
	return nil
}

// Hash produces a hash suitable for admin_password_hash.
func Hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", errs.Wrap("auth.Hash", err)
	}
	return string(h), nil
}
