// Package auth implements the single-admin, many-friends login model.
//
// The admin signs in with a password checked against a bcrypt hash. Friends
// sign in with their 6-digit access code. Both receive a JWT carrying their
// role, and a friend's token also carries the friend ID it is scoped to.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
)

// Role is what a session is allowed to do.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleFriend Role = "friend"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is an authenticated principal.
type Identity struct {
	Role     Role
	FriendID string // set only for RoleFriend
	Name     string
}

// IsAdmin reports whether the identity has the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == RoleAdmin
}

func (id *Identity) validate() error {
	switch id.Role {
	case RoleAdmin:
		return nil
	case RoleFriend:
		if id.FriendID == "" {
			return fmt.Errorf("%w: friend token without friend id", ErrInvalidToken)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidToken, id.Role)
	}
}

// Authenticator defines the interface for authentication implementations.
// Admin password and friend access code logins each implement it so the
// service layer does not care which credential was presented.
type Authenticator interface {
	// Authenticate verifies credential and returns the identity it belongs to.
	// Any mismatch yields ErrInvalidCredentials.
	Authenticate(ctx context.Context, credential string) (*Identity, error)
}

// FriendLookup finds the friend holding an access code.
type FriendLookup interface {
	GetFriendByAccessCode(ctx context.Context, code string) (*models.Friend, error)
}

// AccessCodeAuthenticator signs friends in with their access code.
type AccessCodeAuthenticator struct {
	friends FriendLookup
}

// NewAccessCodeAuthenticator creates an authenticator backed by friends.
func NewAccessCodeAuthenticator(friends FriendLookup) *AccessCodeAuthenticator {
	return &AccessCodeAuthenticator{friends: friends}
}

// Authenticate resolves the access code to its friend.
func (a *AccessCodeAuthenticator) Authenticate(ctx context.Context, credential string) (*Identity, error) {
	code := strings.TrimSpace(credential)
	if len(code) != 6 {
		return nil, ErrInvalidCredentials
	}

	friend, err := a.friends.GetFriendByAccessCode(ctx, code)
	if errors.Is(err, apperrors.ErrFriendNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up access code: %w", err)
	}

	return &Identity{Role: RoleFriend, FriendID: friend.ID, Name: friend.Name}, nil
}
