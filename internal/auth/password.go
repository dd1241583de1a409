package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminName is the display name returned for admin sessions.
const AdminName = "Admin"

var ErrWeakPassword = errors.New("password must be at least 8 characters")

// PasswordAuthenticator implements admin password authentication using bcrypt.
// With no password configured every attempt fails.
type PasswordAuthenticator struct {
	hash []byte
}

// NewPasswordAuthenticator builds the admin authenticator. A bcrypt hash is
// preferred; a plaintext password is hashed once at startup.
func NewPasswordAuthenticator(passwordHash, password string) (*PasswordAuthenticator, error) {
	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		return &PasswordAuthenticator{hash: []byte(passwordHash)}, nil
	}
	if password == "" {
		return &PasswordAuthenticator{}, nil
	}
	if err := ValidateCredential(password); err != nil {
		return nil, err
	}

	// Hash the password
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &PasswordAuthenticator{hash: hashed}, nil
}

// ValidateCredential checks if the password meets minimum requirements.
func ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Enabled reports whether an admin password is configured.
func (a *PasswordAuthenticator) Enabled() bool {
	return len(a.hash) > 0
}

// Authenticate compares credential against the admin password hash.
func (a *PasswordAuthenticator) Authenticate(_ context.Context, credential string) (*Identity, error) {
	if !a.Enabled() {
		return nil, ErrInvalidCredentials
	}

	// Compare password hash
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &Identity{Role: RoleAdmin, Name: AdminName}, nil
}
