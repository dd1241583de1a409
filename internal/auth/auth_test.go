package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	tests := []struct {
		name string
		id   *Identity
	}{
		{"admin", &Identity{Role: RoleAdmin}},
		{"friend", &Identity{Role: RoleFriend, FriendID: "f-123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresAt, err := m.Generate(tt.id)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if time.Until(expiresAt) <= 0 {
				t.Errorf("expiresAt %v should be in the future", expiresAt)
			}

			got, err := m.Validate(token)
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if got.Role != tt.id.Role || got.FriendID != tt.id.FriendID {
				t.Errorf("Validate = %+v, want %+v", got, tt.id)
			}
		})
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	valid, _, err := m.Generate(&Identity{Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	expired := NewJWTManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.Generate(&Identity{Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	otherSecret, _, err := NewJWTManager("other-secret", time.Hour).Generate(&Identity{Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	friendWithoutID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: RoleFriend,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	unknownRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", valid + "x"},
		{"expired", expiredToken},
		{"wrong secret", otherSecret},
		{"friend without id", friendWithoutID},
		{"unknown role", unknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}

	t.Run("hash", func(t *testing.T) {
		a, err := NewPasswordAuthenticator(string(hash), "")
		if err != nil {
			t.Fatalf("NewPasswordAuthenticator failed: %v", err)
		}
		id, err := a.Authenticate(ctx, "correct horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if !id.IsAdmin() || id.Name != AdminName {
			t.Errorf("identity = %+v, want admin", id)
		}
		if _, err := a.Authenticate(ctx, "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("plaintext is hashed at startup", func(t *testing.T) {
		a, err := NewPasswordAuthenticator("", "plain-password")
		if err != nil {
			t.Fatalf("NewPasswordAuthenticator failed: %v", err)
		}
		if strings.Contains(string(a.hash), "plain-password") {
			t.Error("password should be stored hashed")
		}
		if _, err := a.Authenticate(ctx, "plain-password"); err != nil {
			t.Errorf("Authenticate failed: %v", err)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		a, err := NewPasswordAuthenticator("", "")
		if err != nil {
			t.Fatalf("NewPasswordAuthenticator failed: %v", err)
		}
		if a.Enabled() {
			t.Error("authenticator should be disabled")
		}
		if _, err := a.Authenticate(ctx, ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		if _, err := NewPasswordAuthenticator("", "short"); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("error = %v, want ErrWeakPassword", err)
		}
	})

	t.Run("invalid hash", func(t *testing.T) {
		if _, err := NewPasswordAuthenticator("not-a-bcrypt-hash", ""); err == nil {
			t.Error("expected error for invalid hash")
		}
	})
}

type fakeFriends map[string]*models.Friend

func (f fakeFriends) GetFriendByAccessCode(_ context.Context, code string) (*models.Friend, error) {
	if code == "500500" {
		return nil, errors.New("disk on fire")
	}
	friend, ok := f[code]
	if !ok {
		return nil, apperrors.ErrFriendNotFound
	}
	return friend, nil
}

func TestAccessCodeAuthenticator(t *testing.T) {
	a := NewAccessCodeAuthenticator(fakeFriends{
		"123456": {ID: "f-1", Name: "Budi", AccessCode: "123456"},
	})
	ctx := context.Background()

	id, err := a.Authenticate(ctx, " 123456 ")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if id.Role != RoleFriend || id.FriendID != "f-1" || id.Name != "Budi" {
		t.Errorf("identity = %+v", id)
	}

	for _, code := range []string{"", "12345", "654321"} {
		if _, err := a.Authenticate(ctx, code); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q) error = %v, want ErrInvalidCredentials", code, err)
		}
	}

	_, err = a.Authenticate(ctx, "500500")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("lookup failure should surface, got %v", err)
	}
}
