package middleware

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityKey is the context key for the authenticated identity.
const identityKey contextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity extracts the identity from the context.
// Returns nil if the request was not authenticated.
func GetIdentity(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey).(*auth.Identity)
	return id
}

// GetRole returns the caller's role, or "" before authentication.
func GetRole(ctx context.Context) auth.Role {
	if id := GetIdentity(ctx); id != nil {
		return id.Role
	}
	return ""
}

// RequireAdmin fails unless the caller is the admin.
func RequireAdmin(ctx context.Context) error {
	id := GetIdentity(ctx)
	if id == nil {
		return apperrors.ErrUnauthenticated
	}
	if !id.IsAdmin() {
		return apperrors.WithMessage(apperrors.ErrPermissionDenied, "admin access required")
	}
	return nil
}

// ScopeFriend resolves which friend a request may act on. The admin gets
// friendID as given. A friend gets their own ID when friendID is empty or
// matches, and PermissionDenied otherwise.
func ScopeFriend(ctx context.Context, friendID string) (string, error) {
	id := GetIdentity(ctx)
	if id == nil {
		return "", apperrors.ErrUnauthenticated
	}
	if id.IsAdmin() {
		return friendID, nil
	}
	if friendID != "" && friendID != id.FriendID {
		return "", apperrors.WithMessage(apperrors.ErrPermissionDenied, "friends can only access their own ledger")
	}
	return id.FriendID, nil
}

// TokenValidator turns a bearer token into an identity.
type TokenValidator interface {
	Validate(token string) (*auth.Identity, error)
}

// AuthInterceptor validates bearer tokens on every procedure except the
// public ones and stores the identity in the request context. It covers
// unary and server-streaming handlers.
type AuthInterceptor struct {
	tokens TokenValidator
	public map[string]bool
	logger *slog.Logger
}

var _ connect.Interceptor = (*AuthInterceptor)(nil)

// NewAuthInterceptor creates an interceptor that lets publicProcedures through
// without a token.
func NewAuthInterceptor(tokens TokenValidator, logger *slog.Logger, publicProcedures ...string) *AuthInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	public := make(map[string]bool, len(publicProcedures))
	for _, p := range publicProcedures {
		public[p] = true
	}
	return &AuthInterceptor{tokens: tokens, public: public, logger: logger}
}

// WrapUnary implements connect.Interceptor.
func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		procedure := req.Spec().Procedure
		if i.public[procedure] {
			return next(ctx, req)
		}
		id, err := i.authenticate(procedure, req.Header().Get("Authorization"))
		if err != nil {
			return nil, err
		}
		return next(WithIdentity(ctx, id), req)
	}
}

// WrapStreamingClient implements connect.Interceptor. Clients are not intercepted.
func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		procedure := conn.Spec().Procedure
		if i.public[procedure] {
			return next(ctx, conn)
		}
		id, err := i.authenticate(procedure, conn.RequestHeader().Get("Authorization"))
		if err != nil {
			return err
		}
		return next(WithIdentity(ctx, id), conn)
	}
}

func (i *AuthInterceptor) authenticate(procedure, authHeader string) (*auth.Identity, error) {
	if authHeader == "" {
		i.logger.Warn("Rejected request without token", "procedure", procedure)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	// Parse Bearer token
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		i.logger.Warn("Rejected malformed authorization header", "procedure", procedure)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}

	id, err := i.tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		i.logger.Warn("Rejected invalid token", "procedure", procedure, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}
	return id, nil
}
