package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/auth"
	"github.com/mmynk/debtledger/pkg/api"
	"github.com/mmynk/debtledger/pkg/api/apiconnect"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	admin      auth.Authenticator
	friends    auth.Authenticator
	jwtManager *auth.JWTManager
	validate   *validator.Validate
	logger     *slog.Logger
}

var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// NewAuthService creates a new authentication service. admin checks the
// admin password and friends checks access codes.
func NewAuthService(admin, friends auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		admin:      admin,
		friends:    friends,
		jwtManager: jwtManager,
		validate:   newValidator(),
		logger:     logger,
	}
}

// LoginAdmin authenticates the ledger owner and returns a JWT token.
func (s *AuthService) LoginAdmin(ctx context.Context, req *connect.Request[api.LoginAdminRequest]) (*connect.Response[api.LoginResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "LoginAdmin", err)
	}
	return s.login(ctx, "LoginAdmin", s.admin, req.Msg.Password)
}

// LoginFriend authenticates a friend by access code and returns a JWT token
// scoped to that friend.
func (s *AuthService) LoginFriend(ctx context.Context, req *connect.Request[api.LoginFriendRequest]) (*connect.Response[api.LoginResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "LoginFriend", err)
	}
	return s.login(ctx, "LoginFriend", s.friends, req.Msg.AccessCode)
}

func (s *AuthService) login(ctx context.Context, op string, authenticator auth.Authenticator, credential string) (*connect.Response[api.LoginResponse], error) {
	id, err := authenticator.Authenticate(ctx, credential)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("Login failed", "op", op)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, toConnectError(s.logger, op, err)
	}

	// Generate JWT token
	token, expiresAt, err := s.jwtManager.Generate(id)
	if err != nil {
		return nil, toConnectError(s.logger, op, apperrors.Wrap(apperrors.ErrInternal, err))
	}

	s.logger.Info("Logged in", "role", id.Role, "friend_id", id.FriendID)
	return connect.NewResponse(&api.LoginResponse{
		Token:     token,
		ExpiresAt: api.NewTimestamp(expiresAt),
		Role:      string(id.Role),
		FriendID:  id.FriendID,
		Name:      id.Name,
	}), nil
}
