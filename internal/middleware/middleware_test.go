package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/auth"
	"github.com/mmynk/debtledger/pkg/api"
)

type staticTokens map[string]*auth.Identity

func (s staticTokens) Validate(token string) (*auth.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

const (
	whoamiProcedure = "/test.v1.TestService/WhoAmI"
	publicProcedure = "/test.v1.TestService/Public"
)

// whoami echoes the caller's role and friend ID as "role:friend".
func whoami(ctx context.Context, _ *connect.Request[api.GetFriendRequest]) (*connect.Response[api.GetFriendResponse], error) {
	id := GetIdentity(ctx)
	if id == nil {
		return connect.NewResponse(&api.GetFriendResponse{Friend: &api.Friend{Name: "anonymous"}}), nil
	}
	return connect.NewResponse(&api.GetFriendResponse{Friend: &api.Friend{Name: string(id.Role) + ":" + id.FriendID}}), nil
}

func setupInterceptorServer(t *testing.T, logOut io.Writer) (*connect.Client[api.GetFriendRequest, api.GetFriendResponse], *connect.Client[api.GetFriendRequest, api.GetFriendResponse]) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(logOut, nil))
	tokens := staticTokens{
		"admin-token":  {Role: auth.RoleAdmin},
		"friend-token": {Role: auth.RoleFriend, FriendID: "f1"},
	}
	opts := []connect.HandlerOption{
		connect.WithCodec(api.Codec{}),
		connect.WithInterceptors(NewAuthInterceptor(tokens, logger, publicProcedure), NewLoggingInterceptor(logger)),
	}

	mux := http.NewServeMux()
	mux.Handle(whoamiProcedure, connect.NewUnaryHandler(whoamiProcedure, whoami, opts...))
	mux.Handle(publicProcedure, connect.NewUnaryHandler(publicProcedure, whoami, opts...))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	clientOpt := connect.WithCodec(api.Codec{})
	return connect.NewClient[api.GetFriendRequest, api.GetFriendResponse](server.Client(), server.URL+whoamiProcedure, clientOpt),
		connect.NewClient[api.GetFriendRequest, api.GetFriendResponse](server.Client(), server.URL+publicProcedure, clientOpt)
}

func TestAuthInterceptor(t *testing.T) {
	var logs bytes.Buffer
	private, public := setupInterceptorServer(t, &logs)
	ctx := context.Background()

	call := func(client *connect.Client[api.GetFriendRequest, api.GetFriendResponse], header string) (string, error) {
		req := connect.NewRequest(&api.GetFriendRequest{})
		if header != "" {
			req.Header().Set("Authorization", header)
		}
		resp, err := client.CallUnary(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Msg.Friend.Name, nil
	}

	got, err := call(private, "Bearer admin-token")
	require.NoError(t, err)
	assert.Equal(t, "admin:", got)

	got, err = call(private, "bearer friend-token")
	require.NoError(t, err)
	assert.Equal(t, "friend:f1", got)

	got, err = call(public, "")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", got)

	for _, header := range []string{"", "Bearer", "Bearer ", "Token admin-token", "Bearer stolen"} {
		_, err := call(private, header)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err), "header %q", header)
	}

	assert.Contains(t, logs.String(), "RPC ok")
	assert.Contains(t, logs.String(), "role=friend")
	assert.Contains(t, logs.String(), "Rejected invalid token")
}

func TestRequireAdmin(t *testing.T) {
	ctx := context.Background()

	assert.True(t, errors.Is(RequireAdmin(ctx), apperrors.ErrUnauthenticated))
	assert.NoError(t, RequireAdmin(WithIdentity(ctx, &auth.Identity{Role: auth.RoleAdmin})))
	assert.True(t, errors.Is(
		RequireAdmin(WithIdentity(ctx, &auth.Identity{Role: auth.RoleFriend, FriendID: "f1"})),
		apperrors.ErrPermissionDenied,
	))
}

func TestScopeFriend(t *testing.T) {
	admin := WithIdentity(context.Background(), &auth.Identity{Role: auth.RoleAdmin})
	friend := WithIdentity(context.Background(), &auth.Identity{Role: auth.RoleFriend, FriendID: "f1"})

	tests := []struct {
		name    string
		ctx     context.Context
		in      string
		want    string
		wantErr *apperrors.AppError
	}{
		{"admin any friend", admin, "f2", "f2", nil},
		{"admin unscoped", admin, "", "", nil},
		{"friend self implicit", friend, "", "f1", nil},
		{"friend self explicit", friend, "f1", "f1", nil},
		{"friend other", friend, "f2", "", apperrors.ErrPermissionDenied},
		{"anonymous", context.Background(), "f1", "", apperrors.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScopeFriend(tt.ctx, tt.in)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggingInterceptor_LevelsByCode(t *testing.T) {
	var logs bytes.Buffer
	interceptor := NewLoggingInterceptor(slog.New(slog.NewTextHandler(&logs, nil)))

	fail := func(err error) connect.UnaryFunc {
		return func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, err
		}
	}
	req := connect.NewRequest(&api.ListFriendsRequest{})

	_, _ = interceptor.WrapUnary(fail(connect.NewError(connect.CodeNotFound, errors.New("friend not found"))))(context.Background(), req)
	_, _ = interceptor.WrapUnary(fail(errors.New("boom")))(context.Background(), req)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "level=WARN")
	assert.Contains(t, lines[0], "code=not_found")
	assert.Contains(t, lines[1], "level=ERROR")
	assert.Contains(t, lines[1], "boom")
}
