package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "debtledger.v1.AuthService"

// These constants are the fully-qualified names of the RPCs defined in AuthService.
const (
	AuthServiceLoginAdminProcedure  = "/debtledger.v1.AuthService/LoginAdmin"
	AuthServiceLoginFriendProcedure = "/debtledger.v1.AuthService/LoginFriend"
)

// PublicProcedures can be called without a session token.
var PublicProcedures = []string{
	AuthServiceLoginAdminProcedure,
	AuthServiceLoginFriendProcedure,
}

// AuthServiceClient is a client for the debtledger.v1.AuthService service.
type AuthServiceClient interface {
	LoginAdmin(context.Context, *connect.Request[api.LoginAdminRequest]) (*connect.Response[api.LoginResponse], error)
	LoginFriend(context.Context, *connect.Request[api.LoginFriendRequest]) (*connect.Response[api.LoginResponse], error)
}

// NewAuthServiceClient constructs a client for the debtledger.v1.AuthService service.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &authServiceClient{
		loginAdmin:  connect.NewClient[api.LoginAdminRequest, api.LoginResponse](httpClient, baseURL+AuthServiceLoginAdminProcedure, opts...),
		loginFriend: connect.NewClient[api.LoginFriendRequest, api.LoginResponse](httpClient, baseURL+AuthServiceLoginFriendProcedure, opts...),
	}
}

// authServiceClient implements AuthServiceClient.
type authServiceClient struct {
	loginAdmin  *connect.Client[api.LoginAdminRequest, api.LoginResponse]
	loginFriend *connect.Client[api.LoginFriendRequest, api.LoginResponse]
}

func (c *authServiceClient) LoginAdmin(ctx context.Context, req *connect.Request[api.LoginAdminRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.loginAdmin.CallUnary(ctx, req)
}

func (c *authServiceClient) LoginFriend(ctx context.Context, req *connect.Request[api.LoginFriendRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.loginFriend.CallUnary(ctx, req)
}

// AuthServiceHandler is an implementation of the debtledger.v1.AuthService service.
type AuthServiceHandler interface {
	LoginAdmin(context.Context, *connect.Request[api.LoginAdminRequest]) (*connect.Response[api.LoginResponse], error)
	LoginFriend(context.Context, *connect.Request[api.LoginFriendRequest]) (*connect.Response[api.LoginResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	loginAdminHandler := connect.NewUnaryHandler(AuthServiceLoginAdminProcedure, svc.LoginAdmin, opts...)
	loginFriendHandler := connect.NewUnaryHandler(AuthServiceLoginFriendProcedure, svc.LoginFriend, opts...)
	return "/debtledger.v1.AuthService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceLoginAdminProcedure:
			loginAdminHandler.ServeHTTP(w, r)
		case AuthServiceLoginFriendProcedure:
			loginFriendHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
