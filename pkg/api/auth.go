package api

type LoginAdminRequest struct {
	Password string `json:"password" validate:"required"`
}

type LoginFriendRequest struct {
	AccessCode string `json:"accessCode" validate:"required,len=6,numeric"`
}

// LoginResponse carries a bearer token for the Authorization header.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt Timestamp `json:"expiresAt"`
	Role      string    `json:"role"`
	FriendID  string    `json:"friendId,omitempty"`
	Name      string    `json:"name"`
}
