package auth

type LogInRequest struct {
	Password string `json:"password" validate:"required"`
}

type LogInResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}
