package auth

import "time"

// LoginInput carries dashboard credentials
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=1"`
	IP       string `json:"-"`
}

// RefreshInput carries a refresh token
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserInfo is the signed-in employee profile
type UserInfo struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Department  string   `json:"department"`
	CompanyID   string   `json:"company_id"`
	Permissions []string `json:"permissions"`
}

// TokenResult is returned by login and refresh
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
	ExpiresIn             int       `json:"expires_in"`
	User                  UserInfo  `json:"user"`
}
