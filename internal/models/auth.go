package models

import "github.com/golang-jwt/jwt/v5"

// LoginStatus is the outcome reported by the login and register endpoints.
type LoginStatus int

const (
	StatusOK              LoginStatus = 0
	StatusInvalidLogin    LoginStatus = 1
	StatusTooManyAttempts LoginStatus = 2
	StatusEmailInUse      LoginStatus = 3
	StatusInvalidInfo     LoginStatus = 4
)

var loginStatusText = map[LoginStatus]string{
	StatusOK:              "ok",
	StatusInvalidLogin:    "invalid email or password",
	StatusTooManyAttempts: "too many login attempts",
	StatusEmailInUse:      "email already in use",
	StatusInvalidInfo:     "invalid registration information",
}

// String describes the status for humans.
func (s LoginStatus) String() string {
	if text, ok := loginStatusText[s]; ok {
		return text
	}
	return "unknown status"
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// LoginResponse is returned by both login and register.
type LoginResponse struct {
	Status    LoginStatus `json:"status"`
	AuthToken string      `json:"authToken,omitempty"`
	User      *User       `json:"user"`
}

// OK reports whether the server accepted the credentials.
func (r *LoginResponse) OK() bool {
	return r != nil && r.Status == StatusOK
}

// AccessClaims is the JWT payload carried by X-Access-Token.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
