package models

import "time"

// User represents a row in the users table.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"` // never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns the user view safe for API responses.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Login:     u.Login,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is the user shape returned by auth endpoints.
type PublicUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Login     string    `json:"login"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /api/auth/login. Login may be
// either the email or the login name.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse is the success body for register and login.
type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *PublicUser `json:"user"`
}
