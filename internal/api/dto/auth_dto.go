package dto

import "time"

// SignupRequest payload for new customers.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileResponse is the public view of a profile.
type ProfileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Success   bool            `json:"success"`
	User      ProfileResponse `json:"user"`
	ExpiresAt time.Time       `json:"expiresAt"`
}
