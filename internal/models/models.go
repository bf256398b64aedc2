// Package models defines the request and response types exchanged over the
// HTTP API and the shared domain error sentinels.
package models

import "errors"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ShortenRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// UserURL is a single entry of a user's URL directory. The field order and
// JSON names match the rows cached under urls:{user_id}.
type UserURL struct {
	OriginalURL string `json:"original_url"`
	ShortURL    string `json:"short_url"`
}

type UserURLs []UserURL

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Sentinel errors shared across the service, storage, and router layers.
var (
	// ErrUsernameTaken is returned when registering an already existing username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials is returned on login with an unknown username
	// or a failed password comparison. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateURL is returned when the submitted URL already appears,
	// case-insensitively, among the user's known URLs.
	ErrDuplicateURL = errors.New("URL already shortened by this user")

	// ErrShortURLNotFound is returned when the shortening service does not
	// know the requested short code.
	ErrShortURLNotFound = errors.New("short URL not found")
)
