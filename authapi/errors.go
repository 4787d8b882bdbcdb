package authapi

import "errors"

var (
	ErrMalformedTokenResponse = errors.New("malformed token response")
	ErrMissingLogin           = errors.New("login and password are required")
	ErrMissingRefreshToken    = errors.New("refresh token is required")
)
