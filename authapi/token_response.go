package authapi

import "github.com/jrsteele09/go-auth-client/credentials"

// TokenResponse is the body returned by both the login and the refresh
// endpoint.
type TokenResponse struct {
	// AccessToken is attached to every request as "Authorization: Bearer <token>".
	// Lifespan: short; expiry is reported by the server as a 401.
	AccessToken string `json:"accessToken"`

	// RefreshToken is exchanged at the refresh endpoint for a new pair.
	// The server may rotate it on every exchange, so the previous value must
	// not be reused once a new one has been stored.
	RefreshToken string `json:"refreshToken"`
}

func (r TokenResponse) credential() credentials.Credential {
	return credentials.Credential{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}

// LoginRequest is the body of the admin login endpoint.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RefreshRequest is the body of the refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
