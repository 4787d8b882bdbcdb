package credentials

import "golang.org/x/oauth2"

// Credential is the access/refresh token pair identifying an authenticated
// session. It is owned by a Store; callers hold copies only for the lifetime
// of a single request.
type Credential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IsZero reports whether the credential carries no access token.
func (c Credential) IsZero() bool {
	return c.AccessToken == ""
}

// OAuth2Token converts the credential into a bearer oauth2.Token so it can
// be attached with (*oauth2.Token).SetAuthHeader.
func (c Credential) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
}
