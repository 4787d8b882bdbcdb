package session

import (
	"time"

	"github.com/jrsteele09/go-auth-client/credentials"
)

// Status summarises the stored credential. Subject and ExpiresAt are read
// from the access token without verification and stay empty for opaque
// tokens.
type Status struct {
	Authenticated bool
	Subject       string
	ExpiresAt     time.Time
	Expired       bool
}

// IsAuthenticated reports whether an access token is stored. A storage
// failure counts as not authenticated.
func (c *Client) IsAuthenticated() bool {
	_, ok, err := c.store.Get()
	if err != nil {
		c.logger.Err(err).Msg("Failed to read credentials")
		return false
	}
	return ok
}

func (c *Client) Status() (Status, error) {
	cred, ok, err := c.store.Get()
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, nil
	}

	status := Status{Authenticated: true}
	claims, err := credentials.ParseClaims(cred.AccessToken)
	if err != nil {
		return status, nil
	}
	status.Subject = claims.Subject
	status.ExpiresAt = claims.ExpiresAt
	status.Expired = claims.Expired()
	return status, nil
}
