package credentials

import "errors"

var (
	// ErrStorage marks a failure of the underlying KV. It is a fatal
	// configuration error and is never retried.
	ErrStorage = errors.New("credential storage failure")

	ErrEmptyAccessToken = errors.New("credential has no access token")
	ErrMalformedToken   = errors.New("access token is not a JWT")
)
