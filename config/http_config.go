package config

import (
	"strings"
	"time"
)

const (
	baseURLVar        = "API_BASE_URL"
	loginPathVar      = "LOGIN_PATH"
	refreshPathVar    = "REFRESH_PATH"
	requestTimeoutVar = "REQUEST_TIMEOUT"
	refreshTimeoutVar = "REFRESH_TIMEOUT"

	DefaultBaseURL        = "https://api.wetrippo.com/api"
	DefaultLoginPath      = "/auth/admin/login"
	DefaultRefreshPath    = "/auth/refresh"
	DefaultRequestTimeout = 30 * time.Second
	DefaultRefreshTimeout = 15 * time.Second
)

type HTTP struct{}

var _ HTTPConfig = HTTP{}

// GetBaseURL returns the API root every request path is joined onto,
// without a trailing slash.
func (HTTP) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, DefaultBaseURL), "/")
}

func (HTTP) GetLoginPath() string {
	return GetEnv(loginPathVar, DefaultLoginPath)
}

func (HTTP) GetRefreshPath() string {
	return GetEnv(refreshPathVar, DefaultRefreshPath)
}

func (HTTP) GetRequestTimeout() time.Duration {
	return GetDurationEnv(requestTimeoutVar, DefaultRequestTimeout)
}

// GetRefreshTimeout bounds a single call to the refresh endpoint. Every
// caller queued behind that call is released when it expires.
func (HTTP) GetRefreshTimeout() time.Duration {
	return GetDurationEnv(refreshTimeoutVar, DefaultRefreshTimeout)
}
