package config

import (
	"strings"
	"time"
)

// Static is a Config held in memory, for embedding applications that do not
// configure through the environment. Zero fields fall back to the defaults.
type Static struct {
	AppName           string
	Env               string
	LogLevel          string
	BaseURL           string
	LoginPath         string
	RefreshPath       string
	RequestTimeout    time.Duration
	RefreshTimeout    time.Duration
	CredentialBackend string
	CredentialFile    string
	CredentialKey     string
	RedisAddr         string
	RedisPrefix       string
}

var _ Config = Static{}

func (s Static) GetAppName() string  { return nonEmpty(s.AppName, DefaultAppName) }
func (s Static) GetEnv() string      { return nonEmpty(s.Env, "DEV") }
func (s Static) GetLogLevel() string { return nonEmpty(s.LogLevel, "info") }

func (s Static) GetBaseURL() string {
	return strings.TrimRight(nonEmpty(s.BaseURL, DefaultBaseURL), "/")
}

func (s Static) GetLoginPath() string   { return nonEmpty(s.LoginPath, DefaultLoginPath) }
func (s Static) GetRefreshPath() string { return nonEmpty(s.RefreshPath, DefaultRefreshPath) }

func (s Static) GetRequestTimeout() time.Duration {
	return nonZeroDuration(s.RequestTimeout, DefaultRequestTimeout)
}

func (s Static) GetRefreshTimeout() time.Duration {
	return nonZeroDuration(s.RefreshTimeout, DefaultRefreshTimeout)
}

func (s Static) GetCredentialBackend() string {
	return nonEmpty(s.CredentialBackend, BackendMemory)
}

func (s Static) GetCredentialFile() string {
	return nonEmpty(s.CredentialFile, DefaultCredentialFile)
}

func (s Static) GetCredentialKey() string {
	return nonEmpty(s.CredentialKey, DefaultCredentialKey)
}

func (s Static) GetRedisAddr() string   { return nonEmpty(s.RedisAddr, DefaultRedisAddr) }
func (s Static) GetRedisPrefix() string { return nonEmpty(s.RedisPrefix, DefaultRedisPrefix) }

func nonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
