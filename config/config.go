package config

import "time"

type Config interface {
	EnvConfig
	HTTPConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type HTTPConfig interface {
	GetBaseURL() string
	GetLoginPath() string
	GetRefreshPath() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
}

type StorageConfig interface {
	GetCredentialBackend() string
	GetCredentialFile() string
	GetCredentialKey() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

type mainConfig struct {
	EnvVars
	HTTP
	Storage
}

// New returns a Config backed by environment variables.
func New() Config {
	return mainConfig{}
}
