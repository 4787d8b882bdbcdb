package session

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-auth-client/config"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/credentials/filekv"
	"github.com/jrsteele09/go-auth-client/credentials/kvfake"
	"github.com/jrsteele09/go-auth-client/credentials/rediskv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewFromConfig builds a Client from cfg: credential backend, endpoints,
// timeouts and log level. opts are applied after the configured values
// and override them.
func NewFromConfig(cfg config.Config, opts ...Option) (*Client, error) {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		log.Warn().Str("level", cfg.GetLogLevel()).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	logger := log.Logger.Level(level).With().Str("app", cfg.GetAppName()).Str("env", cfg.GetEnv()).Logger()

	kv, err := newKV(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("backend", cfg.GetCredentialBackend()).Str("base_url", cfg.GetBaseURL()).Msg("Session client configured")

	configured := []Option{
		WithLogger(logger),
		WithHTTPClient(&http.Client{Timeout: cfg.GetRequestTimeout()}),
		WithLoginPath(cfg.GetLoginPath()),
		WithRefreshPath(cfg.GetRefreshPath()),
		WithRefreshTimeout(cfg.GetRefreshTimeout()),
	}
	return New(cfg.GetBaseURL(), kv, append(configured, opts...)...), nil
}

func newKV(cfg config.StorageConfig) (credentials.KV, error) {
	switch cfg.GetCredentialBackend() {
	case config.BackendFile:
		kv, err := filekv.Open(cfg.GetCredentialFile(), cfg.GetCredentialKey())
		if err != nil {
			return nil, fmt.Errorf("[session NewFromConfig] %w", err)
		}
		return kv, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		return rediskv.New(client, cfg.GetRedisPrefix()), nil
	case config.BackendMemory:
		return kvfake.NewFakeKV(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.GetCredentialBackend())
}
