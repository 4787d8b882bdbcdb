package config

const (
	credentialBackendVar = "CREDENTIAL_BACKEND"
	credentialFileVar    = "CREDENTIAL_FILE"
	credentialKeyVar     = "CREDENTIAL_KEY"
	redisAddrVar         = "REDIS_ADDR"
	redisPrefixVar       = "REDIS_PREFIX"

	DefaultCredentialFile = "./data/credentials.enc"
	DefaultCredentialKey  = "admin-client-storage-key"
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPrefix    = "admin-client"
)

// Credential backends understood by session.NewFromConfig.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetCredentialBackend() string {
	return GetEnv(credentialBackendVar, BackendFile)
}

func (Storage) GetCredentialFile() string {
	return GetEnv(credentialFileVar, DefaultCredentialFile)
}

func (Storage) GetCredentialKey() string {
	return GetEnv(credentialKeyVar, DefaultCredentialKey)
}

func (Storage) GetRedisAddr() string {
	return GetEnv(redisAddrVar, DefaultRedisAddr)
}

func (Storage) GetRedisPrefix() string {
	return GetEnv(redisPrefixVar, DefaultRedisPrefix)
}
