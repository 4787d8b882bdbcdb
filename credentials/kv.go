package credentials

// Keys under which the credential pair is persisted.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// KV is the durable, synchronous key-value store the credential pair is
// persisted in. Implementations must survive process restarts and be safe
// for concurrent use.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Clear() error
}
