package kvfake

import (
	"sync"

	"github.com/jrsteele09/go-auth-client/credentials"
)

var _ credentials.KV = (*FakeKV)(nil)

// FakeKV is an in-memory credentials.KV. It does not survive a restart and
// is meant for tests and the "memory" backend.
type FakeKV struct {
	values map[string]string
	err    error
	lock   sync.RWMutex
}

func NewFakeKV() *FakeKV {
	return &FakeKV{
		values: make(map[string]string),
	}
}

// FailWith makes every subsequent call return err. Passing nil restores
// normal behaviour.
func (kv *FakeKV) FailWith(err error) {
	kv.lock.Lock()
	defer kv.lock.Unlock()
	kv.err = err
}

func (kv *FakeKV) Get(key string) (string, bool, error) {
	kv.lock.RLock()
	defer kv.lock.RUnlock()

	if kv.err != nil {
		return "", false, kv.err
	}
	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *FakeKV) Set(key, value string) error {
	kv.lock.Lock()
	defer kv.lock.Unlock()

	if kv.err != nil {
		return kv.err
	}
	kv.values[key] = value
	return nil
}

func (kv *FakeKV) Clear() error {
	kv.lock.Lock()
	defer kv.lock.Unlock()

	if kv.err != nil {
		return kv.err
	}
	kv.values = make(map[string]string)
	return nil
}

// Len returns the number of stored keys.
func (kv *FakeKV) Len() int {
	kv.lock.RLock()
	defer kv.lock.RUnlock()
	return len(kv.values)
}
