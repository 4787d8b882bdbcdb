package credentials

import (
	"fmt"
	"sync"
)

// Store gives synchronous access to the current Credential. Writes of the
// pair are serialised so a reader never observes an access token from one
// credential and a refresh token from another.
//
// Every write or clear advances the store's epoch. A writer that read the
// epoch earlier can use SetIfEpoch and ClearIfEpoch to act only if nothing
// else has changed the credential in between.
type Store struct {
	kv    KV
	mu    sync.RWMutex
	epoch uint64
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Get returns the current credential. A missing or empty access token is
// reported as absent.
func (s *Store) Get() (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	access, ok, err := s.kv.Get(AccessTokenKey)
	if err != nil {
		return Credential{}, false, storageErr("get access token", err)
	}
	if !ok || access == "" {
		return Credential{}, false, nil
	}
	refresh, _, err := s.kv.Get(RefreshTokenKey)
	if err != nil {
		return Credential{}, false, storageErr("get refresh token", err)
	}
	return Credential{AccessToken: access, RefreshToken: refresh}, true, nil
}

// RefreshToken returns the stored refresh token on its own, which stays
// usable when the access token has already been dropped.
func (s *Store) RefreshToken() (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refresh, ok, err := s.kv.Get(RefreshTokenKey)
	if err != nil {
		return "", false, storageErr("get refresh token", err)
	}
	return refresh, ok && refresh != "", nil
}

// Epoch returns the store's current generation.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *Store) Set(c Credential) error {
	if c.IsZero() {
		return ErrEmptyAccessToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(c)
}

// SetIfEpoch stores c only if the epoch is still epoch. It reports whether
// the credential was written.
func (s *Store) SetIfEpoch(epoch uint64, c Credential) (bool, error) {
	if c.IsZero() {
		return false, ErrEmptyAccessToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false, nil
	}
	return true, s.set(c)
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear()
}

// ClearIfEpoch clears the store only if the epoch is still epoch.
func (s *Store) ClearIfEpoch(epoch uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false, nil
	}
	return true, s.clear()
}

// ClearIfAccessToken clears the store only if it still holds accessToken.
// A newer credential written by someone else is left in place.
func (s *Store) ClearIfAccessToken(accessToken string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.kv.Get(AccessTokenKey)
	if err != nil {
		return false, storageErr("get access token", err)
	}
	if !ok || current != accessToken {
		return false, nil
	}
	return true, s.clear()
}

func (s *Store) set(c Credential) error {
	s.epoch++
	if err := s.kv.Set(AccessTokenKey, c.AccessToken); err != nil {
		return storageErr("set access token", err)
	}
	if err := s.kv.Set(RefreshTokenKey, c.RefreshToken); err != nil {
		return storageErr("set refresh token", err)
	}
	return nil
}

func (s *Store) clear() error {
	s.epoch++
	if err := s.kv.Clear(); err != nil {
		return storageErr("clear", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
