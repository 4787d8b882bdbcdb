// Package filekv persists credentials in a single encrypted file.
//
// The file layout is salt || nonce || ciphertext, where the ciphertext is a
// JSON object of key/value pairs sealed with XChaCha20-Poly1305 under a key
// derived from a passphrase with Argon2id. Every write replaces the file
// atomically through a temporary file and rename.
package filekv

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	saltSize = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	ErrMissingPassphrase = errors.New("filekv: passphrase is required")
	ErrCorruptFile       = errors.New("filekv: credential file is corrupt or the passphrase is wrong")
)

var _ credentials.KV = (*FileKV)(nil)

type FileKV struct {
	path   string
	salt   []byte
	aead   cipher.AEAD
	values map[string]string
	mu     sync.Mutex
}

// Open loads the credential file at path, or prepares an empty store if the
// file does not exist yet. The file is only created on the first Set.
func Open(path, passphrase string) (*FileKV, error) {
	if passphrase == "" {
		return nil, ErrMissingPassphrase
	}

	kv := &FileKV{
		path:   path,
		values: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		kv.salt = make([]byte, saltSize)
		if _, err := rand.Read(kv.salt); err != nil {
			return nil, errors.Wrap(err, "filekv.Open rand.Read")
		}
		if err := kv.initCipher(passphrase); err != nil {
			return nil, err
		}
		return kv, nil
	case err != nil:
		return nil, errors.Wrap(err, "filekv.Open os.ReadFile")
	}

	if len(raw) < saltSize {
		return nil, ErrCorruptFile
	}
	kv.salt = raw[:saltSize]
	if err := kv.initCipher(passphrase); err != nil {
		return nil, err
	}
	if err := kv.decode(raw[saltSize:]); err != nil {
		return nil, err
	}
	return kv, nil
}

func (kv *FileKV) initCipher(passphrase string) error {
	key := argon2.IDKey([]byte(passphrase), kv.salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return errors.Wrap(err, "filekv chacha20poly1305.NewX")
	}
	kv.aead = aead
	return nil
}

func (kv *FileKV) decode(sealed []byte) error {
	nonceSize := kv.aead.NonceSize()
	if len(sealed) < nonceSize {
		return ErrCorruptFile
	}
	plain, err := kv.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], kv.salt)
	if err != nil {
		return ErrCorruptFile
	}
	if err := json.Unmarshal(plain, &kv.values); err != nil {
		return errors.Wrap(err, "filekv decode json.Unmarshal")
	}
	return nil
}

func (kv *FileKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *FileKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	previous, existed := kv.values[key]
	kv.values[key] = value
	if err := kv.persist(); err != nil {
		if existed {
			kv.values[key] = previous
		} else {
			delete(kv.values, key)
		}
		return err
	}
	return nil
}

// Clear drops every key and removes the file. The salt is kept in memory so
// later writes stay readable with the same passphrase.
func (kv *FileKV) Clear() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.values = make(map[string]string)
	if err := os.Remove(kv.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "FileKV.Clear os.Remove")
	}
	return nil
}

func (kv *FileKV) persist() error {
	plain, err := json.Marshal(kv.values)
	if err != nil {
		return errors.Wrap(err, "FileKV.persist json.Marshal")
	}

	nonce := make([]byte, kv.aead.NonceSize(), kv.aead.NonceSize()+len(plain)+kv.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "FileKV.persist rand.Read")
	}
	sealed := kv.aead.Seal(nonce, nonce, plain, kv.salt)

	dir := filepath.Dir(kv.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "FileKV.persist os.MkdirAll")
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "FileKV.persist os.CreateTemp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(append([]byte{}, kv.salt...), sealed...)); err != nil {
		tmp.Close()
		return errors.Wrap(err, "FileKV.persist Write")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "FileKV.persist Sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "FileKV.persist Close")
	}
	if err := os.Rename(tmp.Name(), kv.path); err != nil {
		return errors.Wrap(err, "FileKV.persist os.Rename")
	}
	return nil
}
