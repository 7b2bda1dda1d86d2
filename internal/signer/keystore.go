package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

// ErrKeyNotFound is returned when no private key is stored under a name.
var ErrKeyNotFound = keyring.ErrNotFound

// KeyStore keeps signing authority private keys in the OS keychain, with a
// JSON file fallback for hosts that have no keyring service.
type KeyStore struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewKeyStore creates a keyring wrapper.
func NewKeyStore(serviceName, fallbackPath string) *KeyStore {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "nearkarts-signer"
	}
	return &KeyStore{
		service:      serviceName,
		fallbackPath: fallbackPath,
	}
}

// Generate creates a new key under name, replacing any existing one, and
// returns it.
func (k *KeyStore) Generate(name string) (ed25519.PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("signer: generate key: %w", err)
	}
	if err := k.Put(name, priv); err != nil {
		return nil, err
	}
	return priv, nil
}

// Put stores priv under name.
func (k *KeyStore) Put(name string, priv ed25519.PrivateKey) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("signer: key name is required")
	}
	value := hex.EncodeToString(priv.Seed())

	if err := keyring.Set(k.service, name, value); err == nil {
		return nil
	} else if !isKeyringUnavailable(err) {
		return fmt.Errorf("signer: keyring set %s: %w", name, err)
	}
	return k.setFallback(name, value)
}

// Get loads the key stored under name.
func (k *KeyStore) Get(name string) (ed25519.PrivateKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("signer: key name is required")
	}

	val, err := keyring.Get(k.service, name)
	if err == nil {
		return ParsePrivateKey(val)
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("signer: keyring get %s: %w", name, err)
	}

	fallback, ferr := k.getFallback(name)
	if ferr == nil {
		return ParsePrivateKey(fallback)
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	return nil, ferr
}

// Delete removes name from the keyring and the fallback file.
func (k *KeyStore) Delete(name string) error {
	err := keyring.Delete(k.service, name)
	ferr := k.deleteFallback(name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		return fmt.Errorf("signer: keyring delete %s: %w", name, err)
	}
	return ferr
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

type fallbackKeys map[string]string

func (k *KeyStore) setFallback(name, value string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return fmt.Errorf("signer: keyring unavailable and no fallback path configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	data[name] = value
	return k.writeFallbackUnlocked(data)
}

func (k *KeyStore) getFallback(name string) (string, error) {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return "", fmt.Errorf("signer: fallback path not configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[name]
	if !ok {
		return "", ErrKeyNotFound
	}
	return val, nil
}

func (k *KeyStore) deleteFallback(name string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	delete(data, name)
	return k.writeFallbackUnlocked(data)
}

func (k *KeyStore) readFallbackUnlocked() (fallbackKeys, error) {
	out := fallbackKeys{}
	raw, err := os.ReadFile(k.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("signer: read fallback keys: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("signer: decode fallback keys: %w", err)
	}
	return out, nil
}

func (k *KeyStore) writeFallbackUnlocked(data fallbackKeys) error {
	if err := os.MkdirAll(filepath.Dir(k.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("signer: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("signer: encode fallback keys: %w", err)
	}
	if err := os.WriteFile(k.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("signer: write fallback keys: %w", err)
	}
	return nil
}
