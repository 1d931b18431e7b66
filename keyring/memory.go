// Package keyring implements network.SecretStore.
package keyring

import (
	"errors"
	"sync"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrWrongPassphrase   = errors.New("wrong keyring passphrase")
)

// Memory keeps secrets for the lifetime of the process.
type Memory struct {
	mu      sync.Mutex
	secrets map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{secrets: make(map[string]map[string]string)}
}

func (m *Memory) FindSecret(namespace, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.secrets[namespace][id]
	return v, ok, nil
}

func (m *Memory) StoreSecret(namespace, id, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.secrets[namespace] == nil {
		m.secrets[namespace] = make(map[string]string)
	}
	m.secrets[namespace][id] = value
	return nil
}

// EraseSecret is a no-op for unknown ids.
func (m *Memory) EraseSecret(namespace, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets[namespace], id)
	return nil
}
