package keyring

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/pbkdf2"
)

const (
	KeySize          = 32
	SaltSize         = 16
	NonceSize        = 12
	PBKDF2Iterations = 100_000

	// defaultPassphrase is used when none is configured. It keeps secrets
	// out of plain view but is no protection against someone who can read
	// this source.
	defaultPassphrase = "netmgr"
)

// fileFormat is the on-disk TOML document.
type fileFormat struct {
	Salt    string                       `toml:"salt"`
	Secrets map[string]map[string]string `toml:"secrets"`
}

// File stores secrets in a TOML file, each value sealed with AES-256-GCM
// under a key derived from a passphrase.
type File struct {
	path string

	mu      sync.Mutex
	salt    []byte
	gcm     cipher.AEAD
	secrets map[string]map[string]string
}

// OpenFile loads the keyring at path, creating an empty one in memory when
// the file does not exist yet. An empty passphrase selects a built-in one.
func OpenFile(path, passphrase string) (*File, error) {
	if passphrase == "" {
		passphrase = defaultPassphrase
	}
	f := &File{path: path, secrets: make(map[string]map[string]string)}

	var doc fileFormat
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.salt = make([]byte, SaltSize)
		if _, err := rand.Read(f.salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read keyring: %w", err)
	default:
		if _, err := toml.Decode(string(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode keyring %s: %w", path, err)
		}
		f.salt, err = base64.StdEncoding.DecodeString(doc.Salt)
		if err != nil || len(f.salt) != SaltSize {
			return nil, fmt.Errorf("keyring %s: bad salt", path)
		}
	}

	key := pbkdf2.Key([]byte(passphrase), f.salt, PBKDF2Iterations, KeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	f.gcm, err = cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	for ns, values := range doc.Secrets {
		f.secrets[ns] = make(map[string]string, len(values))
		for id, sealed := range values {
			plain, err := f.open(sealed)
			if err != nil {
				return nil, fmt.Errorf("keyring %s: %w", path, err)
			}
			f.secrets[ns][id] = plain
		}
	}
	return f, nil
}

func (f *File) seal(plain string) (string, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := f.gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (f *File) open(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(sealed) < NonceSize+f.gcm.Overhead() {
		return "", ErrInvalidCiphertext
	}
	plain, err := f.gcm.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return "", ErrWrongPassphrase
	}
	return string(plain), nil
}

func (f *File) FindSecret(namespace, id string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.secrets[namespace][id]
	return v, ok, nil
}

func (f *File) StoreSecret(namespace, id, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.secrets[namespace] == nil {
		f.secrets[namespace] = make(map[string]string)
	}
	f.secrets[namespace][id] = value
	return f.save()
}

func (f *File) EraseSecret(namespace, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secrets[namespace][id]; !ok {
		return nil
	}
	delete(f.secrets[namespace], id)
	return f.save()
}

// save writes the whole keyring to a temporary file and renames it over
// the old one. Callers hold mu.
func (f *File) save() error {
	doc := fileFormat{
		Salt:    base64.StdEncoding.EncodeToString(f.salt),
		Secrets: make(map[string]map[string]string, len(f.secrets)),
	}
	for ns, values := range f.secrets {
		doc.Secrets[ns] = make(map[string]string, len(values))
		for id, plain := range values {
			sealed, err := f.seal(plain)
			if err != nil {
				return err
			}
			doc.Secrets[ns][id] = sealed
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode keyring: %w", err)
	}
	tmp := f.path + ".temp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace keyring: %w", err)
	}
	return nil
}
