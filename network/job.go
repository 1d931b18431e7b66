package network

import (
	"errors"
	"fmt"
	"log/slog"
)

// SecretNamespace is the keyring namespace holding network passphrases.
const SecretNamespace = "network"

// SecretStore is a namespaced key-value store for credentials.
type SecretStore interface {
	// FindSecret returns the stored value and whether one was found.
	FindSecret(namespace, id string) (string, bool, error)
	StoreSecret(namespace, id, value string) error
	EraseSecret(namespace, id string) error
}

// Prompter asks a user for a passphrase. It returns false when the user
// cancelled.
type Prompter interface {
	PromptPassphrase(id string) (string, bool)
}

// PromptFunc adapts a function to the Prompter interface.
type PromptFunc func(id string) (string, bool)

func (f PromptFunc) PromptPassphrase(id string) (string, bool) { return f(id) }

// PassphraseStorage is what a Connection uses to obtain and persist its
// credentials while connecting.
type PassphraseStorage interface {
	// GetPassphrase returns ErrCancelled when no passphrase could be obtained.
	GetPassphrase(id string) (string, error)
	StorePassphrase(id, passphrase string) error
	InvalidatePassphrase(id string) error
}

// ConnectionJob connects a single Connection, sourcing passphrases from a
// SecretStore and falling back to an interactive prompt.
type ConnectionJob struct {
	Connection Connection
	Secrets    SecretStore
	Prompter   Prompter
	Logger     *slog.Logger
}

// NewConnectionJob creates a job for c. A nil prompter makes every missing
// passphrase a cancellation.
func NewConnectionJob(c Connection, secrets SecretStore, prompter Prompter, logger *slog.Logger) *ConnectionJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionJob{
		Connection: c,
		Secrets:    secrets,
		Prompter:   prompter,
		Logger:     logger,
	}
}

// Run performs exactly one connection attempt.
func (j *ConnectionJob) Run() error {
	if j.Connection == nil {
		return fmt.Errorf("no connection to run: %w", ErrNotFound)
	}
	j.Logger.Info("connecting", "id", j.Connection.ID(), "interface", j.Connection.Interface())
	cfg, err := j.Connection.Connect(j)
	if err != nil {
		j.Logger.Warn("connect failed", "id", j.Connection.ID(), "error", err)
		return fmt.Errorf("connect %s: %w", j.Connection.ID(), err)
	}
	j.Logger.Info("connected", "id", j.Connection.ID(), "method", cfg.Method.String())
	return nil
}

// GetPassphrase looks up the stored secret for id and asks the user when
// there is none.
func (j *ConnectionJob) GetPassphrase(id string) (string, error) {
	if j.Secrets != nil {
		secret, ok, err := j.Secrets.FindSecret(SecretNamespace, id)
		switch {
		case err != nil:
			j.Logger.Warn("secret lookup failed", "id", id, "error", err)
		case ok:
			return secret, nil
		}
	}

	if j.Prompter == nil {
		return "", ErrCancelled
	}
	passphrase, ok := j.Prompter.PromptPassphrase(id)
	if !ok {
		return "", ErrCancelled
	}
	return passphrase, nil
}

// StorePassphrase persists a passphrase under the network namespace.
func (j *ConnectionJob) StorePassphrase(id, passphrase string) error {
	if j.Secrets == nil {
		return fmt.Errorf("store passphrase: %w", ErrNotAvailable)
	}
	if err := j.Secrets.StoreSecret(SecretNamespace, id, passphrase); err != nil {
		return fmt.Errorf("store passphrase: %w", err)
	}
	return nil
}

// InvalidatePassphrase erases the stored passphrase for id.
func (j *ConnectionJob) InvalidatePassphrase(id string) error {
	if j.Secrets == nil {
		return fmt.Errorf("invalidate passphrase: %w", ErrNotAvailable)
	}
	if err := j.Secrets.EraseSecret(SecretNamespace, id); err != nil {
		return fmt.Errorf("invalidate passphrase: %w", err)
	}
	return nil
}

// IsCancelled reports whether err stems from the user declining to enter a
// passphrase.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
