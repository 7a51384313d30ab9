package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = appName
	passwordEnv    = "RFSH_PASSWORD"
)

// DataDir returns the path to the data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/rfsh/
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}

	dataDir := filepath.Join(dataHome, appName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

// DefaultHistoryPath returns the history file used when none is configured.
func DefaultHistoryPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// KeyringUser returns the keyring account name for a login.
func KeyringUser(user, host string) string {
	return user + "@" + host
}

// GetPassword retrieves the SSH password for user@host.
// Priority: 1. RFSH_PASSWORD env var, 2. System keyring
// Returns "" without error when no password is stored.
func GetPassword(user, host string) (string, error) {
	if password := os.Getenv(passwordEnv); password != "" {
		return password, nil
	}

	password, err := keyring.Get(keyringService, KeyringUser(user, host))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}

	return password, nil
}

// SavePassword stores the SSH password for user@host in the system keyring.
func SavePassword(user, host, password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if err := keyring.Set(keyringService, KeyringUser(user, host), password); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// ClearPassword removes the stored password for user@host.
func ClearPassword(user, host string) error {
	err := keyring.Delete(keyringService, KeyringUser(user, host))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring entry: %w", err)
	}
	return nil
}
