package auth

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/hy4ri/rfsh/internal/config"
	"github.com/hy4ri/rfsh/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// HostKeyCallback verifies server keys against the known_hosts file. Unknown
// hosts are recorded when AcceptNewHostKeys is set and rejected otherwise.
// A changed key always fails.
func HostKeyCallback(cfg config.RemoteConfig, logger *zap.Logger) (ssh.HostKeyCallback, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	if cfg.InsecureIgnoreHostKey {
		logger.Warn("host key verification disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := cfg.KnownHosts
	if path == "" {
		return nil, errors.New("no known_hosts file configured")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts directory: %w", err)
		}
		if err := os.WriteFile(path, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts file: %w", err)
		}
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts: %w", err)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) || len(keyErr.Want) > 0 {
			return err
		}

		fingerprint := ssh.FingerprintSHA256(key)
		if !cfg.AcceptNewHostKeys {
			return fmt.Errorf("unknown host key for %s (%s %s); enable accept_new_host_keys or add it to %s",
				hostname, key.Type(), fingerprint, path)
		}

		if err := appendKnownHost(path, hostname, key); err != nil {
			return err
		}
		logger.Info("added host key", zap.String("host", hostname), zap.String("type", key.Type()), zap.String("fingerprint", fingerprint))
		return nil
	}, nil
}

func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts: %w", err)
	}
	defer f.Close()

	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("failed to write known_hosts: %w", err)
	}
	return nil
}
