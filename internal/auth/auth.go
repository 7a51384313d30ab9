// Package auth builds SSH authentication methods and host key verification
// from the remote configuration.
package auth

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/hy4ri/rfsh/internal/config"
	"github.com/hy4ri/rfsh/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// Prompt asks the user a question. echo reports whether the answer may be
// shown while typing.
type Prompt func(question string, echo bool) (string, error)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Methods returns the authentication methods to try, in order: SSH agent,
// identity file, password, keyboard-interactive. The returned closer releases
// the agent connection and must be called after the handshake.
func Methods(cfg config.RemoteConfig, prompt Prompt, logger *zap.Logger) ([]ssh.AuthMethod, io.Closer, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	var methods []ssh.AuthMethod
	var closer io.Closer = nopCloser{}

	// 1. SSH agent
	if cfg.UseAgent {
		if conn, method := agentAuth(logger); method != nil {
			methods = append(methods, method)
			closer = conn
			logger.Debug("added agent authentication")
		}
	}

	// 2. Identity file
	if cfg.IdentityFile != "" {
		method, err := publicKeyAuth(cfg.IdentityFile, prompt)
		if err != nil {
			closer.Close()
			return nil, nil, err
		}
		methods = append(methods, method)
		logger.Debug("added public key authentication", zap.String("identity_file", cfg.IdentityFile))
	}

	// 3. Password
	password, err := config.GetPassword(cfg.User, cfg.Host)
	if err != nil {
		logger.Warn("password lookup failed", zap.Error(err))
	}
	if password != "" {
		methods = append(methods, ssh.Password(password))
		logger.Debug("added password authentication")
	}

	// 4. Keyboard-interactive, which also covers servers that only ask for
	// the password this way.
	methods = append(methods, ssh.KeyboardInteractive(keyboardInteractive(password, prompt, logger)))

	return methods, closer, nil
}

func agentAuth(logger *zap.Logger) (net.Conn, ssh.AuthMethod) {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		logger.Warn("could not connect to SSH agent", zap.Error(err))
		return nil, nil
	}

	return conn, ssh.PublicKeysCallback(agent.NewClient(conn).Signers)
}

func publicKeyAuth(path string, prompt Prompt) (ssh.AuthMethod, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", path, err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if !errors.As(err, &missing) {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		if prompt == nil {
			return nil, fmt.Errorf("private key %s is encrypted but no passphrase prompt is available", path)
		}

		passphrase, err := prompt(fmt.Sprintf("Enter passphrase for %s: ", path), false)
		if err != nil {
			return nil, fmt.Errorf("failed to get key passphrase: %w", err)
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key with passphrase: %w", err)
		}
	}

	return ssh.PublicKeys(signer), nil
}

func keyboardInteractive(password string, prompt Prompt, logger *zap.Logger) ssh.KeyboardInteractiveChallenge {
	return func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		logger.Debug("keyboard-interactive challenge", zap.String("user", user), zap.Int("questions", len(questions)))

		answers := make([]string, len(questions))
		for i, question := range questions {
			if password != "" && strings.Contains(strings.ToLower(question), "password") {
				answers[i] = password
				continue
			}
			if prompt == nil {
				return nil, fmt.Errorf("no handler for keyboard-interactive question: %q", question)
			}

			answer, err := prompt(question, echos[i])
			if err != nil {
				return nil, fmt.Errorf("failed to get answer for %q: %w", question, err)
			}
			answers[i] = answer
		}
		return answers, nil
	}
}
