// Package config handles loading and saving application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "rfsh"

// Config represents the application configuration.
type Config struct {
	Remote RemoteConfig `yaml:"remote"`
	Shell  ShellConfig  `yaml:"shell"`
	Log    LogConfig    `yaml:"log"`
}

// RemoteConfig holds connection and authentication settings.
type RemoteConfig struct {
	Host         string `yaml:"host,omitempty"`
	Port         int    `yaml:"port,omitempty"`
	User         string `yaml:"user,omitempty"`
	IdentityFile string `yaml:"identity_file,omitempty"`
	KnownHosts   string `yaml:"known_hosts,omitempty"`
	UseAgent     bool   `yaml:"use_agent"`

	// Host key policy
	InsecureIgnoreHostKey bool `yaml:"insecure_ignore_host_key"`
	AcceptNewHostKeys     bool `yaml:"accept_new_host_keys"`

	Timeout            Duration `yaml:"timeout"`
	KeepAliveInterval  Duration `yaml:"keepalive_interval"`
	KeepAliveMaxMissed int      `yaml:"keepalive_max_missed"`
}

// ShellConfig holds settings for the interactive shell.
type ShellConfig struct {
	Prompt          string   `yaml:"prompt"`
	HistoryFile     string   `yaml:"history_file,omitempty"`
	CommandTimeout  Duration `yaml:"command_timeout"`
	DownloadDir     string   `yaml:"download_dir,omitempty"`
	RsyncPath       string   `yaml:"rsync_path"`
	NotifyTransfers bool     `yaml:"notify_transfers"`
}

// LogConfig holds logging settings. An empty File disables logging.
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Port:               22,
			KnownHosts:         "~/.ssh/known_hosts",
			UseAgent:           true,
			Timeout:            Duration(30 * time.Second),
			KeepAliveInterval:  Duration(30 * time.Second),
			KeepAliveMaxMissed: 3,
		},
		Shell: ShellConfig{
			Prompt:         ">>: ",
			CommandTimeout: Duration(5 * time.Minute),
			RsyncPath:      "rsync",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the path to the configuration directory.
// Uses XDG_CONFIG_HOME or defaults to ~/.config/rfsh/
func ConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configHome, appName), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration from the default config file.
// If the file doesn't exist, returns a default configuration.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path, falling back to defaults
// when the file doesn't exist.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.expandPaths()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveFile writes the configuration to path.
func SaveFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// HasHost returns true if a remote host is configured.
func (c *Config) HasHost() bool {
	return c.Remote.Host != ""
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Remote.IdentityFile,
		&c.Remote.KnownHosts,
		&c.Shell.HistoryFile,
		&c.Shell.DownloadDir,
		&c.Log.File,
	} {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
