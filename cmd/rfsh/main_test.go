package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		target string
		user   string
		host   string
		port   int
		err    bool
	}{
		{target: "nas", host: "nas"},
		{target: "alice@nas", user: "alice", host: "nas"},
		{target: "alice@nas:2222", user: "alice", host: "nas", port: 2222},
		{target: "nas:22", host: "nas", port: 22},
		{target: "me@corp@nas", user: "me@corp", host: "nas"},
		{target: "[::1]:2200", host: "::1", port: 2200},
		{target: "bob@[fe80::1]", user: "bob", host: "fe80::1"},
		{target: "fe80::1", host: "fe80::1"},
		{target: "nas:http", err: true},
		{target: "nas:0", err: true},
		{target: "alice@", err: true},
		{target: "[::1", err: true},
		{target: "[::1]x", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			user, host, port, err := parseTarget(tt.target)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.user, user)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
		})
	}
}

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-p", "2200", "-l", "bob", "--log", "/tmp/rfsh.log", "nas"})
	require.NoError(t, err)
	assert.Equal(t, 2200, opts.port)
	assert.Equal(t, "bob", opts.login)
	assert.Equal(t, "/tmp/rfsh.log", opts.logFile)
	assert.Equal(t, "nas", opts.target)

	opts, err = parseArgs([]string{"--version"})
	require.NoError(t, err)
	assert.True(t, opts.showVersion)

	_, err = parseArgs([]string{"a", "b"})
	assert.Error(t, err)

	_, err = parseArgs([]string{"--bogus"})
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remote:\n  host: fromfile\n  user: carol\n  port: 2022\n"), 0600))

	cfg, err := loadConfig(options{configFile: path})
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.Remote.Host)
	assert.Equal(t, "carol", cfg.Remote.User)
	assert.Equal(t, 2022, cfg.Remote.Port)

	cfg, err = loadConfig(options{configFile: path, target: "alice@nas:2222", identity: "~/.ssh/key"})
	require.NoError(t, err)
	assert.Equal(t, "nas", cfg.Remote.Host)
	assert.Equal(t, "alice", cfg.Remote.User)
	assert.Equal(t, 2222, cfg.Remote.Port)
	assert.Equal(t, filepath.Join(home, ".ssh/key"), cfg.Remote.IdentityFile)

	cfg, err = loadConfig(options{configFile: path, target: "nas", port: 2200, login: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 2200, cfg.Remote.Port)
	assert.Equal(t, "bob", cfg.Remote.User)

	_, err = loadConfig(options{configFile: path, target: "nas:bad"})
	assert.Error(t, err)
}

func TestCreateConfigTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfsh", "config.yaml")
	require.NoError(t, createConfigTemplate(path))

	cfg, err := loadConfig(options{configFile: path, target: "nas"})
	require.NoError(t, err)
	assert.Equal(t, ">>: ", cfg.Shell.Prompt)
	assert.Equal(t, "rsync", cfg.Shell.RsyncPath)
	assert.Equal(t, 3, cfg.Remote.KeepAliveMaxMissed)
}
