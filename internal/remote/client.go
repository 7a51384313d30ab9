// Package remote runs file operations on a remote host over SSH.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hy4ri/rfsh/internal/logging"
	"github.com/hy4ri/rfsh/internal/shellwords"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

const (
	// DefaultPort is the standard SSH port.
	DefaultPort = 22

	// DefaultTimeout bounds the TCP connect and SSH handshake.
	DefaultTimeout = 30 * time.Second
)

// Options configures a connection.
type Options struct {
	Host            string
	Port            int
	User            string
	Timeout         time.Duration
	Auth            []ssh.AuthMethod
	HostKeyCallback ssh.HostKeyCallback

	// KeepAliveInterval of 0 disables keepalives.
	KeepAliveInterval  time.Duration
	KeepAliveMaxMissed int

	Logger *zap.Logger
}

// Client is a connection to one remote host plus the current remote
// directory. Commands run one at a time, each in its own session.
type Client struct {
	opts   Options
	conn   *ssh.Client
	cwd    string
	logger *zap.Logger

	keepAliveDone chan struct{}
	closeOnce     sync.Once
}

// Dial connects and authenticates, then resolves the login directory.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.HostKeyCallback == nil {
		return nil, errors.New("no host key callback configured")
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	opts.Logger.Info("connecting", zap.String("addr", addr), zap.String("user", opts.User))

	dialer := net.Dialer{Timeout: opts.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	// The deadline covers the handshake only.
	_ = netConn.SetDeadline(time.Now().Add(opts.Timeout))

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, &ssh.ClientConfig{
		User:            opts.User,
		Auth:            opts.Auth,
		HostKeyCallback: opts.HostKeyCallback,
		Timeout:         opts.Timeout,
	})
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("SSH handshake failed: %w", err)
	}
	_ = netConn.SetDeadline(time.Time{})

	c := &Client{
		opts:   opts,
		conn:   ssh.NewClient(sshConn, chans, reqs),
		logger: opts.Logger,
	}

	out, err := c.Run(ctx, "pwd")
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to resolve remote directory: %w", err)
	}
	c.cwd = strings.TrimSpace(string(out))

	if opts.KeepAliveInterval > 0 {
		c.startKeepAlive()
	}

	c.logger.Info("connected", zap.String("addr", addr), zap.String("cwd", c.cwd))
	return c, nil
}

// Target returns user@host, the form rsync and ssh expect.
func (c *Client) Target() string {
	if c.opts.User == "" {
		return c.opts.Host
	}
	return c.opts.User + "@" + c.opts.Host
}

// Port returns the SSH port.
func (c *Client) Port() int {
	return c.opts.Port
}

// Cwd returns the current remote directory.
func (c *Client) Cwd() string {
	return c.cwd
}

// Resolve makes p absolute against the current remote directory.
func (c *Client) Resolve(p string) string {
	if p == "" {
		return c.cwd
	}
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(c.cwd, p)
}

// Run executes cmd and returns its standard output. A non-zero exit status
// is reported as *RemoteError.
func (c *Client) Run(ctx context.Context, cmd string) ([]byte, error) {
	var stdout bytes.Buffer
	if err := c.exec(ctx, cmd, &stdout); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// List runs ls with flags on dir, relative to the current directory, and
// returns its output lines.
func (c *Client) List(ctx context.Context, dir string, flags ...string) ([]string, error) {
	if dir == "" {
		dir = "."
	}

	words := append([]string{"ls"}, flags...)
	words = append(words, "--", dir)

	out, err := c.Run(ctx, c.inCwd(shellwords.Quote(words...)))
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ChangeDir moves to dir and returns the new absolute directory. An empty dir
// moves to the remote home directory.
func (c *Client) ChangeDir(ctx context.Context, dir string) (string, error) {
	cd := "cd"
	if dir != "" {
		cd = shellwords.Quote("cd", "--", dir)
	}

	out, err := c.Run(ctx, c.inCwd(cd+" && pwd"))
	if err != nil {
		return "", err
	}

	c.cwd = strings.TrimSpace(string(out))
	c.logger.Debug("changed directory", zap.String("cwd", c.cwd))
	return c.cwd, nil
}

// Fetch streams the remote file p into w and returns the number of bytes
// written.
func (c *Client) Fetch(ctx context.Context, p string, w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := c.exec(ctx, c.inCwd(shellwords.Quote("cat", "--", p)), cw); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Close stops the keepalive loop and closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.keepAliveDone != nil {
			close(c.keepAliveDone)
		}
		err = c.conn.Close()
	})
	return err
}

// inCwd prefixes cmd with a cd into the current directory.
func (c *Client) inCwd(cmd string) string {
	if c.cwd == "" {
		return cmd
	}
	return shellwords.Quote("cd", "--", c.cwd) + " && " + cmd
}

// exec runs cmd in a new session, streaming stdout into w. Cancelling ctx
// kills the remote command.
func (c *Client) exec(ctx context.Context, cmd string, w io.Writer) error {
	session, err := c.conn.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	var stderr bytes.Buffer
	session.Stdout = w
	session.Stderr = &stderr

	c.logger.Debug("run", zap.String("cmd", cmd))

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		if err == nil {
			return nil
		}
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return &RemoteError{
				Command:    cmd,
				ExitStatus: exitErr.ExitStatus(),
				Stderr:     strings.TrimSpace(stderr.String()),
			}
		}
		return fmt.Errorf("remote command failed: %w", err)
	}
}

func (c *Client) startKeepAlive() {
	c.keepAliveDone = make(chan struct{})
	maxMissed := c.opts.KeepAliveMaxMissed
	if maxMissed <= 0 {
		maxMissed = 3
	}

	go func() {
		ticker := time.NewTicker(c.opts.KeepAliveInterval)
		defer ticker.Stop()

		missed := 0
		for {
			select {
			case <-ticker.C:
				if _, _, err := c.conn.SendRequest("keepalive@openssh.com", true, nil); err != nil {
					missed++
					c.logger.Warn("keepalive failed", zap.Int("missed", missed), zap.Int("max", maxMissed), zap.Error(err))
					if missed >= maxMissed {
						c.logger.Error("too many missed keepalives, disconnecting")
						c.conn.Close()
						return
					}
				} else {
					missed = 0
				}
			case <-c.keepAliveDone:
				return
			}
		}
	}()
}

func splitLines(out []byte) []string {
	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
