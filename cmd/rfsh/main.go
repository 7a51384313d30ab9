// Package main is the entry point for rfsh.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hy4ri/rfsh/internal/auth"
	"github.com/hy4ri/rfsh/internal/command"
	"github.com/hy4ri/rfsh/internal/completion"
	"github.com/hy4ri/rfsh/internal/config"
	"github.com/hy4ri/rfsh/internal/history"
	"github.com/hy4ri/rfsh/internal/interpreter"
	"github.com/hy4ri/rfsh/internal/logging"
	"github.com/hy4ri/rfsh/internal/remote"
	"github.com/hy4ri/rfsh/internal/tui"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const version = "0.1.0"

const helpText = `rfsh - interactive shell for browsing and fetching files on a remote host

USAGE:
    rfsh [OPTIONS] [user@]host[:port]

OPTIONS:
    -h, --help              Show this help message
    -v, --version           Show version information
    --init                  Create a template config file
    -c, --config FILE       Use FILE instead of the default config
    -p, --port N            SSH port
    -l, --login USER        Remote user name
    -i, --identity FILE     Private key file
    --set-password          Store the SSH password in the system keyring
    --forget-password       Remove the stored SSH password
    --log FILE              Write a debug log to FILE

CONFIGURATION:
    Config file: ~/.config/rfsh/config.yaml
    The password is read from RFSH_PASSWORD, then the system keyring.

COMMANDS:
    ls [-al] [path]         List a remote directory
    cd [path]               Change the remote directory
    pwd                     Show the remote directory
    get [-f] [-o output] path
                            Download a remote file
    rsync [options] path [destination]
                            Copy from the remote host with rsync
    copy                    Copy the last output to the clipboard
    help                    Show keys and commands
    exit, quit              Leave the shell

KEYBINDINGS:
    Tab             Complete the path argument, press again to cycle
    Up/Left         Previous history entry
    Down/Right      Next history entry
    Ctrl+C          Discard the line
    Ctrl+D          Quit
`

const configTemplate = `# rfsh configuration
# Location: ~/.config/rfsh/config.yaml

remote:
  # Host used when none is given on the command line
  host: ""
  port: 22
  user: ""

  # Private key; the SSH agent is tried first when use_agent is set
  # identity_file: ~/.ssh/id_ed25519
  use_agent: true

  known_hosts: ~/.ssh/known_hosts
  # Record keys of hosts not yet in known_hosts instead of refusing them
  accept_new_host_keys: false
  insecure_ignore_host_key: false

  timeout: 30s
  keepalive_interval: 30s
  keepalive_max_missed: 3

shell:
  prompt: ">>: "
  # Defaults to ~/.local/share/rfsh/history
  # history_file: ""
  command_timeout: 5m
  # Where get and rsync put files; defaults to the current directory
  # download_dir: ~/Downloads
  rsync_path: rsync
  notify_transfers: false

log:
  # file: ~/.local/share/rfsh/rfsh.log
  level: info
`

type options struct {
	showHelp       bool
	showVersion    bool
	initConfig     bool
	configFile     string
	port           int
	login          string
	identity       string
	setPassword    bool
	forgetPassword bool
	logFile        string
	target         string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Print(helpText)
			return nil
		}
		return err
	}

	if opts.showHelp {
		fmt.Print(helpText)
		return nil
	}

	if opts.showVersion {
		fmt.Printf("rfsh version %s\n", version)
		return nil
	}

	if opts.initConfig {
		return createConfigTemplate(opts.configFile)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if !cfg.HasHost() {
		path := opts.configFile
		if path == "" {
			path, _ = config.ConfigPath()
		}
		fmt.Println("No remote host given.")
		fmt.Println()
		fmt.Println("Usage: rfsh [OPTIONS] [user@]host[:port]")
		fmt.Printf("Or set remote.host in %s (run 'rfsh --init' to create it).\n", path)
		return nil
	}

	switch {
	case opts.setPassword:
		return storePassword(cfg.Remote.User, cfg.Remote.Host)
	case opts.forgetPassword:
		if err := config.ClearPassword(cfg.Remote.User, cfg.Remote.Host); err != nil {
			return err
		}
		fmt.Printf("Password for %s removed.\n", config.KeyringUser(cfg.Remote.User, cfg.Remote.Host))
		return nil
	}

	return runApp(cfg)
}

func parseArgs(args []string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("rfsh", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show help message")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "Show version")
	fs.BoolVar(&opts.initConfig, "init", false, "Create template config file")
	fs.StringVarP(&opts.configFile, "config", "c", "", "Config file")
	fs.IntVarP(&opts.port, "port", "p", 0, "SSH port")
	fs.StringVarP(&opts.login, "login", "l", "", "Remote user name")
	fs.StringVarP(&opts.identity, "identity", "i", "", "Private key file")
	fs.BoolVar(&opts.setPassword, "set-password", false, "Store the SSH password")
	fs.BoolVar(&opts.forgetPassword, "forget-password", false, "Remove the stored SSH password")
	fs.StringVar(&opts.logFile, "log", "", "Debug log file")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		opts.target = rest[0]
	default:
		return opts, fmt.Errorf("too many arguments: %s", strings.Join(rest[1:], " "))
	}

	return opts, nil
}

// parseTarget splits [user@]host[:port]. A zero port means none was given.
func parseTarget(target string) (user, host string, port int, err error) {
	host = target
	if i := strings.LastIndex(host, "@"); i >= 0 {
		user, host = host[:i], host[i+1:]
	}

	// Bracketed IPv6 literals may carry a port after the closing bracket.
	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		if end < 0 {
			return "", "", 0, fmt.Errorf("invalid host %q", target)
		}
		rest := host[end+1:]
		host = host[1:end]
		if rest != "" {
			if !strings.HasPrefix(rest, ":") {
				return "", "", 0, fmt.Errorf("invalid host %q", target)
			}
			if port, err = parsePort(rest[1:]); err != nil {
				return "", "", 0, err
			}
		}
	} else if strings.Count(host, ":") == 1 {
		i := strings.Index(host, ":")
		if port, err = parsePort(host[i+1:]); err != nil {
			return "", "", 0, err
		}
		host = host[:i]
	}

	if host == "" {
		return "", "", 0, fmt.Errorf("missing host in %q", target)
	}
	return user, host, port, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.target != "" {
		user, host, port, err := parseTarget(opts.target)
		if err != nil {
			return nil, err
		}
		cfg.Remote.Host = host
		if user != "" {
			cfg.Remote.User = user
		}
		if port != 0 {
			cfg.Remote.Port = port
		}
	}

	if opts.port != 0 {
		cfg.Remote.Port = opts.port
	}
	if opts.login != "" {
		cfg.Remote.User = opts.login
	}
	if opts.identity != "" {
		if cfg.Remote.IdentityFile, err = config.ExpandHome(opts.identity); err != nil {
			return nil, err
		}
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}

	if cfg.Remote.User == "" {
		if u, err := user.Current(); err == nil {
			cfg.Remote.User = u.Username
		}
	}

	return cfg, nil
}

// createConfigTemplate creates a template configuration file.
func createConfigTemplate(path string) error {
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists: %s\n", path)
		fmt.Print("Overwrite? [y/N]: ")

		var response string
		fmt.Scanln(&response)

		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Config file created: %s\n\n", path)
	fmt.Println("Next steps:")
	fmt.Println("  1. Set remote.host and remote.user, or pass user@host on the command line")
	fmt.Println("  2. Optionally run 'rfsh --set-password user@host'")
	fmt.Println("  3. Run 'rfsh'")

	return nil
}

func storePassword(user, host string) error {
	password, err := promptTerminal(fmt.Sprintf("Password for %s: ", config.KeyringUser(user, host)), false)
	if err != nil {
		return err
	}
	if err := config.SavePassword(user, host, password); err != nil {
		return err
	}
	fmt.Println("Password saved to the system keyring.")
	return nil
}

// promptTerminal asks on stderr and reads the answer from stdin, without echo
// unless echo is set.
func promptTerminal(question string, echo bool) (string, error) {
	fmt.Fprint(os.Stderr, question)

	if !echo && term.IsTerminal(int(os.Stdin.Fd())) {
		answer, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return string(answer), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// runApp connects and runs the shell until the user leaves.
func runApp(cfg *config.Config) error {
	logger, logCloser, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	methods, agentCloser, err := auth.Methods(cfg.Remote, promptTerminal, logger)
	if err != nil {
		return fmt.Errorf("failed to set up authentication: %w", err)
	}
	defer agentCloser.Close()

	hostKeys, err := auth.HostKeyCallback(cfg.Remote, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	client, err := remote.Dial(ctx, remote.Options{
		Host:               cfg.Remote.Host,
		Port:               cfg.Remote.Port,
		User:               cfg.Remote.User,
		Timeout:            cfg.Remote.Timeout.Std(),
		Auth:               methods,
		HostKeyCallback:    hostKeys,
		KeepAliveInterval:  cfg.Remote.KeepAliveInterval.Std(),
		KeepAliveMaxMissed: cfg.Remote.KeepAliveMaxMissed,
		Logger:             logger,
	})
	stop()
	if err != nil {
		return err
	}
	defer client.Close()

	historyFile := cfg.Shell.HistoryFile
	if historyFile == "" {
		if historyFile, err = config.DefaultHistoryPath(); err != nil {
			logger.Warn("history disabled", zap.Error(err))
		}
	}
	entries, err := history.Load(historyFile)
	if err != nil {
		logger.Warn("failed to load history", zap.Error(err))
	}

	dispatcher := command.NewDispatcher()
	interp := interpreter.New(client, dispatcher.Defs(), interpreter.Options{
		DownloadDir:  cfg.Shell.DownloadDir,
		RsyncPath:    cfg.Shell.RsyncPath,
		IdentityFile: cfg.Remote.IdentityFile,
		Notify:       cfg.Shell.NotifyTransfers,
		KeyHelp:      tui.KeyHelp(),
		Logger:       logger,
	})
	engine := completion.NewEngine(dispatcher, interp, logger)

	app := tui.NewApp(dispatcher, interp, engine, tui.Options{
		Prompt:         cfg.Shell.Prompt,
		History:        entries,
		HistoryFile:    historyFile,
		CommandTimeout: cfg.Shell.CommandTimeout.Std(),
		Logger:         logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	logger.Info("session ended", zap.String("target", client.Target()))
	return nil
}
