package interpreter

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hy4ri/rfsh/internal/command"
	"github.com/hy4ri/rfsh/internal/shellwords"
	"go.uber.org/zap"
)

// get downloads a remote file. Data lands in a .part file that is renamed
// only once the transfer succeeds.
func (i *Interpreter) get(ctx context.Context, args command.Args) []string {
	remotePath, _ := args.Path()
	source := i.remote.Resolve(remotePath)

	name := args.String("output")
	if name == "" {
		name = path.Base(source)
	}
	if name == "/" || name == "." || name == ".." {
		return []string{fmt.Sprintf("get: cannot name a local file after %s", source)}
	}

	local := name
	if !filepath.IsAbs(local) && i.opts.DownloadDir != "" {
		local = filepath.Join(i.opts.DownloadDir, local)
	}

	if !args.Bool("force") {
		if _, err := os.Stat(local); err == nil {
			return []string{fmt.Sprintf("get: %s already exists (use -f to overwrite)", local)}
		}
	}

	if dir := filepath.Dir(local); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return i.errorLines("get", local, err)
		}
	}

	id := i.newID()
	tmp := filepath.Join(filepath.Dir(local), "."+filepath.Base(local)+"."+id+".part")

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return i.errorLines("get", local, err)
	}

	i.logger.Info("download started", zap.String("id", id), zap.String("source", source), zap.String("local", local))

	n, err := i.remote.Fetch(ctx, remotePath, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return i.errorLines("get", source, err)
	}

	if err := os.Rename(tmp, local); err != nil {
		os.Remove(tmp)
		return i.errorLines("get", local, err)
	}

	i.logger.Info("download finished", zap.String("id", id), zap.Int64("bytes", n))
	i.notifyDone("Download complete", fmt.Sprintf("%s (%d bytes)", filepath.Base(local), n))

	return []string{fmt.Sprintf("get: %s -> %s (%d bytes)", source, local, n)}
}

func (i *Interpreter) rsync(ctx context.Context, args command.Args) []string {
	argv := i.rsyncArgs(args)
	i.logger.Info("rsync started", zap.String("path", i.opts.RsyncPath), zap.Strings("args", argv))

	out, err := i.run(ctx, i.opts.RsyncPath, argv...)
	lines := splitLines(out)
	if err != nil {
		return append(lines, i.errorLines("rsync", "", err)...)
	}

	i.logger.Info("rsync finished")
	i.notifyDone("Sync complete", argv[len(argv)-2]+" -> "+argv[len(argv)-1])
	return lines
}

// rsyncArgs rebuilds the rsync command line. The source is always the remote
// path resolved against the current remote directory.
func (i *Interpreter) rsyncArgs(args command.Args) []string {
	var argv []string
	for _, f := range command.RsyncBoolFlags {
		if !args.Bool(f.Key) {
			continue
		}
		if f.Short != "" {
			argv = append(argv, "-"+f.Short)
		} else {
			argv = append(argv, "--"+f.Long)
		}
	}

	for _, pattern := range args.Strings("exclude") {
		argv = append(argv, "--exclude="+pattern)
	}

	rsh := args.String("rsh")
	if rsh == "" {
		rsh = i.sshCommand()
	}
	argv = append(argv, "-e", rsh)

	remotePath, _ := args.Path()
	source := i.remote.Target() + ":" + i.remote.Resolve(remotePath)

	destination := args.String("destination")
	if destination == "" || destination == "." {
		destination = "."
		if i.opts.DownloadDir != "" {
			destination = i.opts.DownloadDir
		}
	}

	return append(argv, source, destination)
}

func (i *Interpreter) sshCommand() string {
	words := []string{"ssh", "-p", strconv.Itoa(i.remote.Port())}
	if i.opts.IdentityFile != "" {
		words = append(words, "-i", i.opts.IdentityFile)
	}
	return shellwords.Quote(words...)
}

func (i *Interpreter) notifyDone(title, message string) {
	if !i.opts.Notify {
		return
	}
	if err := i.notify(title, message); err != nil {
		i.logger.Warn("failed to send notification", zap.Error(err))
	}
}

func splitLines(out []byte) []string {
	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
