package command

import (
	"errors"
	"io"

	"github.com/spf13/pflag"
)

const (
	lsUsage    = "ls [-al] [path]"
	cdUsage    = "cd [path]"
	getUsage   = "get [-f] [-o output] path"
	rsyncUsage = "rsync [-avzrnqcuPlptogDh] [--delete] [--exclude pattern] [-e rsh] path [destination]"
)

// BoolFlag describes one boolean rsync option.
type BoolFlag struct {
	Key   string // argument name in Args
	Long  string
	Short string
	Help  string
}

// RsyncBoolFlags lists the boolean rsync options in the order they are rebuilt
// on the rsync command line.
var RsyncBoolFlags = []BoolFlag{
	{Key: "archive", Long: "archive", Short: "a", Help: "archive mode"},
	{Key: "verbose", Long: "verbose", Short: "v", Help: "increase verbosity"},
	{Key: "compress", Long: "compress", Short: "z", Help: "compress file data"},
	{Key: "recursive", Long: "recursive", Short: "r", Help: "recurse into directories"},
	{Key: "dry_run", Long: "dry-run", Short: "n", Help: "perform a trial run"},
	{Key: "quiet", Long: "quiet", Short: "q", Help: "suppress non-error messages"},
	{Key: "checksum", Long: "checksum", Short: "c", Help: "skip based on checksum"},
	{Key: "update", Long: "update", Short: "u", Help: "skip files that are newer on the receiver"},
	{Key: "progress", Long: "progress", Short: "P", Help: "show progress"},
	{Key: "links", Long: "links", Short: "l", Help: "copy symlinks as symlinks"},
	{Key: "perms", Long: "perms", Short: "p", Help: "preserve permissions"},
	{Key: "times", Long: "times", Short: "t", Help: "preserve modification times"},
	{Key: "owner", Long: "owner", Short: "o", Help: "preserve owner"},
	{Key: "group", Long: "group", Short: "g", Help: "preserve group"},
	{Key: "devices", Long: "devices", Short: "D", Help: "preserve devices and specials"},
	{Key: "human_readable", Long: "human-readable", Short: "h", Help: "human-readable numbers"},
	{Key: "delete", Long: "delete", Help: "delete extraneous files from destination"},
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// parseFlags runs fs over tokens and turns pflag failures into usage errors.
func parseFlags(fs *pflag.FlagSet, usage string, tokens []string) error {
	if err := fs.Parse(tokens); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return usageErrorf(fs.Name(), usage, "help requested")
		}
		return usageErrorf(fs.Name(), usage, "%v", err)
	}
	return nil
}

func parseLs(tokens []string) (Args, error) {
	fs := newFlagSet("ls")
	all := fs.BoolP("all", "a", false, "include hidden entries")
	long := fs.BoolP("long", "l", false, "long listing format")
	if err := parseFlags(fs, lsUsage, tokens); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 1 {
		return nil, usageErrorf("ls", lsUsage, "too many arguments")
	}

	path := ""
	if len(rest) == 1 {
		path = rest[0]
	}

	return Args{PathKey: path, "all": *all, "long": *long}, nil
}

func parseCd(tokens []string) (Args, error) {
	fs := newFlagSet("cd")
	if err := parseFlags(fs, cdUsage, tokens); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 1 {
		return nil, usageErrorf("cd", cdUsage, "too many arguments")
	}

	path := ""
	if len(rest) == 1 {
		path = rest[0]
	}
	return Args{PathKey: path}, nil
}

func parseGet(tokens []string) (Args, error) {
	fs := newFlagSet("get")
	output := fs.StringP("output", "o", "", "local file name")
	force := fs.BoolP("force", "f", false, "overwrite an existing local file")
	if err := parseFlags(fs, getUsage, tokens); err != nil {
		return nil, err
	}

	rest := fs.Args()
	switch {
	case len(rest) == 0:
		return nil, usageErrorf("get", getUsage, "missing required argument: path")
	case len(rest) > 1:
		return nil, usageErrorf("get", getUsage, "too many arguments")
	}

	return Args{PathKey: rest[0], "output": *output, "force": *force}, nil
}

func parseRsync(tokens []string) (Args, error) {
	fs := newFlagSet("rsync")
	values := make(map[string]*bool, len(RsyncBoolFlags))
	for _, f := range RsyncBoolFlags {
		values[f.Key] = fs.BoolP(f.Long, f.Short, false, f.Help)
	}
	exclude := fs.StringArray("exclude", nil, "exclude files matching pattern")
	rsh := fs.StringP("rsh", "e", "", "remote shell to use")
	if err := parseFlags(fs, rsyncUsage, tokens); err != nil {
		return nil, err
	}

	rest := fs.Args()
	switch {
	case len(rest) == 0:
		return nil, usageErrorf("rsync", rsyncUsage, "missing required argument: path")
	case len(rest) > 2:
		return nil, usageErrorf("rsync", rsyncUsage, "too many arguments")
	}

	destination := "."
	if len(rest) == 2 {
		destination = rest[1]
	}

	args := Args{
		PathKey:       rest[0],
		"destination": destination,
		"exclude":     append([]string(nil), (*exclude)...),
		"rsh":         *rsh,
	}
	for key, v := range values {
		args[key] = *v
	}
	return args, nil
}
