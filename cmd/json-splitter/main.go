package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natedelduca/json-splitter/internal/config"
	"github.com/natedelduca/json-splitter/internal/console"
	"github.com/natedelduca/json-splitter/internal/splitter"
	"github.com/natedelduca/json-splitter/internal/ui"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// reportedError carries a failure the console printer has already shown.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}

	cmd, rest := args[0], args[1:]
	// Bare flags run a split directly: json-splitter -i in.json -a items
	if strings.HasPrefix(cmd, "-") && cmd != "-h" && cmd != "--help" {
		cmd, rest = "split", args
	}

	var err error
	switch cmd {
	case "init":
		err = runInit(rest, stdout, stderr)
	case "select":
		err = runSelect(rest, stdout, stderr)
	case "split":
		err = runSplit(rest, stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr)
		return exitUsage
	}

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, config.ErrInvalid):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	case errors.As(err, new(reportedError)):
		return exitFailure
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `json-splitter - write each element of a JSON array to its own file

Usage:
  json-splitter [split] -i input.json [-a key] [-o dir] [-j path] [-s sep] [-f manifest] [-v]
  json-splitter init [--config path] [split flags]
  json-splitter select [--config path]

Flags:
  -i, --input       input JSON file path (required)
  -a, --array       key of the array inside the document; omit when the document is the array
  -o, --output      base output directory
  -j, --json_path   "/"-separated path to the value used as file name
  -s, --separator   character splitting that value into directory and file name
  -f, --file        write the sorted list of produced files to this path
      --config      config file with defaults (default .json-splitter.json)
  -v, --verbose     debug logging on stderr
`)
}

// splitOption binds a short and long flag name to one Config field.
type splitOption struct {
	short, long, help string
	field             func(*config.Config) *string
}

var splitOptions = []splitOption{
	{"i", "input", "input JSON file path", func(c *config.Config) *string { return &c.InputPath }},
	{"a", "array", "JSON array key", func(c *config.Config) *string { return &c.ArrayKey }},
	{"o", "output", "output directory path", func(c *config.Config) *string { return &c.OutputDir }},
	{"j", "json_path", "JSON path to the value used for the output file name", func(c *config.Config) *string { return &c.JSONPath }},
	{"s", "separator", "separator splitting the value into directory and file name", func(c *config.Config) *string { return &c.Separator }},
	{"f", "file", "output file path listing all processed sections", func(c *config.Config) *string { return &c.ManifestPath }},
}

// splitFlags registers every split option under its short and long name.
func splitFlags(fs *flag.FlagSet) (*config.Config, *string) {
	var cfg config.Config
	for _, opt := range splitOptions {
		fs.StringVar(opt.field(&cfg), opt.short, "", opt.help)
		fs.StringVar(opt.field(&cfg), opt.long, "", opt.help)
	}
	configPath := fs.String("config", config.DefaultFile, "config file path")
	return &cfg, configPath
}

// applySetFlags copies the options given on the command line onto base.
// A flag set to an empty value clears the saved default.
func applySetFlags(fs *flag.FlagSet, flags config.Config, base config.Config) config.Config {
	byName := make(map[string]splitOption, 2*len(splitOptions))
	for _, opt := range splitOptions {
		byName[opt.short] = opt
		byName[opt.long] = opt
	}

	fs.Visit(func(f *flag.Flag) {
		if opt, ok := byName[f.Name]; ok {
			*opt.field(&base) = *opt.field(&flags)
		}
	})
	return base
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parseFlags reports malformed command lines as invalid configuration.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	return nil
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("init", stderr)
	flags, configPath := splitFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := config.ValidateSeparator(flags.Separator); err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	path := resolvePath(root, *configPath)
	if err := config.Save(path, applySetFlags(fs, *flags, config.Default())); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote config to %s\n", path)
	return nil
}

func runSelect(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("select", stderr)
	configPath := fs.String("config", config.DefaultFile, "config file path")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	path := resolvePath(root, *configPath)
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}

	selection, err := ui.RunSelection(cfg)
	if err != nil {
		return err
	}

	if err := config.Save(path, selection.Apply(cfg)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote config to %s\n", path)
	return nil
}

func runSplit(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("split", stderr)
	flags, configPath := splitFlags(fs)
	var verbose bool
	fs.BoolVar(&verbose, "v", false, "debug logging")
	fs.BoolVar(&verbose, "verbose", false, "debug logging")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %q", config.ErrInvalid, fs.Args())
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	root, err := os.Getwd()
	if err != nil {
		return err
	}

	path := resolvePath(root, *configPath)
	base, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}
	logger.Debug("loaded config", "path", path)

	cfg := applySetFlags(fs, *flags, base)
	if err := cfg.Validate(); err != nil {
		return err
	}

	s := splitter.New(console.New(stdout), logger)
	if _, err := s.Run(cfg); err != nil {
		return reportedError{err}
	}
	return nil
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
