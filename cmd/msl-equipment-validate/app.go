package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	equipment "github.com/MSLNZ/msl-equipment-sub004"
	"github.com/MSLNZ/msl-equipment-sub004/config"
	"github.com/MSLNZ/msl-equipment-sub004/diag"
	"github.com/MSLNZ/msl-equipment-sub004/internal/watch"
)

const appName = "msl-equipment-validate"

// exit statuses that are not issue counts
const (
	exitConfig = 1
	exitUsage  = 2
)

type flags struct {
	schema       string
	roots        []string
	link         string
	verbose      int
	quiet        int
	exitFirst    bool
	skipChecksum bool
	noColour     bool
	configPath   string
	report       string
	watch        bool
	version      bool
	addKeys      bool
	removeKeys   bool
	openLink     string
}

// usageError marks errors caused by bad arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func execute(args []string, stdout, stderr io.Writer) int {
	return executeWith(config.Loader{}, args, stdout, stderr)
}

// executeWith runs the command with ld locating the config file.
func executeWith(ld config.Loader, args []string, stdout, stderr io.Writer) int {
	code := 0
	cmd := rootCmd(ld, stdout, stderr, &code)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			return exitUsage
		}
		if code == 0 {
			code = exitConfig
		}
	}
	return code
}

func rootCmd(ld config.Loader, stdout, stderr io.Writer, code *int) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   appName + " [PATH...]",
		Short: "Validate equipment-register and connections files",
		Long: `Validates equipment-register and connections XML files against their
schemas, then checks what a schema cannot: SHA-256 digests of referenced
files, equation variables and syntax, tabular data, serialised archives and
the uniqueness of equipment IDs across every file.

A PATH may be a file, a directory (searched recursively for *.xml files,
skipping hidden directories) or a glob. The working directory is searched
when no PATH is given.

The exit status is the number of issues found, at most 255.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.openLink != "" {
				return openLink(f.openLink)
			}
			n, err := run(cmd.Context(), ld, cmd.Flags(), f, args, stdout, stderr)
			*code = n
			return err
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	fl := cmd.Flags()
	fl.StringVarP(&f.schema, "schema", "s", "", "path to an alternative equipment-register schema")
	fl.StringArrayVarP(&f.roots, "root", "r", nil, "root directory for relative file paths (repeatable)")
	fl.StringVarP(&f.link, "link", "l", "", "render locations as editor links: vs, vscode, pycharm or n++")
	fl.CountVarP(&f.verbose, "verbose", "v", "more output (repeatable)")
	fl.CountVarP(&f.quiet, "quiet", "q", "less output (repeatable)")
	fl.BoolVarP(&f.exitFirst, "exit-first", "x", false, "stop at the first issue")
	fl.BoolVarP(&f.skipChecksum, "skip-checksum", "c", false, "do not compute SHA-256 digests of referenced files")
	fl.BoolVarP(&f.noColour, "no-colour", "n", false, "disable coloured output")
	fl.StringVar(&f.configPath, "config", "", "config file (default "+config.ProjectFile+" or the user config)")
	fl.StringVar(&f.report, "report", "", "also write a JSON report to this file")
	fl.BoolVarP(&f.watch, "watch", "w", false, "re-validate when files change")
	fl.BoolVarP(&f.version, "version", "V", false, "print versions and exit")
	fl.BoolVarP(&f.addKeys, "add-winreg-keys", "A", false,
		"register the vs, pycharm and n++ link handlers in the Windows Registry and exit (needs an elevated terminal)")
	fl.BoolVarP(&f.removeKeys, "remove-winreg-keys", "R", false,
		"remove the link handlers added by --add-winreg-keys and exit (needs an elevated terminal)")
	fl.StringVar(&f.openLink, "open-link", "", "open an editor link in its editor")
	_ = fl.MarkHidden("open-link")
	if runtime.GOOS != "windows" {
		_ = fl.MarkHidden("add-winreg-keys")
		_ = fl.MarkHidden("remove-winreg-keys")
	}

	return cmd
}

// settings is the config file overlaid with the flags the user set.
func settings(ld config.Loader, fs *pflag.FlagSet, f flags) (*config.Config, error) {
	cfg, err := ld.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if fs.Changed("schema") {
		cfg.Schema = f.schema
	}
	if fs.Changed("root") {
		cfg.Roots = f.roots
	}
	if fs.Changed("link") {
		cfg.Link = f.link
	}
	if fs.Changed("verbose") || fs.Changed("quiet") {
		cfg.Verbosity = f.verbose - f.quiet
	}
	if fs.Changed("exit-first") {
		cfg.ExitFirst = f.exitFirst
	}
	if fs.Changed("skip-checksum") {
		cfg.SkipChecksum = f.skipChecksum
	}
	if fs.Changed("no-colour") {
		cfg.NoColour = f.noColour
	}
	if fs.Changed("report") {
		cfg.Report = f.report
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError{err}
	}
	return cfg, nil
}

func run(ctx context.Context, ld config.Loader, fs *pflag.FlagSet, f flags, args []string, stdout, stderr io.Writer) (int, error) {
	cfg, err := settings(ld, fs, f)
	if err != nil {
		return 0, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := diag.NewSink(diag.Options{
		Writer:    stderr,
		Verbosity: cfg.Verbosity,
		Colour:    !cfg.NoColour && diag.IsTerminal(stderr),
		Scheme:    cfg.Scheme(),
	})
	defer func() { _ = sink.Sync() }()

	if f.addKeys || f.removeKeys {
		if err := modifyRegistry(f.removeKeys); err != nil {
			sink.Errorf("%v", err)
			return exitConfig, nil
		}
		return 0, nil
	}

	v, err := equipment.New(equipment.Options{
		RegisterSchema:    cfg.Schema,
		ConnectionsSchema: cfg.ConnectionsSchema,
		Roots:             cfg.Roots,
		Exclude:           cfg.Exclude,
		ExitFirst:         cfg.ExitFirst,
		SkipChecksum:      cfg.SkipChecksum,
		Sink:              sink,
	})
	if err != nil {
		sink.Errorf("%v", err)
		return exitConfig, nil
	}
	if cfg.Path != "" {
		sink.Debugf("Using config %s", cfg.Path)
	}

	v.LogBanner(sink)
	if f.version {
		return 0, nil
	}

	paths := args
	if len(paths) == 0 {
		paths = cfg.Include
	}

	once := func(ctx context.Context) int {
		res, err := v.Run(ctx, paths)
		if err != nil {
			sink.Infof("Validation interrupted: %v", err)
			return res.ExitCode()
		}
		res.LogSummary(sink)
		fmt.Fprintln(stdout, sink.Paint(res.OK(), res.Outcome()))
		if cfg.Report != "" {
			if err := equipment.WriteReportFile(cfg.Report, res); err != nil {
				sink.Errorf("%v", err)
			} else {
				sink.Debugf("Wrote report %s", cfg.Report)
			}
		}
		return res.ExitCode()
	}

	if !f.watch {
		return once(ctx), nil
	}

	watched := append([]string{}, paths...)
	if len(watched) == 0 {
		watched = []string{"."}
	}
	for _, p := range []string{cfg.Schema, cfg.ConnectionsSchema} {
		if p != "" {
			watched = append(watched, p)
		}
	}
	w, err := watch.New(watch.Options{Paths: watched, Sink: sink})
	if err != nil {
		return exitConfig, fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	last := 0
	err = w.Run(ctx, func(ctx context.Context) { last = once(ctx) })
	if err != nil && !errors.Is(err, context.Canceled) {
		return last, err
	}
	return last, nil
}
