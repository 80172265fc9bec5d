package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/eventstream/internal/eventstream"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Database  string // SQLite path for the relational backend
	Catalog   string // stream catalog file (YAML or CUE)
	Backend   string // "relational" | "columnstore"
	BadgerDir string // column store directory, required by the columnstore backend

	// registry receives the adapter of the opened backend. Nil means a
	// fresh registry per command.
	registry *eventstream.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidBackends defines the backends the CLI can open.
var ValidBackends = []string{"relational", "columnstore"}

// NewRootCommand creates the root command for the eventstream CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(nil)
}

func newRootCommand(reg *eventstream.Registry) *cobra.Command {
	opts := &RootOptions{registry: reg}

	cmd := &cobra.Command{
		Use:   "eventstream",
		Short: "Indexed, bookmark-paginated reads over an event log",
		Long: `eventstream appends records to an event log and reads them back through
named secondary indexes, newest first, one bookmark-resumable page at a time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !contains(ValidBackends, opts.Backend) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid backend %q: must be one of %v", opts.Backend, ValidBackends))
			}
			configureLogging(opts.Verbose, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "eventstream.db", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "eventstream.yaml", "stream catalog (YAML file, CUE file or CUE directory)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "relational", "storage backend (relational|columnstore)")
	cmd.PersistentFlags().StringVar(&opts.BadgerDir, "badger-dir", "", "column store directory (required with --backend columnstore)")

	cmd.AddCommand(NewAppendCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// configureLogging installs the process-wide slog handler writing to w.
func configureLogging(verbose bool, w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// Execute runs the CLI with args and returns the process exit code.
// Failures are reported on stderr in the format selected by --format.
func Execute(args []string, stdout, stderr io.Writer) int {
	return ExecuteWith(nil, args, stdout, stderr)
}

// ExecuteWith is Execute registering the opened backend in reg, which the
// command then seals. A process runs one command, so reg is usually
// eventstream.DefaultRegistry.
func ExecuteWith(reg *eventstream.Registry, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(reg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	format := "text"
	if f := cmd.PersistentFlags().Lookup("format"); f != nil && contains(ValidFormats, f.Value.String()) {
		format = f.Value.String()
	}
	formatter := &OutputFormatter{Format: format, Writer: stderr}
	if rerr := formatter.Report(err); rerr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return GetExitCode(err)
}
