package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/eventstream/internal/catalog"
	"github.com/roach88/eventstream/internal/eventstream"
)

// CatalogResult lists the streams of a valid catalog.
type CatalogResult struct {
	Path    string               `json:"path"`
	Streams []catalog.StreamSpec `json:"streams"`
}

func (r CatalogResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d stream(s)", r.Path, len(r.Streams))
	for _, s := range r.Streams {
		fmt.Fprintf(&b, "\n%s (table %s)", s.Name, s.Table)
		for _, idx := range s.Indexes {
			order := idx.OrderBy
			if order == "" {
				order = eventstream.DefaultOrderField
			}
			fmt.Fprintf(&b, "\n  %s [%s] newest first by %s", idx.Name, strings.Join(idx.Keys, ", "), order)
		}
	}
	return b.String()
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [file]",
		Short: "Validate a stream catalog and list its indexes",
		Long: `Validate a stream catalog without opening any backend.

The file defaults to --catalog. YAML (.yaml, .yml) and CUE (.cue file or
package directory) are accepted.

Examples:
  eventstream catalog streams.yaml
  eventstream catalog ./catalog --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Catalog
			if len(args) == 1 {
				path = args[0]
			}
			return runCatalog(rootOpts, path, cmd)
		},
	}
	return cmd
}

func runCatalog(opts *RootOptions, path string, cmd *cobra.Command) error {
	f, err := catalog.ReadFile(path)
	if err != nil {
		return WrapIndexError("invalid catalog", err)
	}
	if _, err := catalog.Build(f, eventstream.NewRegistry()); err != nil {
		return WrapIndexError("invalid catalog", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.Success(CatalogResult{Path: path, Streams: f.Streams})
}
