package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eventstream/internal/codec"
	"github.com/roach88/eventstream/internal/eventstream"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	PerPage  int
	Bookmark string
	Pages    int
}

// QueryRecord is one record in query output.
type QueryRecord struct {
	ID        string         `json:"id"`
	CreatedAt string         `json:"created_at"`
	Fields    map[string]any `json:"fields"`
}

// QueryPage is one fetched page.
type QueryPage struct {
	Page    int           `json:"page"`
	Records []QueryRecord `json:"records"`
}

// QueryResult is the output of a query.
type QueryResult struct {
	Stream   string      `json:"stream"`
	Index    string      `json:"index"`
	Backend  string      `json:"backend"`
	PerPage  int         `json:"per_page"`
	Pages    []QueryPage `json:"pages"`
	HasMore  bool        `json:"has_more"`
	Bookmark string      `json:"bookmark,omitempty"`
}

func (r QueryResult) String() string {
	var b strings.Builder
	for _, p := range r.Pages {
		fmt.Fprintf(&b, "page %d (%d records)\n", p.Page, len(p.Records))
		for _, rec := range p.Records {
			fields, err := codec.Marshal(rec.Fields)
			if err != nil {
				fields = []byte(fmt.Sprint(rec.Fields))
			}
			fmt.Fprintf(&b, "  %s  %s  %s\n", rec.CreatedAt, rec.ID, fields)
		}
	}
	if r.HasMore {
		fmt.Fprintf(&b, "more records after bookmark %s", r.Bookmark)
	} else {
		b.WriteString("no more records")
	}
	return b.String()
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <stream> <index> <key>...",
		Short: "Read a stream through one of its indexes, newest first",
		Long: `Read a stream through a catalog index. Keys are matched positionally
against the index's key fields. Pages are fetched newest first; pass the
printed bookmark back with --bookmark to continue later.

Exit codes:
  0 - Query succeeded
  1 - Backend failure
  2 - Command error (unknown stream or index, wrong key count, bad bookmark)

Examples:
  eventstream query auditors by_context Course 42
  eventstream query auditors by_user u1 --per-page 20 --pages 0
  eventstream query auditors by_user u1 --bookmark 2024-01-01T00:00:00Z --format json`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.PerPage, "per-page", eventstream.DefaultPerPage, "records per page")
	cmd.Flags().StringVar(&opts.Bookmark, "bookmark", "", "resume after this bookmark")
	cmd.Flags().IntVar(&opts.Pages, "pages", 1, "pages to fetch (0 = until exhausted)")

	return cmd
}

func runQuery(opts *QueryOptions, streamName, indexName string, keys []string, cmd *cobra.Command) error {
	if opts.Pages < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--pages must not be negative, got %d", opts.Pages))
	}

	env, err := openEnvironment(opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.Close()

	idx, err := env.catalog.Lookup(streamName, indexName)
	if err != nil {
		return WrapIndexError("query failed", err)
	}
	strategy, err := idx.WithStrategy(env.kind)
	if err != nil {
		return WrapIndexError("query failed", err)
	}

	pageOpts := eventstream.PageOptions{PerPage: opts.PerPage, Bookmark: eventstream.Bookmark(opts.Bookmark)}
	col, err := strategy.QueryByScope(eventstream.Keys(keys...), pageOpts)
	if err != nil {
		return WrapIndexError("query failed", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := col.Paginate(ctx, pageOpts); err != nil {
		return WrapIndexError("query failed", err)
	}

	result := QueryResult{
		Stream:  streamName,
		Index:   indexName,
		Backend: env.kind.String(),
		PerPage: col.PerPage(),
		Pages:   []QueryPage{toQueryPage(col.Page(), col.Records())},
	}
	for col.HasMore() && (opts.Pages == 0 || col.Page() < opts.Pages) {
		recs, err := col.NextPage(ctx)
		if err != nil {
			return WrapIndexError("query failed", err)
		}
		result.Pages = append(result.Pages, toQueryPage(col.Page(), recs))
	}
	result.HasMore = col.HasMore()
	if result.HasMore {
		result.Bookmark = string(col.Bookmark())
	}
	slog.Debug("query finished",
		"stream", streamName,
		"index", indexName,
		"pages", len(result.Pages),
		"has_more", result.HasMore,
	)

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.Success(result)
}

func toQueryPage(page int, recs []eventstream.Record) QueryPage {
	out := QueryPage{Page: page, Records: make([]QueryRecord, len(recs))}
	for i, r := range recs {
		fields := r.Fields
		if fields == nil {
			fields = map[string]any{}
		}
		out.Records[i] = QueryRecord{
			ID:        r.ID,
			CreatedAt: r.CreatedAt.Format(time.RFC3339Nano),
			Fields:    fields,
		}
	}
	return out
}
