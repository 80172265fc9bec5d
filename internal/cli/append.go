package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eventstream/internal/codec"
	"github.com/roach88/eventstream/internal/eventstream"
)

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	*RootOptions
	Fields string
	ID     string
}

// AppendResult is the JSON payload of a successful append.
type AppendResult struct {
	Stream    string         `json:"stream"`
	ID        string         `json:"id"`
	CreatedAt string         `json:"created_at"`
	Fields    map[string]any `json:"fields"`
}

func (r AppendResult) String() string {
	return fmt.Sprintf("appended %s to %s at %s", r.ID, r.Stream, r.CreatedAt)
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "append <stream>",
		Short: "Append a record to a stream's event table",
		Long: `Append one record to the event table of a catalog stream.

Fields named after indexed columns (stream, event_type, context_type,
context_id, user_id, request_id) must be strings; everything else is kept as
payload. The column store writes the record once per index partition.

Examples:
  eventstream append auditors --fields '{"context_type":"Course","context_id":"42","event_type":"updated"}'
  eventstream append auditors --backend columnstore --badger-dir ./cs --fields '{"context_type":"Course","context_id":"42","user_id":"u1"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppend(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fields, "fields", "{}", "record fields as a JSON object")
	cmd.Flags().StringVar(&opts.ID, "id", "", "record ID (UUIDv7 when empty)")

	return cmd
}

func runAppend(opts *AppendOptions, streamName string, cmd *cobra.Command) error {
	fields, err := codec.Unmarshal([]byte(opts.Fields))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --fields JSON", err)
	}

	env, err := openEnvironment(opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.Close()

	stream, ok := env.catalog.Stream(streamName)
	if !ok {
		return WrapIndexError("append failed", eventstream.NewArgumentError("unknown stream %q", streamName))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rec, err := env.append(ctx, stream, eventstream.Record{ID: opts.ID, Fields: fields})
	if err != nil {
		return WrapIndexError("append failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.Success(AppendResult{
		Stream:    stream.Name(),
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339Nano),
		Fields:    fields,
	})
}
