package cli

import (
	"context"
	"log/slog"

	"github.com/roach88/eventstream/internal/catalog"
	"github.com/roach88/eventstream/internal/columnstore"
	"github.com/roach88/eventstream/internal/eventstream"
	"github.com/roach88/eventstream/internal/store"
)

// environment is an opened backend plus the catalog bound to it.
type environment struct {
	kind    eventstream.Kind
	catalog *catalog.Catalog
	append  func(ctx context.Context, stream *catalog.Stream, rec eventstream.Record) (eventstream.Record, error)
	prepare func(ctx context.Context, stream *catalog.Stream) error
	close   func() error
}

// openEnvironment opens the selected backend, registers its adapter in the
// command's registry and loads the catalog against it.
func openEnvironment(opts *RootOptions) (*environment, error) {
	kind, err := eventstream.ParseKind(opts.Backend)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid backend", err)
	}

	reg := opts.registry
	if reg == nil {
		reg = eventstream.NewRegistry()
	}
	env := &environment{kind: kind}

	switch kind {
	case eventstream.KindRelational:
		slog.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		if err := reg.Register(store.NewRelational(st)); err != nil {
			st.Close()
			return nil, WrapExitError(ExitFailure, "failed to register backend", err)
		}
		env.append = func(ctx context.Context, s *catalog.Stream, rec eventstream.Record) (eventstream.Record, error) {
			return st.Append(ctx, s.Table(), rec)
		}
		env.prepare = func(ctx context.Context, s *catalog.Stream) error {
			return st.EnsureTable(ctx, s.Table())
		}
		env.close = st.Close

	case eventstream.KindColumnStore:
		if opts.BadgerDir == "" {
			return nil, NewExitError(ExitCommandError, "--badger-dir is required for the columnstore backend")
		}
		cfg := columnstore.DefaultConfig(opts.BadgerDir)
		cfg.Logger = slog.Default()
		slog.Debug("opening column store", "dir", opts.BadgerDir)
		cs, err := columnstore.Open(cfg)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open column store", err)
		}
		if err := reg.Register(columnstore.NewAdapter(cs)); err != nil {
			cs.Close()
			return nil, WrapExitError(ExitFailure, "failed to register backend", err)
		}
		env.append = func(ctx context.Context, s *catalog.Stream, rec eventstream.Record) (eventstream.Record, error) {
			return cs.Append(ctx, s.Table(), rec, s.Partitions()...)
		}
		env.close = cs.Close

	default:
		return nil, NewExitError(ExitCommandError, "backend "+kind.String()+" is not available from the command line")
	}
	reg.Seal()

	cat, err := catalog.Load(opts.Catalog, reg)
	if err != nil {
		env.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
	}
	env.catalog = cat

	if env.prepare != nil {
		for _, s := range cat.Streams() {
			if err := env.prepare(context.Background(), s); err != nil {
				env.Close()
				return nil, WrapExitError(ExitCommandError, "failed to prepare stream "+s.Name(), err)
			}
		}
	}
	return env, nil
}

// Close releases the backend.
func (e *environment) Close() {
	if err := e.close(); err != nil {
		slog.Error("error closing backend", "backend", e.kind.String(), "error", err)
	}
}
