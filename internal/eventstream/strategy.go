package eventstream

import (
	"context"
	"errors"
	"log/slog"
)

// Page size bounds applied by PageOptions.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// PageOptions controls how a collection is paged.
type PageOptions struct {
	// PerPage is the page size. Zero means DefaultPerPage; values above
	// MaxPerPage are clamped; negative values are rejected.
	PerPage int

	// Bookmark resumes the first page after a previously issued bookmark.
	Bookmark Bookmark
}

// Strategy executes an Index against one backend kind.
// It is stateless beyond that binding and safe for concurrent use.
type Strategy struct {
	index      *Index
	adapter    StrategyAdapter
	bookmarker Bookmarker
}

// Index returns the bound index definition.
func (s *Strategy) Index() *Index { return s.index }

// Kind returns the backend kind.
func (s *Strategy) Kind() Kind { return s.adapter.Kind() }

// Bookmarker returns the bookmarker owned by this strategy.
func (s *Strategy) Bookmarker() Bookmarker { return s.bookmarker }

// QueryByScope scopes the index to args and returns an unfetched collection
// ordered newest first by the index ordering field.
//
// The predicate produced by the condition builder is handed to the backend
// unmodified. Nothing is fetched until Paginate.
func (s *Strategy) QueryByScope(args []Key, opts PageOptions) (*Collection, error) {
	if len(args) == 0 {
		return nil, s.annotate(NewArgumentError("scope arguments are required"))
	}
	if len(args) != s.index.conds.Arity {
		return nil, s.annotate(NewArgumentError("expected %d scope arguments, got %d", s.index.conds.Arity, len(args)))
	}
	for i, a := range args {
		if a == nil {
			return nil, s.annotate(NewArgumentError("scope argument %d is nil", i))
		}
	}
	opts, err := s.normalize(opts)
	if err != nil {
		return nil, err
	}

	pred := s.index.conds.Build(args)

	handle, err := s.adapter.ApplyPredicate(s.index.table, pred)
	if err != nil {
		return nil, s.classify(err)
	}
	handle, err = s.adapter.OrderDescendingBy(handle, s.index.orderBy)
	if err != nil {
		return nil, s.classify(err)
	}

	return newCollection(s, handle, opts), nil
}

// normalize applies page size bounds and validates the resume bookmark.
func (s *Strategy) normalize(opts PageOptions) (PageOptions, error) {
	switch {
	case opts.PerPage < 0:
		return opts, s.annotate(NewArgumentError("per_page must not be negative, got %d", opts.PerPage))
	case opts.PerPage == 0:
		opts.PerPage = DefaultPerPage
	case opts.PerPage > MaxPerPage:
		opts.PerPage = MaxPerPage
	}
	if opts.Bookmark != "" && !s.bookmarker.Validate(opts.Bookmark) {
		return opts, NewInvalidBookmarkError(s.index.name, s.Kind(), opts.Bookmark)
	}
	return opts, nil
}

// fetch runs one backend page request.
func (s *Strategy) fetch(ctx context.Context, h QueryHandle, req PageRequest, page int) (Page, error) {
	if req.After != "" && !s.bookmarker.Validate(req.After) {
		return Page{}, NewInvalidBookmarkError(s.index.name, s.Kind(), req.After)
	}

	res, err := s.adapter.FetchPage(ctx, h, req)
	if err != nil {
		slog.Warn("index fetch failed",
			"index", s.index.name,
			"kind", s.Kind().String(),
			"page", page,
			"error", err,
		)
		return Page{}, s.classify(err)
	}

	slog.Debug("index page fetched",
		"index", s.index.name,
		"kind", s.Kind().String(),
		"page", page,
		"rows", len(res.Rows),
		"has_more", res.HasMore,
	)
	return res, nil
}

// classify keeps typed errors from the backend and wraps everything else
// as BACKEND_UNAVAILABLE.
func (s *Strategy) classify(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return s.annotate(e)
	}
	return NewBackendUnavailableError(s.index.name, s.Kind(), err)
}

// annotate returns a copy of e carrying this strategy's index and kind.
func (s *Strategy) annotate(e *Error) *Error {
	c := *e
	if c.Index == "" {
		c.Index = s.index.name
	}
	if c.Kind == KindUnknown {
		c.Kind = s.Kind()
	}
	return &c
}
