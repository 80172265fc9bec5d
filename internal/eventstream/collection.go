package eventstream

import "context"

// State is the paging state of a Collection.
type State int

const (
	StateUnfetched State = iota
	StateFetched
	StateExhausted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnfetched:
		return "unfetched"
	case StateFetched:
		return "fetched"
	case StateExhausted:
		return "exhausted"
	default:
		return "invalid"
	}
}

// Collection is a page-able, newest-first view over an index query.
//
// It holds no connection or server-side cursor between fetches: every page
// is one backend call resuming after the bookmark of the last row seen.
// A Collection is not safe for concurrent use.
type Collection struct {
	strategy *Strategy
	handle   QueryHandle
	opts     PageOptions

	state   State
	page    int
	records []Record
	hasMore bool
	last    Bookmark
}

func newCollection(s *Strategy, h QueryHandle, opts PageOptions) *Collection {
	return &Collection{
		strategy: s,
		handle:   h,
		opts:     opts,
		state:    StateUnfetched,
	}
}

// Paginate fetches the first page using opts, replacing the options the
// collection was created with. Calling it again re-executes the same fetch;
// nothing is cached. On error the collection is left unchanged.
func (c *Collection) Paginate(ctx context.Context, opts PageOptions) error {
	opts, err := c.strategy.normalize(opts)
	if err != nil {
		return err
	}
	if err := c.load(ctx, opts.Bookmark, opts.PerPage, 1); err != nil {
		return err
	}
	c.opts = opts
	return nil
}

// NextPage fetches the page after the last record seen and returns its
// records. Once the backend has reported no further rows the collection is
// Exhausted and NextPage returns an empty slice forever.
func (c *Collection) NextPage(ctx context.Context) ([]Record, error) {
	switch c.state {
	case StateUnfetched:
		return nil, c.strategy.annotate(NewInvariantViolation("next page requested before paginate"))
	case StateExhausted:
		c.records = []Record{}
		return c.records, nil
	}
	if err := c.load(ctx, c.last, c.opts.PerPage, c.page+1); err != nil {
		return nil, err
	}
	return c.records, nil
}

// load fetches one page and commits the new cursor state only on success.
func (c *Collection) load(ctx context.Context, after Bookmark, perPage, page int) error {
	res, err := c.strategy.fetch(ctx, c.handle, PageRequest{Limit: perPage, After: after}, page)
	if err != nil {
		return err
	}

	bm := c.strategy.bookmarker
	entry := c.strategy.index.entry
	records := make([]Record, 0, len(res.Rows))
	last := after
	for _, row := range res.Rows {
		records = append(records, entry(row))
		last = bm.BookmarkFor(row)
	}

	c.records = records
	c.last = last
	c.page = page
	c.hasMore = res.HasMore
	if res.HasMore {
		c.state = StateFetched
	} else {
		c.state = StateExhausted
	}
	return nil
}

// Records returns the records of the current page, newest first.
func (c *Collection) Records() []Record {
	return c.records
}

// State returns the paging state.
func (c *Collection) State() State { return c.state }

// Page returns the 1-based number of the current page, 0 before Paginate.
func (c *Collection) Page() int { return c.page }

// PerPage returns the effective page size.
func (c *Collection) PerPage() int { return c.opts.PerPage }

// HasMore reports whether the backend reported rows past the current page.
func (c *Collection) HasMore() bool { return c.hasMore }

// Bookmark returns the bookmark of the last row of the current page, or the
// resume bookmark when the page is empty. Pass it as PageOptions.Bookmark to
// continue in a later request.
func (c *Collection) Bookmark() Bookmark { return c.last }
