package catalog

import (
	"context"

	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/shared"
	"github.com/avolkov/spotman/internal/store"
	"github.com/charmbracelet/log"
)

// PageSize is the fixed page size used for all remote fetches.
const PageSize = 50

// PageSource is the fetch half of the remote service the cache consumes.
type PageSource interface {
	FetchPage(ctx context.Context, op models.Operation, subKey string, limit, offset int) (models.Page, error)
}

// Cache memoizes paginated reads keyed by (operation, sub-key). Cached
// page lists replay verbatim with no remote calls; fresh fetches append
// each page to the snapshot entry as they arrive.
type Cache struct {
	svc      PageSource
	store    *store.Store
	logger   *log.Logger
	pageSize int
}

// NewCache creates a Cache over the given remote source and snapshot
// store.
func NewCache(svc PageSource, st *store.Store, logger *log.Logger) *Cache {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Cache{svc: svc, store: st, logger: logger, pageSize: PageSize}
}

// FetchAll returns a stream of pages for (op, subKey). If a cached page
// list exists and neither force nor a collection pass is active, the
// stream replays it. Otherwise it pages through the remote source until
// an empty page, resetting and repopulating the snapshot entry for the
// key. The stream must be drained by a single consumer before the same
// key is fetched again.
func (c *Cache) FetchAll(ctx context.Context, op models.Operation, subKey string, force bool) *PageStream {
	key := models.Key{Op: op, SubKey: subKey}

	if pages, ok := c.store.Pages(key); ok && !force && !c.store.Collecting() {
		c.logger.Debugf("using collected data for %s", key)
		return &PageStream{cached: pages, replay: true}
	}

	c.store.Reset(key)
	return &PageStream{
		ctx:      ctx,
		src:      c.svc,
		store:    c.store,
		key:      key,
		pageSize: c.pageSize,
	}
}

// PageStream is a pull-based iterator over pages, in the shape of
// [bufio.Scanner]: call Next until it returns false, then check Err.
// In fetch mode every page it pulls is also appended to the snapshot
// entry, so Pages exposes the accumulated list rather than mutating a
// shared container behind the caller's back.
type PageStream struct {
	ctx      context.Context
	src      PageSource
	store    *store.Store
	key      models.Key
	pageSize int

	replay  bool
	cached  []models.Page
	fetched []models.Page

	idx    int
	offset int
	cur    models.Page
	err    error
	done   bool
}

// Next advances to the next page. It returns false when the stream is
// exhausted or a fetch failed; distinguish via Err.
func (s *PageStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	if s.replay {
		if s.idx >= len(s.cached) {
			s.done = true
			return false
		}
		s.cur = s.cached[s.idx]
		s.idx++
		return true
	}

	page, err := s.src.FetchPage(s.ctx, s.key.Op, s.key.SubKey, s.pageSize, s.offset)
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	if len(page) == 0 {
		s.done = true
		return false
	}

	s.store.Append(s.key, page)
	s.fetched = append(s.fetched, page)
	s.cur = page
	s.offset += s.pageSize
	return true
}

// Page returns the current page. Valid only after a true Next.
func (s *PageStream) Page() models.Page { return s.cur }

// Err returns the first fetch error, if any.
func (s *PageStream) Err() error { return s.err }

// Pages returns the page list accumulated so far: the cached list in
// replay mode, the fetched pages otherwise.
func (s *PageStream) Pages() []models.Page {
	if s.replay {
		return s.cached
	}
	return s.fetched
}
