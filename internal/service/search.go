package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ap6pack/PDF-Search-Plus/internal/cache"
	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
	"github.com/Ap6pack/PDF-Search-Plus/internal/security"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	searchCacheTTL  = 5 * time.Minute
)

// Generation is a monotonic counter shared by the ingest and search sides.
// Every completed ingest bumps it, which retires all cached search pages at
// once without enumerating them.
type Generation struct {
	n atomic.Uint64
}

func (g *Generation) Current() uint64 { return g.n.Load() }
func (g *Generation) Bump() uint64    { return g.n.Add(1) }

// Query is one paginated search request. Page is 1-based.
type Query struct {
	Term     string
	Page     int
	PageSize int
	Mode     store.SearchMode
	Filter   store.SearchFilter
}

// ResultPage is one page of hits plus the numbers a pager needs.
type ResultPage struct {
	Hits       []*store.SearchHit `json:"hits"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
	FromCache  bool               `json:"-"`
}

func NewSearcher(st store.Store, kv cache.Cache, gen *Generation) *Searcher {
	return &Searcher{
		store:      st,
		cache:      kv,
		generation: gen,
	}
}

// Searcher answers paginated search queries over extracted and recognized
// text, caching whole result pages keyed by query signature and generation.
type Searcher struct {
	store      store.Store
	cache      cache.Cache
	generation *Generation
}

// Search sanitizes and validates the query, then serves the requested page
// from cache or from the store.
func (s *Searcher) Search(ctx context.Context, q Query) (*ResultPage, error) {
	term := security.SanitizeSearchTerm(q.Term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is empty", ErrValidation)
	}
	if q.Page < 1 {
		return nil, fmt.Errorf("%w: page must be positive, got %d", ErrValidation, q.Page)
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	if q.Mode == "" {
		q.Mode = store.SearchModeLike
	}

	key := cache.SearchKey(s.generation.Current(), s.signature(term, q))
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var page ResultPage
			if err := json.Unmarshal(raw, &page); err == nil {
				page.FromCache = true
				return &page, nil
			}
			// Unreadable entry, fall through and recompute.
			_ = s.cache.Delete(ctx, key)
		}
	}

	total, err := s.store.CountSearch(ctx, term, q.Mode, q.Filter)
	if err != nil {
		return nil, wrapSearchErr(err)
	}

	offset := (q.Page - 1) * q.PageSize
	var hits []*store.SearchHit
	if int64(offset) < total {
		hits, err = s.store.Search(ctx, term, q.Mode, q.Filter, q.PageSize, offset)
		if err != nil {
			return nil, wrapSearchErr(err)
		}
	}

	page := &ResultPage{
		Hits:       hits,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int((total + int64(q.PageSize) - 1) / int64(q.PageSize)),
	}

	if s.cache != nil {
		if raw, err := json.Marshal(page); err == nil {
			if err := s.cache.Set(ctx, key, raw, searchCacheTTL); err != nil {
				logrus.Warnf("failed to cache search page: %v", err)
			}
		}
	}
	return page, nil
}

// wrapSearchErr classifies a store failure: asking for full-text mode on a
// build without the fts5 module is a rejected request, not a storage fault.
func wrapSearchErr(err error) error {
	if errors.Is(err, model.ErrFTSUnavailable) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

// signature folds every query dimension into a stable digest so distinct
// queries can never collide on a cache key.
func (s *Searcher) signature(term string, q Query) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|%v|%v|%v",
		term, q.Mode, q.Page, q.PageSize, q.Filter.TagIDs, q.Filter.TagMatchAll, q.Filter.CategoryIDs)
	return hex.EncodeToString(h.Sum(nil))
}
