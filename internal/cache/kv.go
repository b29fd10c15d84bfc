// Package cache provides the bounded caches that sit in front of page
// extraction and search queries. Three backends share one contract: an
// in-process memory-aware LRU, a compressed disk cache, and redis.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores opaque payloads under string keys. Entries expire by TTL and
// may be evicted earlier under size or memory pressure; callers must always
// be able to recompute a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// InvalidateDocument drops every entry belonging to one document so a
	// re-ingested file can never serve stale pages or images.
	InvalidateDocument(ctx context.Context, pdfID uint) error
	Purge(ctx context.Context) error
	Stats() Stats
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	Hits              uint64
	Misses            uint64
	Evictions         uint64
	PressureEvictions uint64
	Entries           int
	Capacity          int
}

func documentPrefix(pdfID uint) string {
	return fmt.Sprintf("doc:%d:", pdfID)
}

// PageKey caches rendered/extracted page content.
func PageKey(pdfID uint, pageNumber int) string {
	return fmt.Sprintf("doc:%d:page:%d", pdfID, pageNumber)
}

// ImageKey caches extracted image payloads.
func ImageKey(pdfID uint, pageNumber int, name string) string {
	return fmt.Sprintf("doc:%d:image:%d:%s", pdfID, pageNumber, name)
}

// SearchKey caches one page of search results. The generation number is
// bumped on every ingest, so results can never outlive the data they were
// computed from.
func SearchKey(generation uint64, signature string) string {
	return fmt.Sprintf("search:%d:%s", generation, signature)
}
