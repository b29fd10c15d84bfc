package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ap6pack/PDF-Search-Plus/internal/compress"
	"github.com/sirupsen/logrus"
)

const metadataFile = "metadata.json"

type diskEntry struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	Created    time.Time `json:"created"`
	LastAccess time.Time `json:"last_access"`
	Expires    time.Time `json:"expires"`
}

// Disk stores compressed entries as files under a cache directory, bounded
// by total size and entry count with LRU eviction by access time. It holds
// large payloads (page images) without pinning them in memory.
type Disk struct {
	dir      string
	maxBytes int64
	maxItems int
	codec    compress.Compress

	mu      sync.Mutex
	entries map[string]*diskEntry

	hits   atomic.Uint64
	misses atomic.Uint64
	evict  atomic.Uint64
}

var _ Cache = (*Disk)(nil)

func NewDisk(dir string, maxBytes int64, maxItems int, codec compress.Compress) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	d := &Disk{
		dir:      dir,
		maxBytes: maxBytes,
		maxItems: maxItems,
		codec:    codec,
		entries:  make(map[string]*diskEntry),
	}
	d.loadMetadata()
	return d, nil
}

func (d *Disk) path(key string) string {
	sum := sha1.Sum([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:])+".cache")
}

func (d *Disk) Get(_ context.Context, key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[key]
	if !ok {
		d.misses.Add(1)
		return nil, false
	}
	if !entry.Expires.IsZero() && time.Now().After(entry.Expires) {
		d.removeLocked(key)
		d.misses.Add(1)
		return nil, false
	}

	raw, err := os.ReadFile(d.path(key))
	if err != nil {
		// File vanished underneath us; drop the stale entry.
		d.removeLocked(key)
		d.misses.Add(1)
		return nil, false
	}

	value, err := d.codec.Decode(raw)
	if err != nil {
		logrus.Warnf("disk cache entry %s is unreadable: %v", key, err)
		d.removeLocked(key)
		d.misses.Add(1)
		return nil, false
	}

	entry.LastAccess = time.Now()
	d.saveMetadataLocked()
	d.hits.Add(1)
	return value, true
}

func (d *Disk) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := d.codec.Encode(value)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.ensureSpaceLocked(int64(len(encoded)))

	if err := os.WriteFile(d.path(key), encoded, 0o600); err != nil {
		return err
	}

	now := time.Now()
	entry := &diskEntry{
		Key:        key,
		Size:       int64(len(encoded)),
		Created:    now,
		LastAccess: now,
	}
	if ttl > 0 {
		entry.Expires = now.Add(ttl)
	}
	d.entries[key] = entry
	d.saveMetadataLocked()
	return nil
}

func (d *Disk) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(key)
	d.saveMetadataLocked()
	return nil
}

func (d *Disk) InvalidateDocument(_ context.Context, pdfID uint) error {
	prefix := documentPrefix(pdfID)
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.entries {
		if strings.HasPrefix(key, prefix) {
			d.removeLocked(key)
		}
	}
	d.saveMetadataLocked()
	return nil
}

func (d *Disk) Purge(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.entries {
		d.removeLocked(key)
	}
	d.saveMetadataLocked()
	return nil
}

func (d *Disk) Stats() Stats {
	d.mu.Lock()
	entries := len(d.entries)
	d.mu.Unlock()
	return Stats{
		Hits:      d.hits.Load(),
		Misses:    d.misses.Load(),
		Evictions: d.evict.Load(),
		Entries:   entries,
		Capacity:  d.maxItems,
	}
}

func (d *Disk) removeLocked(key string) {
	if _, ok := d.entries[key]; !ok {
		return
	}
	if err := os.Remove(d.path(key)); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("failed to remove cached file for %s: %v", key, err)
	}
	delete(d.entries, key)
}

// ensureSpaceLocked evicts least recently used entries until the incoming
// payload fits both bounds.
func (d *Disk) ensureSpaceLocked(incoming int64) {
	var total int64
	for _, e := range d.entries {
		total += e.Size
	}

	needEviction := func() bool {
		return len(d.entries) >= d.maxItems || total+incoming > d.maxBytes
	}
	if !needEviction() {
		return
	}

	ordered := make([]*diskEntry, 0, len(d.entries))
	for _, e := range d.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].LastAccess.Before(ordered[j].LastAccess)
	})

	for _, e := range ordered {
		if !needEviction() {
			break
		}
		total -= e.Size
		d.removeLocked(e.Key)
		d.evict.Add(1)
	}
}

func (d *Disk) loadMetadata() {
	raw, err := os.ReadFile(filepath.Join(d.dir, metadataFile))
	if err != nil {
		return
	}
	var entries map[string]*diskEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logrus.Warnf("failed to load disk cache metadata: %v", err)
		return
	}
	d.entries = entries
}

func (d *Disk) saveMetadataLocked() {
	raw, err := json.Marshal(d.entries)
	if err != nil {
		logrus.Warnf("failed to encode disk cache metadata: %v", err)
		return
	}
	if err := os.WriteFile(filepath.Join(d.dir, metadataFile), raw, 0o600); err != nil {
		logrus.Warnf("failed to save disk cache metadata: %v", err)
	}
}
