package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxEntries     = 256
	defaultTTL            = 5 * time.Minute
	defaultMinFreeBytes   = 500 * 1024 * 1024
	defaultMaxUsedPercent = 75.0
)

// memoryInfo is swapped out in tests to simulate pressure.
type memoryInfo func() (*mem.VirtualMemoryStat, error)

// Memory is an in-process LRU with TTL expiry that adapts its capacity to
// system memory. Under pressure it shrinks to evict the least recently used
// entries first, and grows back toward its configured size once pressure
// clears.
type Memory struct {
	mu         sync.Mutex
	lru        *lru.LRU[string, []byte]
	capacity   int
	maxEntries int

	minFreeBytes   uint64
	maxUsedPercent float64
	vmem           memoryInfo

	hits              atomic.Uint64
	misses            atomic.Uint64
	evictions         atomic.Uint64
	pressureEvictions atomic.Uint64
}

type MemoryOption func(*Memory)

func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) { m.maxEntries = n }
}

func WithMinFreeBytes(n uint64) MemoryOption {
	return func(m *Memory) { m.minFreeBytes = n }
}

func WithMaxUsedPercent(p float64) MemoryOption {
	return func(m *Memory) { m.maxUsedPercent = p }
}

func withMemoryInfo(f memoryInfo) MemoryOption {
	return func(m *Memory) { m.vmem = f }
}

var _ Cache = (*Memory)(nil)

func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		maxEntries:     defaultMaxEntries,
		minFreeBytes:   defaultMinFreeBytes,
		maxUsedPercent: defaultMaxUsedPercent,
		vmem:           mem.VirtualMemory,
	}
	for _, opt := range opts {
		opt(m)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	m.capacity = m.maxEntries
	m.lru = lru.NewLRU[string, []byte](m.maxEntries, func(string, []byte) {
		m.evictions.Add(1)
	}, ttl)
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.lru.Get(key)
	if ok {
		m.hits.Add(1)
		return v, true
	}
	m.misses.Add(1)
	return nil, false
}

func (m *Memory) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	// TTL is fixed at construction; the per-call TTL is accepted for
	// interface compatibility with the redis and disk backends.
	m.lru.Add(key, value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

func (m *Memory) InvalidateDocument(_ context.Context, pdfID uint) error {
	prefix := documentPrefix(pdfID)
	for _, key := range m.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.lru.Remove(key)
		}
	}
	return nil
}

func (m *Memory) Purge(_ context.Context) error {
	m.lru.Purge()
	return nil
}

func (m *Memory) Stats() Stats {
	m.mu.Lock()
	capacity := m.capacity
	m.mu.Unlock()
	return Stats{
		Hits:              m.hits.Load(),
		Misses:            m.misses.Load(),
		Evictions:         m.evictions.Load(),
		PressureEvictions: m.pressureEvictions.Load(),
		Entries:           m.lru.Len(),
		Capacity:          capacity,
	}
}

// CheckMemoryPressure samples system memory and resizes the cache: shrink to
// a quarter while the machine is short on memory, step back up once it is
// not. Called from the periodic memory watch job.
func (m *Memory) CheckMemoryPressure() {
	vm, err := m.vmem()
	if err != nil {
		logrus.Warnf("memory pressure check failed: %v", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	underPressure := vm.UsedPercent > m.maxUsedPercent || vm.Available < m.minFreeBytes
	if underPressure {
		target := m.capacity / 4
		if target < 1 {
			target = 1
		}
		if target < m.capacity {
			evicted := m.lru.Resize(target)
			m.capacity = target
			m.pressureEvictions.Add(uint64(evicted))
			logrus.Warnf("memory pressure (%.1f%% used, %d MB free): cache resized to %d entries, %d evicted",
				vm.UsedPercent, vm.Available/1024/1024, target, evicted)
		}
		return
	}

	if m.capacity < m.maxEntries {
		target := m.capacity * 2
		if target > m.maxEntries {
			target = m.maxEntries
		}
		m.lru.Resize(target)
		m.capacity = target
	}
}
