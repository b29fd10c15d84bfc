package jobs

import (
	"github.com/sirupsen/logrus"

	"github.com/Ap6pack/PDF-Search-Plus/internal/cache"
)

// MemoryWatch periodically samples system memory and lets the in-process
// cache shrink or regrow accordingly.
type MemoryWatch struct {
	cache    *cache.Memory
	schedule string
}

func NewMemoryWatch(schedule string, c *cache.Memory) *MemoryWatch {
	if schedule == "" {
		schedule = "@every 30s"
	}
	return &MemoryWatch{cache: c, schedule: schedule}
}

func (m *MemoryWatch) Name() string {
	return "memory_watch"
}

func (m *MemoryWatch) Schedule() string {
	return m.schedule
}

func (m *MemoryWatch) Run() {
	m.cache.CheckMemoryPressure()
	stats := m.cache.Stats()
	logrus.Debugf("cache: %d/%d entries, %d hits, %d misses, %d pressure evictions",
		stats.Entries, stats.Capacity, stats.Hits, stats.Misses, stats.PressureEvictions)
}
