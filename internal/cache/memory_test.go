package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHitAndMissCounting(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	_, ok := m.Get(ctx, "absent")
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	v, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	stats := m.Stats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

func TestMemoryInvalidateDocument(t *testing.T) {
	m := NewMemory(time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, PageKey(7, 1), []byte("page one"), 0))
	require.NoError(t, m.Set(ctx, PageKey(7, 2), []byte("page two"), 0))
	require.NoError(t, m.Set(ctx, PageKey(8, 1), []byte("other doc"), 0))

	require.NoError(t, m.InvalidateDocument(ctx, 7))

	_, ok := m.Get(ctx, PageKey(7, 1))
	assert.False(t, ok)
	_, ok = m.Get(ctx, PageKey(7, 2))
	assert.False(t, ok)
	_, ok = m.Get(ctx, PageKey(8, 1))
	assert.True(t, ok)
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	m := NewMemory(time.Minute, WithMaxEntries(2))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
	_, _ = m.Get(ctx, "a")
	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))

	// b was the least recently used entry.
	_, ok := m.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = m.Get(ctx, "c")
	assert.True(t, ok)

	assert.EqualValues(t, 1, m.Stats().Evictions)
}

func TestMemoryPressureShrinksAndRecovers(t *testing.T) {
	pressured := true
	fakeInfo := func() (*mem.VirtualMemoryStat, error) {
		if pressured {
			return &mem.VirtualMemoryStat{UsedPercent: 95, Available: 1024}, nil
		}
		return &mem.VirtualMemoryStat{UsedPercent: 20, Available: 8 * 1024 * 1024 * 1024}, nil
	}

	m := NewMemory(time.Minute, WithMaxEntries(16), withMemoryInfo(fakeInfo))
	ctx := context.Background()

	for i := 0; i < 16; i++ {
		require.NoError(t, m.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0))
	}

	m.CheckMemoryPressure()
	stats := m.Stats()
	assert.Equal(t, 4, stats.Capacity)
	assert.LessOrEqual(t, stats.Entries, 4)
	assert.EqualValues(t, 12, stats.PressureEvictions)

	pressured = false
	m.CheckMemoryPressure()
	assert.Equal(t, 8, m.Stats().Capacity)
	m.CheckMemoryPressure()
	assert.Equal(t, 16, m.Stats().Capacity)
	m.CheckMemoryPressure()
	assert.Equal(t, 16, m.Stats().Capacity)
}

func TestMemoryPressureErrorLeavesCapacity(t *testing.T) {
	failing := func() (*mem.VirtualMemoryStat, error) {
		return nil, fmt.Errorf("no proc mounted")
	}
	m := NewMemory(time.Minute, WithMaxEntries(8), withMemoryInfo(failing))
	m.CheckMemoryPressure()
	assert.Equal(t, 8, m.Stats().Capacity)
}
