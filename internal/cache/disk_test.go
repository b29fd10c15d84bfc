package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ap6pack/PDF-Search-Plus/internal/compress"
)

func newDisk(t *testing.T, maxBytes int64, maxItems int) *Disk {
	t.Helper()
	d, err := NewDisk(t.TempDir(), maxBytes, maxItems, compress.NewGZip())
	require.NoError(t, err)
	return d
}

func TestDiskRoundTrip(t *testing.T) {
	d := newDisk(t, 1<<20, 10)
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, "k", []byte("compressed payload"), 0))
	v, ok := d.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("compressed payload"), v)

	_, ok = d.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestDiskExpiry(t *testing.T) {
	d := newDisk(t, 1<<20, 10)
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	_, ok := d.Get(ctx, "short")
	assert.False(t, ok)
}

func TestDiskEvictsByItemCount(t *testing.T) {
	d := newDisk(t, 1<<20, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0))
	}

	stats := d.Stats()
	assert.LessOrEqual(t, stats.Entries, 3)
	assert.Positive(t, stats.Evictions)

	// The most recent entry always survives.
	_, ok := d.Get(ctx, "k4")
	assert.True(t, ok)
}

func TestDiskInvalidateDocument(t *testing.T) {
	d := newDisk(t, 1<<20, 10)
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, PageKey(3, 1), []byte("a"), 0))
	require.NoError(t, d.Set(ctx, ImageKey(3, 1, "image_page1_1"), []byte("b"), 0))
	require.NoError(t, d.Set(ctx, PageKey(4, 1), []byte("c"), 0))

	require.NoError(t, d.InvalidateDocument(ctx, 3))

	_, ok := d.Get(ctx, PageKey(3, 1))
	assert.False(t, ok)
	_, ok = d.Get(ctx, ImageKey(3, 1, "image_page1_1"))
	assert.False(t, ok)
	_, ok = d.Get(ctx, PageKey(4, 1))
	assert.True(t, ok)
}

func TestDiskMetadataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	d, err := NewDisk(dir, 1<<20, 10, compress.NewGZip())
	require.NoError(t, err)
	require.NoError(t, d.Set(ctx, "persistent", []byte("still here"), 0))

	reopened, err := NewDisk(dir, 1<<20, 10, compress.NewGZip())
	require.NoError(t, err)
	v, ok := reopened.Get(ctx, "persistent")
	require.True(t, ok)
	assert.Equal(t, []byte("still here"), v)
}
