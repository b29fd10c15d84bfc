package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}

func TestOpenGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 but then nonsense"), 0o600))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestClosedDocumentRejectsPages(t *testing.T) {
	d := &document{}
	d.closed = true
	_, err := d.Page(1)
	assert.ErrorIs(t, err, ErrClosed)
}
