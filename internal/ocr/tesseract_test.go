package ocr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes an executable shell script acting as the ocr engine.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a unix shell")
	}
	path := filepath.Join(t.TempDir(), "fake-tesseract")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o700))
	return path
}

func TestRecognizeEmptyInput(t *testing.T) {
	engine := NewTesseract()
	text, err := engine.Recognize(context.Background(), Input{Name: "blank"})
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestRecognizeTrimsOutput(t *testing.T) {
	bin := fakeBinary(t, `echo "  INVOICE 2024  "`)
	engine := NewTesseract(WithBinary(bin))

	text, err := engine.Recognize(context.Background(), Input{
		Name: "image_page1_1", Ext: "png", Data: []byte{0x89, 0x50},
	})
	require.NoError(t, err)
	assert.Equal(t, "INVOICE 2024", text)
}

func TestRecognizeTimeout(t *testing.T) {
	bin := fakeBinary(t, "sleep 5")
	engine := NewTesseract(WithBinary(bin), WithTimeout(50*time.Millisecond))

	_, err := engine.Recognize(context.Background(), Input{
		Name: "slow", Ext: "png", Data: []byte{1},
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRecognizeEngineFailure(t *testing.T) {
	bin := fakeBinary(t, `echo "cannot read image" >&2; exit 2`)
	engine := NewTesseract(WithBinary(bin))

	_, err := engine.Recognize(context.Background(), Input{
		Name: "broken", Ext: "png", Data: []byte{1},
	})
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "cannot read image")
}

func TestRecognizeMissingBinary(t *testing.T) {
	engine := NewTesseract(WithBinary("no-such-ocr-binary"))

	err := engine.Available()
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = engine.Recognize(context.Background(), Input{
		Name: "any", Ext: "png", Data: []byte{1},
	})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecognizeCleansUpStagingFile(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "seen-path")
	bin := fakeBinary(t, `echo "$1" > `+marker+`; echo ok`)
	engine := NewTesseract(WithBinary(bin))

	_, err := engine.Recognize(context.Background(), Input{
		Name: "tracked", Ext: "png", Data: []byte{1},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(marker)
	require.NoError(t, err)
	staged := string(raw[:len(raw)-1])
	_, statErr := os.Stat(staged)
	assert.True(t, os.IsNotExist(statErr), "staging file %s should be removed", staged)
}
