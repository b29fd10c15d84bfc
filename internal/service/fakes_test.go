package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ap6pack/PDF-Search-Plus/internal/ocr"
	"github.com/Ap6pack/PDF-Search-Plus/internal/pdf"
)

// fakePage is an in-memory page with fixed text and images.
type fakePage struct {
	number int
	text   string
	images []pdf.ImageRef
}

func (p *fakePage) Number() int                     { return p.number }
func (p *fakePage) Text() (string, error)           { return p.text, nil }
func (p *fakePage) Images() ([]pdf.ImageRef, error) { return p.images, nil }

// fakeDoc serves its pages in order; failAt makes the given page number
// unreadable to simulate a document that breaks partway through.
type fakeDoc struct {
	pages  []*fakePage
	failAt int
	closed bool
}

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) Page(n int) (pdf.Page, error) {
	if d.closed {
		return nil, pdf.ErrClosed
	}
	if d.failAt != 0 && n == d.failAt {
		return nil, pdf.ErrCorrupt
	}
	return d.pages[n-1], nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

// fakeOpener serves canned documents by path and reports corrupt ones.
func fakeOpener(docs map[string]*fakeDoc) pdf.Opener {
	return func(path string) (pdf.Document, error) {
		doc, ok := docs[filepath.Base(path)]
		if !ok {
			return nil, pdf.ErrCorrupt
		}
		return doc, nil
	}
}

// fakeEngine recognizes image payloads from a lookup table keyed by image
// name and counts invocations.
type fakeEngine struct {
	texts    map[string]string
	err      error
	availErr error
	calls    atomic.Int64
}

func (e *fakeEngine) Name() string     { return "fake" }
func (e *fakeEngine) Available() error { return e.availErr }

func (e *fakeEngine) Recognize(_ context.Context, in ocr.Input) (string, error) {
	e.calls.Add(1)
	if e.err != nil {
		return "", e.err
	}
	return e.texts[in.Name], nil
}

// writePDFStub creates a real file that passes path validation; content
// parsing is handled by the fake opener.
func writePDFStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o600))
	return path
}
