// Package pdf wraps the external PDF library behind a small capability
// contract so the pipeline can iterate pages lazily and tests can substitute
// an in-memory document.
package pdf

import "errors"

var (
	// ErrCorrupt marks documents the underlying library cannot parse.
	ErrCorrupt = errors.New("corrupt pdf document")
	// ErrClosed is returned when a page is requested after Close.
	ErrClosed = errors.New("document is closed")
)

// ImageRef is one embedded image pulled from a page. Data may be nil when
// the stream uses a filter the reader cannot decode; callers record the
// metadata and skip OCR in that case.
type ImageRef struct {
	Name string
	Ext  string
	Data []byte
}

// Page gives access to the content of a single page. Extraction happens on
// demand so a document never has to be fully materialized.
type Page interface {
	Number() int
	Text() (string, error)
	Images() ([]ImageRef, error)
}

// Document is an open PDF. Callers must Close it on every exit path.
type Document interface {
	NumPages() int
	Page(n int) (Page, error)
	Close() error
}

// Opener opens a document from a path. The default is Open; tests swap in
// fakes.
type Opener func(path string) (Document, error)
