// Package ocr defines the recognition capability used by the ingest
// pipeline. One concrete engine is selected at configuration time.
package ocr

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the engine binary cannot be found or executed.
	ErrUnavailable = errors.New("ocr engine unavailable")
	// ErrTimeout means the engine process exceeded its deadline.
	ErrTimeout = errors.New("ocr timed out")
	// ErrFailed means the engine ran and exited non-zero.
	ErrFailed = errors.New("ocr failed")
)

// Input is one image payload to recognize. Ext hints the staging file
// extension so the engine's format sniffing has something to go on.
type Input struct {
	Name string
	Ext  string
	Data []byte
}

// Engine recognizes text in an image. An image with no recoverable text
// yields an empty string and a nil error.
type Engine interface {
	// Name identifies the engine in logs and config.
	Name() string
	// Available reports whether the engine can run at all.
	Available() error
	// Recognize returns the text found in the image.
	Recognize(ctx context.Context, in Input) (string, error)
}
