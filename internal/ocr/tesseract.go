package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultBinary   = "tesseract"
	defaultLanguage = "eng"
	defaultTimeout  = 30 * time.Second
)

// Tesseract invokes the tesseract binary as an external process, staging the
// image through a private temp file that is removed on every exit path.
type Tesseract struct {
	binary   string
	language string
	timeout  time.Duration
}

type TesseractOption func(*Tesseract)

func WithBinary(path string) TesseractOption {
	return func(t *Tesseract) { t.binary = path }
}

func WithLanguage(lang string) TesseractOption {
	return func(t *Tesseract) { t.language = lang }
}

func WithTimeout(d time.Duration) TesseractOption {
	return func(t *Tesseract) { t.timeout = d }
}

func NewTesseract(opts ...TesseractOption) *Tesseract {
	t := &Tesseract{
		binary:   defaultBinary,
		language: defaultLanguage,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tesseract) Name() string {
	return "tesseract"
}

func (t *Tesseract) Available() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (t *Tesseract) Recognize(ctx context.Context, in Input) (string, error) {
	if len(in.Data) == 0 {
		return "", nil
	}

	path, err := stage(in)
	if err != nil {
		return "", fmt.Errorf("%w: staging image: %v", ErrFailed, err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logrus.Warnf("failed to remove ocr staging file %s: %v", path, rmErr)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.binary, path, "stdout", "-l", t.language)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %s", ErrTimeout, t.timeout, in.Name)
		}
		return "", ctx.Err()
	}
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", fmt.Errorf("%w: %s: %v: %s", ErrFailed, in.Name, err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// stage writes the image to a temp file only the current user can read.
func stage(in Input) (string, error) {
	ext := in.Ext
	if ext == "" {
		ext = "png"
	}
	f, err := os.CreateTemp("", "pdfsearch-ocr-*."+ext)
	if err != nil {
		return "", err
	}

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if _, err := f.Write(in.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
