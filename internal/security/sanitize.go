package security

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const maxSearchTermLen = 100

// SanitizeText strips control characters from text destined for storage or
// display. Newlines and tabs survive.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= 32 || r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeSearchTerm strips quoting and path characters from a user search
// term and caps its length. Queries are parameterized regardless; this keeps
// terms from smuggling LIKE/FTS syntax the user did not intend.
func SanitizeSearchTerm(term string) string {
	if term == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(term))
	for _, r := range term {
		switch r {
		case ';', '\'', '"', '\\', '/':
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	s := strings.TrimSpace(b.String())
	if len(s) > maxSearchTermLen {
		s = s[:maxSearchTermLen]
	}
	return s
}

// SanitizeFileName makes a file name safe for storage and display.
func SanitizeFileName(name string) string {
	if name == "" {
		return "unnamed"
	}
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_",
		"<", "_", ">", "_", ":", "_", "\"", "_", "|", "_", "?", "_", "*", "_",
	)
	s := replacer.Replace(name)
	s = SanitizeText(s)
	if len(s) > 255 {
		s = s[:255]
	}
	if s == "" {
		return "unnamed"
	}
	return s
}

// ValidatePDFPath checks that path points at a readable regular file with a
// PDF signature and contains no traversal segments. It is called before the
// parser ever sees the path.
func ValidatePDFPath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if containsTraversal(path) {
		return fmt.Errorf("path %q contains traversal segments", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%q is not a regular file", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%q does not have a .pdf extension", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sig := make([]byte, 4)
	if _, err := io.ReadFull(f, sig); err != nil {
		return fmt.Errorf("reading signature of %q: %w", path, err)
	}
	if string(sig) != "%PDF" {
		return fmt.Errorf("%q is not a PDF file", path)
	}
	return nil
}

// ValidateFolderPath checks that path is an existing, readable directory.
func ValidateFolderPath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if containsTraversal(path) {
		return fmt.Errorf("path %q contains traversal segments", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func containsTraversal(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
