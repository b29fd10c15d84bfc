package service

import "errors"

var (
	// ErrFileAccess is returned when a source file cannot be reached or read.
	ErrFileAccess = errors.New("file access failed")
	// ErrCorruptDocument is returned when a file is not a readable PDF.
	ErrCorruptDocument = errors.New("document is corrupt or unreadable")
	// ErrOCR is returned when text recognition fails on an extracted image.
	ErrOCR = errors.New("ocr failed")
	// ErrPersistence is returned when a database operation fails.
	ErrPersistence = errors.New("persistence failed")
	// ErrValidation is returned when user-supplied input is rejected.
	ErrValidation = errors.New("invalid input")
)
