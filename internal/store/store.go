package store

import (
	"context"
	"errors"
	"time"

	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("record already exists")
	// ErrCategoryCycle is returned when a parent change would make the
	// category hierarchy cyclic.
	ErrCategoryCycle = errors.New("category hierarchy would become cyclic")
)

// SearchMode selects how the text match is executed.
type SearchMode string

const (
	// SearchModeLike is the default substring match. The full-text MATCH
	// path produced repeated column-mismatch regressions historically, so
	// LIKE is the documented intended behavior.
	SearchModeLike SearchMode = "like"
	// SearchModeFTS uses the FTS5 virtual tables with ranked snippets.
	SearchModeFTS SearchMode = "fts"
)

// SearchFilter narrows a search by tags and categories. Dimensions combine
// with AND; within TagIDs, TagMatchAll selects ALL (every tag present)
// versus ANY.
type SearchFilter struct {
	TagIDs      []uint
	TagMatchAll bool
	CategoryIDs []uint
}

// SearchHit is one row of a search result page. Every column consulted by
// ORDER BY is projected here; that pairing is what keeps pagination
// deterministic and disjoint.
type SearchHit struct {
	PDFID        uint      `gorm:"column:pdf_id"`
	FileName     string    `gorm:"column:file_name"`
	PageNumber   int       `gorm:"column:page_number"`
	Snippet      string    `gorm:"column:snippet"`
	Source       string    `gorm:"column:source"`
	LastAccessed time.Time `gorm:"column:last_accessed"`
}

// PageData is the per-page payload the ingest pipeline persists in one
// transaction: the page text plus any images and their OCR results.
type PageData struct {
	Page     model.Page
	Images   []model.Image
	OCRTexts []model.OCRText
}

type Store interface {
	PDFStore
	SearchStore
	TagStore
	CategoryStore
	AnnotationStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
	VerifySchema() error
}

type PDFStore interface {
	// UpsertPDFFile creates the metadata row for a path or, when the same
	// file_name+file_path pair exists, touches last_accessed and reuses it.
	UpsertPDFFile(ctx context.Context, file *model.PDFFile) error
	GetPDFFile(ctx context.Context, id uint) (*model.PDFFile, error)
	GetPDFFileByPath(ctx context.Context, fileName, filePath string) (*model.PDFFile, error)
	ListPDFFiles(ctx context.Context) ([]*model.PDFFile, error)
	DeletePDFFile(ctx context.Context, id uint) error
	TouchPDFFile(ctx context.Context, id uint) error

	// ReplacePage idempotently stores one page's extraction output:
	// upserts the page row and replaces the page's image and OCR rows.
	ReplacePage(ctx context.Context, data *PageData) error
	GetPage(ctx context.Context, pdfID uint, pageNumber int) (*model.Page, error)
	ListPages(ctx context.Context, pdfID uint) ([]*model.Page, error)
	CountPages(ctx context.Context, pdfID uint) (int64, error)
	ListImages(ctx context.Context, pdfID uint) ([]*model.Image, error)
	ListOCRTexts(ctx context.Context, pdfID uint) ([]*model.OCRText, error)
}

type SearchStore interface {
	// Search returns one page of hits ordered by (last_accessed DESC,
	// pdf_id, page_number, source), all of which are projected columns.
	Search(ctx context.Context, term string, mode SearchMode, filter SearchFilter, limit, offset int) ([]*SearchHit, error)
	CountSearch(ctx context.Context, term string, mode SearchMode, filter SearchFilter) (int64, error)
}

type TagStore interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	UpdateTag(ctx context.Context, tag *model.Tag) error
	DeleteTag(ctx context.Context, id uint) error
	GetTag(ctx context.Context, id uint) (*model.Tag, error)
	ListTags(ctx context.Context) ([]*model.Tag, error)
	AssignTag(ctx context.Context, pdfID, tagID uint) error
	RemoveTag(ctx context.Context, pdfID, tagID uint) error
	ListPDFTags(ctx context.Context, pdfID uint) ([]*model.Tag, error)
	// ListPDFIDsByTags returns documents carrying ANY of the tags, or ALL
	// of them when matchAll is set.
	ListPDFIDsByTags(ctx context.Context, tagIDs []uint, matchAll bool) ([]uint, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uint) error
	GetCategory(ctx context.Context, id uint) (*model.Category, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	// SetCategoryParent re-parents a category, rejecting cycles.
	SetCategoryParent(ctx context.Context, id uint, parentID *uint) error
	AssignCategory(ctx context.Context, pdfID, categoryID uint) error
	RemoveCategory(ctx context.Context, pdfID, categoryID uint) error
	ListPDFCategories(ctx context.Context, pdfID uint) ([]*model.Category, error)
	ListPDFIDsByCategories(ctx context.Context, categoryIDs []uint) ([]uint, error)
}

type AnnotationStore interface {
	CreateAnnotation(ctx context.Context, annotation *model.Annotation) error
	UpdateAnnotation(ctx context.Context, annotation *model.Annotation) error
	DeleteAnnotation(ctx context.Context, id uint) error
	GetAnnotation(ctx context.Context, id uint) (*model.Annotation, error)
	ListPDFAnnotations(ctx context.Context, pdfID uint) ([]*model.Annotation, error)
	ListPageAnnotations(ctx context.Context, pdfID uint, pageNumber int) ([]*model.Annotation, error)
	SearchAnnotations(ctx context.Context, term string, limit, offset int) ([]*model.Annotation, error)
}
