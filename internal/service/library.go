package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ap6pack/PDF-Search-Plus/internal/cache"
	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

const pageCacheTTL = 10 * time.Minute

// DocumentDetail is everything known about one ingested file.
type DocumentDetail struct {
	File       *model.PDFFile
	PageCount  int64
	Images     []*model.Image
	Tags       []*model.Tag
	Categories []*model.Category
}

func NewLibrary(st store.Store, kv cache.Cache) *Library {
	return &Library{store: st, cache: kv}
}

// Library serves reads over the ingested document collection and owns
// document removal.
type Library struct {
	store store.Store
	cache cache.Cache
}

func (l *Library) ListDocuments(ctx context.Context) ([]*model.PDFFile, error) {
	files, err := l.store.ListPDFFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return files, nil
}

func (l *Library) GetDocument(ctx context.Context, id uint) (*DocumentDetail, error) {
	file, err := l.store.GetPDFFile(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &DocumentDetail{File: file}
	if detail.PageCount, err = l.store.CountPages(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if detail.Images, err = l.store.ListImages(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if detail.Tags, err = l.store.ListPDFTags(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if detail.Categories, err = l.store.ListPDFCategories(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Viewing a document counts as access for recency ordering.
	if err := l.store.TouchPDFFile(ctx, id); err != nil {
		logrus.Warnf("failed to touch document %d: %v", id, err)
	}
	return detail, nil
}

// GetPageText returns one page's extracted text, cached per page so paging
// through a viewer does not requery.
func (l *Library) GetPageText(ctx context.Context, pdfID uint, pageNumber int) (string, error) {
	key := cache.PageKey(pdfID, pageNumber)
	if l.cache != nil {
		if raw, ok := l.cache.Get(ctx, key); ok {
			return string(raw), nil
		}
	}

	page, err := l.store.GetPage(ctx, pdfID, pageNumber)
	if err != nil {
		return "", err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, []byte(page.Text), pageCacheTTL); err != nil {
			logrus.Warnf("failed to cache page text: %v", err)
		}
	}
	return page.Text, nil
}

// DeleteDocument removes the file with all pages, images, recognized text,
// annotations and associations, and drops its cached content.
func (l *Library) DeleteDocument(ctx context.Context, id uint) error {
	if _, err := l.store.GetPDFFile(ctx, id); err != nil {
		return err
	}
	if err := l.store.DeletePDFFile(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if l.cache != nil {
		if err := l.cache.InvalidateDocument(ctx, id); err != nil {
			logrus.Warnf("cache invalidation for document %d failed: %v", id, err)
		}
	}
	return nil
}
