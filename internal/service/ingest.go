package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ap6pack/PDF-Search-Plus/internal/cache"
	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
	"github.com/Ap6pack/PDF-Search-Plus/internal/ocr"
	"github.com/Ap6pack/PDF-Search-Plus/internal/pdf"
	"github.com/Ap6pack/PDF-Search-Plus/internal/security"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

const defaultWorkers = 5

// FileResult reports the outcome of ingesting one file.
type FileResult struct {
	Path  string
	PDFID uint
	Pages int
	Err   error
}

// BatchSummary aggregates a folder run.
type BatchSummary struct {
	BatchID   string
	Processed int
	Failed    int
	Results   []FileResult
	Elapsed   time.Duration
}

type IngestOption func(*Ingestor)

func WithOpener(open pdf.Opener) IngestOption {
	return func(i *Ingestor) { i.open = open }
}

func WithEngine(engine ocr.Engine) IngestOption {
	return func(i *Ingestor) { i.engine = engine }
}

func WithWorkers(n int) IngestOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.workers = n
		}
	}
}

// NewIngestor creates the extraction pipeline. The cache and generation are
// shared with the search side so finished ingests invalidate stale results.
func NewIngestor(st store.Store, kv cache.Cache, gen *Generation, opts ...IngestOption) *Ingestor {
	i := &Ingestor{
		store:      st,
		cache:      kv,
		generation: gen,
		open:       pdf.Open,
		engine:     ocr.NewTesseract(),
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingestor extracts text and images from PDF files, runs OCR over the
// images, and persists everything page by page.
type Ingestor struct {
	store      store.Store
	cache      cache.Cache
	generation *Generation
	open       pdf.Opener
	engine     ocr.Engine
	workers    int

	ocrChecked     sync.Once
	ocrUnavailable atomic.Bool
}

// ProcessFile ingests a single PDF. Re-running on the same path replaces the
// stored pages instead of duplicating them. Cancellation is honored between
// pages; pages already stored stay stored.
func (i *Ingestor) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	result := FileResult{Path: path}

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result, err
	}
	if err := security.ValidatePDFPath(path); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrFileAccess, err)
		return result, result.Err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrFileAccess, err)
		return result, result.Err
	}

	doc, err := i.open(absPath)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: %v", ErrCorruptDocument, path, err)
		return result, result.Err
	}
	defer doc.Close()

	file := &model.PDFFile{
		FileName: security.SanitizeFileName(filepath.Base(absPath)),
		FilePath: absPath,
	}
	if err := i.store.UpsertPDFFile(ctx, file); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrPersistence, err)
		return result, result.Err
	}
	result.PDFID = file.ID

	// Once a single page has been replaced the stored content differs from
	// whatever is cached, so invalidation must happen even when the run
	// stops early on cancellation or a page-level failure.
	defer func() {
		if result.Pages > 0 {
			i.finish(context.WithoutCancel(ctx), file.ID)
		}
	}()

	total := doc.NumPages()
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			result.Pages = n - 1
			result.Err = err
			return result, err
		}

		data, err := i.extractPage(ctx, doc, file.ID, n)
		if err != nil {
			result.Pages = n - 1
			result.Err = err
			return result, err
		}

		if err := i.store.ReplacePage(ctx, data); err != nil {
			result.Pages = n - 1
			result.Err = fmt.Errorf("%w: page %d of %s: %v", ErrPersistence, n, path, err)
			return result, result.Err
		}
		result.Pages = n
	}

	logrus.Infof("processed %s: %d pages", file.FileName, result.Pages)
	return result, nil
}

// extractPage pulls the text and images of one page and OCRs every decodable
// image. A failed OCR run is logged and skipped; blank recognition results
// produce no row at all.
func (i *Ingestor) extractPage(ctx context.Context, doc pdf.Document, pdfID uint, n int) (*store.PageData, error) {
	page, err := doc.Page(n)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrCorruptDocument, n, err)
	}

	text, err := page.Text()
	if err != nil {
		logrus.Warnf("text extraction failed on page %d: %v", n, err)
		text = ""
	}

	data := &store.PageData{
		Page: model.Page{
			PDFID:      pdfID,
			PageNumber: n,
			Text:       security.SanitizeText(text),
		},
	}

	images, err := page.Images()
	if err != nil {
		logrus.Warnf("image extraction failed on page %d: %v", n, err)
		return data, nil
	}

	for _, img := range images {
		data.Images = append(data.Images, model.Image{
			PDFID:      pdfID,
			PageNumber: n,
			ImageName:  img.Name,
			ImageExt:   img.Ext,
		})

		if img.Data == nil {
			continue
		}
		recognized := i.recognize(ctx, n, img)
		if recognized == "" {
			continue
		}
		data.OCRTexts = append(data.OCRTexts, model.OCRText{
			PDFID:      pdfID,
			PageNumber: n,
			OCRText:    recognized,
		})
	}

	return data, nil
}

func (i *Ingestor) recognize(ctx context.Context, pageNumber int, img pdf.ImageRef) string {
	i.ocrChecked.Do(func() {
		if err := i.engine.Available(); err != nil {
			i.ocrUnavailable.Store(true)
			logrus.Warnf("%s is not available, images will be stored without recognized text: %v", i.engine.Name(), err)
		}
	})
	if i.ocrUnavailable.Load() {
		return ""
	}

	text, err := i.engine.Recognize(ctx, ocr.Input{Name: img.Name, Ext: img.Ext, Data: img.Data})
	if err != nil {
		if errors.Is(err, ocr.ErrUnavailable) {
			i.ocrUnavailable.Store(true)
		}
		logrus.Errorf("%v: %s on page %d: %v", ErrOCR, img.Name, pageNumber, err)
		return ""
	}
	return security.SanitizeText(text)
}

// finish invalidates cached content for the document and bumps the search
// generation so stale result pages expire.
func (i *Ingestor) finish(ctx context.Context, pdfID uint) {
	if i.cache != nil {
		if err := i.cache.InvalidateDocument(ctx, pdfID); err != nil {
			logrus.Warnf("cache invalidation for document %d failed: %v", pdfID, err)
		}
	}
	if i.generation != nil {
		i.generation.Bump()
	}
}

// ProcessFolder ingests every PDF directly under dir with a bounded pool of
// workers. One bad file fails that file only; the batch keeps going.
func (i *Ingestor) ProcessFolder(ctx context.Context, dir string) (*BatchSummary, error) {
	if err := security.ValidateFolderPath(dir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileAccess, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileAccess, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	summary := &BatchSummary{BatchID: uuid.New().String()}
	if len(paths) == 0 {
		logrus.Infof("batch %s: no pdf files in %s", summary.BatchID, dir)
		return summary, nil
	}

	logrus.Infof("batch %s: processing %d files from %s with %d workers",
		summary.BatchID, len(paths), dir, i.workers)
	start := time.Now()

	jobs := make(chan string)
	results := make(chan FileResult, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < i.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				res, _ := i.ProcessFile(ctx, path)
				results <- res
			}
		}()
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
		case jobs <- path:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()
	close(results)

	for res := range results {
		summary.Results = append(summary.Results, res)
		if res.Err != nil {
			summary.Failed++
			logrus.Errorf("batch %s: %s failed: %v", summary.BatchID, res.Path, res.Err)
		} else {
			summary.Processed++
		}
	}
	summary.Elapsed = time.Since(start)

	logrus.Infof("batch %s: %d processed, %d failed in %s",
		summary.BatchID, summary.Processed, summary.Failed, summary.Elapsed)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}
