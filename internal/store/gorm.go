package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) VerifySchema() error {
	return model.VerifySchema(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (g *GormStore) UpsertPDFFile(ctx context.Context, file *model.PDFFile) error {
	db := g.db.WithContext(ctx)

	var existing model.PDFFile
	err := db.Where("file_name = ? AND file_path = ?", file.FileName, file.FilePath).First(&existing).Error
	if err == nil {
		file.ID = existing.ID
		file.CreatedAt = existing.CreatedAt
		file.LastAccessed = time.Now()
		return db.Model(&model.PDFFile{}).Where("id = ?", existing.ID).
			Update("last_accessed", file.LastAccessed).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	file.LastAccessed = time.Now()
	return db.Create(file).Error
}

func (g *GormStore) GetPDFFile(ctx context.Context, id uint) (*model.PDFFile, error) {
	var file model.PDFFile
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&file).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &file, nil
}

func (g *GormStore) GetPDFFileByPath(ctx context.Context, fileName, filePath string) (*model.PDFFile, error) {
	var file model.PDFFile
	err := g.db.WithContext(ctx).Where("file_name = ? AND file_path = ?", fileName, filePath).First(&file).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &file, nil
}

func (g *GormStore) ListPDFFiles(ctx context.Context) ([]*model.PDFFile, error) {
	var files []*model.PDFFile
	err := g.db.WithContext(ctx).Order("last_accessed desc").Find(&files).Error
	return files, err
}

// DeletePDFFile removes the file row and all dependents. Dependents are
// deleted explicitly so behavior does not hinge on FK pragma support.
func (g *GormStore) DeletePDFFile(ctx context.Context, id uint) error {
	return g.Transaction(ctx, func(tx Store) error {
		db := tx.(*GormStore).db
		for _, m := range []interface{}{
			&model.Page{}, &model.Image{}, &model.OCRText{}, &model.Annotation{},
		} {
			if err := db.Where("pdf_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := db.Where("pdf_id = ?", id).Delete(&model.PDFTag{}).Error; err != nil {
			return err
		}
		if err := db.Where("pdf_id = ?", id).Delete(&model.PDFCategory{}).Error; err != nil {
			return err
		}
		return db.Where("id = ?", id).Delete(&model.PDFFile{}).Error
	})
}

func (g *GormStore) TouchPDFFile(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Model(&model.PDFFile{}).Where("id = ?", id).
		Update("last_accessed", time.Now()).Error
}

func (g *GormStore) ReplacePage(ctx context.Context, data *PageData) error {
	return g.Transaction(ctx, func(tx Store) error {
		db := tx.(*GormStore).db

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pdf_id"}, {Name: "page_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"text"}),
		}).Create(&data.Page).Error
		if err != nil {
			return err
		}

		pdfID, pageNumber := data.Page.PDFID, data.Page.PageNumber
		if err := db.Where("pdf_id = ? AND page_number = ?", pdfID, pageNumber).Delete(&model.Image{}).Error; err != nil {
			return err
		}
		if err := db.Where("pdf_id = ? AND page_number = ?", pdfID, pageNumber).Delete(&model.OCRText{}).Error; err != nil {
			return err
		}

		for i := range data.Images {
			if err := db.Create(&data.Images[i]).Error; err != nil {
				return err
			}
		}
		for i := range data.OCRTexts {
			if err := db.Create(&data.OCRTexts[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *GormStore) GetPage(ctx context.Context, pdfID uint, pageNumber int) (*model.Page, error) {
	var page model.Page
	err := g.db.WithContext(ctx).Where("pdf_id = ? AND page_number = ?", pdfID, pageNumber).First(&page).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &page, nil
}

func (g *GormStore) ListPages(ctx context.Context, pdfID uint) ([]*model.Page, error) {
	var pages []*model.Page
	err := g.db.WithContext(ctx).Where("pdf_id = ?", pdfID).
		Order("page_number").Find(&pages).Error
	return pages, err
}

func (g *GormStore) CountPages(ctx context.Context, pdfID uint) (int64, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.Page{}).Where("pdf_id = ?", pdfID).Count(&count).Error
	return count, err
}

func (g *GormStore) ListImages(ctx context.Context, pdfID uint) ([]*model.Image, error) {
	var images []*model.Image
	err := g.db.WithContext(ctx).Where("pdf_id = ?", pdfID).
		Order("page_number, image_name").Find(&images).Error
	return images, err
}

func (g *GormStore) ListOCRTexts(ctx context.Context, pdfID uint) ([]*model.OCRText, error) {
	var texts []*model.OCRText
	err := g.db.WithContext(ctx).Where("pdf_id = ?", pdfID).
		Order("page_number, id").Find(&texts).Error
	return texts, err
}

// Search projection. ORDER BY must only ever name columns from this list;
// the historical "ORDER BY term not in result set" defect came from the two
// drifting apart.
const (
	searchProjection = `pdf_files.id AS pdf_id, pdf_files.file_name, %s.page_number, %s AS snippet, '%s' AS source, pdf_files.last_accessed`
	searchOrder      = ` ORDER BY last_accessed DESC, pdf_id ASC, page_number ASC, source ASC`
)

func (g *GormStore) Search(ctx context.Context, term string, mode SearchMode, filter SearchFilter, limit, offset int) ([]*SearchHit, error) {
	query, args, empty, err := g.buildSearch(ctx, term, mode, filter)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, nil
	}

	query += searchOrder + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var hits []*SearchHit
	if err := g.db.WithContext(ctx).Raw(query, args...).Scan(&hits).Error; err != nil {
		logrus.Errorf("search query failed: %v", err)
		return nil, err
	}
	return hits, nil
}

func (g *GormStore) CountSearch(ctx context.Context, term string, mode SearchMode, filter SearchFilter) (int64, error) {
	query, args, empty, err := g.buildSearch(ctx, term, mode, filter)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, nil
	}

	var count int64
	wrapped := "SELECT COUNT(*) FROM (" + query + ") AS hits"
	if err := g.db.WithContext(ctx).Raw(wrapped, args...).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// buildSearch assembles the UNION over page text and OCR text. The returned
// query has no ORDER BY/LIMIT so it can serve both the page fetch and the
// count.
func (g *GormStore) buildSearch(ctx context.Context, term string, mode SearchMode, filter SearchFilter) (string, []interface{}, bool, error) {
	ids, restricted, err := g.resolveFilter(ctx, filter)
	if err != nil {
		return "", nil, false, err
	}
	if restricted && len(ids) == 0 {
		return "", nil, true, nil
	}

	idClause := ""
	if restricted {
		idClause = " AND pdf_files.id IN (?)"
	}

	var query string
	var args []interface{}

	switch mode {
	case SearchModeFTS:
		if g.db.Dialector.Name() != "sqlite" {
			return "", nil, false, fmt.Errorf("full-text mode requires the sqlite backend")
		}
		if !model.HasFTS(g.db) {
			return "", nil, false, model.ErrFTSUnavailable
		}
		contentSel := fmt.Sprintf(searchProjection, "fts_content", "snippet(fts_content, 2, '<mark>', '</mark>', '...', 15)", "PDF Text")
		ocrSel := fmt.Sprintf(searchProjection, "fts_ocr", "snippet(fts_ocr, 2, '<mark>', '</mark>', '...', 15)", "OCR Text")
		query = "SELECT " + contentSel + " FROM fts_content JOIN pdf_files ON fts_content.pdf_id = pdf_files.id WHERE fts_content MATCH ?" + idClause +
			" UNION SELECT " + ocrSel + " FROM fts_ocr JOIN pdf_files ON fts_ocr.pdf_id = pdf_files.id WHERE fts_ocr MATCH ?" + idClause

		ftsTerm := ftsQuote(term)
		args = append(args, ftsTerm)
		if restricted {
			args = append(args, ids)
		}
		args = append(args, ftsTerm)
		if restricted {
			args = append(args, ids)
		}

	default:
		contentSel := fmt.Sprintf(searchProjection, "pages", "pages.text", "PDF Text")
		ocrSel := fmt.Sprintf(searchProjection, "ocr_text", "ocr_text.ocr_text", "OCR Text")
		query = "SELECT " + contentSel + " FROM pages JOIN pdf_files ON pages.pdf_id = pdf_files.id WHERE LOWER(pages.text) LIKE ?" + idClause +
			" UNION SELECT " + ocrSel + " FROM ocr_text JOIN pdf_files ON ocr_text.pdf_id = pdf_files.id WHERE LOWER(ocr_text.ocr_text) LIKE ?" + idClause

		pattern := "%" + strings.ToLower(term) + "%"
		args = append(args, pattern)
		if restricted {
			args = append(args, ids)
		}
		args = append(args, pattern)
		if restricted {
			args = append(args, ids)
		}
	}

	return query, args, false, nil
}

// ftsQuote turns user input into a quoted FTS5 prefix phrase so characters
// like "-" or ":" are matched literally instead of being parsed as query
// operators. The historical failure mode was a term like "2024-01" blowing up
// with "no such column: 01".
func ftsQuote(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, "") + `"*`
}

// resolveFilter reduces the tag and category dimensions to a set of document
// IDs. Dimensions intersect (AND); an empty intersection short-circuits the
// whole search.
func (g *GormStore) resolveFilter(ctx context.Context, filter SearchFilter) ([]uint, bool, error) {
	restricted := false
	var result mapset.Set[uint]

	if len(filter.TagIDs) > 0 {
		ids, err := g.ListPDFIDsByTags(ctx, filter.TagIDs, filter.TagMatchAll)
		if err != nil {
			return nil, false, err
		}
		result = mapset.NewSet[uint](ids...)
		restricted = true
	}

	if len(filter.CategoryIDs) > 0 {
		ids, err := g.ListPDFIDsByCategories(ctx, filter.CategoryIDs)
		if err != nil {
			return nil, false, err
		}
		set := mapset.NewSet[uint](ids...)
		if restricted {
			result = result.Intersect(set)
		} else {
			result = set
		}
		restricted = true
	}

	if !restricted {
		return nil, false, nil
	}
	return result.ToSlice(), true, nil
}

func (g *GormStore) CreateTag(ctx context.Context, tag *model.Tag) error {
	db := g.db.WithContext(ctx)

	var existing model.Tag
	err := db.Where("name = ?", tag.Name).First(&existing).Error
	if err == nil {
		return fmt.Errorf("%w: tag %q", ErrDuplicate, tag.Name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Create(tag).Error
}

func (g *GormStore) UpdateTag(ctx context.Context, tag *model.Tag) error {
	res := g.db.WithContext(ctx).Model(&model.Tag{}).Where("id = ?", tag.ID).
		Updates(map[string]interface{}{"name": tag.Name, "color": tag.Color})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormStore) DeleteTag(ctx context.Context, id uint) error {
	return g.Transaction(ctx, func(tx Store) error {
		db := tx.(*GormStore).db
		if err := db.Where("tag_id = ?", id).Delete(&model.PDFTag{}).Error; err != nil {
			return err
		}
		return db.Where("id = ?", id).Delete(&model.Tag{}).Error
	})
}

func (g *GormStore) GetTag(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &tag, nil
}

func (g *GormStore) ListTags(ctx context.Context) ([]*model.Tag, error) {
	var tags []*model.Tag
	err := g.db.WithContext(ctx).Order("name").Find(&tags).Error
	return tags, err
}

func (g *GormStore) AssignTag(ctx context.Context, pdfID, tagID uint) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.PDFTag{PDFID: pdfID, TagID: tagID}).Error
}

func (g *GormStore) RemoveTag(ctx context.Context, pdfID, tagID uint) error {
	return g.db.WithContext(ctx).Where("pdf_id = ? AND tag_id = ?", pdfID, tagID).
		Delete(&model.PDFTag{}).Error
}

func (g *GormStore) ListPDFTags(ctx context.Context, pdfID uint) ([]*model.Tag, error) {
	var tags []*model.Tag
	err := g.db.WithContext(ctx).
		Joins("JOIN pdf_tags ON pdf_tags.tag_id = tags.id").
		Where("pdf_tags.pdf_id = ?", pdfID).
		Order("tags.name").
		Find(&tags).Error
	return tags, err
}

func (g *GormStore) ListPDFIDsByTags(ctx context.Context, tagIDs []uint, matchAll bool) ([]uint, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}

	db := g.db.WithContext(ctx).Model(&model.PDFTag{}).
		Where("tag_id IN (?)", tagIDs).
		Group("pdf_id")
	if matchAll {
		db = db.Having("COUNT(DISTINCT tag_id) = ?", len(tagIDs))
	}

	var ids []uint
	err := db.Pluck("pdf_id", &ids).Error
	return ids, err
}

func (g *GormStore) CreateCategory(ctx context.Context, category *model.Category) error {
	if category.ParentID != nil {
		if _, err := g.GetCategory(ctx, *category.ParentID); err != nil {
			return fmt.Errorf("parent category: %w", err)
		}
	}
	return g.db.WithContext(ctx).Create(category).Error
}

func (g *GormStore) DeleteCategory(ctx context.Context, id uint) error {
	return g.Transaction(ctx, func(tx Store) error {
		db := tx.(*GormStore).db
		if err := db.Where("category_id = ?", id).Delete(&model.PDFCategory{}).Error; err != nil {
			return err
		}
		// Children of the deleted category move to the root.
		if err := db.Model(&model.Category{}).Where("parent_id = ?", id).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		return db.Where("id = ?", id).Delete(&model.Category{}).Error
	})
}

func (g *GormStore) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &category, nil
}

func (g *GormStore) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := g.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

// SetCategoryParent walks the would-be ancestor chain before committing so
// the hierarchy stays acyclic.
func (g *GormStore) SetCategoryParent(ctx context.Context, id uint, parentID *uint) error {
	if parentID != nil {
		current := parentID
		for current != nil {
			if *current == id {
				return ErrCategoryCycle
			}
			parent, err := g.GetCategory(ctx, *current)
			if err != nil {
				return err
			}
			current = parent.ParentID
		}
	}

	res := g.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).
		Update("parent_id", parentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormStore) AssignCategory(ctx context.Context, pdfID, categoryID uint) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.PDFCategory{PDFID: pdfID, CategoryID: categoryID}).Error
}

func (g *GormStore) RemoveCategory(ctx context.Context, pdfID, categoryID uint) error {
	return g.db.WithContext(ctx).Where("pdf_id = ? AND category_id = ?", pdfID, categoryID).
		Delete(&model.PDFCategory{}).Error
}

func (g *GormStore) ListPDFCategories(ctx context.Context, pdfID uint) ([]*model.Category, error) {
	var categories []*model.Category
	err := g.db.WithContext(ctx).
		Joins("JOIN pdf_categories ON pdf_categories.category_id = categories.id").
		Where("pdf_categories.pdf_id = ?", pdfID).
		Order("categories.name").
		Find(&categories).Error
	return categories, err
}

func (g *GormStore) ListPDFIDsByCategories(ctx context.Context, categoryIDs []uint) ([]uint, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := g.db.WithContext(ctx).Model(&model.PDFCategory{}).
		Where("category_id IN (?)", categoryIDs).
		Group("pdf_id").
		Pluck("pdf_id", &ids).Error
	return ids, err
}

func (g *GormStore) CreateAnnotation(ctx context.Context, annotation *model.Annotation) error {
	return g.db.WithContext(ctx).Create(annotation).Error
}

func (g *GormStore) UpdateAnnotation(ctx context.Context, annotation *model.Annotation) error {
	res := g.db.WithContext(ctx).Model(&model.Annotation{}).Where("id = ?", annotation.ID).
		Updates(map[string]interface{}{
			"x":       annotation.X,
			"y":       annotation.Y,
			"width":   annotation.Width,
			"height":  annotation.Height,
			"content": annotation.Content,
			"type":    annotation.Type,
			"color":   annotation.Color,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormStore) DeleteAnnotation(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Annotation{}).Error
}

func (g *GormStore) GetAnnotation(ctx context.Context, id uint) (*model.Annotation, error) {
	var annotation model.Annotation
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&annotation).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &annotation, nil
}

func (g *GormStore) ListPDFAnnotations(ctx context.Context, pdfID uint) ([]*model.Annotation, error) {
	var annotations []*model.Annotation
	err := g.db.WithContext(ctx).Where("pdf_id = ?", pdfID).
		Order("page_number, created_at").Find(&annotations).Error
	return annotations, err
}

func (g *GormStore) ListPageAnnotations(ctx context.Context, pdfID uint, pageNumber int) ([]*model.Annotation, error) {
	var annotations []*model.Annotation
	err := g.db.WithContext(ctx).Where("pdf_id = ? AND page_number = ?", pdfID, pageNumber).
		Order("created_at").Find(&annotations).Error
	return annotations, err
}

func (g *GormStore) SearchAnnotations(ctx context.Context, term string, limit, offset int) ([]*model.Annotation, error) {
	var annotations []*model.Annotation
	pattern := "%" + strings.ToLower(term) + "%"
	err := g.db.WithContext(ctx).Where("LOWER(content) LIKE ?", pattern).
		Order("created_at DESC, id").
		Limit(limit).Offset(offset).
		Find(&annotations).Error
	return annotations, err
}
