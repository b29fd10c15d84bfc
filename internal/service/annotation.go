package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
	"github.com/Ap6pack/PDF-Search-Plus/internal/security"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

var annotationTypes = map[string]bool{
	"note":      true,
	"highlight": true,
	"underline": true,
}

func NewAnnotations(st store.Store) *Annotations {
	return &Annotations{store: st}
}

// Annotations manages user notes and highlights attached to page regions.
type Annotations struct {
	store store.Store
}

func (a *Annotations) Create(ctx context.Context, annotation *model.Annotation) error {
	if err := a.validate(ctx, annotation, true); err != nil {
		return err
	}
	annotation.Content = security.SanitizeText(annotation.Content)
	return a.store.CreateAnnotation(ctx, annotation)
}

func (a *Annotations) Update(ctx context.Context, annotation *model.Annotation) error {
	if _, err := a.store.GetAnnotation(ctx, annotation.ID); err != nil {
		return err
	}
	if err := a.validate(ctx, annotation, false); err != nil {
		return err
	}
	annotation.Content = security.SanitizeText(annotation.Content)
	return a.store.UpdateAnnotation(ctx, annotation)
}

func (a *Annotations) Delete(ctx context.Context, id uint) error {
	return a.store.DeleteAnnotation(ctx, id)
}

func (a *Annotations) ForDocument(ctx context.Context, pdfID uint) ([]*model.Annotation, error) {
	return a.store.ListPDFAnnotations(ctx, pdfID)
}

func (a *Annotations) ForPage(ctx context.Context, pdfID uint, pageNumber int) ([]*model.Annotation, error) {
	return a.store.ListPageAnnotations(ctx, pdfID, pageNumber)
}

func (a *Annotations) Search(ctx context.Context, term string, limit, offset int) ([]*model.Annotation, error) {
	term = security.SanitizeSearchTerm(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is empty", ErrValidation)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	return a.store.SearchAnnotations(ctx, term, limit, offset)
}

func (a *Annotations) validate(ctx context.Context, annotation *model.Annotation, checkPage bool) error {
	if annotation.Type != "" && !annotationTypes[annotation.Type] {
		return fmt.Errorf("%w: unknown annotation type %q", ErrValidation, annotation.Type)
	}
	if annotation.Width < 0 || annotation.Height < 0 {
		return fmt.Errorf("%w: annotation rectangle has negative size", ErrValidation)
	}
	if strings.TrimSpace(annotation.Content) == "" && annotation.Type == "note" {
		return fmt.Errorf("%w: note annotations need content", ErrValidation)
	}
	if checkPage {
		if _, err := a.store.GetPage(ctx, annotation.PDFID, annotation.PageNumber); err != nil {
			return fmt.Errorf("page %d of document %d: %w", annotation.PageNumber, annotation.PDFID, err)
		}
	}
	return nil
}
