package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

const defaultTagColor = "#808080"

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func NewTagging(st store.Store) *Tagging {
	return &Tagging{store: st}
}

// Tagging manages tags and hierarchical categories and their assignment to
// documents.
type Tagging struct {
	store store.Store
}

func (t *Tagging) CreateTag(ctx context.Context, name, color string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is empty", ErrValidation)
	}
	if color == "" {
		color = defaultTagColor
	}
	if !colorPattern.MatchString(color) {
		return nil, fmt.Errorf("%w: color %q is not a hex color", ErrValidation, color)
	}

	tag := &model.Tag{Name: name, Color: color}
	if err := t.store.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (t *Tagging) RenameTag(ctx context.Context, id uint, name, color string) error {
	tag, err := t.store.GetTag(ctx, id)
	if err != nil {
		return err
	}
	if name = strings.TrimSpace(name); name != "" {
		tag.Name = name
	}
	if color != "" {
		if !colorPattern.MatchString(color) {
			return fmt.Errorf("%w: color %q is not a hex color", ErrValidation, color)
		}
		tag.Color = color
	}
	return t.store.UpdateTag(ctx, tag)
}

func (t *Tagging) DeleteTag(ctx context.Context, id uint) error {
	return t.store.DeleteTag(ctx, id)
}

func (t *Tagging) ListTags(ctx context.Context) ([]*model.Tag, error) {
	return t.store.ListTags(ctx)
}

func (t *Tagging) TagDocument(ctx context.Context, pdfID, tagID uint) error {
	if _, err := t.store.GetPDFFile(ctx, pdfID); err != nil {
		return err
	}
	if _, err := t.store.GetTag(ctx, tagID); err != nil {
		return err
	}
	return t.store.AssignTag(ctx, pdfID, tagID)
}

func (t *Tagging) UntagDocument(ctx context.Context, pdfID, tagID uint) error {
	return t.store.RemoveTag(ctx, pdfID, tagID)
}

func (t *Tagging) CreateCategory(ctx context.Context, name string, parentID *uint) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is empty", ErrValidation)
	}
	category := &model.Category{Name: name, ParentID: parentID}
	if err := t.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (t *Tagging) MoveCategory(ctx context.Context, id uint, parentID *uint) error {
	return t.store.SetCategoryParent(ctx, id, parentID)
}

func (t *Tagging) DeleteCategory(ctx context.Context, id uint) error {
	return t.store.DeleteCategory(ctx, id)
}

func (t *Tagging) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return t.store.ListCategories(ctx)
}

func (t *Tagging) CategorizeDocument(ctx context.Context, pdfID, categoryID uint) error {
	if _, err := t.store.GetPDFFile(ctx, pdfID); err != nil {
		return err
	}
	if _, err := t.store.GetCategory(ctx, categoryID); err != nil {
		return err
	}
	return t.store.AssignCategory(ctx, pdfID, categoryID)
}

func (t *Tagging) UncategorizeDocument(ctx context.Context, pdfID, categoryID uint) error {
	return t.store.RemoveCategory(ctx, pdfID, categoryID)
}
