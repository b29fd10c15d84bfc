package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
	"github.com/Ap6pack/PDF-Search-Plus/internal/tester"
)

func newStore(t *testing.T) *store.GormStore {
	t.Helper()
	return store.NewGormStore(tester.TestDB())
}

func createFile(t *testing.T, st *store.GormStore, name string) *model.PDFFile {
	t.Helper()
	file := &model.PDFFile{FileName: name, FilePath: "/docs/" + name}
	require.NoError(t, st.UpsertPDFFile(context.Background(), file))
	require.NotZero(t, file.ID)
	return file
}

func TestUpsertPDFFileIsIdempotent(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	first := createFile(t, st, "upsert.pdf")

	second := &model.PDFFile{FileName: "upsert.pdf", FilePath: "/docs/upsert.pdf"}
	require.NoError(t, st.UpsertPDFFile(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	stored, err := st.GetPDFFile(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastAccessed.After(first.CreatedAt) || stored.LastAccessed.Equal(first.CreatedAt))

	files, err := st.ListPDFFiles(ctx)
	require.NoError(t, err)
	count := 0
	for _, f := range files {
		if f.FileName == "upsert.pdf" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestReplacePageReplacesImagesAndOCR(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	file := createFile(t, st, "replace.pdf")

	data := &store.PageData{
		Page: model.Page{PDFID: file.ID, PageNumber: 1, Text: "first version"},
		Images: []model.Image{
			{PDFID: file.ID, PageNumber: 1, ImageName: "image_page1_1", ImageExt: "png"},
			{PDFID: file.ID, PageNumber: 1, ImageName: "image_page1_2", ImageExt: "jpg"},
		},
		OCRTexts: []model.OCRText{
			{PDFID: file.ID, PageNumber: 1, OCRText: "stamped APPROVED"},
		},
	}
	require.NoError(t, st.ReplacePage(ctx, data))

	// Second run with different content must replace, not accumulate.
	data2 := &store.PageData{
		Page: model.Page{PDFID: file.ID, PageNumber: 1, Text: "second version"},
		Images: []model.Image{
			{PDFID: file.ID, PageNumber: 1, ImageName: "image_page1_1", ImageExt: "png"},
		},
	}
	require.NoError(t, st.ReplacePage(ctx, data2))

	page, err := st.GetPage(ctx, file.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "second version", page.Text)

	count, err := st.CountPages(ctx, file.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	images, err := st.ListImages(ctx, file.ID)
	require.NoError(t, err)
	assert.Len(t, images, 1)

	texts, err := st.ListOCRTexts(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestSearchFindsTextAndOCR(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	file := createFile(t, st, "findable.pdf")

	require.NoError(t, st.ReplacePage(ctx, &store.PageData{
		Page: model.Page{PDFID: file.ID, PageNumber: 1, Text: "quarterly zebrafish report"},
	}))
	require.NoError(t, st.ReplacePage(ctx, &store.PageData{
		Page: model.Page{PDFID: file.ID, PageNumber: 2, Text: "nothing relevant here"},
		OCRTexts: []model.OCRText{
			{PDFID: file.ID, PageNumber: 2, OCRText: "ZEBRAFISH scanned stamp"},
		},
	}))

	hits, err := st.Search(ctx, "zebrafish", store.SearchModeLike, store.SearchFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	sources := map[string]int{}
	for _, hit := range hits {
		assert.Equal(t, file.ID, hit.PDFID)
		assert.Equal(t, "findable.pdf", hit.FileName)
		sources[hit.Source]++
	}
	assert.Equal(t, 1, sources["PDF Text"])
	assert.Equal(t, 1, sources["OCR Text"])

	total, err := st.CountSearch(ctx, "zebrafish", store.SearchModeLike, store.SearchFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestSearchPagesAreDisjoint(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	file := createFile(t, st, "paginated.pdf")

	for n := 1; n <= 5; n++ {
		require.NoError(t, st.ReplacePage(ctx, &store.PageData{
			Page: model.Page{PDFID: file.ID, PageNumber: n, Text: fmt.Sprintf("wombat sighting %d", n)},
		}))
	}

	seen := map[string]bool{}
	for offset := 0; offset < 5; offset += 2 {
		hits, err := st.Search(ctx, "wombat", store.SearchModeLike, store.SearchFilter{}, 2, offset)
		require.NoError(t, err)
		for _, hit := range hits {
			key := fmt.Sprintf("%d/%d/%s", hit.PDFID, hit.PageNumber, hit.Source)
			assert.False(t, seen[key], "hit %s appeared on two pages", key)
			seen[key] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestSearchTagFilters(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	tagged := createFile(t, st, "tagged.pdf")
	untagged := createFile(t, st, "untagged.pdf")
	for _, f := range []*model.PDFFile{tagged, untagged} {
		require.NoError(t, st.ReplacePage(ctx, &store.PageData{
			Page: model.Page{PDFID: f.ID, PageNumber: 1, Text: "platypus memo"},
		}))
	}

	urgent := &model.Tag{Name: "urgent-filter-test", Color: "#ff0000"}
	require.NoError(t, st.CreateTag(ctx, urgent))
	finance := &model.Tag{Name: "finance-filter-test", Color: "#00ff00"}
	require.NoError(t, st.CreateTag(ctx, finance))

	require.NoError(t, st.AssignTag(ctx, tagged.ID, urgent.ID))

	// ANY of [urgent] matches only the tagged file.
	hits, err := st.Search(ctx, "platypus", store.SearchModeLike,
		store.SearchFilter{TagIDs: []uint{urgent.ID}}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, tagged.ID, hits[0].PDFID)

	// ALL of [urgent, finance] matches nothing until both are assigned.
	hits, err = st.Search(ctx, "platypus", store.SearchModeLike,
		store.SearchFilter{TagIDs: []uint{urgent.ID, finance.ID}, TagMatchAll: true}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, st.AssignTag(ctx, tagged.ID, finance.ID))
	hits, err = st.Search(ctx, "platypus", store.SearchModeLike,
		store.SearchFilter{TagIDs: []uint{urgent.ID, finance.ID}, TagMatchAll: true}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, tagged.ID, hits[0].PDFID)

	// Unfiltered search still sees both files.
	total, err := st.CountSearch(ctx, "platypus", store.SearchModeLike, store.SearchFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestDuplicateTagRejected(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateTag(ctx, &model.Tag{Name: "once-only", Color: "#808080"}))
	err := st.CreateTag(ctx, &model.Tag{Name: "once-only", Color: "#808080"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestCategoryCycleRejected(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	root := &model.Category{Name: "cycle-root"}
	require.NoError(t, st.CreateCategory(ctx, root))
	child := &model.Category{Name: "cycle-child", ParentID: &root.ID}
	require.NoError(t, st.CreateCategory(ctx, child))
	grandchild := &model.Category{Name: "cycle-grandchild", ParentID: &child.ID}
	require.NoError(t, st.CreateCategory(ctx, grandchild))

	// Moving the root under its grandchild would close a loop.
	err := st.SetCategoryParent(ctx, root.ID, &grandchild.ID)
	assert.ErrorIs(t, err, store.ErrCategoryCycle)

	// A category can never be its own parent.
	err = st.SetCategoryParent(ctx, root.ID, &root.ID)
	assert.ErrorIs(t, err, store.ErrCategoryCycle)

	// Re-parenting to a sibling branch stays legal.
	other := &model.Category{Name: "cycle-other"}
	require.NoError(t, st.CreateCategory(ctx, other))
	assert.NoError(t, st.SetCategoryParent(ctx, grandchild.ID, &other.ID))
}

func TestDeletePDFFileRemovesDependents(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	file := createFile(t, st, "doomed.pdf")

	require.NoError(t, st.ReplacePage(ctx, &store.PageData{
		Page:     model.Page{PDFID: file.ID, PageNumber: 1, Text: "ephemeral content"},
		Images:   []model.Image{{PDFID: file.ID, PageNumber: 1, ImageName: "image_page1_1", ImageExt: "png"}},
		OCRTexts: []model.OCRText{{PDFID: file.ID, PageNumber: 1, OCRText: "ephemeral scan"}},
	}))
	require.NoError(t, st.CreateAnnotation(ctx, &model.Annotation{
		PDFID: file.ID, PageNumber: 1, Content: "remember this", Type: "note",
	}))

	require.NoError(t, st.DeletePDFFile(ctx, file.ID))

	_, err := st.GetPDFFile(ctx, file.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	count, err := st.CountPages(ctx, file.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	images, err := st.ListImages(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	annotations, err := st.ListPDFAnnotations(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, annotations)

	total, err := st.CountSearch(ctx, "ephemeral", store.SearchModeLike, store.SearchFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSearchFullTextMode(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	// Without the sqlite_fts5 build tag the virtual tables cannot exist and
	// full-text mode is rejected up front instead of failing mid-query.
	if !model.HasFTS(tester.TestDB()) {
		_, err := st.Search(ctx, "anything", store.SearchModeFTS, store.SearchFilter{}, 10, 0)
		assert.ErrorIs(t, err, model.ErrFTSUnavailable)
		_, err = st.CountSearch(ctx, "anything", store.SearchModeFTS, store.SearchFilter{})
		assert.ErrorIs(t, err, model.ErrFTSUnavailable)
		return
	}

	file := createFile(t, st, "fulltext.pdf")
	require.NoError(t, st.ReplacePage(ctx, &store.PageData{
		Page: model.Page{PDFID: file.ID, PageNumber: 1, Text: "statement for period 2024-01 enclosed"},
	}))
	require.NoError(t, st.ReplacePage(ctx, &store.PageData{
		Page: model.Page{PDFID: file.ID, PageNumber: 2, Text: "unrelated appendix"},
		OCRTexts: []model.OCRText{
			{PDFID: file.ID, PageNumber: 2, OCRText: "received 2024-01 scanned"},
		},
	}))

	hits, err := st.Search(ctx, "statement", store.SearchModeFTS, store.SearchFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Contains(t, hits[0].Snippet, "<mark>statement</mark>")

	// Hyphenated terms carry FTS5 operator characters and must still match
	// literally in both indexes.
	hits, err = st.Search(ctx, "2024-01", store.SearchModeFTS, store.SearchFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	total, err := st.CountSearch(ctx, "2024-01", store.SearchModeFTS, store.SearchFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestSearchAnnotations(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	file := createFile(t, st, "annotated.pdf")

	require.NoError(t, st.ReplacePage(ctx, &store.PageData{
		Page: model.Page{PDFID: file.ID, PageNumber: 1, Text: "body text"},
	}))
	require.NoError(t, st.CreateAnnotation(ctx, &model.Annotation{
		PDFID: file.ID, PageNumber: 1, Content: "follow up with Legal", Type: "note",
	}))

	found, err := st.SearchAnnotations(ctx, "legal", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, file.ID, found[0].PDFID)
}
