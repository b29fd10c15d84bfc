package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ap6pack/PDF-Search-Plus/internal/cache"
	"github.com/Ap6pack/PDF-Search-Plus/internal/model"
	"github.com/Ap6pack/PDF-Search-Plus/internal/service"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
	"github.com/Ap6pack/PDF-Search-Plus/internal/tester"
)

func seedDocument(t *testing.T, st *store.GormStore, name string, pages []string) *model.PDFFile {
	t.Helper()
	ctx := context.Background()
	file := &model.PDFFile{FileName: name, FilePath: "/seed/" + name}
	require.NoError(t, st.UpsertPDFFile(ctx, file))
	for i, text := range pages {
		require.NoError(t, st.ReplacePage(ctx, &store.PageData{
			Page: model.Page{PDFID: file.ID, PageNumber: i + 1, Text: text},
		}))
	}
	return file
}

func TestSearchValidation(t *testing.T) {
	st := store.NewGormStore(tester.TestDB())
	searcher := service.NewSearcher(st, nil, &service.Generation{})
	ctx := context.Background()

	_, err := searcher.Search(ctx, service.Query{Term: "", Page: 1})
	assert.ErrorIs(t, err, service.ErrValidation)

	// A term that sanitizes to nothing is as bad as an empty one.
	_, err = searcher.Search(ctx, service.Query{Term: `;'"/\`, Page: 1})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = searcher.Search(ctx, service.Query{Term: "fine", Page: 0})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestSearchPaginationNumbers(t *testing.T) {
	st := store.NewGormStore(tester.TestDB())
	seedDocument(t, st, "pager.pdf", []string{
		"armadillo one", "armadillo two", "armadillo three",
		"armadillo four", "armadillo five",
	})

	searcher := service.NewSearcher(st, nil, &service.Generation{})
	ctx := context.Background()

	page, err := searcher.Search(ctx, service.Query{Term: "armadillo", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Hits, 2)

	last, err := searcher.Search(ctx, service.Query{Term: "armadillo", Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, last.Hits, 1)

	// Requests past the end are valid and empty.
	beyond, err := searcher.Search(ctx, service.Query{Term: "armadillo", Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Hits)
	assert.EqualValues(t, 5, beyond.Total)
}

func TestSearchFullTextModeDependsOnBuild(t *testing.T) {
	st := store.NewGormStore(tester.TestDB())
	searcher := service.NewSearcher(st, nil, &service.Generation{})
	ctx := context.Background()

	q := service.Query{Term: "heron survey", Page: 1, Mode: store.SearchModeFTS}

	if !model.HasFTS(tester.TestDB()) {
		// Builds without the fts5 module reject the mode as bad input
		// instead of surfacing a storage fault.
		_, err := searcher.Search(ctx, q)
		assert.ErrorIs(t, err, service.ErrValidation)
		return
	}

	seedDocument(t, st, "heron.pdf", []string{"annual heron survey results"})
	page, err := searcher.Search(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestSearchUsesCacheUntilGenerationBumps(t *testing.T) {
	st := store.NewGormStore(tester.TestDB())
	seedDocument(t, st, "cached.pdf", []string{"capybara census"})

	kv := cache.NewMemory(time.Minute)
	gen := &service.Generation{}
	searcher := service.NewSearcher(st, kv, gen)
	ctx := context.Background()

	q := service.Query{Term: "capybara", Page: 1}

	first, err := searcher.Search(ctx, q)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := searcher.Search(ctx, q)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.EqualValues(t, first.Total, second.Total)

	// New data means a new generation, which must bypass the old entry.
	gen.Bump()
	third, err := searcher.Search(ctx, q)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
}

func TestSearchDistinctQueriesDoNotCollide(t *testing.T) {
	st := store.NewGormStore(tester.TestDB())
	seedDocument(t, st, "collide.pdf", []string{"ocelot alpha", "ocelot beta"})

	kv := cache.NewMemory(time.Minute)
	searcher := service.NewSearcher(st, kv, &service.Generation{})
	ctx := context.Background()

	one, err := searcher.Search(ctx, service.Query{Term: "ocelot", Page: 1, PageSize: 1})
	require.NoError(t, err)
	two, err := searcher.Search(ctx, service.Query{Term: "ocelot", Page: 2, PageSize: 1})
	require.NoError(t, err)

	require.Len(t, one.Hits, 1)
	require.Len(t, two.Hits, 1)
	assert.NotEqual(t, one.Hits[0].PageNumber, two.Hits[0].PageNumber)
	assert.False(t, two.FromCache)
}

func TestLibraryPageTextIsCached(t *testing.T) {
	st := store.NewGormStore(tester.TestDB())
	file := seedDocument(t, st, "viewer.pdf", []string{"readable text"})

	kv := cache.NewMemory(time.Minute)
	library := service.NewLibrary(st, kv)
	ctx := context.Background()

	text, err := library.GetPageText(ctx, file.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "readable text", text)

	before := kv.Stats().Hits
	text, err = library.GetPageText(ctx, file.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "readable text", text)
	assert.Equal(t, before+1, kv.Stats().Hits)

	_, err = library.GetPageText(ctx, file.ID, 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTaggingValidation(t *testing.T) {
	st := store.NewGormStore(tester.TestDB())
	tagging := service.NewTagging(st)
	ctx := context.Background()

	_, err := tagging.CreateTag(ctx, "  ", "")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = tagging.CreateTag(ctx, "valid-name", "not-a-color")
	assert.ErrorIs(t, err, service.ErrValidation)

	tag, err := tagging.CreateTag(ctx, "service-default-color", "")
	require.NoError(t, err)
	assert.Equal(t, "#808080", tag.Color)
}

func TestAnnotationValidation(t *testing.T) {
	st := store.NewGormStore(tester.TestDB())
	file := seedDocument(t, st, "noted.pdf", []string{"page under annotation"})

	annotations := service.NewAnnotations(st)
	ctx := context.Background()

	err := annotations.Create(ctx, &model.Annotation{
		PDFID: file.ID, PageNumber: 1, Type: "sticker", Content: "x",
	})
	assert.ErrorIs(t, err, service.ErrValidation)

	err = annotations.Create(ctx, &model.Annotation{
		PDFID: file.ID, PageNumber: 1, Type: "note", Content: "   ",
	})
	assert.ErrorIs(t, err, service.ErrValidation)

	err = annotations.Create(ctx, &model.Annotation{
		PDFID: file.ID, PageNumber: 99, Type: "note", Content: "floating",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = annotations.Create(ctx, &model.Annotation{
		PDFID: file.ID, PageNumber: 1, Type: "note", Content: "anchored",
	})
	assert.NoError(t, err)
}
