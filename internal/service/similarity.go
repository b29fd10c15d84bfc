package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/Ap6pack/PDF-Search-Plus/internal/security"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

const (
	defaultSimilarityThreshold = 0.3
	defaultSimilarityResults   = 10
	minClusterSize             = 2
)

// stopTerms are skipped during vectorization so that filler words do not
// dominate the scores.
var stopTerms = mapset.NewThreadUnsafeSet(
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "in", "is", "it", "its", "no", "not", "of", "on", "or",
	"that", "the", "this", "to", "was", "were", "will", "with",
)

// SimilarDocument is one ranked neighbor of a query document or query text.
type SimilarDocument struct {
	PDFID    uint
	FileName string
	Score    float64
}

func NewSimilarity(st store.Store) *Similarity {
	return &Similarity{store: st}
}

// Similarity ranks documents against each other by text content. Documents
// become tf-idf vectors over their extracted and recognized text; closeness
// is cosine similarity between those vectors.
type Similarity struct {
	store store.Store
}

// FindSimilarDocuments ranks every other document against the given one and
// returns those scoring at or above threshold, best first. A threshold or
// limit of zero picks the default.
func (s *Similarity) FindSimilarDocuments(ctx context.Context, pdfID uint, threshold float64, limit int) ([]SimilarDocument, error) {
	threshold, limit, err := similarityParams(threshold, limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetPDFFile(ctx, pdfID); err != nil {
		return nil, err
	}

	corpus, err := s.corpus(ctx)
	if err != nil {
		return nil, err
	}

	var query *docVector
	rest := make([]*docVector, 0, len(corpus))
	for _, doc := range corpus {
		if doc.id == pdfID {
			query = doc
		} else {
			rest = append(rest, doc)
		}
	}
	if query == nil {
		return nil, fmt.Errorf("%w: document %d has no extracted text", ErrValidation, pdfID)
	}

	idf := inverseFrequencies(append(rest, query), nil)
	query.weigh(idf)
	for _, doc := range rest {
		doc.weigh(idf)
	}

	return rank(query, rest, threshold, limit), nil
}

// SearchByText ranks all documents against a free-text query.
func (s *Similarity) SearchByText(ctx context.Context, text string, threshold float64, limit int) ([]SimilarDocument, error) {
	threshold, limit, err := similarityParams(threshold, limit)
	if err != nil {
		return nil, err
	}
	text = security.SanitizeText(text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query text is empty", ErrValidation)
	}

	corpus, err := s.corpus(ctx)
	if err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return nil, nil
	}

	// The query is weighted with the corpus idf so rare corpus terms in the
	// query count for more, same as any stored document.
	idf := inverseFrequencies(corpus, tokenize(text))
	for _, doc := range corpus {
		doc.weigh(idf)
	}
	query := newDocVector(0, "", text)
	query.weigh(idf)

	return rank(query, corpus, threshold, limit), nil
}

// DocumentClusters groups documents whose pairwise similarity reaches the
// threshold. Singleton groups are dropped. Clusters come back as sorted ID
// slices, largest first.
func (s *Similarity) DocumentClusters(ctx context.Context, threshold float64) ([][]uint, error) {
	threshold, _, err := similarityParams(threshold, 0)
	if err != nil {
		return nil, err
	}

	corpus, err := s.corpus(ctx)
	if err != nil {
		return nil, err
	}
	idf := inverseFrequencies(corpus, nil)
	for _, doc := range corpus {
		doc.weigh(idf)
	}

	visited := mapset.NewThreadUnsafeSet[uint]()
	var clusters [][]uint
	for i, doc := range corpus {
		if visited.Contains(doc.id) {
			continue
		}
		visited.Add(doc.id)
		cluster := []uint{doc.id}
		for _, other := range corpus[i+1:] {
			if visited.Contains(other.id) {
				continue
			}
			if cosine(doc, other) >= threshold {
				cluster = append(cluster, other.id)
				visited.Add(other.id)
			}
		}
		if len(cluster) >= minClusterSize {
			sort.Slice(cluster, func(a, b int) bool { return cluster[a] < cluster[b] })
			clusters = append(clusters, cluster)
		}
	}

	sort.SliceStable(clusters, func(a, b int) bool { return len(clusters[a]) > len(clusters[b]) })
	logrus.Debugf("clustered %d documents into %d groups", len(corpus), len(clusters))
	return clusters, nil
}

// corpus loads every document that has any text and builds its raw term
// frequency vector. Weighting happens once the caller knows the full corpus.
func (s *Similarity) corpus(ctx context.Context) ([]*docVector, error) {
	files, err := s.store.ListPDFFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var corpus []*docVector
	for _, file := range files {
		text, err := s.documentText(ctx, file.ID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		corpus = append(corpus, newDocVector(file.ID, file.FileName, text))
	}
	return corpus, nil
}

// documentText joins the page text and recognized image text of a document
// in page order.
func (s *Similarity) documentText(ctx context.Context, pdfID uint) (string, error) {
	pages, err := s.store.ListPages(ctx, pdfID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	ocrTexts, err := s.store.ListOCRTexts(ctx, pdfID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var b strings.Builder
	for _, page := range pages {
		if page.Text == "" {
			continue
		}
		b.WriteString(page.Text)
		b.WriteByte(' ')
	}
	for _, o := range ocrTexts {
		if o.OCRText == "" {
			continue
		}
		b.WriteString(o.OCRText)
		b.WriteByte(' ')
	}
	return b.String(), nil
}

func similarityParams(threshold float64, limit int) (float64, int, error) {
	if threshold == 0 {
		threshold = defaultSimilarityThreshold
	}
	if threshold < 0 || threshold > 1 {
		return 0, 0, fmt.Errorf("%w: threshold must be between 0 and 1, got %g", ErrValidation, threshold)
	}
	if limit <= 0 {
		limit = defaultSimilarityResults
	}
	return threshold, limit, nil
}

type docVector struct {
	id      uint
	name    string
	counts  map[string]int
	weights map[string]float64
	norm    float64
}

func newDocVector(id uint, name, text string) *docVector {
	counts := make(map[string]int)
	for _, term := range tokenize(text) {
		counts[term]++
	}
	return &docVector{id: id, name: name, counts: counts}
}

// weigh turns raw counts into a normalized tf-idf vector.
func (d *docVector) weigh(idf map[string]float64) {
	d.weights = make(map[string]float64, len(d.counts))
	var sum float64
	for term, count := range d.counts {
		w := float64(count) * idf[term]
		d.weights[term] = w
		sum += w * w
	}
	d.norm = math.Sqrt(sum)
}

// inverseFrequencies computes smoothed idf over the corpus. extra names terms
// outside the corpus (a free-text query) that still need a weight.
func inverseFrequencies(corpus []*docVector, extra []string) map[string]float64 {
	df := make(map[string]int)
	for _, doc := range corpus {
		for term := range doc.counts {
			df[term]++
		}
	}
	for _, term := range extra {
		if _, ok := df[term]; !ok {
			df[term] = 0
		}
	}

	n := float64(len(corpus))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}
	return idf
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if len(f) < 2 || stopTerms.Contains(f) {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func cosine(a, b *docVector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a, b
	if len(b.weights) < len(a.weights) {
		small, large = b, a
	}
	var dot float64
	for term, w := range small.weights {
		dot += w * large.weights[term]
	}
	return dot / (a.norm * b.norm)
}

func rank(query *docVector, corpus []*docVector, threshold float64, limit int) []SimilarDocument {
	var hits []SimilarDocument
	for _, doc := range corpus {
		score := cosine(query, doc)
		if score >= threshold {
			hits = append(hits, SimilarDocument{PDFID: doc.id, FileName: doc.name, Score: score})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
