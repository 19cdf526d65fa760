// Package textindex implements C3, the Text Index Adapter: a BM25-style
// full-text inverted index keyed by integer id, grounded on the reference
// codebase's internal/store/bm25.go (the only dedicated full-text-search library used
// anywhere in the reference corpus), generalized from a code-search schema
// to the plain (id, sentence) schema spec.md §4.3 requires.
package textindex

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Result is a single search hit.
type Result struct {
	ID    int32
	Score float32
}

// Index wraps a bleve index. add opens a batch-capable writer; callers
// issuing many adds in sequence SHOULD reuse Batch rather than calling Add
// per document, per spec.md's "commits are coarse-grained" note.
type Index struct {
	mu    sync.Mutex
	bleve bleve.Index
}

func Open(path string) (*Index, error) {
	idxMapping := buildMapping()
	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(idxMapping)
	} else {
		idx, err = bleve.Open(path)
		if err != nil {
			idx, err = bleve.New(path, idxMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open text index: %w", err)
	}
	return &Index{bleve: idx}, nil
}

func buildMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()
	idField := bleve.NewNumericFieldMapping()
	idField.Store = true
	doc.AddFieldMappingsAt("id", idField)

	sentenceField := bleve.NewTextFieldMapping()
	sentenceField.Store = false
	doc.AddFieldMappingsAt("sentence", sentenceField)

	idxMapping := bleve.NewIndexMapping()
	idxMapping.DefaultMapping = doc
	return idxMapping
}

type document struct {
	ID       float64 `json:"id"`
	Sentence string  `json:"sentence"`
}

// Add indexes one document immediately through the bleve index's own
// writer. It does not use a Batch and sets no explicit buffer size; bleve
// manages buffering internally.
func (ix *Index) Add(id int32, sentence string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.bleve.Index(strconv.Itoa(int(id)), document{ID: float64(id), Sentence: sentence})
}

// Batch commits many documents through a single writer, for callers that
// add many documents in sequence (spec.md's "SHOULD batch" guidance).
func (ix *Index) Batch(docs map[int32]string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	b := ix.bleve.NewBatch()
	for id, sentence := range docs {
		if err := b.Index(strconv.Itoa(int(id)), document{ID: float64(id), Sentence: sentence}); err != nil {
			return err
		}
	}
	return ix.bleve.Batch(b)
}

// Search parses sentence against the text field with the default (OR)
// operator and returns the top-k hits by BM25-like score.
func (ix *Index) Search(sentence string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	query := bleve.NewMatchQuery(sentence)
	query.SetField("sentence")
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	req.Fields = []string{"id"}
	res, err := ix.bleve.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search text index: %w", err)
	}
	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		out = append(out, Result{ID: int32(id), Score: float32(hit.Score)})
	}
	return out, nil
}

func (ix *Index) Close() error {
	return ix.bleve.Close()
}
