package searchengine

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalwhale/newswaters/internal/textindex"
	"github.com/metalwhale/newswaters/internal/vectorstore"
)

type fakeVectorStore struct {
	missing []int32
	upserts []int32
	hits    []vectorstore.Point
}

func (f *fakeVectorStore) EnsureCollections(ctx context.Context, names []string, size int, metric string) error {
	return nil
}
func (f *fakeVectorStore) FindMissing(ctx context.Context, collection string, ids []int32) ([]int32, error) {
	return f.missing, nil
}
func (f *fakeVectorStore) Upsert(ctx context.Context, collection string, id int32, embedding []float32) error {
	f.upserts = append(f.upserts, id)
	return nil
}
func (f *fakeVectorStore) Search(ctx context.Context, collection string, embedding []float32, limit int) ([]vectorstore.Point, error) {
	return f.hits, nil
}
func (f *fakeVectorStore) Close() error { return nil }

func TestHandleFindMissing(t *testing.T) {
	vs := &fakeVectorStore{missing: []int32{3, 4}}
	idx, err := textindex.Open("")
	require.NoError(t, err)
	defer idx.Close()
	srv := New(vs, idx)

	body, _ := json.Marshal(findMissingRequest{CollectionName: "keywords", IDs: []int32{1, 2, 3, 4}})
	req := httptest.NewRequest("POST", "/find-missing", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp findMissingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []int32{3, 4}, resp.MissingIDs)
}

func TestHandleUpsert(t *testing.T) {
	vs := &fakeVectorStore{}
	idx, err := textindex.Open("")
	require.NoError(t, err)
	defer idx.Close()
	srv := New(vs, idx)

	body, _ := json.Marshal(upsertRequest{CollectionName: "keywords", ID: 42, Embedding: []float32{0.1, 0.2}})
	req := httptest.NewRequest("POST", "/upsert", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, []int32{42}, vs.upserts)
}

func TestHandleSearchSimilar_DispatchesToTextIndexWhenSentenceSet(t *testing.T) {
	vs := &fakeVectorStore{hits: []vectorstore.Point{{ID: 99, Score: 0.5}}}
	idx, err := textindex.Open("")
	require.NoError(t, err)
	defer idx.Close()
	require.NoError(t, idx.Add(7, "goroutines and channels"))
	srv := New(vs, idx)

	sentence := "goroutines channels"
	body, _ := json.Marshal(searchSimilarRequest{Sentence: &sentence, Limit: 5})
	req := httptest.NewRequest("POST", "/search-similar", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp searchSimilarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Items)
	assert.Equal(t, float64(7), resp.Items[0][0])
}

func TestHandleSearchSimilar_DispatchesToVectorStoreWhenEmbeddingSet(t *testing.T) {
	vs := &fakeVectorStore{hits: []vectorstore.Point{{ID: 99, Score: 0.5}}}
	idx, err := textindex.Open("")
	require.NoError(t, err)
	defer idx.Close()
	srv := New(vs, idx)

	body, _ := json.Marshal(searchSimilarRequest{CollectionName: "keywords", Embedding: []float32{0.1, 0.2}, Limit: 5})
	req := httptest.NewRequest("POST", "/search-similar", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp searchSimilarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, float64(99), resp.Items[0][0])
}

func TestHandleSearchSimilar_EmptyWhenNeitherSet(t *testing.T) {
	vs := &fakeVectorStore{}
	idx, err := textindex.Open("")
	require.NoError(t, err)
	defer idx.Close()
	srv := New(vs, idx)

	body, _ := json.Marshal(searchSimilarRequest{Limit: 5})
	req := httptest.NewRequest("POST", "/search-similar", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var resp searchSimilarResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Items)
}
