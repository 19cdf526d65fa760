package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalwhale/newswaters/internal/inference"
	"github.com/metalwhale/newswaters/internal/model"
	"github.com/metalwhale/newswaters/internal/textindex"
	"github.com/metalwhale/newswaters/internal/vectorstore"
)

type fakeItemStore struct {
	items map[int32]model.Hydration
}

func (f *fakeItemStore) FindItems(ctx context.Context, ids []int32) (map[int32]model.Hydration, error) {
	out := map[int32]model.Hydration{}
	for _, id := range ids {
		if h, ok := f.items[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

type fakeVector struct {
	hits map[string][]vectorstore.Point
}

func (f *fakeVector) EnsureCollections(ctx context.Context, names []string, dim int, metric string) error {
	return nil
}
func (f *fakeVector) FindMissing(ctx context.Context, collection string, ids []int32) ([]int32, error) {
	return nil, nil
}
func (f *fakeVector) Upsert(ctx context.Context, collection string, id int32, vector []float32) error {
	return nil
}
func (f *fakeVector) Search(ctx context.Context, collection string, vector []float32, k int) ([]vectorstore.Point, error) {
	return f.hits[collection], nil
}
func (f *fakeVector) Close() error { return nil }

func title(s string) *string { return &s }

func TestSearchSimilarItems_LexicalOnlyQuery(t *testing.T) {
	idx, err := textindex.Open("")
	require.NoError(t, err)
	defer idx.Close()
	require.NoError(t, idx.Add(1, "goroutines and channels in go"))
	require.NoError(t, idx.Add(2, "unrelated cooking recipe"))

	svc := &Service{
		Store: &fakeItemStore{items: map[int32]model.Hydration{1: {Title: title("Go concurrency")}}},
		Text:  idx,
		Vector: &fakeVector{},
		Config: Config{},
	}

	got, err := svc.SearchSimilarItems(context.Background(), `"goroutines channels"`, 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, int32(1), got[0].ID)
}

func TestSearchSimilarItems_SemanticOnlyQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding":[1,0,0]}`))
	}))
	defer srv.Close()

	idx, err := textindex.Open("")
	require.NoError(t, err)
	defer idx.Close()

	svc := &Service{
		Store:     &fakeItemStore{items: map[int32]model.Hydration{9: {Title: title("hydrated")}}},
		Text:      idx,
		Vector:    &fakeVector{hits: map[string][]vectorstore.Point{"": {{ID: 9, Score: 0.9}}}},
		Inference: inference.NewClient(srv.URL),
		Config:    Config{},
	}

	got, err := svc.SearchSimilarItems(context.Background(), "concurrency primitives", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(9), got[0].ID)
	assert.Equal(t, "hydrated", *got[0].Title)
}

func TestSearchSimilarItems_ZeroLimitShortCircuits(t *testing.T) {
	svc := &Service{}
	got, err := svc.SearchSimilarItems(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchSimilarItems_MultiCollectionFusion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding":[1,0,0]}`))
	}))
	defer srv.Close()

	idx, err := textindex.Open("")
	require.NoError(t, err)
	defer idx.Close()

	svc := &Service{
		Store: &fakeItemStore{items: map[int32]model.Hydration{
			1: {Title: title("one")}, 2: {Title: title("two")},
		}},
		Text: idx,
		Vector: &fakeVector{hits: map[string][]vectorstore.Point{
			"summary": {{ID: 1, Score: 0.8}},
			"keyword": {{ID: 2, Score: 0.6}},
		}},
		Inference:   inference.NewClient(srv.URL),
		Collections: []string{"summary", "keyword"},
	}

	got, err := svc.SearchSimilarItems(context.Background(), "some query", 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
