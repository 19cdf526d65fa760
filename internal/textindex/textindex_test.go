package textindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AddAndSearch(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Add(1, "rust memory safety without garbage collection"))
	require.NoError(t, idx.Add(2, "go concurrency with goroutines and channels"))

	results, err := idx.Search("goroutines channels", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int32(2), results[0].ID)
}

func TestIndex_BatchIndexesAllDocuments(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Batch(map[int32]string{
		10: "hybrid search fuses lexical and semantic signals",
		11: "vector databases store dense embeddings",
	}))

	results, err := idx.Search("embeddings", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int32(11), results[0].ID)
}

func TestIndex_SearchWithNonPositiveLimitReturnsNothing(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()
	require.NoError(t, idx.Add(1, "some text"))

	results, err := idx.Search("text", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
