package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectCandidates_TruncatesInProcess(t *testing.T) {
	got, err := selectCandidates([]int{1, 2, 3, 4, 5}, 3, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestSelectCandidates_TopsUpWhenEnabledAndShort(t *testing.T) {
	calledWith := -1
	got, err := selectCandidates([]int{1, 2}, 5, true, func(limit int) ([]int, error) {
		calledWith = limit
		return []int{10, 11, 12}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calledWith)
	assert.Equal(t, []int{1, 2, 10, 11, 12}, got)
}

func TestSelectCandidates_NoTopUpWhenDisabled(t *testing.T) {
	called := false
	got, err := selectCandidates([]int{1, 2}, 5, false, func(limit int) ([]int, error) {
		called = true
		return []int{10}, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, []int{1, 2}, got)
}

func TestSelectCandidates_NoTopUpWhenAlreadyAtN(t *testing.T) {
	called := false
	got, err := selectCandidates([]int{1, 2, 3}, 3, true, func(limit int) ([]int, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestShuffleRetain_KeepsAtLeastOneWordWhenNonEmpty(t *testing.T) {
	got := shuffleRetain("one two three four five", 0.1)
	assert.Len(t, got, 1)
}

func TestShuffleRetain_EmptyInputYieldsEmpty(t *testing.T) {
	got := shuffleRetain("", 0.5)
	assert.Empty(t, got)
}

func TestShuffleRetain_NeverExceedsWordCount(t *testing.T) {
	got := shuffleRetain("one two three", 5.0)
	assert.Len(t, got, 3)
}

func TestChunks_SplitsIntoFixedSizeGroups(t *testing.T) {
	got := chunks([]int32{1, 2, 3, 4, 5}, 2)
	assert.Equal(t, [][]int32{{1, 2}, {3, 4}, {5}}, got)
}

func TestChunks_ZeroSizeYieldsSingleChunk(t *testing.T) {
	got := chunks([]int32{1, 2, 3}, 0)
	assert.Equal(t, [][]int32{{1, 2, 3}}, got)
}

func TestChunks_EmptyInputYieldsNoChunks(t *testing.T) {
	got := chunks(nil, 10)
	assert.Empty(t, got)
}
