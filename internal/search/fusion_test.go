package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuse_S4(t *testing.T) {
	lexical := []Candidate{{ID: 1, Score: 10.0}, {ID: 2, Score: 5.0}}
	semantic := []Candidate{{ID: 2, Score: 0.9}, {ID: 3, Score: 0.3}}
	got := Fuse(lexical, semantic, 0.25, 3)

	assert.Len(t, got, 3)
	assert.Equal(t, int32(2), got[0].ID)
	assert.InDelta(t, 0.75, got[0].Score, 1e-9)
	assert.Equal(t, int32(1), got[1].ID)
	assert.InDelta(t, 0.25, got[1].Score, 1e-9)
	assert.Equal(t, int32(3), got[2].ID)
	assert.InDelta(t, 0, got[2].Score, 1e-9)
}

func TestFuse_CommutativeInListOrder(t *testing.T) {
	a := []Candidate{{ID: 1, Score: 1.0}, {ID: 2, Score: 2.0}}
	b := []Candidate{{ID: 1, Score: 2.0}, {ID: 2, Score: 1.0}}
	forward := Fuse(a, b, 0.5, -1)
	backward := Fuse(b, a, 0.5, -1)
	// Swapping which list is "lexical" vs "semantic" with an equal weight and
	// mirrored scores must produce the same fused scores per id.
	byID := func(cands []Candidate) map[int32]float64 {
		m := map[int32]float64{}
		for _, c := range cands {
			m[c.ID] = c.Score
		}
		return m
	}
	assert.Equal(t, byID(forward), byID(backward))
}

func TestFuse_EmptyOtherListKeepsOwnWeight(t *testing.T) {
	lexical := []Candidate{{ID: 1, Score: 10.0}, {ID: 2, Score: 5.0}}
	got := Fuse(lexical, nil, 0.25, -1)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(1), got[0].ID)
	assert.InDelta(t, 0.25, got[0].Score, 1e-9)
	assert.Equal(t, int32(2), got[1].ID)
	assert.InDelta(t, 0, got[1].Score, 1e-9)
}

func TestFuse_TieBreaksByAscendingID(t *testing.T) {
	lexical := []Candidate{{ID: 5, Score: 1.0}, {ID: 2, Score: 1.0}}
	got := Fuse(lexical, nil, 1.0, -1)
	assert.Equal(t, []int32{2, 5}, []int32{got[0].ID, got[1].ID})
}

func TestFuse_WeightClampedToUnitRange(t *testing.T) {
	lexical := []Candidate{{ID: 1, Score: 1.0}, {ID: 2, Score: 0.0}}
	semantic := []Candidate{{ID: 1, Score: 0.0}, {ID: 2, Score: 1.0}}
	got := Fuse(lexical, semantic, 5.0, -1) // clamps to 1.0, semantic ignored
	byID := map[int32]float64{got[0].ID: got[0].Score, got[1].ID: got[1].Score}
	assert.InDelta(t, 1.0, byID[1], 1e-9)
	assert.InDelta(t, 0.0, byID[2], 1e-9)
}

func TestMinMaxNormalize_SingleElementDegenerates(t *testing.T) {
	got := MinMaxNormalize([]Candidate{{ID: 7, Score: 42}})
	assert.Equal(t, []Candidate{{ID: 7, Score: 1}}, got)
}

func TestMinMaxNormalize_ZeroSpreadDegenerates(t *testing.T) {
	got := MinMaxNormalize([]Candidate{{ID: 1, Score: 3}, {ID: 2, Score: 3}})
	for _, c := range got {
		assert.Equal(t, 1.0, c.Score)
	}
}

func TestFuseMultiCollection_EqualWeightPerList(t *testing.T) {
	lists := [][]Candidate{
		{{ID: 1, Score: 1.0}},
		{{ID: 1, Score: 1.0}},
	}
	got := FuseMultiCollection(lists, -1)
	assert.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}
