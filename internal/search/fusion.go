// Package search implements C9, the Search Service: hybrid lexical+semantic
// fusion and item hydration for user queries. Fusion is freshly authored
// here, grounded on original_source/whistler/src/service/search_engine.rs
// (min-max normalize with single-element degeneration, weighted merge,
// descending sort, truncate) rather than the reference codebase's RRF-based
// internal/rag/retrieve/fusion.go, which implements a different algorithm;
// the general Go shape (struct-based candidates, clamped weights,
// sort.Slice with an id tie-break) is reused from that file.
package search

import "sort"

// Candidate is one (id, score) pair from either a lexical or a semantic
// leaf query.
type Candidate struct {
	ID    int32
	Score float64
}

// MinMaxNormalize rescales scores to [0,1] using the list's min and max.
// Degenerates to "everyone gets the full weight" (score=1) when the list has
// exactly one element, avoiding a 0/0 division (spec.md §4.8 step 4).
func MinMaxNormalize(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		return []Candidate{{ID: candidates[0].ID, Score: 1}}
	}
	min, max := candidates[0].Score, candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score < min {
			min = c.Score
		}
		if c.Score > max {
			max = c.Score
		}
	}
	out := make([]Candidate, len(candidates))
	spread := max - min
	for i, c := range candidates {
		if spread == 0 {
			out[i] = Candidate{ID: c.ID, Score: 1}
			continue
		}
		out[i] = Candidate{ID: c.ID, Score: (c.Score - min) / spread}
	}
	return out
}

// Fuse combines lexical and semantic result lists via weighted min-max
// normalization: weight*normalize(lexical) + (1-weight)*normalize(semantic),
// summed per id, sorted descending, truncated to limit. When one list is
// empty, the result holds only the other list's ids, with their normalized
// scores scaled by that list's own weight (not raised to full weight).
func Fuse(lexical, semantic []Candidate, weight float64, limit int) []Candidate {
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}
	weighted := map[int32]float64{}
	order := []int32{}
	addWeighted := func(cands []Candidate, w float64) {
		for _, c := range MinMaxNormalize(cands) {
			if _, seen := weighted[c.ID]; !seen {
				order = append(order, c.ID)
			}
			weighted[c.ID] += w * c.Score
		}
	}
	addWeighted(lexical, weight)
	addWeighted(semantic, 1-weight)

	out := make([]Candidate, len(order))
	for i, id := range order {
		out[i] = Candidate{ID: id, Score: weighted[id]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FuseMultiCollection combines several same-shaped result lists (each
// min-max normalized on its own here), weighting each by 1/len(lists)
// (spec.md §4.8 step 5, multi-collection semantic search).
func FuseMultiCollection(lists [][]Candidate, limit int) []Candidate {
	if len(lists) == 0 {
		return nil
	}
	weight := 1.0 / float64(len(lists))
	weighted := map[int32]float64{}
	var order []int32
	for _, list := range lists {
		for _, c := range MinMaxNormalize(list) {
			if _, seen := weighted[c.ID]; !seen {
				order = append(order, c.ID)
			}
			weighted[c.ID] += weight * c.Score
		}
	}
	out := make([]Candidate, len(order))
	for i, id := range order {
		out[i] = Candidate{ID: id, Score: weighted[id]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
