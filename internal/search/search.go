package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/metalwhale/newswaters/internal/inference"
	"github.com/metalwhale/newswaters/internal/model"
	"github.com/metalwhale/newswaters/internal/textindex"
	"github.com/metalwhale/newswaters/internal/vectorstore"
)

const retrievalQueryPrefix = "query: "

// Item is one public search result, hydrated via C1.
type Item struct {
	ID    int32
	Score float64
	Title *string
	URL   *string
	Time  *int64
}

// ItemStore is the subset of C1 the search service needs.
type ItemStore interface {
	FindItems(ctx context.Context, ids []int32) (map[int32]model.Hydration, error)
}

// Config carries the WHISTLER_* tunables.
type Config struct {
	LexicalLimit   int // overrides limit*50 when > 0
	SemanticLimit  int // overrides limit*50 when > 0
	LexicalWeight  float64
}

type Service struct {
	Store      ItemStore
	Text       *textindex.Index
	Vector     vectorstore.Store
	Inference  *inference.Client
	Collections []string // vector collections searched; >1 triggers multi-collection fusion
	Config     Config
}

// SearchSimilarItems implements the single public operation of C9
// (spec.md §4.8).
func (s *Service) SearchSimilarItems(ctx context.Context, sentence string, limit int) ([]Item, error) {
	if limit == 0 {
		return nil, nil
	}
	lexical, semantic := s.classify(sentence)

	leafLimit := limit * 50
	var lexicalResults, semanticResults []Candidate
	var semanticPerCollection [][]Candidate

	g, gctx := errgroup.WithContext(ctx)
	if lexical != "" {
		g.Go(func() error {
			k := leafLimit
			if s.Config.LexicalLimit > 0 {
				k = s.Config.LexicalLimit
			}
			res, err := s.Text.Search(lexical, k)
			if err != nil {
				return fmt.Errorf("lexical search: %w", err)
			}
			for _, r := range res {
				lexicalResults = append(lexicalResults, Candidate{ID: r.ID, Score: float64(r.Score)})
			}
			return nil
		})
	}
	if semantic != "" {
		g.Go(func() error {
			vec, err := s.Inference.Embed(gctx, retrievalQueryPrefix+semantic)
			if err != nil {
				return fmt.Errorf("embed query: %w", err)
			}
			if len(s.Collections) <= 1 {
				collection := ""
				if len(s.Collections) == 1 {
					collection = s.Collections[0]
				}
				k := leafLimit
				if s.Config.SemanticLimit > 0 {
					k = s.Config.SemanticLimit
				}
				pts, err := s.Vector.Search(gctx, collection, vec, k)
				if err != nil {
					return fmt.Errorf("vector search: %w", err)
				}
				for _, p := range pts {
					semanticResults = append(semanticResults, Candidate{ID: p.ID, Score: float64(p.Score)})
				}
				return nil
			}
			// Multi-collection semantic search: each collection is queried at
			// the full limit, weighted by 1/|collections| (spec.md §4.8 step 5).
			semanticPerCollection = make([][]Candidate, len(s.Collections))
			for i, name := range s.Collections {
				pts, err := s.Vector.Search(gctx, name, vec, limit)
				if err != nil {
					return fmt.Errorf("vector search %s: %w", name, err)
				}
				cands := make([]Candidate, len(pts))
				for j, p := range pts {
					cands[j] = Candidate{ID: p.ID, Score: float64(p.Score)}
				}
				semanticPerCollection[i] = cands
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(semanticPerCollection) > 0 {
		semanticResults = FuseMultiCollection(semanticPerCollection, leafLimit)
	}

	var fused []Candidate
	switch {
	case lexical != "" && semantic != "":
		fused = Fuse(lexicalResults, semanticResults, s.Config.LexicalWeight, limit)
	case lexical != "":
		fused = MinMaxNormalize(lexicalResults)
		if len(fused) > limit {
			fused = fused[:limit]
		}
	default:
		fused = MinMaxNormalize(semanticResults)
		if len(fused) > limit {
			fused = fused[:limit]
		}
	}

	return s.hydrate(ctx, fused)
}

// classify decides the query shape: a sentence wrapped in double quotes is
// lexical (quotes stripped); otherwise semantic. When both lexical and
// semantic adapters are configured this still only activates the matching
// leaf, per spec.md §4.8 step 1 — "decide the query shape."
func (s *Service) classify(sentence string) (lexical, semantic string) {
	trimmed := strings.TrimSpace(sentence)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		return trimmed[1 : len(trimmed)-1], ""
	}
	return "", trimmed
}

func (s *Service) hydrate(ctx context.Context, fused []Candidate) ([]Item, error) {
	if len(fused) == 0 {
		return nil, nil
	}
	ids := make([]int32, len(fused))
	for i, c := range fused {
		ids[i] = c.ID
	}
	hydrated, err := s.Store.FindItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	out := make([]Item, 0, len(fused))
	for _, c := range fused {
		h, ok := hydrated[c.ID]
		if !ok {
			continue
		}
		out = append(out, Item{ID: c.ID, Score: c.Score, Title: h.Title, URL: h.URL, Time: h.Time})
	}
	return out, nil
}
