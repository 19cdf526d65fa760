// Package enrich implements C8, the Enrichment Workers: summarize, keyword,
// contrastive-passage, subject, and embedding stages over priority-ordered
// candidates, grounded on original_source/newswaters-job/src/command/item.rs
// and command/analysis.rs for the exact sweep/truncate/top-up shapes.
package enrich

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/metalwhale/newswaters/internal/config"
	"github.com/metalwhale/newswaters/internal/errs"
	"github.com/metalwhale/newswaters/internal/feed"
	"github.com/metalwhale/newswaters/internal/inference"
	"github.com/metalwhale/newswaters/internal/logging"
	"github.com/metalwhale/newswaters/internal/model"
	"github.com/metalwhale/newswaters/internal/store"
	"github.com/metalwhale/newswaters/internal/vectorstore"
)

// Deps bundles the process-wide services every worker is injected with
// (spec.md §9 — constructed once in main, never module-level singletons).
type Deps struct {
	Store     *store.Store
	Feed      *feed.Client
	Inference *inference.Client
	Vector    vectorstore.Store
	Job       config.Job
}

// selectCandidates implements the common selection pattern shared by every
// worker (spec.md §4.7 steps 1-4): fetch the priority list, ask the store for
// priority-matching candidates, truncate IN PROCESS (never via SQL LIMIT),
// and top up from the excluding-query when the additional-texts flag is set
// and fewer than N candidates survived truncation.
func selectCandidates[T any](
	priorityMatching []T,
	n int,
	additionalEnabled bool,
	fetchExcluding func(limit int) ([]T, error),
) ([]T, error) {
	if len(priorityMatching) > n {
		priorityMatching = priorityMatching[:n]
	}
	if additionalEnabled && len(priorityMatching) < n {
		extra, err := fetchExcluding(n - len(priorityMatching))
		if err != nil {
			return nil, err
		}
		priorityMatching = append(priorityMatching, extra...)
	}
	return priorityMatching, nil
}

// SummarizeTexts is summarize_texts: items with a title and fetched article
// text lacking a summary; the LLM summary is written to item_urls.summary.
func SummarizeTexts(ctx context.Context, d Deps) error {
	topIDs, err := d.Feed.TopStoryIDs(ctx)
	if err != nil {
		return fmt.Errorf("top story ids: %w", err)
	}
	matching, err := d.Store.FindSummaryMissingItems(ctx, topIDs)
	if err != nil {
		return fmt.Errorf("find summary missing items: %w", err)
	}
	candidates, err := selectCandidates(matching, d.Job.SummarizeTextsNum, d.Job.SummarizeAdditionalTexts,
		func(limit int) ([]model.SummaryCandidate, error) {
			return d.Store.FindSummaryMissingItemsExcluding(ctx, topIDs, limit)
		})
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}
	for _, c := range candidates {
		text := ShortenText(c.Text, d.Job.TextMinLineLen, d.Job.TextMaxTotalLen)
		start := time.Now()
		summary, err := d.Inference.Instruct(ctx, summaryPrompt(c.Title, text))
		if err != nil {
			logging.Err("enrich.summarize_texts (id=%d): err=%s", c.ID, err)
			continue
		}
		if err := d.Store.UpdateItemURLSummary(ctx, c.ID, summary); err != nil {
			logging.Err("enrich.summarize_texts update (id=%d): err=%s", c.ID, err)
			continue
		}
		logging.Info("enrich.summarize_texts (id=%d): text.len=%d, summary.len=%d, elapsed=%s",
			c.ID, len(text), len(summary), time.Since(start))
	}
	return nil
}

// AnalyzeStoryTexts is analyze_story_texts: produces a keyword via the
// keyword prompt and writes it to analyses.keyword.
func AnalyzeStoryTexts(ctx context.Context, d Deps) error {
	topIDs, err := d.Feed.TopStoryIDs(ctx)
	if err != nil {
		return fmt.Errorf("top story ids: %w", err)
	}
	matching, err := d.Store.FindKeywordMissingAnalyses(ctx, topIDs)
	if err != nil {
		return fmt.Errorf("find keyword missing analyses: %w", err)
	}
	candidates, err := selectCandidates(matching, d.Job.AnalyzeStoryTextsNum, d.Job.AnalyzeAdditionalTexts,
		func(limit int) ([]model.SummaryCandidate, error) {
			return d.Store.FindKeywordMissingAnalysesExcluding(ctx, topIDs, limit)
		})
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}
	for _, c := range candidates {
		start := time.Now()
		keyword, err := d.Inference.Instruct(ctx, keywordPrompt(c.Title, c.Text))
		if err != nil {
			logging.Err("enrich.analyze_story_texts (id=%d): err=%s", c.ID, err)
			continue
		}
		if err := d.Store.InsertAnalysis(ctx, model.Analysis{ItemID: c.ID, Keyword: &keyword}); err != nil && !errs.IsAlreadyPresent(err) {
			logging.Err("enrich.analyze_story_texts insert (id=%d): err=%s", c.ID, err)
			continue
		}
		logging.Info("enrich.analyze_story_texts (id=%d): text.len=%d, keyword.len=%d, elapsed=%s",
			c.ID, len(c.Text), len(keyword), time.Since(start))
	}
	return nil
}

// anchorEntailmentContradictionRandom runs the shared anchor->entailment->
// contradiction->random chain used by both analyze_comment_texts and
// analyze_summaries (resolved Open Question: one shared implementation
// behind two thin call sites, rather than duplicating the chain). The
// random prompt's minimum word count is the contradiction sentence's own
// word count, not a caller-supplied floor, grounded on
// original_source/newswaters-job/src/service/inference.rs's
// instruct_random_query, which derives sentence_len from the text it is
// passed (here, the contradiction passage).
func anchorEntailmentContradictionRandom(ctx context.Context, inf *inference.Client, content string, maxWords int, retention float64) (anchor, entailment, contradiction, irrelevance string, err error) {
	anchor, err = inf.Instruct(ctx, anchorPassagePrompt(content, maxWords))
	if err != nil {
		return "", "", "", "", fmt.Errorf("anchor: %w", err)
	}
	entailment, err = inf.Instruct(ctx, entailmentPrompt(anchor))
	if err != nil {
		return "", "", "", "", fmt.Errorf("entailment: %w", err)
	}
	contradiction, err = inf.Instruct(ctx, contradictionPrompt(anchor))
	if err != nil {
		return "", "", "", "", fmt.Errorf("contradiction: %w", err)
	}
	seeds := shuffleRetain(contradiction, retention)
	minWords := len(strings.Fields(contradiction))
	irrelevance, err = inf.Instruct(ctx, randomPrompt(seeds, minWords))
	if err != nil {
		return "", "", "", "", fmt.Errorf("random: %w", err)
	}
	return anchor, entailment, contradiction, irrelevance, nil
}

// shuffleRetain shuffles text's tokens and keeps a fraction retention of
// them, used as seed words for the "random" prompt (spec.md §4.5). The +1
// always applies, matching instruct_random_query's
// "(sentence_len as f32 * retention) as usize + 1"; words is capped at its
// own length since, unlike Rust's Vec::truncate, a Go slice bound past len
// panics.
func shuffleRetain(text string, retention float64) []string {
	words := strings.Fields(text)
	rand.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
	keep := int(float64(len(words))*retention) + 1
	if keep > len(words) {
		keep = len(words)
	}
	return words[:keep]
}

// AnalyzeCommentTexts is analyze_comment_texts: comment-typed items with
// length(text) >= min_len, chained into a Passage. Texts longer than max_len
// are not excluded; they are cut to their first max_len bytes before
// prompting.
func AnalyzeCommentTexts(ctx context.Context, d Deps, maxAnchorWords int) error {
	candidates, err := d.Store.FindTextPassageMissingAnalyses(ctx, d.Job.AnalyzeCommentTextMinLen, d.Job.AnalyzeCommentTextsNum)
	if err != nil {
		return fmt.Errorf("find text passage missing analyses: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}
	for _, c := range candidates {
		text := c.Text
		if len(text) > d.Job.AnalyzeCommentTextMaxLen {
			text = text[:d.Job.AnalyzeCommentTextMaxLen]
		}
		start := time.Now()
		anchor, entailment, contradiction, irrelevance, err := anchorEntailmentContradictionRandom(
			ctx, d.Inference, text, maxAnchorWords, d.Job.InstructRandomRetentionRate)
		if err != nil {
			logging.Err("enrich.analyze_comment_texts (id=%d): err=%s", c.ID, err)
			continue
		}
		passage := &model.Passage{
			Anchor:        []string{anchor},
			Entailment:    []string{entailment},
			Contradiction: []string{contradiction},
			Irrelevance:   []string{irrelevance},
		}
		if err := d.Store.InsertAnalysis(ctx, model.Analysis{ItemID: c.ID, TextPassage: passage}); err != nil && !errs.IsAlreadyPresent(err) {
			logging.Err("enrich.analyze_comment_texts insert (id=%d): err=%s", c.ID, err)
			continue
		}
		logging.Info("enrich.analyze_comment_texts (id=%d): text.len=%d, elapsed=%s", c.ID, len(text), time.Since(start))
	}
	return nil
}

// AnalyzeSummaries is analyze_summaries: items with a summary lacking a
// summary_passage, chained the same way plus a subject list.
func AnalyzeSummaries(ctx context.Context, d Deps, maxAnchorWords, maxSubjects, maxSubjectWords int) error {
	topIDs, err := d.Feed.TopStoryIDs(ctx)
	if err != nil {
		return fmt.Errorf("top story ids: %w", err)
	}
	matching, err := d.Store.FindSummaryPassageMissingAnalyses(ctx, topIDs)
	if err != nil {
		return fmt.Errorf("find summary passage missing analyses: %w", err)
	}
	candidates, err := selectCandidates(matching, d.Job.AnalyzeSummariesNum, d.Job.AnalyzeAdditionalSummaries,
		func(limit int) ([]store.SummaryPassageCandidate, error) {
			return d.Store.FindSummaryPassageMissingAnalysesExcluding(ctx, topIDs, limit)
		})
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return nil
	}
	for _, c := range candidates {
		start := time.Now()
		anchor, entailment, contradiction, irrelevance, err := anchorEntailmentContradictionRandom(
			ctx, d.Inference, c.Summary, maxAnchorWords, d.Job.InstructRandomRetentionRate)
		if err != nil {
			logging.Err("enrich.analyze_summaries (id=%d): err=%s", c.ID, err)
			continue
		}
		subjects, err := instructSubjectsWithRetry(ctx, d.Inference, c.Summary, maxSubjects, maxSubjectWords)
		if err != nil {
			logging.Err("enrich.analyze_summaries subject (id=%d): err=%s", c.ID, err)
			continue
		}
		passage := model.Passage{
			Anchor:        []string{anchor},
			Entailment:    []string{entailment},
			Contradiction: []string{contradiction},
			Irrelevance:   []string{irrelevance},
			Subject:       subjects,
		}
		if err := d.Store.UpdateAnalysisSummaryPassage(ctx, c.ID, passage); err != nil {
			logging.Err("enrich.analyze_summaries update (id=%d): err=%s", c.ID, err)
			continue
		}
		logging.Info("enrich.analyze_summaries (id=%d): summary.len=%d, elapsed=%s", c.ID, len(c.Summary), time.Since(start))
	}
	return nil
}

// instructSubjectsWithRetry retries the downstream JSON-shape check up to
// 10x with a 1s backoff when the model's output is expected to parse as a
// newline-delimited list but fails to, per spec.md §7.
func instructSubjectsWithRetry(ctx context.Context, inf *inference.Client, summary string, maxSubjects, maxWords int) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt < 10; attempt++ {
		out, err := inf.Instruct(ctx, subjectPrompt(summary, maxSubjects, maxWords))
		if err != nil {
			lastErr = err
		} else {
			lines := strings.Split(strings.TrimSpace(out), "\n")
			if len(lines) > 0 && lines[0] != "" {
				return lines, nil
			}
			lastErr = fmt.Errorf("empty subject list")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

// EmbedKeywords is embed_keywords: for ids with a keyword not yet present in
// the keyword collection, embed and upsert.
func EmbedKeywords(ctx context.Context, d Deps, collection string) error {
	ids, err := d.Store.FindKeywordExistingAnalyses(ctx, d.Job.EmbedKeywordsNum)
	if err != nil {
		return fmt.Errorf("find keyword existing analyses: %w", err)
	}
	for _, chunk := range chunks(ids, d.Job.ChunkSize) {
		missing, err := d.Vector.FindMissing(ctx, collection, chunk)
		if err != nil {
			return fmt.Errorf("find missing: %w", err)
		}
		keywords, err := d.Store.FindAnalysisKeywords(ctx, missing)
		if err != nil {
			return fmt.Errorf("find analysis keywords: %w", err)
		}
		for _, id := range missing {
			keyword, ok := keywords[id]
			if !ok {
				continue
			}
			embedding, err := d.Inference.Embed(ctx, keyword)
			if err != nil {
				logging.Err("enrich.embed_keywords (id=%d): err=%s", id, err)
				continue
			}
			if err := d.Vector.Upsert(ctx, collection, id, embedding); err != nil {
				logging.Err("enrich.embed_keywords upsert (id=%d): err=%s", id, err)
				continue
			}
			logging.Info("enrich.embed_keywords (id=%d)", id)
		}
	}
	return nil
}

// EmbedSummaries is embed_summaries: for ids with a summary not yet present
// in the summary collection, pick items.text if present else
// item_urls.summary (resolved Open Question: items.text takes unconditional
// precedence), embed, upsert.
func EmbedSummaries(ctx context.Context, d Deps, collection string) error {
	ids, err := d.Store.FindSummaryExistingItems(ctx, d.Job.EmbedSummariesNum)
	if err != nil {
		return fmt.Errorf("find summary existing items: %w", err)
	}
	for _, chunk := range chunks(ids, d.Job.ChunkSize) {
		missing, err := d.Vector.FindMissing(ctx, collection, chunk)
		if err != nil {
			return fmt.Errorf("find missing: %w", err)
		}
		summaries, err := d.Store.FindItemSummaries(ctx, missing)
		if err != nil {
			return fmt.Errorf("find item summaries: %w", err)
		}
		for _, it := range summaries {
			var sentence string
			switch {
			case it.Text != nil:
				sentence = *it.Text
			case it.Summary != nil:
				sentence = *it.Summary
			default:
				continue
			}
			embedding, err := d.Inference.Embed(ctx, sentence)
			if err != nil {
				logging.Err("enrich.embed_summaries (id=%d): err=%s", it.ID, err)
				continue
			}
			if err := d.Vector.Upsert(ctx, collection, it.ID, embedding); err != nil {
				logging.Err("enrich.embed_summaries upsert (id=%d): err=%s", it.ID, err)
				continue
			}
			logging.Info("enrich.embed_summaries (id=%d)", it.ID)
		}
	}
	return nil
}

func chunks(ids []int32, size int) [][]int32 {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]int32
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}
