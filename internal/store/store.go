// Package store implements C1, the Item Store: relational persistence of
// items, fetched article text/HTML, and enrichment artifacts over a pooled
// Postgres connection, grounded on the reference codebase's
// internal/persistence/databases package (pgxpool, bootstrap-on-construct
// schema creation, parameterized SQL).
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/metalwhale/newswaters/internal/errs"
	"github.com/metalwhale/newswaters/internal/model"
)

const schema = `
DO $$ BEGIN
	CREATE TYPE item_kind AS ENUM ('job', 'story', 'comment', 'poll', 'pollopt');
EXCEPTION WHEN duplicate_object THEN null;
END $$;
CREATE TABLE IF NOT EXISTS items (
	id BIGINT PRIMARY KEY,
	kind item_kind,
	deleted BOOLEAN NOT NULL DEFAULT false,
	by TEXT,
	time BIGINT,
	text TEXT,
	dead BOOLEAN NOT NULL DEFAULT false,
	parent BIGINT,
	poll BIGINT,
	kids BIGINT[],
	url TEXT,
	score BIGINT,
	title TEXT,
	parts BIGINT[],
	descendants BIGINT,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS item_urls (
	item_id BIGINT PRIMARY KEY REFERENCES items(id),
	status_code SMALLINT NOT NULL,
	html TEXT,
	text TEXT,
	note TEXT,
	summary TEXT,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS analyses (
	item_id BIGINT PRIMARY KEY REFERENCES items(id),
	keyword TEXT,
	text_passage JSONB,
	summary_passage JSONB,
	analyzed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store wraps a pgxpool.Pool. Constructed once in main and injected into
// workers (spec.md §9 "global state") — never a package-level singleton, so
// tests can substitute a different pool.
type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

// MinItemID and MaxItemID fail if the table is empty.
func (s *Store) MinItemID(ctx context.Context) (int32, error) {
	var id *int32
	if err := s.pool.QueryRow(ctx, `SELECT min(id) FROM items`).Scan(&id); err != nil {
		return 0, err
	}
	if id == nil {
		return 0, fmt.Errorf("items table is empty")
	}
	return *id, nil
}

func (s *Store) MaxItemID(ctx context.Context) (int32, error) {
	var id *int32
	if err := s.pool.QueryRow(ctx, `SELECT max(id) FROM items`).Scan(&id); err != nil {
		return 0, err
	}
	if id == nil {
		return 0, fmt.Errorf("items table is empty")
	}
	return *id, nil
}

// MissingItems computes the set-difference between [min,max] and present ids
// via a generated series, output ascending.
func (s *Store) MissingItems(ctx context.Context, min, max int32) ([]int32, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT gs.id FROM generate_series($1, $2) AS gs(id)
		WHERE NOT EXISTS (SELECT 1 FROM items WHERE items.id = gs.id)
		ORDER BY gs.id ASC
	`, min, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInt32Column(rows)
}

// MissingItemURLPair is the (id, url) shape missing_item_urls returns.
type MissingItemURLPair struct {
	ID  int32
	URL string
}

// MissingItemURLs returns items with a non-null url in [min,max] lacking an
// item_urls row, ascending.
func (s *Store) MissingItemURLs(ctx context.Context, min, max int32) ([]MissingItemURLPair, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT items.id, items.url FROM items
		WHERE items.id BETWEEN $1 AND $2 AND items.url IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM item_urls WHERE item_urls.item_id = items.id)
		ORDER BY items.id ASC
	`, min, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MissingItemURLPair
	for rows.Next() {
		var p MissingItemURLPair
		if err := rows.Scan(&p.ID, &p.URL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindSummaryMissingItems preserves the input id order via an unnest-join;
// the critical ordering rule of spec.md §4.1 — callers truncate in memory,
// never via SQL LIMIT.
func (s *Store) FindSummaryMissingItems(ctx context.Context, ids []int32) ([]model.SummaryCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT items.id, items.title, item_urls.text
		FROM unnest($1::bigint[]) WITH ORDINALITY AS want(id, ord)
		JOIN items ON items.id = want.id
		JOIN item_urls ON item_urls.item_id = items.id
		WHERE items.title IS NOT NULL AND item_urls.text IS NOT NULL AND item_urls.summary IS NULL
		ORDER BY want.ord ASC
	`, toInt64Slice(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaryCandidates(rows)
}

// FindSummaryMissingItemsExcluding returns newest-first candidates disjoint
// from exclude, up to limit — SQL LIMIT is fine here because there is no
// externally imposed priority order to preserve.
func (s *Store) FindSummaryMissingItemsExcluding(ctx context.Context, exclude []int32, limit int) ([]model.SummaryCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT items.id, items.title, item_urls.text
		FROM items
		JOIN item_urls ON item_urls.item_id = items.id
		WHERE items.title IS NOT NULL AND item_urls.text IS NOT NULL AND item_urls.summary IS NULL
		  AND NOT (items.id = ANY($1::bigint[]))
		ORDER BY items.id DESC
		LIMIT $2
	`, toInt64Slice(exclude), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaryCandidates(rows)
}

// FindKeywordMissingAnalyses mirrors FindSummaryMissingItems for the keyword
// stage: candidates with a title (of any kind) and no keyword yet.
func (s *Store) FindKeywordMissingAnalyses(ctx context.Context, ids []int32) ([]model.SummaryCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT items.id, items.title, coalesce(items.text, '')
		FROM unnest($1::bigint[]) WITH ORDINALITY AS want(id, ord)
		JOIN items ON items.id = want.id
		LEFT JOIN analyses ON analyses.item_id = items.id
		WHERE items.title IS NOT NULL AND (analyses.keyword IS NULL OR analyses.item_id IS NULL)
		ORDER BY want.ord ASC
	`, toInt64Slice(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaryCandidates(rows)
}

func (s *Store) FindKeywordMissingAnalysesExcluding(ctx context.Context, exclude []int32, limit int) ([]model.SummaryCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT items.id, items.title, coalesce(items.text, '')
		FROM items
		LEFT JOIN analyses ON analyses.item_id = items.id
		WHERE items.title IS NOT NULL AND (analyses.keyword IS NULL OR analyses.item_id IS NULL)
		  AND NOT (items.id = ANY($1::bigint[]))
		ORDER BY items.id DESC
		LIMIT $2
	`, toInt64Slice(exclude), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaryCandidates(rows)
}

// CommentTextCandidate is an (id, text) pair for the comment-passage worker.
type CommentTextCandidate struct {
	ID   int32
	Text string
}

// FindTextPassageMissingAnalyses selects comment-typed items with
// length(text) >= minLen lacking a text_passage, newest first, up to limit.
// No upper length bound is applied here; longer texts are returned as-is.
func (s *Store) FindTextPassageMissingAnalyses(ctx context.Context, minLen, limit int) ([]CommentTextCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT items.id, items.text
		FROM items
		LEFT JOIN analyses ON analyses.item_id = items.id
		WHERE items.kind = 'comment' AND items.text IS NOT NULL
		  AND length(items.text) >= $1
		  AND (analyses.text_passage IS NULL OR analyses.item_id IS NULL)
		ORDER BY items.id DESC
		LIMIT $2
	`, minLen, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CommentTextCandidate
	for rows.Next() {
		var c CommentTextCandidate
		if err := rows.Scan(&c.ID, &c.Text); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SummaryPassageCandidate is an (id, summary) pair.
type SummaryPassageCandidate struct {
	ID      int32
	Summary string
}

func (s *Store) FindSummaryPassageMissingAnalyses(ctx context.Context, ids []int32) ([]SummaryPassageCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_urls.item_id, item_urls.summary
		FROM unnest($1::bigint[]) WITH ORDINALITY AS want(id, ord)
		JOIN item_urls ON item_urls.item_id = want.id
		LEFT JOIN analyses ON analyses.item_id = item_urls.item_id
		WHERE item_urls.summary IS NOT NULL AND (analyses.summary_passage IS NULL OR analyses.item_id IS NULL)
		ORDER BY want.ord ASC
	`, toInt64Slice(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaryPassageCandidates(rows)
}

func (s *Store) FindSummaryPassageMissingAnalysesExcluding(ctx context.Context, exclude []int32, limit int) ([]SummaryPassageCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_urls.item_id, item_urls.summary
		FROM item_urls
		LEFT JOIN analyses ON analyses.item_id = item_urls.item_id
		WHERE item_urls.summary IS NOT NULL AND (analyses.summary_passage IS NULL OR analyses.item_id IS NULL)
		  AND NOT (item_urls.item_id = ANY($1::bigint[]))
		ORDER BY item_urls.item_id DESC
		LIMIT $2
	`, toInt64Slice(exclude), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaryPassageCandidates(rows)
}

// FindKeywordExistingAnalyses returns up to limit ids (newest first) that
// have a keyword set, for the embed-keywords worker.
func (s *Store) FindKeywordExistingAnalyses(ctx context.Context, limit int) ([]int32, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id FROM analyses WHERE keyword IS NOT NULL ORDER BY item_id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInt32Column(rows)
}

// FindSummaryExistingItems returns up to limit ids (newest first) that have a
// summary, for the embed-summaries worker.
func (s *Store) FindSummaryExistingItems(ctx context.Context, limit int) ([]int32, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id FROM item_urls WHERE summary IS NOT NULL ORDER BY item_id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInt32Column(rows)
}

// FindAnalysisKeywords returns (id, keyword) for the given ids.
func (s *Store) FindAnalysisKeywords(ctx context.Context, ids []int32) (map[int32]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id, keyword FROM analyses WHERE item_id = ANY($1::bigint[]) AND keyword IS NOT NULL
	`, toInt64Slice(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int32]string{}
	for rows.Next() {
		var id int32
		var kw string
		if err := rows.Scan(&id, &kw); err != nil {
			return nil, err
		}
		out[id] = kw
	}
	return out, rows.Err()
}

// FindItemSummaries returns (id, text?, summary?) for items where the text
// or the fetched-article summary is available, used to choose the embedding
// sentence (precedence: items.text over item_urls.summary).
func (s *Store) FindItemSummaries(ctx context.Context, ids []int32) ([]model.ItemSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT items.id, items.text, item_urls.summary
		FROM unnest($1::bigint[]) WITH ORDINALITY AS want(id, ord)
		JOIN items ON items.id = want.id
		LEFT JOIN item_urls ON item_urls.item_id = items.id
		WHERE items.text IS NOT NULL OR item_urls.summary IS NOT NULL
		ORDER BY want.ord ASC
	`, toInt64Slice(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ItemSummary
	for rows.Next() {
		var it model.ItemSummary
		if err := rows.Scan(&it.ID, &it.Text, &it.Summary); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// InsertItem refuses a null kind when the upstream payload contained one is
// the caller's responsibility (the crawler passes through whatever upstream
// sent); on duplicate key it returns errs.ErrAlreadyPresent.
func (s *Store) InsertItem(ctx context.Context, it model.Item) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO items (id, kind, deleted, by, time, text, dead, parent, poll, kids, url, score, title, parts, descendants)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, it.ID, kindArg(it.Kind), it.Deleted, it.By, it.Time, it.Text, it.Dead, it.Parent, it.Poll,
		toInt64SlicePtr(it.Kids), it.URL, it.Score, it.Title, toInt64SlicePtr(it.Parts), it.Descendants)
	return wrapConflict(err)
}

func (s *Store) InsertItemURL(ctx context.Context, u model.ItemURL) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO item_urls (item_id, status_code, html, text, note)
		VALUES ($1,$2,$3,$4,$5)
	`, u.ItemID, int(u.Status), u.HTML, u.Text, u.Note)
	return wrapConflict(err)
}

func (s *Store) InsertAnalysis(ctx context.Context, a model.Analysis) error {
	tp, sp, err := marshalPassages(a)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO analyses (item_id, keyword, text_passage, summary_passage)
		VALUES ($1,$2,$3,$4)
	`, a.ItemID, a.Keyword, tp, sp)
	return wrapConflict(err)
}

func (s *Store) UpdateItemURLSummary(ctx context.Context, itemID int32, summary string) error {
	_, err := s.pool.Exec(ctx, `UPDATE item_urls SET summary = $2 WHERE item_id = $1`, itemID, summary)
	return err
}

func (s *Store) UpdateAnalysisSummaryPassage(ctx context.Context, itemID int32, passage model.Passage) error {
	b, err := json.Marshal(passage)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO analyses (item_id, summary_passage) VALUES ($1, $2)
		ON CONFLICT (item_id) DO UPDATE SET summary_passage = EXCLUDED.summary_passage
	`, itemID, b)
	return err
}

// FindItems hydrates ids for search responses. Resolved Open Question: a
// richer (title, url, time) triple, matching C9's response shape.
func (s *Store) FindItems(ctx context.Context, ids []int32) (map[int32]model.Hydration, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, url, time FROM items WHERE id = ANY($1::bigint[])
	`, toInt64Slice(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int32]model.Hydration{}
	for rows.Next() {
		var id int32
		var h model.Hydration
		if err := rows.Scan(&id, &h.Title, &h.URL, &h.Time); err != nil {
			return nil, err
		}
		out[id] = h
	}
	return out, rows.Err()
}

func wrapConflict(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return errs.ErrAlreadyPresent
	}
	return err
}

// kindArg adapts a possibly-nil *model.Kind to a pgx query argument: nil maps
// to SQL NULL, otherwise the value is passed by value so its
// database/sql/driver.Valuer implementation encodes it against item_kind.
func kindArg(k *model.Kind) any {
	if k == nil {
		return nil
	}
	return *k
}

func marshalPassages(a model.Analysis) ([]byte, []byte, error) {
	var tp, sp []byte
	var err error
	if a.TextPassage != nil {
		tp, err = json.Marshal(a.TextPassage)
		if err != nil {
			return nil, nil, err
		}
	}
	if a.SummaryPassage != nil {
		sp, err = json.Marshal(a.SummaryPassage)
		if err != nil {
			return nil, nil, err
		}
	}
	return tp, sp, nil
}

func toInt64Slice(ids []int32) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func toInt64SlicePtr(ids []int32) []int64 {
	if ids == nil {
		return nil
	}
	return toInt64Slice(ids)
}

func scanInt32Column(rows pgx.Rows) ([]int32, error) {
	var out []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanSummaryCandidates(rows pgx.Rows) ([]model.SummaryCandidate, error) {
	var out []model.SummaryCandidate
	for rows.Next() {
		var c model.SummaryCandidate
		if err := rows.Scan(&c.ID, &c.Title, &c.Text); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanSummaryPassageCandidates(rows pgx.Rows) ([]SummaryPassageCandidate, error) {
	var out []SummaryPassageCandidate
	for rows.Next() {
		var c SummaryPassageCandidate
		if err := rows.Scan(&c.ID, &c.Summary); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
