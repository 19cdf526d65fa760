// Package model holds the data-model types shared across the pipeline:
// Item, ItemUrl (as a tagged-union status over Finished/Skipped/Canceled),
// and Analysis, per spec.md §3.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Kind is the upstream item type, backed by the item_kind Postgres enum.
// A zero value means "upstream payload had no type field" — see Item's
// invariant. Value/Scan are grounded on
// original_source/skimmer/src/repository/item.rs's ItemTypeValue, which
// round-trips the same five variants through Diesel's ToSql/FromSql for its
// ItemType sql type.
type Kind string

const (
	KindJob     Kind = "job"
	KindStory   Kind = "story"
	KindComment Kind = "comment"
	KindPoll    Kind = "poll"
	KindPollOpt Kind = "pollopt"
)

// Value implements driver.Valuer so a *Kind can be passed directly as a
// pgx query argument against the item_kind column.
func (k Kind) Value() (driver.Value, error) {
	switch k {
	case KindJob, KindStory, KindComment, KindPoll, KindPollOpt:
		return string(k), nil
	default:
		return nil, fmt.Errorf("model: invalid item kind %q", string(k))
	}
}

// Scan implements sql.Scanner, reading an item_kind column value back.
func (k *Kind) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*k = ""
		return nil
	case string:
		*k = Kind(v)
		return nil
	case []byte:
		*k = Kind(v)
		return nil
	default:
		return fmt.Errorf("model: cannot scan %T into Kind", src)
	}
}

// Item is one upstream record, inserted once by the crawler and never
// updated afterward.
type Item struct {
	ID          int32
	Kind        *Kind
	Deleted     bool
	By          *string
	Time        *int64
	Text        *string
	Dead        bool
	Parent      *int32
	Poll        *int32
	Kids        []int32
	URL         *string
	Score       *int32
	Title       *string
	Parts       []int32
	Descendants *int32
}

// ItemURLStatus is the small integer tag backing the three-way ItemUrl
// outcome (spec.md §9 — "dynamic dispatch replaced with tagged variants").
type ItemURLStatus int

const (
	StatusFinished ItemURLStatus = 0
	StatusSkipped  ItemURLStatus = 1
	StatusCanceled ItemURLStatus = 2
)

// ItemURL is the fetched-article record for an item, keyed by item_id.
// Finished carries HTML and plain text; Skipped and Canceled carry a note
// instead. The invariant status=Finished ⇔ html∧text present is enforced by
// the constructors below, never by ad hoc field assignment.
type ItemURL struct {
	ItemID  int32
	Status  ItemURLStatus
	HTML    *string
	Text    *string
	Note    *string
	Summary *string
}

func Finished(itemID int32, html, text string) ItemURL {
	return ItemURL{ItemID: itemID, Status: StatusFinished, HTML: &html, Text: &text}
}

func Skipped(itemID int32, note string) ItemURL {
	return ItemURL{ItemID: itemID, Status: StatusSkipped, Note: &note}
}

func Canceled(itemID int32, note string) ItemURL {
	return ItemURL{ItemID: itemID, Status: StatusCanceled, Note: &note}
}

// MarshalJSON emits one of three disjoint shapes discriminated by "status".
func (u ItemURL) MarshalJSON() ([]byte, error) {
	switch u.Status {
	case StatusFinished:
		return json.Marshal(struct {
			Status string `json:"status"`
			HTML   string `json:"html"`
			Text   string `json:"text"`
		}{"finished", deref(u.HTML), deref(u.Text)})
	case StatusSkipped:
		return json.Marshal(struct {
			Status string `json:"status"`
			Note   string `json:"note"`
		}{"skipped", deref(u.Note)})
	default:
		return json.Marshal(struct {
			Status string `json:"status"`
			Note   string `json:"note"`
		}{"canceled", deref(u.Note)})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Passage is the contrastive-learning-style sentence bundle attached to
// Analysis.TextPassage / Analysis.SummaryPassage (spec.md §3).
type Passage struct {
	Anchor        []string `json:"anchor"`
	Entailment    []string `json:"entailment"`
	Contradiction []string `json:"contradiction"`
	Irrelevance   []string `json:"irrelevance"`
	Subject       []string `json:"subject"`
}

// Analysis holds the LLM-derived artifacts for one item.
type Analysis struct {
	ItemID          int32
	Keyword         *string
	TextPassage     *Passage
	SummaryPassage  *Passage
}

// SummaryCandidate is the (id, title, text) shape find_summary_missing_items
// and its mirrors return.
type SummaryCandidate struct {
	ID    int32
	Title string
	Text  string
}

// ItemSummary is the (id, text?, summary?) shape find_item_summaries returns.
type ItemSummary struct {
	ID      int32
	Text    *string
	Summary *string
}

// Hydration is the (title?, url?, time?) triple find_items returns per id
// (resolved Open Question: richer triple over a bare (title,url) map, since
// C9's search response shape also needs time).
type Hydration struct {
	Title *string
	URL   *string
	Time  *int64
}
