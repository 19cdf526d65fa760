// Package feed implements C4, the Item Feed Adapter: max-id, individual
// items, and the top-story list over the upstream discussion-board JSON
// API, grounded on the reference codebase's internal/embedding/client.go request
// shape (context timeout, status-class check, JSON decode).
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/metalwhale/newswaters/internal/model"
)

const defaultBaseURL = "https://hacker-news.firebaseio.com/v0"

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient() *Client {
	return &Client{baseURL: defaultBaseURL, http: &http.Client{Timeout: 30 * time.Second}}
}

// NewClientWithBaseURL points the client at an arbitrary base URL, for
// pointing at a mock feed server in tests.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: 30 * time.Second}}
}

// itemJSON mirrors the upstream item JSON shape verbatim (spec.md §6).
type itemJSON struct {
	ID          int32   `json:"id"`
	Deleted     bool    `json:"deleted"`
	Type        *string `json:"type"`
	By          *string `json:"by"`
	Time        *int64  `json:"time"`
	Text        *string `json:"text"`
	Dead        bool    `json:"dead"`
	Parent      *int32  `json:"parent"`
	Poll        *int32  `json:"poll"`
	Kids        []int32 `json:"kids"`
	URL         *string `json:"url"`
	Score       *int32  `json:"score"`
	Title       *string `json:"title"`
	Parts       []int32 `json:"parts"`
	Descendants *int32  `json:"descendants"`
}

func (c *Client) MaxItemID(ctx context.Context) (int32, error) {
	body, err := c.get(ctx, "/maxitem.json")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, fmt.Errorf("parse maxitem: %w", err)
	}
	return int32(n), nil
}

func (c *Client) GetItem(ctx context.Context, id int32) (model.Item, error) {
	body, err := c.get(ctx, fmt.Sprintf("/item/%d.json", id))
	if err != nil {
		return model.Item{}, err
	}
	var raw itemJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Item{}, fmt.Errorf("decode item %d: %w", id, err)
	}
	it := model.Item{
		ID:          raw.ID,
		Deleted:     raw.Deleted,
		By:          raw.By,
		Time:        raw.Time,
		Text:        raw.Text,
		Dead:        raw.Dead,
		Parent:      raw.Parent,
		Poll:        raw.Poll,
		Kids:        raw.Kids,
		URL:         raw.URL,
		Score:       raw.Score,
		Title:       raw.Title,
		Parts:       raw.Parts,
		Descendants: raw.Descendants,
	}
	if raw.Type != nil {
		k := model.Kind(*raw.Type)
		it.Kind = &k
	}
	return it, nil
}

func (c *Client) TopStoryIDs(ctx context.Context) ([]int32, error) {
	body, err := c.get(ctx, "/topstories.json")
	if err != nil {
		return nil, err
	}
	var ids []int32
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode topstories: %w", err)
	}
	return ids, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?print=pretty", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
