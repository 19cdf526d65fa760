// Package inference implements C6, the Inference Adapter: instruction
// completions and sentence embeddings against a co-located inference
// service, grounded on the reference codebase's internal/embedding/client.go request/
// timeout/decode shape, generalized to two endpoints with the 600s / no
// fixed timeout split spec.md §4.5 requires.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const instructTimeout = 600 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

type instructRequest struct {
	Instruction string `json:"instruction"`
}

type instructResponse struct {
	Completion string `json:"completion"`
}

// Instruct POSTs a plain prompt to /instruct with a 600s timeout. The
// facade wraps it with any model-specific instruct template server-side.
func (c *Client) Instruct(ctx context.Context, instruction string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, instructTimeout)
	defer cancel()
	var resp instructResponse
	if err := c.post(ctx, "/instruct", instructRequest{Instruction: instruction}, &resp); err != nil {
		return "", err
	}
	return resp.Completion, nil
}

type embedRequest struct {
	Sentence string `json:"sentence"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed POSTs to /embed. Callers MAY prefix sentence with a retrieval role
// marker (document vs. query); this adapter is content-agnostic about it.
func (c *Client) Embed(ctx context.Context, sentence string) ([]float32, error) {
	var resp embedResponse
	if err := c.post(ctx, "/embed", embedRequest{Sentence: sentence}, &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(respBody)
}
