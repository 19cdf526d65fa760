// Command whistler serves C9, the Search Service, over HTTP (spec.md §6),
// grounded on the reference codebase's internal/httpapi routing style and
// internal/agentd's CORS-header helper.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/metalwhale/newswaters/internal/config"
	"github.com/metalwhale/newswaters/internal/errs"
	"github.com/metalwhale/newswaters/internal/inference"
	"github.com/metalwhale/newswaters/internal/logging"
	"github.com/metalwhale/newswaters/internal/search"
	"github.com/metalwhale/newswaters/internal/store"
	"github.com/metalwhale/newswaters/internal/textindex"
	"github.com/metalwhale/newswaters/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERR] load config: err=%s\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Database.DSN())
	if err != nil {
		logging.Err("open store: err=%s", err)
		os.Exit(1)
	}
	defer st.Close()

	qd, err := vectorstore.NewQdrant(cfg.SearchEng.VectorHost, portOf(cfg.SearchEng.VectorPort))
	if err != nil {
		logging.Err("open vector store: err=%s", err)
		os.Exit(1)
	}
	defer qd.Close()

	textIdx, err := textindex.Open(cfg.SearchEng.TextStoragePath)
	if err != nil {
		logging.Err("open text index: err=%s", err)
		os.Exit(1)
	}
	defer textIdx.Close()

	svc := &search.Service{
		Store:       st,
		Text:        textIdx,
		Vector:      qd,
		Inference:   inference.NewClient(cfg.Inference.BaseURL()),
		Collections: cfg.SearchEng.VectorCollectionNames,
		Config: search.Config{
			LexicalLimit:  cfg.Whistler.SearchSimilarLexicalLimit,
			SemanticLimit: cfg.Whistler.SearchSimilarSemanticLimit,
			LexicalWeight: cfg.Whistler.SearchSimilarLexicalWeight,
		},
	}

	mux := http.NewServeMux()
	prefix := cfg.Whistler.Prefix
	mux.HandleFunc("GET "+prefix+"/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ok"))
	})
	mux.HandleFunc("POST "+prefix+"/search-similar-items", withCORS(handleSearchSimilarItems(svc)))

	addr := ":" + cfg.Whistler.Port
	logging.Info("whistler listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logging.Err("serve: err=%s", err)
		os.Exit(1)
	}
}

type searchRequest struct {
	Sentence string `json:"sentence"`
	Limit    uint64 `json:"limit"`
}

type searchResponse struct {
	Items [][5]any `json:"items"`
}

func handleSearchSimilarItems(svc *search.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errs.Wrap(err).WriteHTTP(w)
			return
		}
		items, err := svc.SearchSimilarItems(r.Context(), req.Sentence, int(req.Limit))
		if err != nil {
			errs.Wrap(err).WriteHTTP(w)
			return
		}
		resp := searchResponse{Items: make([][5]any, len(items))}
		for i, it := range items {
			var title, url, tm any
			if it.Title != nil {
				title = *it.Title
			}
			if it.URL != nil {
				url = *it.URL
			}
			if it.Time != nil {
				tm = *it.Time
			}
			resp.Items[i] = [5]any{it.ID, it.Score, title, url, tm}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// withCORS sets the permissive headers spec.md §6 requires (allow GET/POST,
// content-type header, any origin), grounded on the reference codebase's
// internal/agentd CORS helper.
func withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func portOf(s string) int {
	var n int
	fmt.Sscanf(s, "%d", &n)
	return n
}
