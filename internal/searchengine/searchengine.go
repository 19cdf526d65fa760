// Package searchengine exposes C2 (vector store) and C3 (text index) over
// the documented Search Engine microservice HTTP interface (spec.md §6):
// POST /find-missing, /upsert, /search-similar, plus a healthcheck.
// Grounded on original_source/search-engine/src/main.rs's route/handler
// shapes and this codebase's Go 1.22+ ServeMux routing style.
package searchengine

import (
	"encoding/json"
	"net/http"

	"github.com/metalwhale/newswaters/internal/errs"
	"github.com/metalwhale/newswaters/internal/textindex"
	"github.com/metalwhale/newswaters/internal/vectorstore"
)

type Server struct {
	mux    *http.ServeMux
	vector vectorstore.Store
	text   *textindex.Index
}

func New(vector vectorstore.Store, text *textindex.Index) *Server {
	s := &Server{mux: http.NewServeMux(), vector: vector, text: text}
	s.registerRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("Ok")) })
	s.mux.HandleFunc("POST /find-missing", s.handleFindMissing)
	s.mux.HandleFunc("POST /upsert", s.handleUpsert)
	s.mux.HandleFunc("POST /search-similar", s.handleSearchSimilar)
}

type findMissingRequest struct {
	CollectionName string  `json:"collection_name"`
	IDs            []int32 `json:"ids"`
}

type findMissingResponse struct {
	MissingIDs []int32 `json:"missing_ids"`
}

func (s *Server) handleFindMissing(w http.ResponseWriter, r *http.Request) {
	var req findMissingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	missing, err := s.vector.FindMissing(r.Context(), req.CollectionName, req.IDs)
	if err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	writeJSON(w, findMissingResponse{MissingIDs: missing})
}

type upsertRequest struct {
	CollectionName string    `json:"collection_name"`
	ID             int32     `json:"id"`
	Embedding      []float32 `json:"embedding"`
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	if err := s.vector.Upsert(r.Context(), req.CollectionName, req.ID, req.Embedding); err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	writeJSON(w, struct{}{})
}

type searchSimilarRequest struct {
	CollectionName string    `json:"collection_name"`
	Embedding      []float32 `json:"embedding"`
	Sentence       *string   `json:"sentence"`
	Limit          int       `json:"limit"`
}

type searchSimilarResponse struct {
	Items [][2]float64 `json:"items"`
}

// handleSearchSimilar dispatches to the text index when Sentence is set,
// else to the vector store when Embedding is non-empty; empty both yields
// an empty result (spec.md §6).
func (s *Server) handleSearchSimilar(w http.ResponseWriter, r *http.Request) {
	var req searchSimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	var items [][2]float64
	switch {
	case req.Sentence != nil && *req.Sentence != "":
		res, err := s.text.Search(*req.Sentence, req.Limit)
		if err != nil {
			errs.Wrap(err).WriteHTTP(w)
			return
		}
		for _, r := range res {
			items = append(items, [2]float64{float64(r.ID), float64(r.Score)})
		}
	case len(req.Embedding) > 0:
		res, err := s.vector.Search(r.Context(), req.CollectionName, req.Embedding, req.Limit)
		if err != nil {
			errs.Wrap(err).WriteHTTP(w)
			return
		}
		for _, p := range res {
			items = append(items, [2]float64{float64(p.ID), float64(p.Score)})
		}
	}
	writeJSON(w, searchSimilarResponse{Items: items})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
