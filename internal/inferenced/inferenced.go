// Package inferenced implements C10, the Inference HTTP Facade: a thin HTTP
// surface (healthcheck, POST /instruct, POST /embed) over a local model,
// grounded on the reference codebase's internal/httpapi routing style (Go 1.22+
// ServeMux method-pattern routes) and its OPENAI_BASE_URL-override pattern
// for pointing an OpenAI-compatible client at a self-hosted model server
// instead of api.openai.com, since the reference corpus carries no native Go
// tensor/embedding-model binding.
package inferenced

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/metalwhale/newswaters/internal/errs"
)

// Config configures the backend OpenAI-compatible server and the handlers'
// post-processing behavior.
type Config struct {
	BaseURL           string
	APIKey            string
	ChatModel         string
	EmbeddingModel    string
	InstructTemplate  string // optional; "%s" is replaced with the raw instruction
}

type Server struct {
	mux    *http.ServeMux
	client openai.Client
	cfg    Config
}

func New(cfg Config) *Server {
	opts := []option.RequestOption{option.WithBaseURL(cfg.BaseURL)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	s := &Server{mux: http.NewServeMux(), client: openai.NewClient(opts...), cfg: cfg}
	s.registerRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ok"))
	})
	s.mux.HandleFunc("POST /instruct", s.handleInstruct)
	s.mux.HandleFunc("POST /embed", s.handleEmbed)
}

type instructRequest struct {
	Instruction string `json:"instruction"`
}

type instructResponse struct {
	Completion string `json:"completion"`
}

// handleInstruct optionally templates the instruction with a configured
// string before invoking the model, then strips the prompt text from the
// model's echo (since some local models echo the prompt back) and trims
// whitespace.
func (s *Server) handleInstruct(w http.ResponseWriter, r *http.Request) {
	var req instructRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	prompt := req.Instruction
	if s.cfg.InstructTemplate != "" {
		prompt = fmt.Sprintf(s.cfg.InstructTemplate, req.Instruction)
	}
	completion, err := s.client.Chat.Completions.New(r.Context(), openai.ChatCompletionNewParams{
		Model: s.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	text := ""
	if len(completion.Choices) > 0 {
		text = completion.Choices[0].Message.Content
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, prompt))
	writeJSON(w, instructResponse{Completion: text})
}

type embedRequest struct {
	Sentence string `json:"sentence"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// handleEmbed runs a sentence-transformer-style forward pass via the
// configured embeddings endpoint and L2-normalizes the result.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	resp, err := s.client.Embeddings.New(r.Context(), openai.EmbeddingNewParams{
		Model: s.cfg.EmbeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(req.Sentence)},
	})
	if err != nil {
		errs.Wrap(err).WriteHTTP(w)
		return
	}
	if len(resp.Data) == 0 {
		errs.Wrap(fmt.Errorf("empty embedding response")).WriteHTTP(w)
		return
	}
	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, f := range resp.Data[0].Embedding {
		vec[i] = float32(f)
	}
	writeJSON(w, embedResponse{Embedding: l2Normalize(vec)})
}

func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
