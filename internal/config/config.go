// Package config loads all process configuration from environment variables,
// following the env-var-driven loader pattern used throughout this codebase
// (godotenv.Overload followed by strings.TrimSpace(os.Getenv(...)) reads with
// typed defaults) rather than a YAML/file-based config tree.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting recognized by spec.md §6.
type Config struct {
	Database   Database
	SearchEng  SearchEngine
	Inference  Inference
	Job        Job
	Whistler   Whistler
	Echolocator Echolocator
	LogLevel   string
}

type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	DB       string
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.DB)
}

type SearchEngine struct {
	Host                     string
	Port                     string
	VectorBackend            string // "qdrant" (default) or "postgres"
	VectorHost               string
	VectorPort               string
	VectorCollectionNames    []string
	VectorSummaryCollection  string
	VectorKeywordCollection  string
	VectorSize               int
	TextStoragePath          string
}

type Inference struct {
	Host string
	Port string
}

func (i Inference) BaseURL() string {
	return fmt.Sprintf("http://%s:%s", i.Host, i.Port)
}

type Job struct {
	CollectItemsNum             int
	CollectItemURLsNum          int
	PermitsNum                  int
	URLPermitsNum               int
	ChunkSize                   int
	ReplicasNum                 int
	ReplicaIndex                int
	SummarizeTextsNum           int
	AnalyzeStoryTextsNum        int
	AnalyzeCommentTextsNum      int
	AnalyzeCommentTextMinLen    int
	AnalyzeCommentTextMaxLen    int
	AnalyzeSummariesNum         int
	EmbedSummariesNum           int
	EmbedKeywordsNum            int
	TextMinLineLen              int
	TextMaxTotalLen             int
	AnalyzeAdditionalTexts      bool
	AnalyzeAdditionalSummaries  bool
	SummarizeAdditionalTexts    bool
	FindAnalysesFollowSummaries bool
	InstructRandomRetentionRate float64
	InstructAnchorMaxWords      int
	InstructSubjectMaxSubjects  int
	InstructSubjectMaxWords     int
}

type Whistler struct {
	Port                 string
	Prefix               string
	SearchSimilarLexicalLimit  int
	SearchSimilarSemanticLimit int
	SearchSimilarLexicalWeight float64
}

// Echolocator configures the C10 Inference HTTP Facade binary: the address
// it listens on, and the OpenAI-compatible backend it proxies /instruct and
// /embed onto.
type Echolocator struct {
	Host             string
	Port             string
	BackendBaseURL   string
	BackendAPIKey    string
	ChatModel        string
	EmbeddingModel   string
	InstructTemplate string
}

// Load reads .env (if present, via godotenv.Overload) then populates Config
// from the process environment, applying the defaults spec.md §6 documents.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := Config{
		Database: Database{
			Host:     getenv("DATABASE_HOST", ""),
			Port:     getenvInt("DATABASE_PORT", 5432),
			User:     getenv("DATABASE_USER", ""),
			Password: getenv("DATABASE_PASSWORD", ""),
			DB:       getenv("DATABASE_DB", ""),
		},
		SearchEng: SearchEngine{
			Host:                    getenv("SEARCH_ENGINE_HOST", ""),
			Port:                    getenv("SEARCH_ENGINE_PORT", "3000"),
			VectorBackend:           getenv("SEARCH_ENGINE_VECTOR_BACKEND", "qdrant"),
			VectorHost:              getenv("SEARCH_ENGINE_VECTOR_HOST", ""),
			VectorPort:              getenv("SEARCH_ENGINE_VECTOR_PORT", ""),
			VectorCollectionNames:   splitCSV(getenv("SEARCH_ENGINE_VECTOR_COLLECTION_NAMES", "")),
			VectorSummaryCollection: getenv("SEARCH_ENGINE_VECTOR_SUMMARY_COLLECTION_NAME", ""),
			VectorKeywordCollection: getenv("SEARCH_ENGINE_VECTOR_KEYWORD_COLLECTION_NAME", ""),
			VectorSize:              getenvInt("SEARCH_ENGINE_VECTOR_SIZE", 768),
			TextStoragePath:         getenv("SEARCH_ENGINE_TEXT_STORAGE_PATH", ""),
		},
		Inference: Inference{
			Host: getenv("INFERENCE_HOST", ""),
			Port: getenv("INFERENCE_PORT", ""),
		},
		Job: Job{
			CollectItemsNum:             getenvInt("JOB_COLLECT_ITEMS_NUM", 1000000),
			CollectItemURLsNum:          getenvInt("JOB_COLLECT_ITEM_URLS_NUM", 1000000),
			PermitsNum:                  getenvInt("JOB_PERMITS_NUM", 100),
			URLPermitsNum:               getenvInt("JOB_PERMITS_NUM", 10),
			ChunkSize:                   getenvInt("JOB_CHUNK_SIZE", 1000),
			ReplicasNum:                 getenvInt("JOB_REPLICAS_NUM", 1),
			ReplicaIndex:                getenvInt("JOB_REPLICA_INDEX", 0),
			SummarizeTextsNum:           getenvInt("JOB_SUMMARIZE_TEXTS_NUM", 30),
			AnalyzeStoryTextsNum:        getenvInt("JOB_ANALYZE_STORY_TEXTS_NUM", 30),
			AnalyzeCommentTextsNum:      getenvInt("JOB_ANALYZE_COMMENT_TEXTS_NUM", 30),
			AnalyzeCommentTextMinLen:    getenvInt("JOB_ANALYZE_COMMENT_TEXT_MIN_LEN", 120),
			AnalyzeCommentTextMaxLen:    getenvInt("JOB_ANALYZE_COMMENT_TEXT_MAX_LEN", 4800),
			AnalyzeSummariesNum:         getenvInt("JOB_ANALYZE_SUMMARIES_NUM", 30),
			EmbedSummariesNum:           getenvInt("JOB_EMBED_SUMMARIES_NUM", 1000000),
			EmbedKeywordsNum:            getenvInt("JOB_EMBED_KEYWORDS_NUM", 1000000),
			TextMinLineLen:              getenvInt("JOB_TEXT_MIN_LINE_LEN", 80),
			TextMaxTotalLen:             getenvInt("JOB_TEXT_MAX_TOTAL_LEN", 4800),
			AnalyzeAdditionalTexts:      isSet("JOB_ANALYZE_ADDITIONAL_TEXTS"),
			AnalyzeAdditionalSummaries:  isSet("JOB_ANALYZE_ADDITIONAL_SUMMARIES"),
			SummarizeAdditionalTexts:    isSet("JOB_SUMMARIZE_ADDITIONAL_TEXTS"),
			FindAnalysesFollowSummaries: isSet("JOB_FIND_ANALYSES_FOLLOW_SUMMARIES"),
			InstructRandomRetentionRate: getenvFloat("JOB_INSTRUCT_RANDOM_QUERY_WORDS_RETENTION_RATE", 0.1),
			InstructAnchorMaxWords:      getenvInt("JOB_INSTRUCT_SUMMARY_ANCHOR_QUERY_MAX_WORDS_COUNT", 20),
			InstructSubjectMaxSubjects:  getenvInt("JOB_INSTRUCT_SUBJECT_QUERY_MAX_SUBJECTS_NUM", 5),
			InstructSubjectMaxWords:     getenvInt("JOB_INSTRUCT_SUBJECT_QUERY_MAX_WORDS_COUNT", 5),
		},
		Whistler: Whistler{
			Port:                       getenv("WHISTLER_PORT", "3000"),
			Prefix:                     getenv("WHISTLER_PREFIX", ""),
			SearchSimilarLexicalLimit:  getenvInt("WHISTLER_SEARCH_SIMILAR_LEXICAL_LIMIT", 0),
			SearchSimilarSemanticLimit: getenvInt("WHISTLER_SEARCH_SIMILAR_SEMANTIC_LIMIT", 0),
			SearchSimilarLexicalWeight: getenvFloat("WHISTLER_SEARCH_SIMILAR_LEXICAL_WEIGHT", 0.25),
		},
		Echolocator: Echolocator{
			Host:             getenv("ECHOLOCATOR_HOST", ""),
			Port:             getenv("ECHOLOCATOR_PORT", "3000"),
			BackendBaseURL:   getenv("ECHOLOCATOR_BACKEND_BASE_URL", ""),
			BackendAPIKey:    getenv("ECHOLOCATOR_BACKEND_API_KEY", ""),
			ChatModel:        getenv("ECHOLOCATOR_CHAT_MODEL", ""),
			EmbeddingModel:   getenv("ECHOLOCATOR_EMBEDDING_MODEL", ""),
			InstructTemplate: getenv("ECHOLOCATOR_INSTRUCT_TEMPLATE", ""),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func isSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
