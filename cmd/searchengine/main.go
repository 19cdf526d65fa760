// Command searchengine fronts C2 (Vector Store Adapter) and C3 (Text Index
// Adapter) as the documented Search Engine microservice (spec.md §6),
// grounded on original_source/search-engine/src/main.rs's route shapes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/metalwhale/newswaters/internal/config"
	"github.com/metalwhale/newswaters/internal/logging"
	"github.com/metalwhale/newswaters/internal/searchengine"
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

	var vs vectorstore.Store
	if cfg.SearchEng.VectorBackend == "postgres" {
		logging.Err("postgres vector backend requires a shared pgx pool; wire it via cmd/newswatersjob-style store.Open and vectorstore.NewPostgres")
		os.Exit(1)
	}
	qd, err := vectorstore.NewQdrant(cfg.SearchEng.VectorHost, portOf(cfg.SearchEng.VectorPort))
	if err != nil {
		logging.Err("open vector store: err=%s", err)
		os.Exit(1)
	}
	defer qd.Close()
	if err := qd.EnsureCollections(ctx, cfg.SearchEng.VectorCollectionNames, cfg.SearchEng.VectorSize, "cosine"); err != nil {
		logging.Err("ensure collections: err=%s", err)
		os.Exit(1)
	}
	vs = qd

	textIdx, err := textindex.Open(cfg.SearchEng.TextStoragePath)
	if err != nil {
		logging.Err("open text index: err=%s", err)
		os.Exit(1)
	}
	defer textIdx.Close()

	srv := searchengine.New(vs, textIdx)
	addr := ":" + cfg.SearchEng.Port
	logging.Info("searchengine listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		logging.Err("serve: err=%s", err)
		os.Exit(1)
	}
}

func portOf(s string) int {
	var n int
	fmt.Sscanf(s, "%d", &n)
	return n
}
