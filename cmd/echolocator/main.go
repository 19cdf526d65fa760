// Command echolocator serves C10, the Inference HTTP Facade (spec.md §6),
// proxying /instruct and /embed onto a configured OpenAI-compatible backend.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/metalwhale/newswaters/internal/config"
	"github.com/metalwhale/newswaters/internal/inferenced"
	"github.com/metalwhale/newswaters/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERR] load config: err=%s\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)

	srv := inferenced.New(inferenced.Config{
		BaseURL:          cfg.Echolocator.BackendBaseURL,
		APIKey:           cfg.Echolocator.BackendAPIKey,
		ChatModel:        cfg.Echolocator.ChatModel,
		EmbeddingModel:   cfg.Echolocator.EmbeddingModel,
		InstructTemplate: cfg.Echolocator.InstructTemplate,
	})

	addr := ":" + cfg.Echolocator.Port
	logging.Info("echolocator listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		logging.Err("serve: err=%s", err)
		os.Exit(1)
	}
}
