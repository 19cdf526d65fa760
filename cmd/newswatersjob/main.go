// Command newswatersjob is the worker binary for C7 (Crawler) and C8
// (Enrichment Workers), dispatching on a closed set of positional
// subcommands (spec.md §6), grounded on the reference codebase's cmd/embedctl's
// flag-based (non-cobra) CLI style, adapted to positional dispatch since
// the worker needs one-of-eight subcommands rather than flag-only options.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/metalwhale/newswaters/internal/config"
	"github.com/metalwhale/newswaters/internal/crawler"
	"github.com/metalwhale/newswaters/internal/enrich"
	"github.com/metalwhale/newswaters/internal/feed"
	"github.com/metalwhale/newswaters/internal/fetcher"
	"github.com/metalwhale/newswaters/internal/inference"
	"github.com/metalwhale/newswaters/internal/logging"
	"github.com/metalwhale/newswaters/internal/store"
	"github.com/metalwhale/newswaters/internal/vectorstore"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: newswatersjob <subcommand>")
		os.Exit(1)
	}
	subcommand := os.Args[1]

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

	fc := feed.NewClient()
	inf := inference.NewClient(cfg.Inference.BaseURL())

	if err := run(ctx, subcommand, cfg, st, fc, inf); err != nil {
		logging.Err("%s: err=%s", subcommand, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, subcommand string, cfg config.Config, st *store.Store, fc *feed.Client, inf *inference.Client) error {
	switch subcommand {
	case "collect-items":
		return crawler.CollectItems(ctx, st, fc, crawler.Options{
			ItemsNum: cfg.Job.CollectItemsNum, PermitsNum: cfg.Job.PermitsNum, ChunkSize: cfg.Job.ChunkSize,
		})
	case "collect-item-urls":
		ft := fetcher.New()
		return crawler.CollectItemURLs(ctx, st, fc, ft, crawler.Options{
			ItemsNum: cfg.Job.CollectItemURLsNum, PermitsNum: cfg.Job.URLPermitsNum, ChunkSize: cfg.Job.ChunkSize,
			ReplicasNum: cfg.Job.ReplicasNum, ReplicaIndex: cfg.Job.ReplicaIndex,
		})
	case "summarize-texts":
		return enrich.SummarizeTexts(ctx, deps(st, fc, inf, nil, cfg))
	case "analyze-story-texts":
		return enrich.AnalyzeStoryTexts(ctx, deps(st, fc, inf, nil, cfg))
	case "analyze-comment-texts":
		return enrich.AnalyzeCommentTexts(ctx, deps(st, fc, inf, nil, cfg), cfg.Job.InstructAnchorMaxWords)
	case "analyze-summaries":
		return enrich.AnalyzeSummaries(ctx, deps(st, fc, inf, nil, cfg), cfg.Job.InstructAnchorMaxWords,
			cfg.Job.InstructSubjectMaxSubjects, cfg.Job.InstructSubjectMaxWords)
	case "embed-summaries":
		vs, err := openVectorStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer vs.Close()
		return enrich.EmbedSummaries(ctx, deps(st, fc, inf, vs, cfg), cfg.SearchEng.VectorSummaryCollection)
	case "embed-keywords":
		vs, err := openVectorStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer vs.Close()
		return enrich.EmbedKeywords(ctx, deps(st, fc, inf, vs, cfg), cfg.SearchEng.VectorKeywordCollection)
	default:
		return fmt.Errorf("unknown subcommand %q", subcommand)
	}
}

func deps(st *store.Store, fc *feed.Client, inf *inference.Client, vs vectorstore.Store, cfg config.Config) enrich.Deps {
	return enrich.Deps{Store: st, Feed: fc, Inference: inf, Vector: vs, Job: cfg.Job}
}

func openVectorStore(ctx context.Context, cfg config.Config) (vectorstore.Store, error) {
	qd, err := vectorstore.NewQdrant(cfg.SearchEng.VectorHost, portOf(cfg.SearchEng.VectorPort))
	if err != nil {
		return nil, err
	}
	if err := qd.EnsureCollections(ctx, []string{cfg.SearchEng.VectorSummaryCollection, cfg.SearchEng.VectorKeywordCollection}, cfg.SearchEng.VectorSize, "cosine"); err != nil {
		return nil, err
	}
	return qd, nil
}

func portOf(s string) int {
	var n int
	fmt.Sscanf(s, "%d", &n)
	return n
}
