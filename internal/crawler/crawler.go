// Package crawler implements C7: bounded-concurrency gap-filling for items
// and article URLs against [min_id, max_id] windows, partitioned into
// descending chunks, with retry, per-task timeout, and replica-sharded work
// distribution. Grounded on original_source/newswaters-job/src/command/item.rs's
// collect_chunk_items/collect_chunk_item_urls, translated from
// tokio::sync::Semaphore + tokio::spawn into golang.org/x/sync/semaphore +
// errgroup (this codebase already depends on golang.org/x/sync for
// errgroup elsewhere).
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/metalwhale/newswaters/internal/errs"
	"github.com/metalwhale/newswaters/internal/feed"
	"github.com/metalwhale/newswaters/internal/fetcher"
	"github.com/metalwhale/newswaters/internal/logging"
	"github.com/metalwhale/newswaters/internal/model"
	"github.com/metalwhale/newswaters/internal/store"
)

const (
	maxRetryCount    = 100
	retryDelay       = 1 * time.Second
	urlFetchTimeout  = 300 * time.Second
)

// ItemStore is the subset of C1 the crawler needs.
type ItemStore interface {
	MaxItemID(ctx context.Context) (int32, error)
	MinItemID(ctx context.Context) (int32, error)
	MissingItems(ctx context.Context, min, max int32) ([]int32, error)
	MissingItemURLs(ctx context.Context, min, max int32) ([]MissingPair, error)
	InsertItem(ctx context.Context, it model.Item) error
	InsertItemURL(ctx context.Context, u model.ItemURL) error
}

// MissingPair is an alias of store.MissingItemURLPair, keeping the crawler's
// interface expressed in terms of the concrete store type it actually uses
// without repeating field definitions.
type MissingPair = store.MissingItemURLPair

// Options configures a single collect_items/collect_item_urls invocation.
type Options struct {
	ItemsNum     int
	PermitsNum   int
	ChunkSize    int
	ReplicasNum  int
	ReplicaIndex int
}

// CollectItems closes gaps in [max(0,max_id-(itemsNum-1)), max_id] against
// the item feed, chunk by chunk, descending.
func CollectItems(ctx context.Context, st ItemStore, fc *feed.Client, opt Options) error {
	maxID, err := fc.MaxItemID(ctx)
	if err != nil {
		return fmt.Errorf("max item id: %w", err)
	}
	minID := maxID - int32(opt.ItemsNum-1)
	if minID < 0 {
		minID = 0
	}
	return forEachDescendingChunk(minID, maxID, opt.ChunkSize, func(chunkMin, chunkMax int32) error {
		ids, err := st.MissingItems(ctx, chunkMin, chunkMax)
		if err != nil {
			return fmt.Errorf("missing items %d-%d: %w", chunkMin, chunkMax, err)
		}
		return collectChunkItems(ctx, st, fc, ids, opt.PermitsNum)
	})
}

// CollectItemURLs closes gaps in article fetches over the same window
// shape, replica-sharded and browser-bounded.
func CollectItemURLs(ctx context.Context, st ItemStore, fc *feed.Client, ft *fetcher.Fetcher, opt Options) error {
	maxID, err := fc.MaxItemID(ctx)
	if err != nil {
		return fmt.Errorf("max item id: %w", err)
	}
	minFromFeed := maxID - int32(opt.ItemsNum-1)
	minFromStore, err := st.MinItemID(ctx)
	if err != nil {
		return fmt.Errorf("min item id: %w", err)
	}
	minID := minFromFeed
	if minFromStore > minID {
		minID = minFromStore
	}
	if minID < 0 {
		minID = 0
	}
	return forEachDescendingChunk(minID, maxID, opt.ChunkSize, func(chunkMin, chunkMax int32) error {
		pairs, err := st.MissingItemURLs(ctx, chunkMin, chunkMax)
		if err != nil {
			return fmt.Errorf("missing item urls %d-%d: %w", chunkMin, chunkMax, err)
		}
		return collectChunkItemURLs(ctx, st, ft, pairs, opt.PermitsNum, opt.ReplicasNum, opt.ReplicaIndex)
	})
}

// forEachDescendingChunk iterates [min,max] in descending chunks of size
// chunkSize, fully awaiting one chunk before the next starts (bounds memory
// to one chunk's worth of in-flight tasks).
func forEachDescendingChunk(min, max int32, chunkSize int, fn func(chunkMin, chunkMax int32) error) error {
	chunkMax := max
	for chunkMax >= min {
		chunkMin := chunkMax - int32(chunkSize) + 1
		if chunkMin < min {
			chunkMin = min
		}
		if err := fn(chunkMin, chunkMax); err != nil {
			return err
		}
		chunkMax -= int32(chunkSize)
	}
	return nil
}

// collectChunkItems iterates ids in descending order, acquiring a permit
// before spawning an independent task per id; each task retries on any
// error with a 1s delay up to 100 attempts; a final failure is logged and
// swallowed, never aborting the chunk.
func collectChunkItems(ctx context.Context, st ItemStore, fc *feed.Client, ids []int32, permitsNum int) error {
	sem := semaphore.NewWeighted(int64(permitsNum))
	var g errgroup.Group
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			item, err := fetchItemWithRetry(ctx, fc, id)
			if err != nil {
				logging.Err("crawler.collect_items (id=%d): err=%s", id, err)
				return nil
			}
			if err := st.InsertItem(ctx, item); err != nil && !errs.IsAlreadyPresent(err) {
				logging.Err("crawler.collect_items insert (id=%d): err=%s", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func fetchItemWithRetry(ctx context.Context, fc *feed.Client, id int32) (model.Item, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetryCount; attempt++ {
		item, err := fc.GetItem(ctx, id)
		if err == nil {
			return item, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return model.Item{}, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return model.Item{}, fmt.Errorf("exhausted %d retries: %w", maxRetryCount, lastErr)
}

// collectChunkItemURLs mirrors collectChunkItems but skips replica-foreign
// ids, wraps each task in a 300s outer deadline, and converts any fetch
// error (including deadline expiry) to Canceled rather than retrying.
func collectChunkItemURLs(ctx context.Context, st ItemStore, ft *fetcher.Fetcher, pairs []MissingPair, permitsNum, replicasNum, replicaIndex int) error {
	sem := semaphore.NewWeighted(int64(permitsNum))
	var g errgroup.Group
	for i := len(pairs) - 1; i >= 0; i-- {
		pair := pairs[i]
		if replicasNum > 1 && int(pair.ID)%replicasNum != replicaIndex {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			taskCtx, cancel := context.WithTimeout(ctx, urlFetchTimeout)
			defer cancel()
			result, err := ft.FetchURL(taskCtx, pair.ID, pair.URL)
			if err != nil {
				result = model.Canceled(pair.ID, err.Error())
			}
			if errors.Is(taskCtx.Err(), context.DeadlineExceeded) && result.Status != model.StatusCanceled {
				result = model.Canceled(pair.ID, "deadline exceeded")
			}
			if err := st.InsertItemURL(ctx, result); err != nil && !errs.IsAlreadyPresent(err) {
				logging.Err("crawler.collect_item_urls insert (id=%d): err=%s", pair.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
