package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const payloadIDField = "_original_id"

// Qdrant is the default C2 backend, grounded on the reference codebase's
// internal/persistence/databases/qdrant_vector.go, generalized from a single
// collection per client instance to a set of named, independently-ensured
// collections (spec.md's ensure_collections takes a list of names).
type Qdrant struct {
	client *qdrant.Client

	mu      sync.RWMutex
	ensured map[string]bool
}

func NewQdrant(host string, port int) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &Qdrant{client: client, ensured: map[string]bool{}}, nil
}

func (q *Qdrant) EnsureCollections(ctx context.Context, names []string, dim int, metric string) error {
	dist, err := distanceOf(metric)
	if err != nil {
		return err
	}
	for _, name := range names {
		q.mu.RLock()
		already := q.ensured[name]
		q.mu.RUnlock()
		if already {
			continue
		}
		exists, err := q.client.CollectionExists(ctx, name)
		if err != nil {
			return fmt.Errorf("collection exists %q: %w", name, err)
		}
		if !exists {
			err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
				CollectionName: name,
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
					Size:     uint64(dim),
					Distance: dist,
				}),
			})
			if err != nil {
				return fmt.Errorf("create collection %q: %w", name, err)
			}
		}
		q.mu.Lock()
		q.ensured[name] = true
		q.mu.Unlock()
	}
	return nil
}

func distanceOf(metric string) (qdrant.Distance, error) {
	switch metric {
	case "", "cosine":
		return qdrant.Distance_Cosine, nil
	case "euclid":
		return qdrant.Distance_Euclid, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	default:
		return 0, fmt.Errorf("unsupported metric %q", metric)
	}
}

func (q *Qdrant) FindMissing(ctx context.Context, collection string, ids []int32) ([]int32, error) {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(pointUUID(id))
	}
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get points: %w", err)
	}
	present := map[int32]bool{}
	for _, p := range points {
		if p.Payload == nil {
			continue
		}
		if v, ok := p.Payload[payloadIDField]; ok {
			present[int32(v.GetIntegerValue())] = true
		}
	}
	var missing []int32
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Upsert is blocking (Wait: true) so a subsequent FindMissing observes the write.
func (q *Qdrant) Upsert(ctx context.Context, collection string, id int32, vector []float32) error {
	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(pointUUID(id)),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{payloadIDField: int64(id)}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (q *Qdrant) Search(ctx context.Context, collection string, vector []float32, k int) ([]Point, error) {
	limit := uint64(k)
	result, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	out := make([]Point, 0, len(result))
	for _, p := range result {
		id := int32(0)
		if p.Payload != nil {
			if v, ok := p.Payload[payloadIDField]; ok {
				id = int32(v.GetIntegerValue())
			}
		}
		out = append(out, Point{ID: id, Score: p.GetScore()})
	}
	return out, nil
}

func (q *Qdrant) Close() error {
	return q.client.Close()
}

// pointUUID derives a deterministic UUIDv5 from the decimal item id, since
// Qdrant point ids must be u64 or UUID; the original int32 id travels in the
// payload instead, mirroring this codebase's UUID-namespacing of non-numeric
// store keys.
func pointUUID(id int32) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d", id))).String()
}
