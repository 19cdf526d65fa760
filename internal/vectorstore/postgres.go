package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the pgvector-backed alternate C2 implementation, grounded on
// the reference codebase's internal/persistence/databases/postgres_vector.go,
// generalized from one fixed "embeddings" table to one table per collection
// name (spec.md's ensure_collections takes a list, and each collection has
// its own fixed dimension).
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) EnsureCollections(ctx context.Context, names []string, dim int, metric string) error {
	if _, err := p.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	for _, name := range names {
		table := tableName(name)
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id BIGINT PRIMARY KEY, vec vector(%d))`, table, dim)
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

func (p *Postgres) FindMissing(ctx context.Context, collection string, ids []int32) ([]int32, error) {
	table := tableName(collection)
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT id FROM unnest($1::bigint[]) AS want(id)
		WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s.id = want.id)
	`, table, table), toInt64Slice(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (p *Postgres) Upsert(ctx context.Context, collection string, id int32, vector []float32) error {
	table := tableName(collection)
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, vec) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET vec = EXCLUDED.vec
	`, table)
	_, err := p.pool.Exec(ctx, stmt, id, toVectorLiteral(vector))
	return err
}

func (p *Postgres) Search(ctx context.Context, collection string, vector []float32, k int) ([]Point, error) {
	table := tableName(collection)
	stmt := fmt.Sprintf(`
		SELECT id, 1 - (vec <=> $1) AS score FROM %s ORDER BY vec <=> $1 ASC LIMIT $2
	`, table)
	rows, err := p.pool.Query(ctx, stmt, toVectorLiteral(vector), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Point
	for rows.Next() {
		var pt Point
		if err := rows.Scan(&pt.ID, &pt.Score); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func tableName(collection string) string {
	return "embeddings_" + strings.ReplaceAll(collection, "-", "_")
}

func toVectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func toInt64Slice(ids []int32) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
