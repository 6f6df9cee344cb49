// Package pgvector stores document embeddings in PostgreSQL with the pgvector extension.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

const tableName = "quiz_documents"

type documentModel struct {
	bun.BaseModel `bun:"table:quiz_documents,alias:d"`

	ID        string `bun:"id,pk"`
	OwnerID   string `bun:"owner_id,notnull"`
	Content   string `bun:"content,notnull"`
	Embedding Vector `bun:"embedding"`
}

type neighborRow struct {
	ID       string  `bun:"id"`
	Content  string  `bun:"content"`
	Distance float64 `bun:"distance"`
}

// Config holds connection parameters for PostgreSQL.
type Config struct {
	DSN   string
	Debug bool // log every query via bundebug
}

// Open connects a bun DB over pgdriver.
func Open(cfg Config) (*bun.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	bdb := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return bdb, nil
}

// Repo implements the vector index over PostgreSQL + pgvector (cosine distance, <=>).
type Repo struct {
	db   *bun.DB
	dims int
}

// New creates a repository over an open bun DB.
func New(db *bun.DB, dims int) *Repo {
	return &Repo{db: db, dims: dims}
}

// EnsureSchema creates the extension, table and indexes if missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if r.dims <= 0 {
		return errors.New("vector dimensions must be positive")
	}
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id text PRIMARY KEY,
	owner_id text NOT NULL,
	content text NOT NULL,
	embedding vector(%d)
)`, tableName, r.dims),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_owner_idx ON %[1]s (owner_id)", tableName),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx ON %[1]s USING hnsw (embedding vector_cosine_ops)", tableName),
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Upsert creates or replaces a document. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, doc domain.IndexedDocument) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*documentModel)(nil)).
		Where("id = ?", doc.ID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", doc.ID, err)
	}

	m := &documentModel{
		ID:        doc.ID,
		OwnerID:   doc.OwnerID,
		Content:   doc.Content,
		Embedding: Vector(doc.Vector),
	}
	if _, err := r.upsertQuery(m).Exec(ctx); err != nil {
		return false, fmt.Errorf("upsert %s: %w", doc.ID, err)
	}
	return !exists, nil
}

func (r *Repo) upsertQuery(m *documentModel) *bun.InsertQuery {
	return r.db.NewInsert().
		Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("owner_id = EXCLUDED.owner_id").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding")
}

// Get returns a stored document with its embedding or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domain.IndexedDocument, error) {
	var m documentModel
	if err := r.getQuery(&m, id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.IndexedDocument{}, fmt.Errorf("vector of %s: %w", id, domain.ErrNotFound)
		}
		return domain.IndexedDocument{}, fmt.Errorf("select document %s: %w", id, err)
	}
	if len(m.Embedding) == 0 {
		return domain.IndexedDocument{}, fmt.Errorf("vector of %s: %w", id, domain.ErrNotFound)
	}
	return domain.IndexedDocument{
		ID:      m.ID,
		OwnerID: m.OwnerID,
		Content: m.Content,
		Vector:  m.Embedding,
	}, nil
}

func (r *Repo) getQuery(m *documentModel, id string) *bun.SelectQuery {
	return r.db.NewSelect().
		Model(m).
		Column("id", "owner_id", "content", "embedding").
		Where("id = ?", id)
}

// Nearest returns the owner's documents closest to q.Vector, ascending by cosine distance.
func (r *Repo) Nearest(ctx context.Context, q domain.NearestQuery) ([]domain.Neighbor, error) {
	if q.OwnerID == "" {
		return nil, nil
	}

	var rows []neighborRow
	if err := r.nearestQuery(q).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}

	out := make([]domain.Neighbor, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Neighbor{
			DocumentID: row.ID,
			Content:    row.Content,
			Distance:   row.Distance,
		})
	}
	return out, nil
}

func (r *Repo) nearestQuery(q domain.NearestQuery) *bun.SelectQuery {
	vec := Vector(q.Vector)
	sel := r.db.NewSelect().
		Model((*documentModel)(nil)).
		Column("id", "content").
		ColumnExpr("embedding <=> ? AS distance", vec).
		Where("embedding IS NOT NULL").
		Where("owner_id = ?", q.OwnerID)
	if q.ExcludeID != "" {
		sel = sel.Where("id <> ?", q.ExcludeID)
	}
	return sel.
		OrderExpr("embedding <=> ?", vec).
		Limit(q.TopK)
}
