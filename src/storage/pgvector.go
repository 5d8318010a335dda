package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"github.com/chiron-labs/go-chiron/src/embed"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PgVector implements VectorStore on Postgres + pgvector.
type PgVector struct {
	DB       *pgxpool.Pool
	Embedder embed.Embedder
}

// NewPgVector connects to Postgres and returns a pgvector-backed store.
func NewPgVector(ctx context.Context, connStr string, embedder embed.Embedder) (*PgVector, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if embedder == nil {
		embedder = embed.Dummy{}
	}
	return &PgVector{DB: db, Embedder: embedder}, nil
}

// NewPgVectorFromPool reuses an existing pool, sharing connections with the
// relational Database.
func NewPgVectorFromPool(db *pgxpool.Pool, embedder embed.Embedder) *PgVector {
	if embedder == nil {
		embedder = embed.Dummy{}
	}
	return &PgVector{DB: db, Embedder: embedder}
}

func (pv *PgVector) StoreKnowledge(ctx context.Context, chunk *KnowledgeChunk) (int64, error) {
	if pv == nil || pv.DB == nil {
		return 0, nil
	}
	embedding, err := pv.Embedder.Embed(ctx, chunk.Content)
	if err != nil {
		return 0, fmt.Errorf("embed chunk: %w", err)
	}
	contradictions := chunk.Contradictions
	if contradictions == nil {
		contradictions = []string{}
	}
	lastValidated := chunk.LastValidated
	if lastValidated.IsZero() {
		lastValidated = time.Now().UTC()
	}
	var id int64
	err = pv.DB.QueryRow(ctx, `
                INSERT INTO knowledge_chunks (content, subject_id, source_url, source_score, topic_path, confidence, contradictions, last_validated, embedding)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)
                RETURNING id
        `, chunk.Content, chunk.SubjectID, chunk.SourceURL, chunk.SourceScore, chunk.TopicPath,
		chunk.Confidence, contradictions, lastValidated, vectorLiteral(embedding)).Scan(&id)
	if err != nil {
		return 0, err
	}
	chunk.ID = id
	chunk.LastValidated = lastValidated
	return id, nil
}

func (pv *PgVector) Search(ctx context.Context, q SearchQuery) ([]KnowledgeChunk, error) {
	if pv == nil || pv.DB == nil {
		return nil, nil
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}
	queryEmbedding, err := pv.Embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	rows, err := pv.DB.Query(ctx, `
        SELECT id, content, subject_id, source_url, source_score, topic_path, confidence, contradictions, last_validated,
               (embedding <-> $1::vector) AS distance
        FROM knowledge_chunks
        WHERE ($2 = '' OR subject_id = $2) AND confidence >= $3
        ORDER BY embedding <-> $1::vector
        LIMIT $4
        `, vectorLiteral(queryEmbedding), q.SubjectID, q.MinConfidence, q.TopK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []KnowledgeChunk
	for rows.Next() {
		var chunk KnowledgeChunk
		var distance float64
		if err := rows.Scan(&chunk.ID, &chunk.Content, &chunk.SubjectID, &chunk.SourceURL,
			&chunk.SourceScore, &chunk.TopicPath, &chunk.Confidence, &chunk.Contradictions,
			&chunk.LastValidated, &distance); err != nil {
			return nil, err
		}
		chunk.Score = 1 - distance
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (pv *PgVector) Count(ctx context.Context) (int, error) {
	if pv == nil || pv.DB == nil {
		return 0, nil
	}
	var count int
	err := pv.DB.QueryRow(ctx, `SELECT COUNT(*) FROM knowledge_chunks`).Scan(&count)
	return count, err
}

func (pv *PgVector) Delete(ctx context.Context, ids []int64) error {
	if pv == nil || pv.DB == nil || len(ids) == 0 {
		return nil
	}
	_, err := pv.DB.Exec(ctx, `DELETE FROM knowledge_chunks WHERE id = ANY($1)`, ids)
	return err
}

func (pv *PgVector) DeleteSubject(ctx context.Context, subjectID string) error {
	if pv == nil || pv.DB == nil {
		return nil
	}
	_, err := pv.DB.Exec(ctx, `DELETE FROM knowledge_chunks WHERE subject_id = $1`, subjectID)
	return err
}

// CreateSchema ensures the pgvector extension and chunk table exist.
func (pv *PgVector) CreateSchema(ctx context.Context) error {
	if pv == nil || pv.DB == nil {
		return nil
	}
	_, err := pv.DB.Exec(ctx, defaultVectorSchema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (pv *PgVector) Close() error {
	if pv == nil || pv.DB == nil {
		return nil
	}
	pv.DB.Close()
	return nil
}

var _ VectorStore = (*PgVector)(nil)

const defaultVectorSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS knowledge_chunks (
    id BIGSERIAL PRIMARY KEY,
    content TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    source_url TEXT NOT NULL DEFAULT '',
    source_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    topic_path TEXT NOT NULL DEFAULT '',
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    contradictions TEXT[] NOT NULL DEFAULT '{}',
    last_validated TIMESTAMPTZ DEFAULT NOW(),
    embedding vector(768)
);

CREATE INDEX IF NOT EXISTS knowledge_chunks_subject_idx ON knowledge_chunks (subject_id);
CREATE INDEX IF NOT EXISTS knowledge_chunks_embedding_idx ON knowledge_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`

// vectorLiteral renders an embedding as the pgvector text literal.
func vectorLiteral(embedding []float32) string {
	jsonEmbed, _ := json.Marshal(embedding)
	return fmt.Sprintf("[%s]", strings.Trim(string(jsonEmbed), "[]"))
}
