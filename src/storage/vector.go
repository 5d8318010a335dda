package storage

import (
	"context"
	"math"
	"time"
)

// KnowledgeChunk is one validated fact held in the vector store.
type KnowledgeChunk struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	SubjectID      string    `json:"subject_id"`
	SourceURL      string    `json:"source_url"`
	SourceScore    float64   `json:"source_score"`
	TopicPath      string    `json:"topic_path"`
	Confidence     float64   `json:"confidence"`
	Contradictions []string  `json:"contradictions"`
	LastValidated  time.Time `json:"last_validated"`

	// Score is the similarity of a search hit; zero outside search results.
	Score float64 `json:"score,omitempty"`
}

// SearchQuery selects chunks by semantic similarity.
type SearchQuery struct {
	Query         string
	SubjectID     string
	TopK          int
	MinConfidence float64
}

// VectorStore is the similarity-search handle injected into tools.
type VectorStore interface {
	StoreKnowledge(ctx context.Context, chunk *KnowledgeChunk) (int64, error)
	Search(ctx context.Context, q SearchQuery) ([]KnowledgeChunk, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, ids []int64) error
	DeleteSubject(ctx context.Context, subjectID string) error
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
