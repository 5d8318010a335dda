package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chiron-labs/go-chiron/src/embed"
)

// MemVector implements VectorStore in memory with cosine ranking, for tests
// and deployments without a vector database.
type MemVector struct {
	mu       sync.RWMutex
	embedder embed.Embedder
	nextID   int64
	chunks   map[int64]memChunk
}

type memChunk struct {
	chunk     KnowledgeChunk
	embedding []float32
}

// NewMemVector creates an empty in-memory vector store. A nil embedder falls
// back to the deterministic dummy embedding.
func NewMemVector(embedder embed.Embedder) *MemVector {
	if embedder == nil {
		embedder = embed.Dummy{}
	}
	return &MemVector{embedder: embedder, chunks: make(map[int64]memChunk)}
}

func (s *MemVector) StoreKnowledge(ctx context.Context, chunk *KnowledgeChunk) (int64, error) {
	embedding, err := s.embedder.Embed(ctx, chunk.Content)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	saved := *chunk
	saved.ID = s.nextID
	if saved.LastValidated.IsZero() {
		saved.LastValidated = time.Now().UTC()
	}
	s.chunks[saved.ID] = memChunk{chunk: saved, embedding: embedding}
	chunk.ID = saved.ID
	return saved.ID, nil
}

func (s *MemVector) Search(ctx context.Context, q SearchQuery) ([]KnowledgeChunk, error) {
	if q.TopK <= 0 {
		q.TopK = 5
	}
	queryEmbedding, err := s.embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	scored := make([]KnowledgeChunk, 0, len(s.chunks))
	for _, mc := range s.chunks {
		if q.SubjectID != "" && mc.chunk.SubjectID != q.SubjectID {
			continue
		}
		if mc.chunk.Confidence < q.MinConfidence {
			continue
		}
		hit := mc.chunk
		hit.Score = cosineSimilarity(queryEmbedding, mc.embedding)
		scored = append(scored, hit)
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > q.TopK {
		scored = scored[:q.TopK]
	}
	return scored, nil
}

func (s *MemVector) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *MemVector) Delete(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.chunks, id)
	}
	return nil
}

func (s *MemVector) DeleteSubject(_ context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, mc := range s.chunks {
		if mc.chunk.SubjectID == subjectID {
			delete(s.chunks, id)
		}
	}
	return nil
}

var _ VectorStore = (*MemVector)(nil)
