package storage

import (
	"context"
	"testing"
)

func storeChunk(t *testing.T, s *MemVector, content, subject string, confidence float64) int64 {
	t.Helper()
	id, err := s.StoreKnowledge(context.Background(), &KnowledgeChunk{
		Content:    content,
		SubjectID:  subject,
		SourceURL:  "https://example.org",
		Confidence: confidence,
	})
	if err != nil {
		t.Fatalf("StoreKnowledge returned error: %v", err)
	}
	return id
}

func TestMemVectorStoreAssignsIDs(t *testing.T) {
	s := NewMemVector(nil)
	id1 := storeChunk(t, s, "alpha", "s", 0.9)
	id2 := storeChunk(t, s, "beta", "s", 0.9)
	if id1 == id2 || id1 == 0 {
		t.Fatalf("ids not unique: %d, %d", id1, id2)
	}
	count, err := s.Count(context.Background())
	if err != nil || count != 2 {
		t.Fatalf("unexpected count: %d, %v", count, err)
	}
}

func TestMemVectorSearchRanksExactContentFirst(t *testing.T) {
	s := NewMemVector(nil)
	storeChunk(t, s, "the rules of the card game war", "games", 0.9)
	storeChunk(t, s, "completely different text about cooking", "games", 0.9)

	hits, err := s.Search(context.Background(), SearchQuery{
		Query:     "the rules of the card game war",
		SubjectID: "games",
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Content != "the rules of the card game war" {
		t.Fatalf("exact match not ranked first: %+v", hits[0])
	}
	if hits[0].Score < hits[1].Score {
		t.Fatalf("scores not descending: %v, %v", hits[0].Score, hits[1].Score)
	}
}

func TestMemVectorSearchFilters(t *testing.T) {
	s := NewMemVector(nil)
	storeChunk(t, s, "high confidence math fact", "math", 0.9)
	storeChunk(t, s, "low confidence math fact", "math", 0.2)
	storeChunk(t, s, "history fact", "history", 0.9)

	hits, err := s.Search(context.Background(), SearchQuery{
		Query:         "fact",
		SubjectID:     "math",
		MinConfidence: 0.5,
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 1 || hits[0].Content != "high confidence math fact" {
		t.Fatalf("filters not applied: %+v", hits)
	}
}

func TestMemVectorSearchHonorsTopK(t *testing.T) {
	s := NewMemVector(nil)
	for i := 0; i < 8; i++ {
		storeChunk(t, s, string(rune('a'+i)), "s", 0.9)
	}
	hits, err := s.Search(context.Background(), SearchQuery{Query: "a", SubjectID: "s", TopK: 3})
	if err != nil || len(hits) != 3 {
		t.Fatalf("TopK not honored: %d hits, %v", len(hits), err)
	}

	// Zero TopK falls back to the default of 5.
	hits, err = s.Search(context.Background(), SearchQuery{Query: "a", SubjectID: "s"})
	if err != nil || len(hits) != 5 {
		t.Fatalf("default TopK not applied: %d hits, %v", len(hits), err)
	}
}

func TestMemVectorDeleteSubject(t *testing.T) {
	s := NewMemVector(nil)
	storeChunk(t, s, "latin fact one", "latin", 0.9)
	storeChunk(t, s, "latin fact two", "latin", 0.9)
	storeChunk(t, s, "greek fact", "greek", 0.9)

	if err := s.DeleteSubject(context.Background(), "latin"); err != nil {
		t.Fatalf("DeleteSubject returned error: %v", err)
	}
	count, err := s.Count(context.Background())
	if err != nil || count != 1 {
		t.Fatalf("expected only the other subject's chunk, got %d, %v", count, err)
	}
	hits, err := s.Search(context.Background(), SearchQuery{Query: "fact", SubjectID: "greek"})
	if err != nil || len(hits) != 1 {
		t.Fatalf("unrelated subject affected: %+v, %v", hits, err)
	}
}

func TestMemVectorDelete(t *testing.T) {
	s := NewMemVector(nil)
	id := storeChunk(t, s, "ephemeral", "s", 0.9)
	if err := s.Delete(context.Background(), []int64{id}); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	count, err := s.Count(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("chunk not deleted: %d, %v", count, err)
	}
}
