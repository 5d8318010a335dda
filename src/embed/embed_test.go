package embed

import (
	"context"
	"testing"
)

func TestDummyEmbeddingIsDeterministic(t *testing.T) {
	d := Dummy{}
	a, err := d.Embed(context.Background(), "the game of war")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	b, err := d.Embed(context.Background(), "the game of war")
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(a) != 768 {
		t.Fatalf("unexpected dimension: %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at %d", i)
		}
	}
}

func TestDummyEmbeddingDistinguishesTexts(t *testing.T) {
	d := Dummy{}
	a, _ := d.Embed(context.Background(), "alpha")
	b, _ := d.Embed(context.Background(), "omega")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("distinct texts produced identical embeddings")
	}
}

func TestFromEnvFallsBackToDummy(t *testing.T) {
	t.Setenv("CHIRON_EMBED_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "")

	if _, ok := FromEnv().(Dummy); !ok {
		t.Fatalf("expected dummy embedder without credentials")
	}
}
