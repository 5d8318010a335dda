// Command quickstart demonstrates the conversation loop end to end with
// in-memory stores and a scripted model, no API keys or databases needed.
package main

import (
	"context"
	"fmt"
	"log"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/models"
	"github.com/chiron-labs/go-chiron/src/storage"
	"github.com/chiron-labs/go-chiron/src/tools"
)

func main() {
	registry := chiron.NewRegistry()
	if err := tools.RegisterAll(registry); err != nil {
		log.Fatalf("register tools: %v", err)
	}
	stores := &chiron.Stores{
		DB:      storage.NewMemDB(),
		Vectors: storage.NewMemVector(nil),
	}

	// The scripted model stands in for a real backend: it saves a goal,
	// stores a fact, searches it back, then answers.
	model := models.NewScripted(
		models.ToolResponse(
			chiron.NewToolUseBlock("c1", "save_learning_goal", map[string]any{
				"subject_id":        "card-games",
				"purpose_statement": "teach my kids the game of war",
			}),
		),
		models.ToolResponse(
			chiron.NewToolUseBlock("c2", "store_knowledge", map[string]any{
				"content":      "War is played by two players splitting a standard deck evenly.",
				"subject_id":   "card-games",
				"source_url":   "https://example.org/war",
				"source_score": 0.8,
				"topic_path":   "Setup",
				"confidence":   0.9,
			}),
		),
		models.ToolResponse(
			chiron.NewToolUseBlock("c3", "vector_search", map[string]any{
				"query":      "how to set up the game of war",
				"subject_id": "card-games",
			}),
		),
		models.TextResponse("Stored the learning goal and one setup fact; the fact is findable by semantic search."),
	)

	agent, err := chiron.New(chiron.Options{
		Model:        model,
		Registry:     registry,
		Stores:       stores,
		SystemPrompt: "You are a learning assistant. Use the tools to persist everything you learn.",
		ModelName:    "scripted",
		OnTurn: func(m chiron.Message) {
			for _, b := range m.Blocks {
				switch b.Type {
				case chiron.BlockToolUse:
					fmt.Printf("  -> %s(%v)\n", b.Name, b.Input)
				case chiron.BlockToolResult:
					fmt.Printf("  <- %v\n", b.Payload)
				}
			}
		},
	})
	if err != nil {
		log.Fatalf("create agent: %v", err)
	}

	session := agent.NewSession()
	answer, err := agent.Run(context.Background(), session,
		"Set up a subject about card games and remember how War starts.")
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	fmt.Println()
	fmt.Println("Final answer:", answer)

	count, _ := stores.Vectors.Count(context.Background())
	goals, _ := stores.DB.ListSubjects(context.Background())
	fmt.Printf("Stores now hold %d knowledge chunk(s) and %d subject(s) across %d turns.\n",
		count, len(goals), session.Len())
}
