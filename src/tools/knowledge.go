// Package tools implements the chiron tool set: knowledge storage and
// search, subject management, learning goals, the knowledge tree, and user
// progress. Every tool carries a hand-written descriptor; RegisterAll wires
// the full set into a registry at startup.
package tools

import (
	"context"
	"time"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/storage"
)

// StoreKnowledge persists one validated fact in the vector store.
func StoreKnowledge() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "store_knowledge",
		Description: "Store a knowledge chunk in the vector store.",
		Params: []chiron.Param{
			{Name: "content", Type: chiron.TypeString, Description: "The text content of the knowledge chunk.", Required: true},
			{Name: "subject_id", Type: chiron.TypeString, Description: "The subject this knowledge belongs to.", Required: true},
			{Name: "source_url", Type: chiron.TypeString, Description: "URL of the source where this knowledge came from.", Required: true},
			{Name: "source_score", Type: chiron.TypeNumber, Description: "Dependability score of the source (0.0 to 1.0).", Required: true},
			{Name: "topic_path", Type: chiron.TypeString, Description: "Hierarchical path of the topic.", Required: true},
			{Name: "confidence", Type: chiron.TypeNumber, Description: "Confidence level in this knowledge (0.0 to 1.0).", Required: true},
			{Name: "contradictions", Type: chiron.TypeArray, Items: chiron.TypeString, Description: "List of any known contradicting information."},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		content, err := strArg(req.Arguments, "content")
		if err != nil {
			return nil, err
		}
		subjectID, err := strArg(req.Arguments, "subject_id")
		if err != nil {
			return nil, err
		}
		sourceURL, err := strArg(req.Arguments, "source_url")
		if err != nil {
			return nil, err
		}
		sourceScore, err := floatArg(req.Arguments, "source_score")
		if err != nil {
			return nil, err
		}
		topicPath, err := strArg(req.Arguments, "topic_path")
		if err != nil {
			return nil, err
		}
		confidence, err := floatArg(req.Arguments, "confidence")
		if err != nil {
			return nil, err
		}
		contradictions, err := optStrSliceArg(req.Arguments, "contradictions")
		if err != nil {
			return nil, err
		}

		chunk := &storage.KnowledgeChunk{
			Content:        content,
			SubjectID:      subjectID,
			SourceURL:      sourceURL,
			SourceScore:    sourceScore,
			TopicPath:      topicPath,
			Confidence:     confidence,
			Contradictions: contradictions,
			LastValidated:  time.Now(),
		}
		if _, err := req.Stores.Vectors.StoreKnowledge(ctx, chunk); err != nil {
			return nil, err
		}
		return map[string]any{
			"status":     "stored",
			"subject_id": subjectID,
			"topic_path": topicPath,
		}, nil
	})
}

// VectorSearch retrieves knowledge chunks by semantic similarity.
func VectorSearch() chiron.Tool {
	spec := chiron.ToolSpec{
		Name:        "vector_search",
		Description: "Search for knowledge chunks by semantic similarity.",
		Params: []chiron.Param{
			{Name: "query", Type: chiron.TypeString, Description: "The search query text.", Required: true},
			{Name: "subject_id", Type: chiron.TypeString, Description: "Filter results to this subject only.", Required: true},
			{Name: "top_k", Type: chiron.TypeInteger, Description: "Maximum number of results to return."},
			{Name: "min_confidence", Type: chiron.TypeNumber, Description: "Minimum confidence score for results."},
		},
	}
	return chiron.NewTool(spec, func(ctx context.Context, req chiron.ToolRequest) (any, error) {
		query, err := strArg(req.Arguments, "query")
		if err != nil {
			return nil, err
		}
		subjectID, err := strArg(req.Arguments, "subject_id")
		if err != nil {
			return nil, err
		}
		topK, err := optIntArg(req.Arguments, "top_k", 5)
		if err != nil {
			return nil, err
		}
		minConfidence, err := optFloatArg(req.Arguments, "min_confidence", 0)
		if err != nil {
			return nil, err
		}

		chunks, err := req.Stores.Vectors.Search(ctx, storage.SearchQuery{
			Query:         query,
			SubjectID:     subjectID,
			TopK:          int(topK),
			MinConfidence: minConfidence,
		})
		if err != nil {
			return nil, err
		}
		if chunks == nil {
			chunks = []storage.KnowledgeChunk{}
		}
		return chunks, nil
	})
}
