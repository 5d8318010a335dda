package tools

import (
	"fmt"

	chiron "github.com/chiron-labs/go-chiron"
)

// All returns the full chiron tool set in its canonical order.
func All() []chiron.Tool {
	return []chiron.Tool{
		StoreKnowledge(),
		VectorSearch(),
		GetActiveSubject(),
		SetActiveSubject(),
		ListSubjects(),
		GetLearningGoal(),
		SaveLearningGoal(),
		GetKnowledgeNode(),
		GetKnowledgeTree(),
		SaveKnowledgeNode(),
		GetUserProgress(),
		RecordAssessment(),
	}
}

// RegisterAll wires the full tool set into the registry. It is called once
// at startup; a registration failure here is a wiring bug.
func RegisterAll(registry *chiron.Registry) error {
	for _, tool := range All() {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("register %s: %w", tool.Spec().Name, err)
		}
	}
	return nil
}
