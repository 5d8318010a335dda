package tools

import (
	"context"
	"testing"
	"time"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/storage"
)

func testStores() *chiron.Stores {
	return &chiron.Stores{
		DB:      storage.NewMemDB(),
		Vectors: storage.NewMemVector(nil),
	}
}

func invoke(t *testing.T, tool chiron.Tool, stores *chiron.Stores, args map[string]any) any {
	t.Helper()
	out, err := tool.Invoke(context.Background(), chiron.ToolRequest{Stores: stores, Arguments: args})
	if err != nil {
		t.Fatalf("%s returned error: %v", tool.Spec().Name, err)
	}
	return out
}

func TestRegisterAllWiresEveryTool(t *testing.T) {
	registry := chiron.NewRegistry()
	if err := RegisterAll(registry); err != nil {
		t.Fatalf("RegisterAll returned error: %v", err)
	}
	if registry.Len() != 12 {
		t.Fatalf("expected 12 tools, got %d", registry.Len())
	}
	for _, name := range []string{"store_knowledge", "vector_search", "get_active_subject", "record_assessment"} {
		if _, ok := registry.Lookup(name); !ok {
			t.Fatalf("tool %s not registered", name)
		}
	}
}

func TestRegisterAllRejectsSecondRegistration(t *testing.T) {
	registry := chiron.NewRegistry()
	if err := RegisterAll(registry); err != nil {
		t.Fatalf("RegisterAll returned error: %v", err)
	}
	if err := RegisterAll(registry); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestStoreKnowledgeThenSearch(t *testing.T) {
	stores := testStores()
	out := invoke(t, StoreKnowledge(), stores, map[string]any{
		"content":      "The mitochondria is the membrane-bound organelle that produces ATP.",
		"subject_id":   "biology",
		"source_url":   "https://example.org/cell",
		"source_score": 0.9,
		"topic_path":   "cell/organelles",
		"confidence":   0.95,
	})
	confirmation, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload type %T", out)
	}
	if confirmation["status"] != "stored" || confirmation["subject_id"] != "biology" {
		t.Fatalf("unexpected confirmation: %v", confirmation)
	}

	results := invoke(t, VectorSearch(), stores, map[string]any{
		"query":      "what produces ATP",
		"subject_id": "biology",
	}).([]storage.KnowledgeChunk)
	if len(results) != 1 {
		t.Fatalf("expected 1 search hit, got %d", len(results))
	}
	if results[0].TopicPath != "cell/organelles" {
		t.Fatalf("unexpected hit: %+v", results[0])
	}
}

func TestVectorSearchFiltersBySubjectAndConfidence(t *testing.T) {
	stores := testStores()
	store := StoreKnowledge()
	invoke(t, store, stores, map[string]any{
		"content": "fact A", "subject_id": "math", "source_url": "u",
		"source_score": 0.5, "topic_path": "a", "confidence": 0.9,
	})
	invoke(t, store, stores, map[string]any{
		"content": "fact B", "subject_id": "math", "source_url": "u",
		"source_score": 0.5, "topic_path": "b", "confidence": 0.2,
	})
	invoke(t, store, stores, map[string]any{
		"content": "fact C", "subject_id": "history", "source_url": "u",
		"source_score": 0.5, "topic_path": "c", "confidence": 0.9,
	})

	results := invoke(t, VectorSearch(), stores, map[string]any{
		"query": "fact", "subject_id": "math", "min_confidence": 0.5,
	}).([]storage.KnowledgeChunk)
	if len(results) != 1 || results[0].TopicPath != "a" {
		t.Fatalf("unexpected filtered results: %+v", results)
	}
}

func TestStoreKnowledgeRejectsMissingArguments(t *testing.T) {
	_, err := StoreKnowledge().Invoke(context.Background(), chiron.ToolRequest{
		Stores:    testStores(),
		Arguments: map[string]any{"content": "orphan fact"},
	})
	if err == nil {
		t.Fatalf("expected error for missing required arguments")
	}
}

func TestActiveSubjectRoundTrip(t *testing.T) {
	stores := testStores()

	initial := invoke(t, GetActiveSubject(), stores, nil).(map[string]any)
	if initial["active_subject"] != nil {
		t.Fatalf("expected no active subject, got %v", initial)
	}

	set := invoke(t, SetActiveSubject(), stores, map[string]any{"subject_id": "astronomy"}).(map[string]any)
	if set["status"] != "success" {
		t.Fatalf("unexpected set result: %v", set)
	}

	after := invoke(t, GetActiveSubject(), stores, nil).(map[string]any)
	if after["active_subject"] != "astronomy" {
		t.Fatalf("active subject not persisted: %v", after)
	}
}

func TestSaveLearningGoalDefaultsDepthAndListsSubject(t *testing.T) {
	stores := testStores()
	goal := invoke(t, SaveLearningGoal(), stores, map[string]any{
		"subject_id":        "go-internals",
		"purpose_statement": "understand the scheduler",
	}).(*storage.LearningGoal)
	if goal.ID == 0 {
		t.Fatalf("expected assigned id, got %+v", goal)
	}
	if goal.TargetDepth != "practical" {
		t.Fatalf("expected default depth, got %q", goal.TargetDepth)
	}

	fetched := invoke(t, GetLearningGoal(), stores, map[string]any{"subject_id": "go-internals"}).(*storage.LearningGoal)
	if fetched == nil || fetched.PurposeStatement != "understand the scheduler" {
		t.Fatalf("goal not retrievable: %+v", fetched)
	}

	subjects := invoke(t, ListSubjects(), stores, nil).([]storage.LearningGoal)
	if len(subjects) != 1 || subjects[0].SubjectID != "go-internals" {
		t.Fatalf("unexpected subjects: %+v", subjects)
	}
}

func TestGetLearningGoalReturnsNilWhenAbsent(t *testing.T) {
	out := invoke(t, GetLearningGoal(), testStores(), map[string]any{"subject_id": "nope"})
	if out != nil {
		t.Fatalf("expected nil for missing goal, got %v", out)
	}
}

func TestKnowledgeNodeTree(t *testing.T) {
	stores := testStores()
	root := invoke(t, SaveKnowledgeNode(), stores, map[string]any{
		"subject_id": "physics",
		"title":      "Mechanics",
	}).(*storage.KnowledgeNode)
	if root.ID == 0 || root.ParentID != nil || root.Depth != 0 {
		t.Fatalf("unexpected root node: %+v", root)
	}

	child := invoke(t, SaveKnowledgeNode(), stores, map[string]any{
		"subject_id":       "physics",
		"title":            "Kinematics",
		"parent_id":        float64(root.ID),
		"depth":            float64(1),
		"is_goal_critical": true,
		"prerequisites":    []any{float64(root.ID)},
	}).(*storage.KnowledgeNode)
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Fatalf("child not linked to root: %+v", child)
	}
	if !child.GoalCritical || len(child.Prerequisites) != 1 {
		t.Fatalf("child attributes lost: %+v", child)
	}

	tree := invoke(t, GetKnowledgeTree(), stores, map[string]any{"subject_id": "physics"}).([]storage.KnowledgeNode)
	if len(tree) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(tree))
	}

	fetched := invoke(t, GetKnowledgeNode(), stores, map[string]any{"node_id": float64(child.ID)}).(*storage.KnowledgeNode)
	if fetched.Title != "Kinematics" {
		t.Fatalf("unexpected node: %+v", fetched)
	}
}

func TestSaveKnowledgeNodeRejectsFractionalID(t *testing.T) {
	_, err := GetKnowledgeNode().Invoke(context.Background(), chiron.ToolRequest{
		Stores:    testStores(),
		Arguments: map[string]any{"node_id": 1.5},
	})
	if err == nil {
		t.Fatalf("expected error for fractional node id")
	}
}

func TestRecordAssessmentUpdatesProgress(t *testing.T) {
	stores := testStores()
	node := invoke(t, SaveKnowledgeNode(), stores, map[string]any{
		"subject_id": "chem",
		"title":      "Stoichiometry",
	}).(*storage.KnowledgeNode)

	if out := invoke(t, GetUserProgress(), stores, map[string]any{"node_id": float64(node.ID)}); out != nil {
		t.Fatalf("expected no progress before assessment, got %v", out)
	}

	recorded := invoke(t, RecordAssessment(), stores, map[string]any{
		"node_id":       float64(node.ID),
		"question_hash": "q1",
		"response":      "2 moles",
		"correct":       true,
	}).(*storage.AssessmentResponse)
	if recorded.ID == 0 || !recorded.Correct {
		t.Fatalf("assessment not recorded: %+v", recorded)
	}

	progress := invoke(t, GetUserProgress(), stores, map[string]any{"node_id": float64(node.ID)}).(*storage.UserProgress)
	if progress.MasteryLevel <= 0 {
		t.Fatalf("mastery did not increase: %+v", progress)
	}
	if progress.EaseFactor <= defaultEaseFactor {
		t.Fatalf("ease factor did not increase: %+v", progress)
	}
	if len(progress.History) != 1 || progress.NextReview == nil {
		t.Fatalf("progress bookkeeping missing: %+v", progress)
	}

	invoke(t, RecordAssessment(), stores, map[string]any{
		"node_id":       float64(node.ID),
		"question_hash": "q2",
		"response":      "3 moles",
		"correct":       false,
	})
	progress = invoke(t, GetUserProgress(), stores, map[string]any{"node_id": float64(node.ID)}).(*storage.UserProgress)
	if len(progress.History) != 2 {
		t.Fatalf("history not appended: %+v", progress)
	}
	if progress.EaseFactor >= defaultEaseFactor+0.1 {
		t.Fatalf("ease factor did not drop on a miss: %+v", progress)
	}
}

func TestUpdateProgressClampsEaseFactor(t *testing.T) {
	p := &storage.UserProgress{NodeID: 1, EaseFactor: 1.35}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		updateProgress(p, false, now)
	}
	if p.EaseFactor != minEaseFactor {
		t.Fatalf("ease factor below floor: %v", p.EaseFactor)
	}
	if p.MasteryLevel < 0 || p.MasteryLevel > 1 {
		t.Fatalf("mastery out of range: %v", p.MasteryLevel)
	}
}
