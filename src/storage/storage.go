// Package storage provides the relational and vector backing stores the
// chiron tools run against.
package storage

import (
	"context"
	"time"
)

// Subject lifecycle states.
type SubjectStatus string

const (
	StatusInitializing SubjectStatus = "initializing"
	StatusResearching  SubjectStatus = "researching"
	StatusReady        SubjectStatus = "ready"
	StatusPaused       SubjectStatus = "paused"
)

// LearningGoal is why a subject is being studied and how deep to go.
type LearningGoal struct {
	ID               int64         `json:"id"`
	SubjectID        string        `json:"subject_id"`
	PurposeStatement string        `json:"purpose_statement"`
	TargetDepth      string        `json:"target_depth"`
	CreatedAt        time.Time     `json:"created_at"`
	ResearchComplete bool          `json:"research_complete"`
	Status           SubjectStatus `json:"status"`
}

// KnowledgeNode is one node of a subject's knowledge tree. Roots have a nil
// ParentID and depth zero.
type KnowledgeNode struct {
	ID            int64    `json:"id"`
	SubjectID     string   `json:"subject_id"`
	ParentID      *int64   `json:"parent_id,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Depth         int      `json:"depth"`
	GoalCritical  bool     `json:"is_goal_critical"`
	Prerequisites []int64  `json:"prerequisites"`
	SharedWith    []string `json:"shared_with_subjects"`
}

// UserProgress tracks mastery of one knowledge node, SM-2 style.
type UserProgress struct {
	NodeID       int64      `json:"node_id"`
	MasteryLevel float64    `json:"mastery_level"`
	LastAssessed *time.Time `json:"last_assessed,omitempty"`
	NextReview   *time.Time `json:"next_review_date,omitempty"`
	History      []float64  `json:"assessment_history"`
	EaseFactor   float64    `json:"ease_factor"`
}

// Lesson is one generated lesson and the nodes it covered.
type Lesson struct {
	ID              int64     `json:"id"`
	SubjectID       string    `json:"subject_id"`
	Date            time.Time `json:"date"`
	NodeIDsCovered  []int64   `json:"node_ids_covered"`
	AudioPath       string    `json:"audio_path,omitempty"`
	MaterialsPath   string    `json:"materials_path,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
}

// AssessmentResponse records one answer to an assessment question.
type AssessmentResponse struct {
	ID           int64     `json:"id"`
	LessonID     *int64    `json:"lesson_id,omitempty"`
	NodeID       int64     `json:"node_id"`
	QuestionHash string    `json:"question_hash"`
	Response     string    `json:"response"`
	Correct      bool      `json:"correct"`
	CreatedAt    time.Time `json:"timestamp"`
	NextReview   time.Time `json:"next_review"`
}

// Database is the relational store handle injected into tools. Get methods
// return nil (not an error) when the row does not exist.
type Database interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	GetLearningGoal(ctx context.Context, subjectID string) (*LearningGoal, error)
	SaveLearningGoal(ctx context.Context, goal *LearningGoal) (int64, error)
	ListSubjects(ctx context.Context) ([]LearningGoal, error)

	GetKnowledgeNode(ctx context.Context, id int64) (*KnowledgeNode, error)
	SaveKnowledgeNode(ctx context.Context, node *KnowledgeNode) (int64, error)
	KnowledgeTree(ctx context.Context, subjectID string) ([]KnowledgeNode, error)

	GetLesson(ctx context.Context, id int64) (*Lesson, error)
	SaveLesson(ctx context.Context, lesson *Lesson) (int64, error)
	ListLessons(ctx context.Context, subjectID string) ([]Lesson, error)

	GetUserProgress(ctx context.Context, nodeID int64) (*UserProgress, error)
	UpsertUserProgress(ctx context.Context, progress *UserProgress) error

	RecordAssessment(ctx context.Context, resp *AssessmentResponse) (int64, error)
	ListAssessments(ctx context.Context, nodeID int64) ([]AssessmentResponse, error)

	// DeleteSubject removes the goal and everything hanging off it: nodes,
	// progress, lessons, assessments, and the active-subject setting when it
	// pointed here. Reports whether the subject existed.
	DeleteSubject(ctx context.Context, subjectID string) (bool, error)
}
