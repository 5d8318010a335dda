package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemDB implements Database in memory for tests and lightweight runs.
type MemDB struct {
	mu           sync.RWMutex
	settings     map[string]string
	goals        map[string]LearningGoal // by subject id
	nodes        map[int64]KnowledgeNode
	lessons      map[int64]Lesson
	progress     map[int64]UserProgress // by node id
	assessments  []AssessmentResponse
	nextGoalID   int64
	nextNodeID   int64
	nextLessonID int64
	nextRespID   int64
}

// NewMemDB creates an empty in-memory database.
func NewMemDB() *MemDB {
	return &MemDB{
		settings: make(map[string]string),
		goals:    make(map[string]LearningGoal),
		nodes:    make(map[int64]KnowledgeNode),
		lessons:  make(map[int64]Lesson),
		progress: make(map[int64]UserProgress),
	}
}

func (m *MemDB) GetSetting(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemDB) SetSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemDB) GetLearningGoal(_ context.Context, subjectID string) (*LearningGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	goal, ok := m.goals[subjectID]
	if !ok {
		return nil, nil
	}
	return &goal, nil
}

func (m *MemDB) SaveLearningGoal(_ context.Context, goal *LearningGoal) (int64, error) {
	if goal == nil || goal.SubjectID == "" {
		return 0, errors.New("learning goal requires a subject id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *goal
	if existing, ok := m.goals[goal.SubjectID]; ok {
		saved.ID = existing.ID
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = existing.CreatedAt
		}
	} else {
		m.nextGoalID++
		saved.ID = m.nextGoalID
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	if saved.Status == "" {
		saved.Status = StatusInitializing
	}
	m.goals[saved.SubjectID] = saved
	goal.ID = saved.ID
	return saved.ID, nil
}

func (m *MemDB) ListSubjects(_ context.Context) ([]LearningGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	goals := make([]LearningGoal, 0, len(m.goals))
	for _, goal := range m.goals {
		goals = append(goals, goal)
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].ID < goals[j].ID })
	return goals, nil
}

func (m *MemDB) GetKnowledgeNode(_ context.Context, id int64) (*KnowledgeNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.nodes[id]
	if !ok {
		return nil, nil
	}
	return &node, nil
}

func (m *MemDB) SaveKnowledgeNode(_ context.Context, node *KnowledgeNode) (int64, error) {
	if node == nil || node.SubjectID == "" || node.Title == "" {
		return 0, errors.New("knowledge node requires a subject id and title")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *node
	if saved.ID == 0 {
		m.nextNodeID++
		saved.ID = m.nextNodeID
	}
	m.nodes[saved.ID] = saved
	node.ID = saved.ID
	return saved.ID, nil
}

func (m *MemDB) KnowledgeTree(_ context.Context, subjectID string) ([]KnowledgeNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var nodes []KnowledgeNode
	for _, node := range m.nodes {
		if node.SubjectID == subjectID {
			nodes = append(nodes, node)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nodes, nil
}

func (m *MemDB) GetLesson(_ context.Context, id int64) (*Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lesson, ok := m.lessons[id]
	if !ok {
		return nil, nil
	}
	return &lesson, nil
}

func (m *MemDB) SaveLesson(_ context.Context, lesson *Lesson) (int64, error) {
	if lesson == nil || lesson.SubjectID == "" {
		return 0, errors.New("lesson requires a subject id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *lesson
	if saved.ID == 0 {
		m.nextLessonID++
		saved.ID = m.nextLessonID
	}
	if saved.Date.IsZero() {
		saved.Date = time.Now().UTC()
	}
	m.lessons[saved.ID] = saved
	lesson.ID = saved.ID
	lesson.Date = saved.Date
	return saved.ID, nil
}

func (m *MemDB) ListLessons(_ context.Context, subjectID string) ([]Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var lessons []Lesson
	for _, lesson := range m.lessons {
		if lesson.SubjectID == subjectID {
			lessons = append(lessons, lesson)
		}
	}
	sort.Slice(lessons, func(i, j int) bool {
		if !lessons[i].Date.Equal(lessons[j].Date) {
			return lessons[i].Date.Before(lessons[j].Date)
		}
		return lessons[i].ID < lessons[j].ID
	})
	return lessons, nil
}

func (m *MemDB) GetUserProgress(_ context.Context, nodeID int64) (*UserProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	progress, ok := m.progress[nodeID]
	if !ok {
		return nil, nil
	}
	return &progress, nil
}

func (m *MemDB) UpsertUserProgress(_ context.Context, progress *UserProgress) error {
	if progress == nil || progress.NodeID == 0 {
		return errors.New("progress requires a node id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[progress.NodeID] = *progress
	return nil
}

func (m *MemDB) RecordAssessment(_ context.Context, resp *AssessmentResponse) (int64, error) {
	if resp == nil || resp.NodeID == 0 {
		return 0, errors.New("assessment requires a node id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *resp
	m.nextRespID++
	saved.ID = m.nextRespID
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	if saved.NextReview.IsZero() {
		saved.NextReview = saved.CreatedAt.Add(24 * time.Hour)
	}
	m.assessments = append(m.assessments, saved)
	resp.ID = saved.ID
	return saved.ID, nil
}

func (m *MemDB) ListAssessments(_ context.Context, nodeID int64) ([]AssessmentResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []AssessmentResponse
	for _, a := range m.assessments {
		if a.NodeID == nodeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemDB) DeleteSubject(_ context.Context, subjectID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[subjectID]; !ok {
		return false, nil
	}
	subjectNodes := make(map[int64]bool)
	for id, node := range m.nodes {
		if node.SubjectID == subjectID {
			subjectNodes[id] = true
		}
	}
	subjectLessons := make(map[int64]bool)
	for id, lesson := range m.lessons {
		if lesson.SubjectID == subjectID {
			subjectLessons[id] = true
		}
	}
	kept := m.assessments[:0]
	for _, a := range m.assessments {
		if subjectNodes[a.NodeID] {
			continue
		}
		if a.LessonID != nil && subjectLessons[*a.LessonID] {
			continue
		}
		kept = append(kept, a)
	}
	m.assessments = kept
	for id := range subjectLessons {
		delete(m.lessons, id)
	}
	for id := range subjectNodes {
		delete(m.nodes, id)
		delete(m.progress, id)
	}
	delete(m.goals, subjectID)
	if m.settings["active_subject"] == subjectID {
		delete(m.settings, "active_subject")
	}
	return true, nil
}

var _ Database = (*MemDB)(nil)
