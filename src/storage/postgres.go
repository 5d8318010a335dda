package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Database on a pgx connection pool.
type Postgres struct {
	DB *pgxpool.Pool
}

// NewPostgres connects to Postgres and returns a relational Database handle.
func NewPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &Postgres{DB: db}, nil
}

// CreateSchema bootstraps the relational tables. An empty schemaPath uses the
// embedded default schema.
func (p *Postgres) CreateSchema(ctx context.Context, schemaPath string) error {
	if p == nil || p.DB == nil {
		return nil
	}
	schema := defaultDatabaseSchema
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file: %w", err)
		}
		schema = string(data)
	}
	if _, err := p.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	p.DB.Close()
	return nil
}

func (p *Postgres) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := p.DB.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (p *Postgres) SetSetting(ctx context.Context, key, value string) error {
	_, err := p.DB.Exec(ctx, `
                INSERT INTO settings (key, value, updated_at)
                VALUES ($1, $2, NOW())
                ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
        `, key, value)
	return err
}

func (p *Postgres) GetLearningGoal(ctx context.Context, subjectID string) (*LearningGoal, error) {
	var goal LearningGoal
	err := p.DB.QueryRow(ctx, `
        SELECT id, subject_id, purpose_statement, target_depth, created_at, research_complete, status
        FROM learning_goals WHERE subject_id = $1
        `, subjectID).Scan(&goal.ID, &goal.SubjectID, &goal.PurposeStatement, &goal.TargetDepth,
		&goal.CreatedAt, &goal.ResearchComplete, &goal.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (p *Postgres) SaveLearningGoal(ctx context.Context, goal *LearningGoal) (int64, error) {
	if goal == nil || goal.SubjectID == "" {
		return 0, errors.New("learning goal requires a subject id")
	}
	if goal.TargetDepth == "" {
		goal.TargetDepth = "practical"
	}
	if goal.Status == "" {
		goal.Status = StatusInitializing
	}
	var id int64
	err := p.DB.QueryRow(ctx, `
                INSERT INTO learning_goals (subject_id, purpose_statement, target_depth, research_complete, status)
                VALUES ($1, $2, $3, $4, $5)
                ON CONFLICT (subject_id) DO UPDATE SET
                        purpose_statement = EXCLUDED.purpose_statement,
                        target_depth = EXCLUDED.target_depth,
                        research_complete = EXCLUDED.research_complete,
                        status = EXCLUDED.status
                RETURNING id
        `, goal.SubjectID, goal.PurposeStatement, goal.TargetDepth, goal.ResearchComplete, goal.Status).Scan(&id)
	if err != nil {
		return 0, err
	}
	goal.ID = id
	return id, nil
}

func (p *Postgres) ListSubjects(ctx context.Context) ([]LearningGoal, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT id, subject_id, purpose_statement, target_depth, created_at, research_complete, status
        FROM learning_goals ORDER BY id ASC
        `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []LearningGoal
	for rows.Next() {
		var goal LearningGoal
		if err := rows.Scan(&goal.ID, &goal.SubjectID, &goal.PurposeStatement, &goal.TargetDepth,
			&goal.CreatedAt, &goal.ResearchComplete, &goal.Status); err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (p *Postgres) GetKnowledgeNode(ctx context.Context, id int64) (*KnowledgeNode, error) {
	var node KnowledgeNode
	err := p.DB.QueryRow(ctx, `
        SELECT id, subject_id, parent_id, title, COALESCE(description, ''), depth, is_goal_critical, prerequisites, shared_with_subjects
        FROM knowledge_nodes WHERE id = $1
        `, id).Scan(&node.ID, &node.SubjectID, &node.ParentID, &node.Title, &node.Description,
		&node.Depth, &node.GoalCritical, &node.Prerequisites, &node.SharedWith)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (p *Postgres) SaveKnowledgeNode(ctx context.Context, node *KnowledgeNode) (int64, error) {
	if node == nil || node.SubjectID == "" || node.Title == "" {
		return 0, errors.New("knowledge node requires a subject id and title")
	}
	prereqs := node.Prerequisites
	if prereqs == nil {
		prereqs = []int64{}
	}
	shared := node.SharedWith
	if shared == nil {
		shared = []string{}
	}
	var id int64
	var err error
	if node.ID != 0 {
		err = p.DB.QueryRow(ctx, `
                        UPDATE knowledge_nodes
                        SET subject_id = $2, parent_id = $3, title = $4, description = $5, depth = $6,
                            is_goal_critical = $7, prerequisites = $8, shared_with_subjects = $9
                        WHERE id = $1 RETURNING id
                `, node.ID, node.SubjectID, node.ParentID, node.Title, node.Description,
			node.Depth, node.GoalCritical, prereqs, shared).Scan(&id)
	} else {
		err = p.DB.QueryRow(ctx, `
                        INSERT INTO knowledge_nodes (subject_id, parent_id, title, description, depth, is_goal_critical, prerequisites, shared_with_subjects)
                        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                        RETURNING id
                `, node.SubjectID, node.ParentID, node.Title, node.Description,
			node.Depth, node.GoalCritical, prereqs, shared).Scan(&id)
	}
	if err != nil {
		return 0, err
	}
	node.ID = id
	return id, nil
}

func (p *Postgres) KnowledgeTree(ctx context.Context, subjectID string) ([]KnowledgeNode, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT id, subject_id, parent_id, title, COALESCE(description, ''), depth, is_goal_critical, prerequisites, shared_with_subjects
        FROM knowledge_nodes WHERE subject_id = $1
        ORDER BY depth ASC, id ASC
        `, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []KnowledgeNode
	for rows.Next() {
		var node KnowledgeNode
		if err := rows.Scan(&node.ID, &node.SubjectID, &node.ParentID, &node.Title, &node.Description,
			&node.Depth, &node.GoalCritical, &node.Prerequisites, &node.SharedWith); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

func (p *Postgres) GetLesson(ctx context.Context, id int64) (*Lesson, error) {
	var lesson Lesson
	err := p.DB.QueryRow(ctx, `
        SELECT id, subject_id, date, node_ids_covered, audio_path, materials_path, duration_minutes
        FROM lessons WHERE id = $1
        `, id).Scan(&lesson.ID, &lesson.SubjectID, &lesson.Date, &lesson.NodeIDsCovered,
		&lesson.AudioPath, &lesson.MaterialsPath, &lesson.DurationMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (p *Postgres) SaveLesson(ctx context.Context, lesson *Lesson) (int64, error) {
	if lesson == nil || lesson.SubjectID == "" {
		return 0, errors.New("lesson requires a subject id")
	}
	covered := lesson.NodeIDsCovered
	if covered == nil {
		covered = []int64{}
	}
	var id int64
	var date time.Time
	var err error
	if lesson.ID != 0 {
		err = p.DB.QueryRow(ctx, `
                        UPDATE lessons
                        SET subject_id = $2, date = COALESCE($3, date), node_ids_covered = $4,
                            audio_path = $5, materials_path = $6, duration_minutes = $7
                        WHERE id = $1 RETURNING id, date
                `, lesson.ID, lesson.SubjectID, nullableTime(lesson.Date), covered,
			lesson.AudioPath, lesson.MaterialsPath, lesson.DurationMinutes).Scan(&id, &date)
	} else {
		err = p.DB.QueryRow(ctx, `
                        INSERT INTO lessons (subject_id, date, node_ids_covered, audio_path, materials_path, duration_minutes)
                        VALUES ($1, COALESCE($2, NOW()), $3, $4, $5, $6)
                        RETURNING id, date
                `, lesson.SubjectID, nullableTime(lesson.Date), covered,
			lesson.AudioPath, lesson.MaterialsPath, lesson.DurationMinutes).Scan(&id, &date)
	}
	if err != nil {
		return 0, err
	}
	lesson.ID = id
	lesson.Date = date
	return id, nil
}

func (p *Postgres) ListLessons(ctx context.Context, subjectID string) ([]Lesson, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT id, subject_id, date, node_ids_covered, audio_path, materials_path, duration_minutes
        FROM lessons WHERE subject_id = $1 ORDER BY date ASC, id ASC
        `, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		var lesson Lesson
		if err := rows.Scan(&lesson.ID, &lesson.SubjectID, &lesson.Date, &lesson.NodeIDsCovered,
			&lesson.AudioPath, &lesson.MaterialsPath, &lesson.DurationMinutes); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

func (p *Postgres) GetUserProgress(ctx context.Context, nodeID int64) (*UserProgress, error) {
	var progress UserProgress
	err := p.DB.QueryRow(ctx, `
        SELECT node_id, mastery_level, last_assessed, next_review, assessment_history, ease_factor
        FROM user_progress WHERE node_id = $1
        `, nodeID).Scan(&progress.NodeID, &progress.MasteryLevel, &progress.LastAssessed,
		&progress.NextReview, &progress.History, &progress.EaseFactor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p *Postgres) UpsertUserProgress(ctx context.Context, progress *UserProgress) error {
	if progress == nil || progress.NodeID == 0 {
		return errors.New("progress requires a node id")
	}
	history := progress.History
	if history == nil {
		history = []float64{}
	}
	_, err := p.DB.Exec(ctx, `
                INSERT INTO user_progress (node_id, mastery_level, last_assessed, next_review, assessment_history, ease_factor)
                VALUES ($1, $2, $3, $4, $5, $6)
                ON CONFLICT (node_id) DO UPDATE SET
                        mastery_level = EXCLUDED.mastery_level,
                        last_assessed = EXCLUDED.last_assessed,
                        next_review = EXCLUDED.next_review,
                        assessment_history = EXCLUDED.assessment_history,
                        ease_factor = EXCLUDED.ease_factor
        `, progress.NodeID, progress.MasteryLevel, progress.LastAssessed, progress.NextReview,
		history, progress.EaseFactor)
	return err
}

func (p *Postgres) RecordAssessment(ctx context.Context, resp *AssessmentResponse) (int64, error) {
	if resp == nil || resp.NodeID == 0 {
		return 0, errors.New("assessment requires a node id")
	}
	var id int64
	err := p.DB.QueryRow(ctx, `
                INSERT INTO assessment_responses (lesson_id, node_id, question_hash, response, correct, next_review)
                VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW() + INTERVAL '1 day'))
                RETURNING id
        `, resp.LessonID, resp.NodeID, resp.QuestionHash, resp.Response, resp.Correct, nullableTime(resp.NextReview)).Scan(&id)
	if err != nil {
		return 0, err
	}
	resp.ID = id
	return id, nil
}

func (p *Postgres) ListAssessments(ctx context.Context, nodeID int64) ([]AssessmentResponse, error) {
	rows, err := p.DB.Query(ctx, `
        SELECT id, lesson_id, node_id, question_hash, response, correct, created_at, next_review
        FROM assessment_responses WHERE node_id = $1 ORDER BY created_at ASC
        `, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssessmentResponse
	for rows.Next() {
		var a AssessmentResponse
		if err := rows.Scan(&a.ID, &a.LessonID, &a.NodeID, &a.QuestionHash, &a.Response,
			&a.Correct, &a.CreatedAt, &a.NextReview); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubject(ctx context.Context, subjectID string) (bool, error) {
	tx, err := p.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `SELECT id FROM learning_goals WHERE subject_id = $1`, subjectID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `
                DELETE FROM assessment_responses
                WHERE lesson_id IN (SELECT id FROM lessons WHERE subject_id = $1)
                   OR node_id IN (SELECT id FROM knowledge_nodes WHERE subject_id = $1)
        `, subjectID); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM lessons WHERE subject_id = $1`, subjectID); err != nil {
		return false, err
	}
	// user_progress rows cascade off knowledge_nodes.
	if _, err := tx.Exec(ctx, `DELETE FROM knowledge_nodes WHERE subject_id = $1`, subjectID); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM learning_goals WHERE subject_id = $1`, subjectID); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM settings WHERE key = 'active_subject' AND value = $1`, subjectID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ Database = (*Postgres)(nil)

const defaultDatabaseSchema = `
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS learning_goals (
    id BIGSERIAL PRIMARY KEY,
    subject_id TEXT NOT NULL UNIQUE,
    purpose_statement TEXT NOT NULL,
    target_depth TEXT NOT NULL DEFAULT 'practical',
    created_at TIMESTAMPTZ DEFAULT NOW(),
    research_complete BOOLEAN NOT NULL DEFAULT FALSE,
    status TEXT NOT NULL DEFAULT 'initializing'
);

CREATE TABLE IF NOT EXISTS knowledge_nodes (
    id BIGSERIAL PRIMARY KEY,
    subject_id TEXT NOT NULL,
    parent_id BIGINT REFERENCES knowledge_nodes(id) ON DELETE SET NULL,
    title TEXT NOT NULL,
    description TEXT,
    depth INT NOT NULL DEFAULT 0,
    is_goal_critical BOOLEAN NOT NULL DEFAULT FALSE,
    prerequisites BIGINT[] NOT NULL DEFAULT '{}',
    shared_with_subjects TEXT[] NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS knowledge_nodes_subject_idx ON knowledge_nodes (subject_id);

CREATE TABLE IF NOT EXISTS user_progress (
    node_id BIGINT PRIMARY KEY REFERENCES knowledge_nodes(id) ON DELETE CASCADE,
    mastery_level DOUBLE PRECISION NOT NULL DEFAULT 0,
    last_assessed TIMESTAMPTZ,
    next_review TIMESTAMPTZ,
    assessment_history DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5
);

CREATE TABLE IF NOT EXISTS lessons (
    id BIGSERIAL PRIMARY KEY,
    subject_id TEXT NOT NULL REFERENCES learning_goals(subject_id) ON DELETE CASCADE,
    date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    node_ids_covered BIGINT[] NOT NULL DEFAULT '{}',
    audio_path TEXT NOT NULL DEFAULT '',
    materials_path TEXT NOT NULL DEFAULT '',
    duration_minutes INT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS lessons_subject_idx ON lessons (subject_id);
CREATE INDEX IF NOT EXISTS lessons_date_idx ON lessons (date);

CREATE TABLE IF NOT EXISTS assessment_responses (
    id BIGSERIAL PRIMARY KEY,
    lesson_id BIGINT,
    node_id BIGINT NOT NULL,
    question_hash TEXT NOT NULL,
    response TEXT NOT NULL,
    correct BOOLEAN NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    next_review TIMESTAMPTZ NOT NULL DEFAULT NOW() + INTERVAL '1 day'
);

CREATE INDEX IF NOT EXISTS assessment_node_idx ON assessment_responses (node_id);
`
