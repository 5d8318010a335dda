// Package orchestrator drives the learning workflow: one state machine over
// four role agents sharing the tool registry and backing stores.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/concurrent"
	"github.com/chiron-labs/go-chiron/src/storage"
)

// State is the workflow state machine position.
type State string

const (
	StateIdle             State = "idle"
	StateInitializing     State = "initializing"
	StateResearching      State = "researching"
	StateAssessing        State = "assessing"
	StateGeneratingLesson State = "generating_lesson"
	StateDeliveringLesson State = "delivering_lesson"
	StateExercising       State = "exercising"
)

// ErrNoActiveSubject is returned by operations that need a subject selected.
var ErrNoActiveSubject = errors.New("no active subject set")

const activeSubjectKey = "active_subject"

// Options wires an Orchestrator. Model, Registry, and Stores are required.
type Options struct {
	Model    chiron.ModelClient
	Registry *chiron.Registry
	Stores   *chiron.Stores

	ModelName  string
	MaxTokens  int
	MaxWorkers int

	Logger *slog.Logger
}

// roleAgent is one agent plus its persistent session.
type roleAgent struct {
	agent   *chiron.Agent
	session *chiron.Session
}

func (r *roleAgent) run(ctx context.Context, message string) (string, error) {
	return r.agent.Run(ctx, r.session, message)
}

func (r *roleAgent) reset() {
	r.session = r.agent.NewSession()
}

// Orchestrator sequences curriculum design, research, assessment, and lesson
// generation for the active subject.
type Orchestrator struct {
	stores *chiron.Stores
	pool   *concurrent.WorkerPool
	logger *slog.Logger

	curriculum *roleAgent
	research   *roleAgent
	assessment *roleAgent
	lesson     *roleAgent

	// researchFactory builds a fresh research agent per fan-out session.
	researchFactory func() (*roleAgent, error)

	mu            sync.Mutex
	state         State
	activeSubject string
}

// New builds an orchestrator and its four role agents.
func New(opts Options) (*Orchestrator, error) {
	if opts.Model == nil {
		return nil, errors.New("orchestrator requires a model client")
	}
	if opts.Stores == nil {
		return nil, errors.New("orchestrator requires backing stores")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	newRole := func(prompt string) (*roleAgent, error) {
		agent, err := chiron.New(chiron.Options{
			Model:        opts.Model,
			Registry:     opts.Registry,
			Stores:       opts.Stores,
			SystemPrompt: prompt,
			ModelName:    opts.ModelName,
			MaxTokens:    opts.MaxTokens,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return &roleAgent{agent: agent, session: agent.NewSession()}, nil
	}

	o := &Orchestrator{
		stores: opts.Stores,
		pool:   concurrent.NewWorkerPool(opts.MaxWorkers),
		logger: logger,
		state:  StateIdle,
	}
	var err error
	if o.curriculum, err = newRole(curriculumPrompt); err != nil {
		return nil, err
	}
	if o.research, err = newRole(researchPrompt); err != nil {
		return nil, err
	}
	if o.assessment, err = newRole(assessmentPrompt); err != nil {
		return nil, err
	}
	if o.lesson, err = newRole(lessonPrompt); err != nil {
		return nil, err
	}
	o.researchFactory = func() (*roleAgent, error) { return newRole(researchPrompt) }
	return o, nil
}

// State reports the current workflow state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	prev := o.state
	o.state = s
	o.mu.Unlock()
	if prev != s {
		o.logger.Info("workflow state changed", "from", string(prev), "to", string(s))
	}
}

// ActiveSubject returns the active subject id, consulting the database when
// none is cached. Empty means no subject is active.
func (o *Orchestrator) ActiveSubject(ctx context.Context) (string, error) {
	o.mu.Lock()
	cached := o.activeSubject
	o.mu.Unlock()
	if cached != "" {
		return cached, nil
	}
	subject, err := o.stores.DB.GetSetting(ctx, activeSubjectKey)
	if err != nil {
		return "", err
	}
	if subject != "" {
		o.mu.Lock()
		o.activeSubject = subject
		o.mu.Unlock()
	}
	return subject, nil
}

// SetActiveSubject switches subjects. The subject must already have a
// learning goal.
func (o *Orchestrator) SetActiveSubject(ctx context.Context, subjectID string) error {
	goal, err := o.stores.DB.GetLearningGoal(ctx, subjectID)
	if err != nil {
		return err
	}
	if goal == nil {
		return fmt.Errorf("subject %q does not exist", subjectID)
	}
	if err := o.stores.DB.SetSetting(ctx, activeSubjectKey, subjectID); err != nil {
		return err
	}
	o.mu.Lock()
	o.activeSubject = subjectID
	o.mu.Unlock()
	return nil
}

// ListSubjects returns every subject with a learning goal.
func (o *Orchestrator) ListSubjects(ctx context.Context) ([]storage.LearningGoal, error) {
	return o.stores.DB.ListSubjects(ctx)
}

// DeleteSubject removes a subject from both stores and drops it as the
// active subject if it was. Reports whether the subject existed.
func (o *Orchestrator) DeleteSubject(ctx context.Context, subjectID string) (bool, error) {
	existed, err := o.stores.DB.DeleteSubject(ctx, subjectID)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}
	if err := o.stores.Vectors.DeleteSubject(ctx, subjectID); err != nil {
		return false, err
	}
	o.mu.Lock()
	if o.activeSubject == subjectID {
		o.activeSubject = ""
	}
	o.mu.Unlock()
	o.logger.Info("subject deleted", "subject", subjectID)
	return true, nil
}

// InitializeSubject creates a learning goal and makes it active.
func (o *Orchestrator) InitializeSubject(ctx context.Context, subjectID, purposeStatement string) (*storage.LearningGoal, error) {
	o.setState(StateInitializing)
	defer o.setState(StateIdle)

	goal := &storage.LearningGoal{
		SubjectID:        subjectID,
		PurposeStatement: purposeStatement,
		TargetDepth:      "practical",
		Status:           storage.StatusInitializing,
	}
	id, err := o.stores.DB.SaveLearningGoal(ctx, goal)
	if err != nil {
		return nil, err
	}
	goal.ID = id
	if err := o.SetActiveSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return goal, nil
}

// StartCurriculumDesign opens the curriculum conversation for the active
// subject and returns the proposed coverage map.
func (o *Orchestrator) StartCurriculumDesign(ctx context.Context) (string, error) {
	subjectID, goal, err := o.requireActiveGoal(ctx)
	if err != nil {
		return "", err
	}
	o.setState(StateInitializing)

	o.curriculum.reset()
	prompt := fmt.Sprintf(`I want to learn about %s.

My purpose: %s

Please design a coverage map for my learning journey. Start by understanding my goal, then propose a curriculum structure.`,
		subjectID, goal.PurposeStatement)
	return o.curriculum.run(ctx, prompt)
}

// ContinueCurriculumDesign feeds user feedback into the open curriculum
// conversation.
func (o *Orchestrator) ContinueCurriculumDesign(ctx context.Context, userResponse string) (string, error) {
	return o.curriculum.run(ctx, userResponse)
}

// ResearchTopic runs one research conversation for a topic path.
func (o *Orchestrator) ResearchTopic(ctx context.Context, subjectID, topicPath, goalContext string) (string, error) {
	o.setState(StateResearching)
	defer o.setState(StateIdle)
	return o.research.run(ctx, researchRequest(subjectID, topicPath, goalContext))
}

// ResearchResult is the outcome of one fan-out research session.
type ResearchResult struct {
	TopicPath string
	Report    string
	Err       error
}

// ResearchTopics researches topics in parallel, one independent session per
// topic, bounded by the worker pool. Each session succeeds or fails on its
// own; the slice carries per-topic errors.
func (o *Orchestrator) ResearchTopics(ctx context.Context, subjectID string, topicPaths []string) ([]ResearchResult, error) {
	if len(topicPaths) == 0 {
		return nil, nil
	}
	o.setState(StateResearching)
	defer o.setState(StateIdle)

	results, err := concurrent.ParallelMap(ctx, o.pool, topicPaths, func(ctx context.Context, topicPath string) (ResearchResult, error) {
		agent, err := o.researchFactory()
		if err != nil {
			return ResearchResult{TopicPath: topicPath, Err: err}, nil
		}
		o.logger.Debug("researching topic", "subject", subjectID, "topic", topicPath)
		report, err := agent.run(ctx, researchRequest(subjectID, topicPath, ""))
		return ResearchResult{TopicPath: topicPath, Report: report, Err: err}, nil
	})
	if err != nil {
		return results, err
	}
	return results, nil
}

func researchRequest(subjectID, topicPath, extra string) string {
	msg := fmt.Sprintf(`Research the following topic for the subject %q:

Topic: %s
`, subjectID, topicPath)
	if extra != "" {
		msg += "\nContext: " + extra + "\n"
	}
	msg += `
Please:
1. Extract and validate key facts
2. Store validated knowledge using the tools
3. Report what you found and stored`
	return msg
}

// StartLesson begins the pre-lesson assessment for the active subject.
func (o *Orchestrator) StartLesson(ctx context.Context) (string, error) {
	subjectID, _, err := o.requireActiveGoal(ctx)
	if err != nil {
		return "", err
	}
	o.setState(StateAssessing)

	topics, err := o.upcomingTopics(ctx, subjectID)
	if err != nil {
		return "", err
	}
	o.assessment.reset()

	prompt := fmt.Sprintf("Begin a pre-lesson assessment for the subject %q.\n", subjectID)
	if len(topics) > 0 {
		prompt += "\nUpcoming topics to assess readiness for:\n"
		for _, topic := range topics {
			prompt += "- " + topic + "\n"
		}
	}
	prompt += "\nGreet the learner and begin with your first question. Assess one concept at a time and wait for responses."
	return o.assessment.run(ctx, prompt)
}

// ContinueAssessment feeds the learner's answer into the open assessment.
func (o *Orchestrator) ContinueAssessment(ctx context.Context, userResponse string) (string, error) {
	return o.assessment.run(ctx, userResponse)
}

// GenerateLesson produces lesson content from the assessment so far.
func (o *Orchestrator) GenerateLesson(ctx context.Context) (string, error) {
	subjectID, _, err := o.requireActiveGoal(ctx)
	if err != nil {
		return "", err
	}
	o.setState(StateGeneratingLesson)

	summary, err := o.assessment.run(ctx, "Provide a comprehensive assessment summary: overall knowledge level, strengths, areas needing focus, and recommended lesson adjustments.")
	if err != nil {
		return "", err
	}
	nodes, err := o.upcomingNodes(ctx, subjectID)
	if err != nil {
		return "", err
	}
	topics := make([]string, 0, len(nodes))
	nodeIDs := make([]int64, 0, len(nodes))
	for _, node := range nodes {
		topics = append(topics, node.Title)
		nodeIDs = append(nodeIDs, node.ID)
	}
	if len(topics) == 0 {
		topics = []string{"Introduction"}
	}

	o.setState(StateDeliveringLesson)
	o.lesson.reset()
	prompt := fmt.Sprintf(`Generate a lesson for the subject %q.

Topics to cover:
`, subjectID)
	for _, topic := range topics {
		prompt += "- " + topic + "\n"
	}
	prompt += "\nAssessment summary:\n" + summary
	content, err := o.lesson.run(ctx, prompt)
	if err != nil {
		return "", err
	}
	record := &storage.Lesson{SubjectID: subjectID, NodeIDsCovered: nodeIDs}
	if _, err := o.stores.DB.SaveLesson(ctx, record); err != nil {
		return "", fmt.Errorf("record lesson: %w", err)
	}
	return content, nil
}

// upcomingTopics returns the titles of the first few knowledge nodes.
func (o *Orchestrator) upcomingTopics(ctx context.Context, subjectID string) ([]string, error) {
	nodes, err := o.upcomingNodes(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(nodes))
	for _, node := range nodes {
		topics = append(topics, node.Title)
	}
	return topics, nil
}

// upcomingNodes returns the first few nodes of the subject's tree in
// depth-then-id order.
func (o *Orchestrator) upcomingNodes(ctx context.Context, subjectID string) ([]storage.KnowledgeNode, error) {
	nodes, err := o.stores.DB.KnowledgeTree(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	const limit = 5
	if len(nodes) > limit {
		nodes = nodes[:limit]
	}
	return nodes, nil
}

func (o *Orchestrator) requireActiveGoal(ctx context.Context) (string, *storage.LearningGoal, error) {
	subjectID, err := o.ActiveSubject(ctx)
	if err != nil {
		return "", nil, err
	}
	if subjectID == "" {
		return "", nil, ErrNoActiveSubject
	}
	goal, err := o.stores.DB.GetLearningGoal(ctx, subjectID)
	if err != nil {
		return "", nil, err
	}
	if goal == nil {
		return "", nil, fmt.Errorf("subject %q not found", subjectID)
	}
	return subjectID, goal, nil
}
