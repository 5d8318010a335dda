package chiron

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

const (
	defaultMaxTokens     = 8192
	defaultMaxIterations = 32
)

// Options configure a new Agent.
type Options struct {
	Model    ModelClient
	Registry *Registry
	Stores   *Stores

	SystemPrompt string
	ModelName    string
	MaxTokens    int

	// MaxIterations caps model round trips per Run. Zero means the default;
	// negative disables the cap.
	MaxIterations int

	// OnTurn, if set, observes every turn as it is appended to the session.
	OnTurn func(Message)

	Logger *slog.Logger
}

// Agent drives a tool-augmented conversation to completion: it sends the
// session to the model, executes any requested tool calls in order, feeds the
// results back, and repeats until the model answers without calls.
type Agent struct {
	model         ModelClient
	registry      *Registry
	executor      *Executor
	systemPrompt  string
	modelName     string
	maxTokens     int
	maxIterations int
	onTurn        func(Message)
	logger        *slog.Logger
}

// New creates an Agent. A model client is required; everything else has
// workable defaults.
func New(opts Options) (*Agent, error) {
	if opts.Model == nil {
		return nil, errors.New("agent requires a model client")
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	maxIterations := opts.MaxIterations
	if maxIterations == 0 {
		maxIterations = defaultMaxIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		model:         opts.Model,
		registry:      registry,
		executor:      NewExecutor(registry, opts.Stores),
		systemPrompt:  opts.SystemPrompt,
		modelName:     opts.ModelName,
		maxTokens:     maxTokens,
		maxIterations: maxIterations,
		onTurn:        opts.OnTurn,
		logger:        logger,
	}, nil
}

// NewSession creates a session carrying the agent's prompt and model
// parameters. Sessions survive across Run calls; later runs see earlier
// turns.
func (a *Agent) NewSession() *Session {
	return NewSession(a.systemPrompt, a.modelName, a.maxTokens)
}

// StepResult reports one model round trip.
type StepResult struct {
	// Done is true when the model answered without tool calls; Text then
	// holds the final concatenated text.
	Done bool
	Text string

	// Assistant is the turn appended for the model's response. Results holds
	// the tool-result turns appended afterwards, one per call, in call order.
	Assistant Message
	Results   []Message
}

// Run appends userMessage and loops Step until the model finishes. On a
// backend or protocol failure the error is returned as-is; if the iteration
// cap is hit the accumulated assistant text is returned alongside a
// *MaxIterationsError.
func (a *Agent) Run(ctx context.Context, session *Session, userMessage string) (string, error) {
	if session == nil {
		return "", errors.New("session is nil")
	}
	if strings.TrimSpace(userMessage) == "" {
		return "", errors.New("user message is empty")
	}
	a.append(session, NewUserMessage(userMessage))

	var partial strings.Builder
	for i := 0; a.maxIterations < 0 || i < a.maxIterations; i++ {
		step, err := a.Step(ctx, session)
		if err != nil {
			return "", err
		}
		if step.Done {
			return step.Text, nil
		}
		if text := step.Assistant.Text(); text != "" {
			if partial.Len() > 0 {
				partial.WriteString("\n")
			}
			partial.WriteString(text)
		}
	}
	return partial.String(), &MaxIterationsError{Limit: a.maxIterations, Partial: partial.String()}
}

// Step performs one model round trip: send the session, append the assistant
// turn, and, if the response requested tools, execute them sequentially and
// append one result turn per call. Cancellation is honored before the model
// call and before each tool invocation; a tool that has started always runs
// to completion and has its result recorded.
func (a *Agent) Step(ctx context.Context, session *Session) (*StepResult, error) {
	if session == nil {
		return nil, errors.New("session is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := a.model.Complete(ctx, Request{
		Model:     session.Model,
		MaxTokens: session.MaxTokens,
		System:    session.SystemPrompt,
		Messages:  session.Messages(),
		Tools:     a.registry.Specs(),
	})
	if err != nil {
		var backendErr *BackendError
		if errors.As(err, &backendErr) {
			return nil, err
		}
		return nil, &BackendError{Op: "complete", Err: err}
	}
	if resp == nil {
		return nil, &ProtocolError{Reason: "backend returned no response"}
	}

	var calls []Block
	for _, b := range resp.Blocks {
		switch b.Type {
		case BlockText:
		case BlockToolUse:
			if b.ID == "" || b.Name == "" {
				return nil, &ProtocolError{Reason: "tool call without id or name"}
			}
			calls = append(calls, b)
		default:
			return nil, &ProtocolError{Reason: "unexpected block type " + b.Type}
		}
	}

	assistant := Message{Role: RoleAssistant, Blocks: resp.Blocks}
	a.append(session, assistant)

	if len(calls) == 0 {
		return &StepResult{Done: true, Text: assistant.Text(), Assistant: assistant}, nil
	}

	result := &StepResult{Assistant: assistant}
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.logger.Debug("executing tool", "tool", call.Name, "call_id", call.ID)
		payload := a.executor.Execute(ctx, call.Name, call.Input)
		turn := Message{Role: RoleToolResult, Blocks: []Block{NewToolResultBlock(call.ID, payload)}}
		a.append(session, turn)
		result.Results = append(result.Results, turn)
	}
	return result, nil
}

func (a *Agent) append(session *Session, m Message) {
	session.Append(m)
	if a.onTurn != nil {
		a.onTurn(m)
	}
}
