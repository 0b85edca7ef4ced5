// Package graph runs the Lox Genie agent graph: Classifier, Clarification,
// Planner and Executor nodes over a state.ConversationState.
//
// The topology is fixed:
//
//	entry -> classifier
//	classifier -> end | clarification | planner
//	clarification -> classifier (after the human replies)
//	planner -> executor -> end
//
// Nodes never return inference or tool failures. Each one substitutes a
// deterministic fallback so a turn always reaches end or a suspension.
package graph

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/llm"
	"github.com/loxresearch/genie/src/state"
)

// Node names a graph node.
type Node string

const (
	NodeClassifier    Node = "classifier"
	NodeClarification Node = "clarification"
	NodePlanner       Node = "planner"
	NodeExecutor      Node = "executor"
	NodeEnd           Node = "__end__"
)

// Status is the outcome of one turn.
type Status string

const (
	StatusCompleted             Status = "completed"
	StatusAwaitingClarification Status = "awaiting_clarification"
)

const (
	DefaultMaxClarifications = 3
	DefaultMaxSubtasks       = 5
	DefaultParallelism       = 1
)

var (
	// ErrEmptyMessage is returned when a turn is started without text.
	ErrEmptyMessage = errors.New("graph: message is empty")

	// ErrNilState is returned when a turn is started without a state.
	ErrNilState = errors.New("graph: conversation state is nil")
)

// Config configures a Graph.
type Config struct {
	// MaxClarifications bounds consecutive clarification rounds. Zero or
	// negative means unbounded.
	MaxClarifications int
	// MaxSubtasks caps the planner output.
	MaxSubtasks int
	// Parallelism is the number of subtasks the executor runs at once.
	Parallelism int
	// CallTimeout bounds each inference and tool call. Zero disables it.
	CallTimeout time.Duration
	// Now is the clock rendered into prompts.
	Now    func() time.Time
	Events EventSink
	Logger *slog.Logger
}

// Graph owns the node topology and its injected dependencies. It holds no
// per-thread state and is safe for concurrent use across threads.
type Graph struct {
	invoker  llm.Invoker
	registry agent.Registry
	cfg      Config
	logger   *slog.Logger
}

// New builds a Graph.
func New(invoker llm.Invoker, registry agent.Registry, cfg Config) (*Graph, error) {
	if invoker == nil {
		return nil, errors.New("graph: invoker is required")
	}
	if registry == nil {
		return nil, errors.New("graph: tool registry is required")
	}
	if cfg.MaxSubtasks <= 0 {
		cfg.MaxSubtasks = DefaultMaxSubtasks
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{
		invoker:  invoker,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With("component", "graph"),
	}, nil
}

// Result describes how a turn ended.
type Result struct {
	Status Status
	// Response is the content of the tail agent message.
	Response string
	// Path lists the nodes visited, in order.
	Path []Node
}

// Run appends message as a new human message and runs the graph from the
// classifier. A thread that was suspended is treated as answering the
// pending question.
func (g *Graph) Run(ctx context.Context, s *state.ConversationState, message string) (*Result, error) {
	if s == nil {
		return nil, ErrNilState
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.Suspended() {
		return g.Resume(ctx, s, message)
	}
	s.Clarifications = 0
	s.AppendHuman(message)
	return g.run(ctx, s), nil
}

// Resume answers a pending clarification with reply and re-enters the
// classifier. On a thread that is not suspended it behaves like Run.
func (g *Graph) Resume(ctx context.Context, s *state.ConversationState, reply string) (*Result, error) {
	if s == nil {
		return nil, ErrNilState
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, ErrEmptyMessage
	}
	if !s.Suspended() {
		return g.Run(ctx, s, reply)
	}
	s.ClearSuspension()
	s.Clarifications++
	s.AppendHuman(reply)
	return g.run(ctx, s), nil
}

func (g *Graph) run(ctx context.Context, s *state.ConversationState) *Result {
	em := &emitter{sink: g.cfg.Events, threadID: s.ThreadID, logger: g.logger}
	logger := g.logger.With("thread_id", s.ThreadID)
	start := time.Now()

	res := &Result{Status: StatusCompleted}
	node := NodeClassifier
	for node != NodeEnd {
		res.Path = append(res.Path, node)
		em.nodeStarted(node)
		nodeStart := time.Now()

		var next Node
		var fallback bool
		var detail string
		switch node {
		case NodeClassifier:
			fallback, detail = g.classify(ctx, s, logger)
			next = AfterClassifier(s)
		case NodeClarification:
			next = g.clarify(s, em)
			if next == NodeEnd && s.Suspended() {
				res.Status = StatusAwaitingClarification
			}
		case NodePlanner:
			fallback, detail = g.plan(ctx, s, logger)
			next = NodeExecutor
		case NodeExecutor:
			g.execute(ctx, s, em, logger)
			next = NodeEnd
		default:
			logger.Error("unknown node, terminating turn", "node", node)
			next = NodeEnd
		}

		s.RecomputeCounts()
		s.Touch()
		em.nodeFinished(node, time.Since(nodeStart), fallback, detail)
		logger.Debug("node finished", "node", node, "next", next, "fallback", fallback)
		node = next
	}

	if tail := s.Tail(); tail != nil && tail.Role == state.RoleAgent {
		res.Response = tail.Content
	}
	if res.Status == StatusCompleted {
		s.Clarifications = 0
	}
	em.turnComplete(res.Status, res.Path, time.Since(start))
	return res
}

// AfterClassifier picks the node that follows the classifier. It is a pure
// function of the tail message: direct answers and off-topic replies end the
// turn, irrelevant messages go to clarification, relevant ones to the
// planner. A tail without classification metadata ends the turn.
func AfterClassifier(s *state.ConversationState) Node {
	tail := s.Tail()
	if tail == nil || tail.Role != state.RoleAgent {
		return NodeEnd
	}
	action, ok := tail.Metadata.Action()
	if !ok {
		return NodeEnd
	}
	if action == state.ActionDirectAnswer || action == state.ActionOffTopic {
		return NodeEnd
	}
	relevant, ok := tail.Metadata.Relevant()
	if !ok {
		return NodeEnd
	}
	if !relevant {
		return NodeClarification
	}
	return NodePlanner
}

func (g *Graph) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, g.cfg.CallTimeout)
	}
	return context.WithCancel(ctx)
}
