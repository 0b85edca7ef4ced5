// Package genie exposes the turn boundary: RunTurn starts a turn on a new or
// existing thread, ResumeTurn answers a pending clarification. Both load the
// thread, run the agent graph and persist the result under a per-thread lock.
package genie

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/loxresearch/genie/src/graph"
	"github.com/loxresearch/genie/src/session"
	"github.com/loxresearch/genie/src/state"
)

// TurnRequest starts a turn. An empty ThreadID opens a new thread.
type TurnRequest struct {
	ThreadID string `json:"thread_id,omitempty" validate:"omitempty,max=128,thread_id"`
	Message  string `json:"message" validate:"required,max=8000"`
}

// ResumeRequest answers the pending clarification on ThreadID.
type ResumeRequest struct {
	ThreadID string `json:"thread_id" validate:"required,max=128,thread_id"`
	Reply    string `json:"reply" validate:"required,max=8000"`
}

// TurnResult is returned to the caller of a turn.
type TurnResult struct {
	ThreadID string       `json:"thread_id"`
	Response string       `json:"response"`
	Status   graph.Status `json:"status"`
	Path     []graph.Node `json:"path,omitempty"`
	// Persisted is false when the answer was produced but the store write
	// failed; the thread may not continue from this turn.
	Persisted bool                     `json:"persisted"`
	State     *state.ConversationState `json:"-"`
}

// Observer receives turn outcomes, for metrics.
type Observer interface {
	TurnFinished(status graph.Status, persisted bool, d time.Duration)
}

// Service runs turns against a graph and a session adapter.
type Service struct {
	graph    *graph.Graph
	sessions *session.Adapter
	validate *validator.Validate
	observer Observer
	logger   *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithObserver reports every finished turn to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService builds a Service.
func NewService(g *graph.Graph, sessions *session.Adapter, opts ...Option) *Service {
	s := &Service{
		graph:    g,
		sessions: sessions,
		validate: newValidator(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("component", "genie")
	return s
}

// Sessions returns the persistence adapter.
func (s *Service) Sessions() *session.Adapter {
	return s.sessions
}

// RunTurn appends req.Message to the thread and runs the graph. If the
// thread was waiting on a clarification the message answers it.
//
// A *session.StoreError is returned together with a non-nil result when the
// turn ran but could not be persisted.
func (s *Service) RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	req.ThreadID = strings.TrimSpace(req.ThreadID)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = state.NewID()
	}
	return s.turn(ctx, threadID, func(st *state.ConversationState) (*graph.Result, error) {
		return s.graph.Run(ctx, st, req.Message)
	})
}

// ResumeTurn supplies reply to a thread suspended in clarification. On a
// thread that is not suspended it starts a new turn with reply.
func (s *Service) ResumeTurn(ctx context.Context, req ResumeRequest) (*TurnResult, error) {
	req.ThreadID = strings.TrimSpace(req.ThreadID)
	req.Reply = strings.TrimSpace(req.Reply)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.turn(ctx, req.ThreadID, func(st *state.ConversationState) (*graph.Result, error) {
		return s.graph.Resume(ctx, st, req.Reply)
	})
}

func (s *Service) turn(ctx context.Context, threadID string, run func(*state.ConversationState) (*graph.Result, error)) (*TurnResult, error) {
	start := time.Now()
	logger := s.logger.With("thread_id", threadID)

	unlock, err := s.sessions.Lock(ctx, threadID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, found, err := s.sessions.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	logger.Debug("thread loaded", "found", found, "status", st.Status, "messages", st.MessageCounts.Total)

	res, err := run(st)
	if err != nil {
		if errors.Is(err, graph.ErrEmptyMessage) {
			return nil, &ValidationError{Field: "message", Message: "is required"}
		}
		return nil, err
	}

	out := &TurnResult{
		ThreadID: st.ThreadID,
		Response: res.Response,
		Status:   res.Status,
		Path:     res.Path,
		State:    st,
	}

	saveErr := s.sessions.Save(ctx, st)
	out.Persisted = saveErr == nil
	if s.observer != nil {
		s.observer.TurnFinished(out.Status, out.Persisted, time.Since(start))
	}
	logger.Info("turn finished", "status", out.Status, "path", res.Path, "persisted", out.Persisted, "duration", time.Since(start))
	if saveErr != nil {
		return out, saveErr
	}
	return out, nil
}
