package graph

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// EventType represents the type of graph event
type EventType string

const (
	EventNodeStarted  EventType = "node_started"
	EventNodeFinished EventType = "node_finished"
	EventToolCall     EventType = "tool_call"
	EventInterrupt    EventType = "interrupt"
	EventTurnComplete EventType = "turn_complete"
)

// Event is the base interface for all graph events
type Event interface {
	GetType() EventType
	GetTimestamp() time.Time
	GetThreadID() string
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ThreadID  string    `json:"thread_id"`
}

func (e BaseEvent) GetType() EventType      { return e.Type }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetThreadID() string     { return e.ThreadID }

// NodeStartedEvent is sent before a node runs
type NodeStartedEvent struct {
	BaseEvent
	Node Node `json:"node"`
}

// NodeFinishedEvent is sent after a node has mutated state
type NodeFinishedEvent struct {
	BaseEvent
	Node     Node          `json:"node"`
	Duration time.Duration `json:"duration"`
	// Fallback is set when the node recovered from an inference failure.
	Fallback bool   `json:"fallback"`
	Detail   string `json:"detail,omitempty"`
}

// ToolCallEvent reports one executor subtask
type ToolCallEvent struct {
	BaseEvent
	PlanID   string        `json:"plan_id"`
	Subtask  string        `json:"subtask"`
	ToolName string        `json:"tool_name"`
	ToolID   string        `json:"tool_id"`
	Failed   bool          `json:"failed"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// InterruptEvent is sent when the turn suspends for a human reply
type InterruptEvent struct {
	BaseEvent
	Question       string `json:"question"`
	Clarifications int    `json:"clarifications"`
}

// TurnCompleteEvent is sent when a turn terminates or suspends
type TurnCompleteEvent struct {
	BaseEvent
	Status   Status        `json:"status"`
	Path     []Node        `json:"path"`
	Duration time.Duration `json:"duration"`
}

// EventSink receives graph events
type EventSink interface {
	// Send hands an event to the sink without blocking
	Send(event Event) error

	// Close closes the event sink
	Close() error
}

// EventProcessor processes graph events
type EventProcessor interface {
	Process(event Event) error
	Close() error
}

var (
	// ErrSinkClosed is returned by Send after Close.
	ErrSinkClosed = errors.New("graph: event sink is closed")

	// ErrSinkFull is returned by Send when the buffer is full. The event is
	// dropped.
	ErrSinkFull = errors.New("graph: event sink is full")
)

// ChannelEventSink implements EventSink using a buffered channel drained by a
// single goroutine that fans events out to processors in order.
type ChannelEventSink struct {
	events     chan Event
	processors []EventProcessor
	done       chan struct{}
	logger     *slog.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewChannelEventSink creates a new channel-based event sink
func NewChannelEventSink(bufferSize int, logger *slog.Logger, processors ...EventProcessor) *ChannelEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	sink := &ChannelEventSink{
		events:     make(chan Event, bufferSize),
		processors: processors,
		done:       make(chan struct{}),
		logger:     logger.With("component", "events"),
	}

	go sink.processEvents()

	return sink
}

// Send queues an event. A slow processor never stalls the graph: when the
// buffer is full the event is dropped and ErrSinkFull returned.
func (s *ChannelEventSink) Send(event Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.events <- event:
		return nil
	default:
		s.dropped.Add(1)
		return ErrSinkFull
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (s *ChannelEventSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close drains pending events and closes every processor
func (s *ChannelEventSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()
	<-s.done

	var errs []error
	for _, p := range s.processors {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ChannelEventSink) processEvents() {
	defer close(s.done)

	for event := range s.events {
		for _, processor := range s.processors {
			if err := processor.Process(event); err != nil {
				s.logger.Warn("event processor failed", "type", event.GetType(), "error", err)
			}
		}
	}
}

// ProcessorFunc adapts a function to EventProcessor.
type ProcessorFunc func(Event) error

func (f ProcessorFunc) Process(e Event) error { return f(e) }
func (f ProcessorFunc) Close() error         { return nil }

// emitter stamps events with common fields. A nil sink drops everything.
type emitter struct {
	sink     EventSink
	threadID string
	logger   *slog.Logger
}

func (e *emitter) base(t EventType) BaseEvent {
	return BaseEvent{Type: t, Timestamp: time.Now(), ThreadID: e.threadID}
}

func (e *emitter) send(ev Event) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Send(ev); err != nil {
		if errors.Is(err, ErrSinkFull) {
			e.logger.Warn("event buffer full, dropping event", "type", ev.GetType())
			return
		}
		e.logger.Debug("dropping event", "type", ev.GetType(), "error", err)
	}
}

func (e *emitter) nodeStarted(n Node) {
	e.send(&NodeStartedEvent{BaseEvent: e.base(EventNodeStarted), Node: n})
}

func (e *emitter) nodeFinished(n Node, d time.Duration, fallback bool, detail string) {
	e.send(&NodeFinishedEvent{BaseEvent: e.base(EventNodeFinished), Node: n, Duration: d, Fallback: fallback, Detail: detail})
}

func (e *emitter) toolCall(ev ToolCallEvent) {
	ev.BaseEvent = e.base(EventToolCall)
	e.send(&ev)
}

func (e *emitter) interrupt(question string, clarifications int) {
	e.send(&InterruptEvent{BaseEvent: e.base(EventInterrupt), Question: question, Clarifications: clarifications})
}

func (e *emitter) turnComplete(status Status, path []Node, d time.Duration) {
	e.send(&TurnCompleteEvent{BaseEvent: e.base(EventTurnComplete), Status: status, Path: append([]Node(nil), path...), Duration: d})
}
