package theme

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/loxresearch/genie/src/graph"
	"github.com/loxresearch/genie/src/state"
)

// ConsoleProcessorConfig configures the console event processor
type ConsoleProcessorConfig struct {
	ShowNodes     bool
	ShowToolCalls bool
	ShowTimings   bool
	Color         bool
}

// ConsoleEventProcessor prints graph progress as it happens
type ConsoleEventProcessor struct {
	config ConsoleProcessorConfig
	styles Styles
	mu     sync.Mutex
	out    io.Writer
}

var _ graph.EventProcessor = (*ConsoleEventProcessor)(nil)

// NewConsoleEventProcessor creates a new console event processor
func NewConsoleEventProcessor(out io.Writer, config ConsoleProcessorConfig) *ConsoleEventProcessor {
	return &ConsoleEventProcessor{
		config: config,
		styles: NewStyles(config.Color),
		out:    out,
	}
}

// Process handles a single event
func (p *ConsoleEventProcessor) Process(event graph.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := event.(type) {
	case *graph.NodeFinishedEvent:
		if !p.config.ShowNodes {
			return nil
		}
		line := "· " + string(e.Node)
		if e.Detail != "" {
			line += ": " + e.Detail
		}
		if p.config.ShowTimings {
			line += " (" + e.Duration.Round(time.Millisecond).String() + ")"
		}
		style := p.styles.Node
		if e.Fallback {
			style = p.styles.Warning
			line += " [fallback]"
		}
		fmt.Fprintln(p.out, style.Render(line))

	case *graph.ToolCallEvent:
		if !p.config.ShowToolCalls {
			return nil
		}
		if e.Failed {
			fmt.Fprintln(p.out, p.styles.Error.Render(fmt.Sprintf("  ✗ %s: %s", toolLabel(e.ToolName), e.Error)))
			return nil
		}
		fmt.Fprintln(p.out, p.styles.Muted.Render(fmt.Sprintf("  ✓ %s: %s", toolLabel(e.ToolName), e.Subtask)))
	}
	return nil
}

// Close cleans up resources
func (p *ConsoleEventProcessor) Close() error {
	return nil
}

func toolLabel(name string) string {
	if name == "" {
		return "no tool"
	}
	return name
}

// Transcript renders a conversation for `threads show`.
func Transcript(s *state.ConversationState, color bool) string {
	styles := NewStyles(color)
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", styles.Muted.Render(fmt.Sprintf("thread %s · %s · %d messages · updated %s",
		s.ThreadID, s.Status, s.MessageCounts.Total, s.LastUpdated.Format(time.RFC3339))))

	for _, m := range s.Messages {
		b.WriteString("\n")
		switch m.Role {
		case state.RoleHuman:
			b.WriteString(styles.Human.Render("you") + "\n")
			b.WriteString(m.Content + "\n")
		default:
			label := "genie"
			if a, ok := m.Metadata.Action(); ok {
				label += " (" + string(a) + ")"
			} else if n := m.Metadata.Node(); n != "" {
				label += " (" + n + ")"
			}
			b.WriteString(styles.Muted.Render(label) + "\n")
			b.WriteString(styles.Agent.Render(m.Content) + "\n")
		}
	}

	if s.Suspended() {
		b.WriteString("\n" + styles.Question.Render("waiting for reply: "+s.PendingQuestion) + "\n")
	}
	if len(s.ToolCalls) > 0 {
		failed := 0
		for _, tc := range s.ToolCalls {
			if tc.Failed {
				failed++
			}
		}
		b.WriteString("\n" + styles.Muted.Render(fmt.Sprintf("%d plans, %d tool calls (%d failed)", len(s.Plans), len(s.ToolCalls), failed)) + "\n")
	}
	return b.String()
}
