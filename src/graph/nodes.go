package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/genieagent"
	"github.com/loxresearch/genie/src/llm"
	"github.com/loxresearch/genie/src/state"
)

// Fixed texts used when a node cannot produce its own.
const (
	ClassifierFallback   = "I'm having trouble processing your request right now. Could you please rephrase your question?"
	ClarificationGiveUp  = "I still can't tell what you're after, so I'll stop here. Ask again with a specific player, team or league and I'll dig in."
	NoPlanResponse       = "I couldn't break that question into research steps, so I have nothing new to report. Try asking it a different way."
	selectionFailureText = "tool selection failed"
)

// history maps the thread's messages onto chat roles.
func history(s *state.ConversationState) []*aisdk.Message {
	out := make([]*aisdk.Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		role := aisdk.RoleUser
		if m.Role == state.RoleAgent {
			role = aisdk.RoleAssistant
		}
		out = append(out, &aisdk.Message{Role: role, Content: m.Content})
	}
	return out
}

// classify runs the classifier node. It always appends exactly one agent
// message carrying classification metadata.
func (g *Graph) classify(ctx context.Context, s *state.ConversationState, logger *slog.Logger) (bool, string) {
	var out classification
	err := g.invokeNode(ctx, NodeClassifier, s, genieagent.ClassifierPrompt, "", classificationSchema, &out)
	if err == nil && !out.Action.Valid() {
		err = fmt.Errorf("unknown action %q", out.Action)
	}
	if err == nil && strings.TrimSpace(out.Response) == "" {
		err = errors.New("empty response")
	}
	fallback := false
	detail := ""
	if err != nil {
		logger.Error("classifier failed, using fallback", "node", NodeClassifier, "error", err)
		out = classification{Action: state.ActionClarificationNeeded, Response: ClassifierFallback}
		fallback = true
		detail = err.Error()
	}

	md := state.ClassificationMetadata(out.Action)
	if fallback {
		md["fallback"] = true
	}
	s.AppendAgent(strings.TrimSpace(out.Response), md)
	s.SetRelevant(out.Action.Relevant())
	return fallback, detail
}

// clarify suspends the turn on the tail agent message, or gives up once the
// clarification budget is spent.
func (g *Graph) clarify(s *state.ConversationState, em *emitter) Node {
	if limit := g.cfg.MaxClarifications; limit > 0 && s.Clarifications >= limit {
		s.AppendAgent(ClarificationGiveUp, state.Metadata{"reason": "max_clarifications"}.WithNode(string(NodeClarification)))
		s.ClearSuspension()
		return NodeEnd
	}
	question := ""
	if tail := s.Tail(); tail != nil {
		question = tail.Content
	}
	s.Suspend(question)
	em.interrupt(question, s.Clarifications)
	return NodeEnd
}

// plan runs the planner node. It always appends exactly one plan.
func (g *Graph) plan(ctx context.Context, s *state.ConversationState, logger *slog.Logger) (bool, string) {
	var out planOutput
	err := g.invokeNode(ctx, NodePlanner, s, genieagent.PlannerPrompt, "", planSchema, &out)
	if err != nil {
		logger.Error("planner failed, using empty plan", "node", NodePlanner, "error", err)
		s.AppendPlan(nil)
		return true, err.Error()
	}

	subtasks := make([]string, 0, len(out.Subtasks))
	for _, t := range out.Subtasks {
		if t = strings.TrimSpace(t); t != "" {
			subtasks = append(subtasks, t)
		}
	}
	if len(subtasks) > g.cfg.MaxSubtasks {
		logger.Warn("truncating plan", "subtasks", len(subtasks), "max", g.cfg.MaxSubtasks)
		subtasks = subtasks[:g.cfg.MaxSubtasks]
	}
	p := s.AppendPlan(subtasks)
	logger.Info("plan created", "plan_id", p.PlanID, "subtasks", len(subtasks))
	return false, ""
}

// execute runs every subtask of the latest plan. Subtasks may run in
// parallel but tool calls are appended in subtask order.
func (g *Graph) execute(ctx context.Context, s *state.ConversationState, em *emitter, logger *slog.Logger) {
	plan := s.CurrentPlan()
	if plan == nil {
		p := s.AppendPlan(nil)
		plan = &p
	}
	planID := plan.PlanID
	subtasks := append([]string(nil), plan.Subtasks...)

	// Prompt rendering reads the state, so snapshot it before fanning out.
	snapshot := s.Clone()
	results := make([]state.ToolCall, len(subtasks))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Parallelism)
	for i, task := range subtasks {
		eg.Go(func() error {
			results[i] = g.runSubtask(egCtx, snapshot, planID, task, em, logger)
			return nil
		})
	}
	_ = eg.Wait()

	s.ToolCalls = append(s.ToolCalls, results...)
	s.AppendAgent(summarize(subtasks, results), state.Metadata{"plan_id": planID}.WithNode(string(NodeExecutor)))
}

func (g *Graph) runSubtask(ctx context.Context, s *state.ConversationState, planID, task string, em *emitter, logger *slog.Logger) state.ToolCall {
	start := time.Now()
	var sel toolSelection
	err := g.invokeNode(ctx, NodeExecutor, s, genieagent.ExecutorPrompt, task, toolSelectionSchema, &sel)
	if err != nil {
		tc := state.NewToolCall(planID, task, "", nil)
		tc.Fail(fmt.Sprintf("%s: %v", selectionFailureText, err))
		logger.Error("tool selection failed", "node", NodeExecutor, "subtask", task, "error", err)
		em.toolCall(ToolCallEvent{PlanID: planID, Subtask: task, ToolID: tc.ToolID, Failed: true, Error: err.Error(), Duration: time.Since(start)})
		return tc
	}

	tc := state.NewToolCall(planID, task, sel.Tool, sel.Parameters)
	callCtx, cancel := g.callContext(ctx)
	result, err := g.registry.Invoke(callCtx, sel.Tool, sel.Parameters)
	cancel()
	if err != nil {
		tc.Fail(toolFailureReason(sel.Tool, err))
		logger.Warn("tool call failed", "node", NodeExecutor, "tool", sel.Tool, "subtask", task, "error", err)
	} else {
		tc.Succeed(result)
	}
	em.toolCall(ToolCallEvent{
		PlanID:   planID,
		Subtask:  task,
		ToolName: sel.Tool,
		ToolID:   tc.ToolID,
		Failed:   tc.Failed,
		Error:    tc.FailureReason(),
		Duration: time.Since(start),
	})
	return tc
}

func toolFailureReason(tool string, err error) string {
	switch {
	case errors.Is(err, agent.ErrToolNotFound):
		return fmt.Sprintf("tool %s not found", tool)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("tool %s timed out", tool)
	}
	return err.Error()
}

type promptFunc func(genieagent.PromptData) (string, error)

func (g *Graph) invokeNode(ctx context.Context, node Node, s *state.ConversationState, prompt promptFunc, task string, sch *llm.Schema, out any) error {
	system, err := prompt(genieagent.PromptData{
		Now:         g.cfg.Now(),
		Tools:       g.registry.List(),
		Task:        task,
		MaxSubtasks: g.cfg.MaxSubtasks,
	})
	if err != nil {
		return err
	}
	messages := history(s)
	if task != "" {
		messages = []*aisdk.Message{{Role: aisdk.RoleUser, Content: task}}
	}

	callCtx, cancel := g.callContext(ctx)
	defer cancel()
	return g.invoker.Invoke(callCtx, llm.Request{
		Node:     string(node),
		System:   system,
		Messages: messages,
		Schema:   sch,
	}, out)
}

// summarize renders the executor's closing message.
func summarize(subtasks []string, calls []state.ToolCall) string {
	if len(subtasks) == 0 {
		return NoPlanResponse
	}
	var b strings.Builder
	failed := 0
	for _, tc := range calls {
		if tc.Failed {
			failed++
		}
	}
	fmt.Fprintf(&b, "Research finished: %d of %d subtasks completed.", len(calls)-failed, len(calls))
	for i, tc := range calls {
		b.WriteString("\n")
		if tc.Failed {
			fmt.Fprintf(&b, "%d. %s [failed: %s]", i+1, subtasks[i], tc.FailureReason())
			continue
		}
		fmt.Fprintf(&b, "%d. %s [%s]", i+1, subtasks[i], tc.Tool)
	}
	return b.String()
}
