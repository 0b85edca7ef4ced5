package state

// Action is the classifier's decision for the latest human message.
type Action string

const (
	ActionDirectAnswer        Action = "direct_answer"
	ActionResearchRequired    Action = "research_required"
	ActionClarificationNeeded Action = "clarification_needed"
	ActionOffTopic            Action = "off_topic"
)

// Actions lists every action the classifier may emit.
var Actions = []Action{
	ActionDirectAnswer,
	ActionResearchRequired,
	ActionClarificationNeeded,
	ActionOffTopic,
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Relevant derives the relevance flag recorded alongside an action.
func (a Action) Relevant() bool {
	return a == ActionDirectAnswer || a == ActionResearchRequired
}

const (
	metaAction   = "action"
	metaRelevant = "relevant"
	metaNode     = "node"
)

// Metadata is the open key-value map attached to a message.
type Metadata map[string]any

// ClassificationMetadata builds the metadata recorded on a classifier message.
func ClassificationMetadata(a Action) Metadata {
	return Metadata{
		metaAction:   string(a),
		metaRelevant: a.Relevant(),
		metaNode:     "classifier",
	}
}

// Action returns the recorded action, if any.
func (m Metadata) Action() (Action, bool) {
	if m == nil {
		return "", false
	}
	switch v := m[metaAction].(type) {
	case string:
		return Action(v), v != ""
	case Action:
		return v, v != ""
	}
	return "", false
}

// Relevant returns the recorded relevance flag, if any.
func (m Metadata) Relevant() (bool, bool) {
	if m == nil {
		return false, false
	}
	v, ok := m[metaRelevant].(bool)
	return v, ok
}

// Node returns the name of the node that produced the message.
func (m Metadata) Node() string {
	if m == nil {
		return ""
	}
	v, _ := m[metaNode].(string)
	return v
}

// WithNode returns a copy of m tagged with the producing node.
func (m Metadata) WithNode(node string) Metadata {
	out := m.Clone()
	if out == nil {
		out = Metadata{}
	}
	out[metaNode] = node
	return out
}

// Clone returns a shallow copy of m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
