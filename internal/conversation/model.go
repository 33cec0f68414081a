package conversation

import "context"

// TurnKind tags the two shapes a model turn can resolve to.
type TurnKind string

const (
	TurnText     TurnKind = "text"
	TurnToolCall TurnKind = "tool_call"
)

// TurnResult is the interpreted outcome of one model turn: either final text
// for the user or a tool invocation to route.
type TurnResult struct {
	Kind    TurnKind
	Content string
	Name    string
	Args    map[string]any
}

// ModelReply is a provider-agnostic view of a model response: the candidates
// with their ordered content parts, plus the provider's aggregate text.
type ModelReply struct {
	Candidates []ReplyCandidate
	Text       string
}

// ReplyCandidate is one candidate completion.
type ReplyCandidate struct {
	Parts []Part
}

// ModelSession is one live multi-turn chat with the model. Implementations
// keep the running history and return it after every successful turn.
type ModelSession interface {
	// Send submits a user text and returns the model's reply. The returned
	// history includes both the sent turn and the model's answer.
	Send(ctx context.Context, text string) (*ModelReply, []Turn, error)
}

// ModelClient opens tool-calling chat sessions, optionally resuming from a
// persisted history.
type ModelClient interface {
	NewSession(history []Turn) ModelSession
}
