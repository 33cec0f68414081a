package conversation

import "fmt"

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one piece of a turn's content: free text or a structured tool
// invocation emitted by the model. Exactly one field is set.
type Part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Turn is one step of a dialogue: who spoke and what they said.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// TextTurn builds a single-text turn.
func TextTurn(role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}}
}

// seedHistory is the fixed preamble every new session starts from. Chat
// history only admits user/model roles, so the system instruction rides in a
// user turn, answered by the canned greeting.
func seedHistory() []Turn {
	return []Turn{
		TextTurn(RoleUser, fmt.Sprintf("System: %s", systemPrompt)),
		TextTurn(RoleModel, greetingText),
	}
}
