package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModelClient implements ModelClient using Google's Gemini API with
// function-calling tools enabled.
type GeminiModelClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiModelClient creates a new Gemini model client.
func NewGeminiModelClient(ctx context.Context, apiKey, modelID string) (*GeminiModelClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to create gemini client: %w", err)
	}

	return &GeminiModelClient{
		client:  client,
		modelID: modelID,
	}, nil
}

// NewSession opens a chat session seeded with the provided history.
func (c *GeminiModelClient) NewSession(history []Turn) ModelSession {
	model := c.client.GenerativeModel(c.modelID)
	model.SetTemperature(0.7)
	model.SetTopP(0.95)
	model.SetTopK(40)
	model.SetMaxOutputTokens(1024)
	model.Tools = toolDeclarations()
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode: genai.FunctionCallingAuto,
		},
	}

	cs := model.StartChat()
	for _, turn := range history {
		if content := toGenaiContent(turn); content != nil {
			cs.History = append(cs.History, content)
		}
	}

	session := &geminiSession{chat: cs}
	session.history = append(session.history, history...)
	return session
}

// Close releases resources held by the Gemini client.
func (c *GeminiModelClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

type geminiSession struct {
	chat    *genai.ChatSession
	history []Turn
}

func (s *geminiSession) Send(ctx context.Context, text string) (*ModelReply, []Turn, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return nil, nil, fmt.Errorf("conversation: gemini turn failed: %w", err)
	}

	reply := &ModelReply{}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		reply.Candidates = append(reply.Candidates, ReplyCandidate{
			Parts: fromGenaiParts(candidate.Content.Parts),
		})
	}
	if len(reply.Candidates) > 0 {
		reply.Text = joinTextParts(reply.Candidates[0].Parts)
	}

	s.history = append(s.history, TextTurn(RoleUser, text))
	if len(reply.Candidates) > 0 {
		s.history = append(s.history, Turn{Role: RoleModel, Parts: reply.Candidates[0].Parts})
	}

	return reply, s.history, nil
}

func toGenaiContent(turn Turn) *genai.Content {
	parts := make([]genai.Part, 0, len(turn.Parts))
	for _, part := range turn.Parts {
		switch {
		case part.FunctionCall != nil:
			parts = append(parts, genai.FunctionCall{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		case part.Text != "":
			parts = append(parts, genai.Text(part.Text))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Role: turn.Role, Parts: parts}
}

func fromGenaiParts(parts []genai.Part) []Part {
	converted := make([]Part, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case genai.Text:
			converted = append(converted, Part{Text: string(p)})
		case genai.FunctionCall:
			converted = append(converted, Part{FunctionCall: &FunctionCall{
				Name: p.Name,
				Args: p.Args,
			}})
		}
	}
	return converted
}

func joinTextParts(parts []Part) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

// toolDeclarations is the fixed contract with the model: exactly the
// operations the router knows how to dispatch.
func toolDeclarations() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        FuncGetDoctorList,
				Description: "Get a list of doctors for a specific specialty",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"specialty": {
							Type:        genai.TypeString,
							Description: "The medical specialty to find doctors for",
						},
					},
					Required: []string{"specialty"},
				},
			},
			{
				Name:        FuncGetDoctorAvailability,
				Description: "Get available time slots for a doctor on a specific date",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"doctor_id": {
							Type:        genai.TypeString,
							Description: "The ID of the selected doctor",
						},
						"date": {
							Type:        genai.TypeString,
							Description: "The date for checking availability (YYYY-MM-DD)",
						},
					},
					Required: []string{"doctor_id", "date"},
				},
			},
			{
				Name:        FuncCreateAppointment,
				Description: "Create an appointment with the selected details",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"doctor_id": {
							Type:        genai.TypeString,
							Description: "The ID of the selected doctor",
						},
						"date": {
							Type:        genai.TypeString,
							Description: "The date for the appointment (YYYY-MM-DD)",
						},
						"time": {
							Type:        genai.TypeString,
							Description: "The time slot for the appointment (HH:MM)",
						},
						"symptoms": {
							Type:        genai.TypeString,
							Description: "The medical symptoms described by the user",
						},
						"reason": {
							Type:        genai.TypeString,
							Description: "The reason for the appointment",
						},
					},
					Required: []string{"doctor_id", "date", "time"},
				},
			},
		},
	}}
}
