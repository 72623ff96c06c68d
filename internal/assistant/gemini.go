// Package assistant wraps the generative-text backend used by the chat assistant.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"google.golang.org/genai"
)

// ErrEmptyReply is returned when the model produced no text.
var ErrEmptyReply = errors.New("assistant returned an empty reply")

// Generator produces a reply for prompt given the prior conversation.
type Generator interface {
	Generate(ctx context.Context, system string, history []models.ChatTurn, prompt string) (string, error)
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Generator = (*Gemini)(nil)

// NewGemini creates a client for apiKey. It performs no network call.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant.NewGemini: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate sends the history followed by prompt and returns the model's text.
func (g *Gemini) Generate(ctx context.Context, system string, history []models.ChatTurn, prompt string) (string, error) {
	contents := Contents(history, prompt)

	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("assistant.Generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// Contents maps the conversation onto Gemini roles. Assistant turns become
// model turns.
func Contents(history []models.ChatTurn, prompt string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == models.ChatRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
}
