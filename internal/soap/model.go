package soap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.5-flash"

// Model sends one prompt to a generative model and returns its text.
type Model interface {
	Generate(ctx context.Context, jsonOut bool, parts ...genai.Part) (string, error)
}

// GeminiModel is the Gemini implementation of Model.
type GeminiModel struct {
	client  *genai.Client
	modelID string
}

func NewGeminiModel(ctx context.Context, apiKey, modelID string) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("soap: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("soap: failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client, modelID: modelID}, nil
}

// Generate runs a single-turn request. With jsonOut set the model is asked for
// an application/json response.
func (m *GeminiModel) Generate(ctx context.Context, jsonOut bool, parts ...genai.Part) (string, error) {
	model := m.client.GenerativeModel(m.modelID)
	model.SetTemperature(0.2)
	if jsonOut {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("soap: gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", ErrNoCandidates
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return strings.TrimSpace(text.String()), nil
}

func (m *GeminiModel) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
