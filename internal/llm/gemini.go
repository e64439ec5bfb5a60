package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiClient streams from the Gemini API.
type GeminiClient struct {
	client *genai.Client
	now    func() time.Time
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{client: client, now: time.Now}, nil
}

// Stream implements Generator.
func (g *GeminiClient) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(g.now()), genai.RoleUser),
	}
	for resp, err := range g.client.Models.GenerateContentStream(ctx, req.Model, genai.Text(UserContent(req.Input)), config) {
		if err != nil {
			return classifyGeminiError(err)
		}
		if text := resp.Text(); text != "" {
			onChunk(text)
		}
	}
	return nil
}

func classifyGeminiError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}
	if code == 429 || code >= 500 {
		return &RetryableError{StatusCode: code, Message: err.Error()}
	}
	return fmt.Errorf("gemini: %w", err)
}
