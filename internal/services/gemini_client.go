package services

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const geminiService = "gemini"

type GeminiGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGeminiGenerator(ctx context.Context, apiKey string, opts GeneratorOptions) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: opts.Model, config: geminiConfig(opts)}, nil
}

func geminiConfig(opts GeneratorOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(opts.System)},
		}
	}
	return cfg
}

func (g *GeminiGenerator) Name() string { return geminiService }

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}, g.config)
	if err != nil {
		return "", classifyGemini(err)
	}
	return resp.Text(), nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if k := kindForStatus(apiErr.Code); k != KindUnknown {
			return &ServiceError{Kind: k, Op: geminiService, Err: err}
		}
	}
	return &ServiceError{Kind: Classify(err), Op: geminiService, Err: err}
}
