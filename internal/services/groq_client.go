package services

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const groqService = "groq"

// GroqGenerator talks to an OpenAI-compatible chat completions endpoint.
type GroqGenerator struct {
	baseURL string
	apiKey  string
	opts    GeneratorOptions
	hc      *http.Client
}

func NewGroqGenerator(baseURL, apiKey string, opts GeneratorOptions) *GroqGenerator {
	return &GroqGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		opts:    opts,
		hc:      &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *GroqGenerator) Name() string { return groqService }

func (g *GroqGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	}
	if g.opts.System != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: g.opts.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: prompt})

	var res chatResponse
	headers := map[string]string{"Authorization": "Bearer " + g.apiKey}
	if err := doJSON(ctx, g.hc, groqService, http.MethodPost, g.baseURL+"/chat/completions", headers, req, &res); err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fatalErr(groqService, errEmptyCompletion)
	}
	return res.Choices[0].Message.Content, nil
}
