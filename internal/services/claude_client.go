package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const claudeService = "claude"

type ClaudeGenerator struct {
	client anthropic.Client
	opts   GeneratorOptions
}

func NewClaudeGenerator(apiKey string, opts GeneratorOptions, reqOpts ...option.RequestOption) *ClaudeGenerator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	// Retries belong to RetryingGenerator.
	reqOpts = append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, reqOpts...)
	return &ClaudeGenerator{
		client: anthropic.NewClient(reqOpts...),
		opts:   opts,
	}
}

func (g *ClaudeGenerator) Name() string { return claudeService }

func (g *ClaudeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.opts.Model),
		MaxTokens: int64(g.opts.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(g.opts.Temperature)
	}
	if g.opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: g.opts.System}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyClaude(err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

func classifyClaude(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if k := kindForStatus(apiErr.StatusCode); k != KindUnknown {
			return &ServiceError{Kind: k, Op: claudeService, Err: err}
		}
	}
	return &ServiceError{Kind: Classify(err), Op: claudeService, Err: err}
}
