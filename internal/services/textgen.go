package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"equityscope/backend-go/internal/config"
)

var errEmptyCompletion = errors.New("empty completion")

// TextGenerator turns a prompt into free text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// GeneratorOptions are shared by every backend.
type GeneratorOptions struct {
	System      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewTextGenerator builds the backend selected by cfg.LLMProvider, wrapped
// with the shared retry policy.
func NewTextGenerator(ctx context.Context, cfg config.Config, system string, logger arbor.ILogger) (TextGenerator, error) {
	opts := GeneratorOptions{
		System:      system,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	}

	var (
		gen TextGenerator
		err error
	)
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		opts.Model = cfg.GroqModel
		gen = NewGroqGenerator(cfg.GroqBaseURL, cfg.GroqAPIKey, opts)
	case config.ProviderClaude:
		opts.Model = cfg.AnthropicModel
		gen = NewClaudeGenerator(cfg.AnthropicAPIKey, opts)
	case config.ProviderGemini:
		opts.Model = cfg.GeminiModel
		gen, err = NewGeminiGenerator(ctx, cfg.GeminiAPIKey, opts)
	default:
		err = fmt.Errorf("unknown text generation provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("provider", gen.Name()).
		Str("model", opts.Model).
		Int("max_tokens", opts.MaxTokens).
		Int("max_retries", cfg.MaxRetries).
		Msg("Text generation backend initialized")

	return NewRetryingGenerator(gen, NewRetryPolicy(cfg), logger), nil
}

// RetryingGenerator applies a RetryPolicy around another generator.
type RetryingGenerator struct {
	next   TextGenerator
	policy RetryPolicy
	logger arbor.ILogger
}

func NewRetryingGenerator(next TextGenerator, policy RetryPolicy, logger arbor.ILogger) *RetryingGenerator {
	return &RetryingGenerator{next: next, policy: policy, logger: logger}
}

func (g *RetryingGenerator) Name() string {
	return g.next.Name()
}

func (g *RetryingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var (
		out      string
		attempts int
	)
	start := time.Now()
	err := g.policy.Do(ctx, func(c context.Context) error {
		attempts++
		text, err := g.next.Generate(c, prompt)
		if err != nil {
			if IsTransient(err) {
				g.logger.Warn().
					Err(err).
					Str("provider", g.next.Name()).
					Int("attempt", attempts).
					Msg("Text generation attempt failed")
			}
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fatalErr(g.next.Name(), errEmptyCompletion)
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	g.logger.Debug().
		Str("provider", g.next.Name()).
		Int("attempts", attempts).
		Int("response_length", len(out)).
		Dur("duration", time.Since(start)).
		Msg("Text generation completed")
	return out, nil
}
