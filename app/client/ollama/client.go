package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moodloop/app/config"

	"github.com/samber/do"
	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
)

// Client talks to a local Ollama server through langchaingo. Every request
// is a single-turn prompt: no conversation history is forwarded.
type Client struct {
	llm     *lcollama.LLM
	timeout time.Duration
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	llm, err := lcollama.New(
		lcollama.WithServerURL(cfg.Ollama.BaseURL),
		lcollama.WithModel(cfg.Ollama.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &Client{
		llm:     llm,
		timeout: time.Duration(cfg.Ollama.TimeoutSeconds) * time.Second,
	}, nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("completion is empty")
	}

	return reply, nil
}
