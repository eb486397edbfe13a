// Package gemini provides a text generator backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/mfigueroa/gastobot/agent/contract"
)

type Config struct {
	APIKey      string        `split_words:"true" required:"true"`
	Model       string        `split_words:"true" default:"gemini-2.0-flash"`
	Temperature float64       `split_words:"true" default:"0.1"`
	Timeout     time.Duration `split_words:"true" default:"30s"`
}

// Generator implements contract.Generator. The system instruction rides in
// front of the user prompt; responses are requested as JSON.
type Generator struct {
	client *genai.Client
	cfg    Config
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Generator{client: client, cfg: cfg}, nil
}

func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	temp := float32(g.cfg.Temperature)
	conf := &genai.GenerateContentConfig{
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(user), conf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contract.ErrUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response", contract.ErrUnavailable)
	}
	return text, nil
}

var _ contract.Generator = (*Generator)(nil)
