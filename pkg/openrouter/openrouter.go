// Package openrouter provides a text generator backed by any chat model
// reachable through the OpenRouter API.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mfigueroa/gastobot/agent/contract"
)

type Config struct {
	BaseURL            string        `split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `split_words:"true" required:"true"`
	Model              string        `split_words:"true" required:"true"`
	MaxCompletionToken int64         `split_words:"true" default:"2000"`
	Temperature        float64       `split_words:"true" default:"0.1"`
	Timeout            time.Duration `split_words:"true" default:"30s"`
	SiteURL            string        `split_words:"true"`
	SiteName           string        `split_words:"true"`
}

// Generator implements contract.Generator over chat completions. Responses
// are requested in JSON mode; the caller still validates the payload.
type Generator struct {
	client *openaisdk.Client
	cfg    Config
}

func New(cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openrouter: model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	client := openaisdk.NewClient(opts...)
	return &Generator{client: &client, cfg: cfg}, nil
}

func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	params := openaisdk.ChatCompletionNewParams{
		Model: g.cfg.Model,
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		Temperature: openaisdk.Float(g.cfg.Temperature),
		ResponseFormat: openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openaisdk.ResponseFormatJSONObjectParam{},
		},
	}
	if g.cfg.MaxCompletionToken > 0 {
		params.MaxCompletionTokens = openaisdk.Int(g.cfg.MaxCompletionToken)
	}

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", contract.ErrUnavailable)
	}
	return completion.Choices[0].Message.Content, nil
}

func mapError(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
		return fmt.Errorf("%w: %v", contract.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", contract.ErrUnavailable, err)
}

var _ contract.Generator = (*Generator)(nil)
