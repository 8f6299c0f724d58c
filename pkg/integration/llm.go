package integration

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultLLMModel = "gpt-4o-mini"

// LLM sends a resolved prompt to an OpenAI-compatible endpoint. The API
// key comes from the node's credential; a custom endpoint in the config
// lets the same node talk to self-hosted gateways.
type LLM struct {
	// model overrides client construction, used by tests.
	model llms.Model
}

func NewLLM() *LLM { return &LLM{} }

func NewLLMWithModel(model llms.Model) *LLM { return &LLM{model: model} }

func (l *LLM) Execute(ctx context.Context, config map[string]any, credentials map[string]string) (map[string]any, error) {
	prompt := configString(config, "prompt")

	modelName := configString(config, "model")
	if modelName == "" {
		modelName = defaultLLMModel
	}

	model := l.model
	if model == nil {
		apiKey := credentials["apiKey"]
		if apiKey == "" {
			return nil, fmt.Errorf("llm: no apiKey credential")
		}
		opts := []openai.Option{
			openai.WithToken(apiKey),
			openai.WithModel(modelName),
		}
		if endpoint := configString(config, "endpoint"); endpoint != "" {
			opts = append(opts, openai.WithBaseURL(endpoint))
		}
		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("llm: client: %w", err)
		}
		model = client
	}

	var callOpts []llms.CallOption
	if raw := configString(config, "temperature"); raw != "" {
		if temp, err := strconv.ParseFloat(raw, 64); err == nil {
			callOpts = append(callOpts, llms.WithTemperature(temp))
		}
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, model, prompt, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("llm: generate: %w", err)
	}

	return map[string]any{
		"status":   "SUCCESS",
		"model":    modelName,
		"prompt":   prompt,
		"response": completion,
	}, nil
}
