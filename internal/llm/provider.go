package llm

import (
	"context"
	"fmt"
	"strings"

	"eino_data_analyst/src/model"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"
)

// Supported chat model providers
const (
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderDeepSeek = "deepseek"
	ProviderArk      = "ark"
)

// NewChatModel creates the chat model configured by config.Provider
func NewChatModel(ctx context.Context, config model.LLMConfig) (einomodel.BaseChatModel, error) {
	maxTokens := config.MaxTokens
	temperature := float32(config.Temperature)

	switch strings.ToLower(config.Provider) {
	case ProviderOpenAI, "":
		m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating openai chat model: %w", err)
		}
		return m, nil
	case ProviderOllama:
		m, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: config.BaseURL,
			Model:   config.Model,
			Options: &api.Options{
				NumPredict:  maxTokens,
				Temperature: temperature,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ollama chat model: %w", err)
		}
		return m, nil
	case ProviderDeepSeek:
		m, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating deepseek chat model: %w", err)
		}
		return m, nil
	case ProviderArk:
		m, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ark chat model: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider '%s'", config.Provider)
	}
}
