package llm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"eino_data_analyst/internal/core"
	"eino_data_analyst/src/logger"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// Generator turns role instructions and context fields into text.
// Each role is an eino chain: ChatTemplate → ChatModel.
type Generator struct {
	chains map[core.Role]compose.Runnable[map[string]any, *schema.Message]
	log    zerolog.Logger
}

// NewGenerator compiles one chain per prompt role over the shared chat model
func NewGenerator(ctx context.Context, chatModel einomodel.BaseChatModel, prompts map[core.Role]Prompt) (*Generator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	roles := make([]string, 0, len(prompts))
	for role := range prompts {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	chains := make(map[core.Role]compose.Runnable[map[string]any, *schema.Message], len(prompts))
	for _, name := range roles {
		role := core.Role(name)
		p := prompts[role]
		template := prompt.FromMessages(schema.FString,
			schema.SystemMessage(p.System),
			schema.UserMessage(p.User),
		)

		chain, err := compose.NewChain[map[string]any, *schema.Message]().
			AppendChatTemplate(template).
			AppendChatModel(chatModel).
			Compile(ctx, compose.WithGraphName(name))
		if err != nil {
			return nil, fmt.Errorf("error creating %s chain: %w", name, err)
		}
		chains[role] = chain
	}

	return &Generator{chains: chains, log: logger.For("llm")}, nil
}

// Generate runs the chain of role with fields as template variables
func (g *Generator) Generate(ctx context.Context, role core.Role, fields map[string]any) (string, error) {
	chain, ok := g.chains[role]
	if !ok {
		return "", fmt.Errorf("no prompt configured for role '%s'", role)
	}

	start := time.Now()
	g.log.Debug().Str("role", string(role)).Msg("🧠 invoking chat model")

	msg, err := chain.Invoke(ctx, fields)
	if err != nil {
		g.log.Error().Err(err).Str("role", string(role)).Dur("duration", time.Since(start)).Msg("generation failed")
		return "", fmt.Errorf("%s generation failed: %w", role, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%s generation returned no message", role)
	}

	g.log.Info().
		Str("role", string(role)).
		Int("length", len(msg.Content)).
		Dur("duration", time.Since(start)).
		Msg("✅ generation completed")
	return msg.Content, nil
}
