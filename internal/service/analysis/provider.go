package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/avelardi/supportlens/internal/config"
)

// Completer produces a raw model completion for a prompt. Both providers
// hide behind it so the analysis logic never knows which model runs.
type Completer interface {
	Complete(ctx context.Context, promptText string) (string, error)
}

// NewCompleter builds the completer selected by configuration.
func NewCompleter(ctx context.Context, cfg config.AnalysisConfig) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		completer, err := newArkCompleter(ctx, cfg)
		if err != nil {
			// Return a bare nil, not a typed-nil wrapped in the interface,
			// so the degraded no-model path stays reachable.
			return nil, err
		}
		return completer, nil
	case config.ProviderOllama:
		completer, err := newOllamaCompleter(cfg)
		if err != nil {
			return nil, err
		}
		return completer, nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Provider)
	}
}

// arkCompleter runs prompts through an eino chain backed by an Ark model.
type arkCompleter struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

func newArkCompleter(ctx context.Context, cfg config.AnalysisConfig) (*arkCompleter, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile analysis chain: %w", err)
	}

	return &arkCompleter{chain: runnable}, nil
}

func (c *arkCompleter) Complete(ctx context.Context, promptText string) (string, error) {
	msg, err := c.chain.Invoke(ctx, map[string]any{"prompt": promptText})
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", errors.New("empty model response")
	}
	return msg.Content, nil
}

// ollamaCompleter talks to a local Ollama server, matching the reference
// deployment of the sentiment analyzer.
type ollamaCompleter struct {
	llm llms.Model
}

func newOllamaCompleter(cfg config.AnalysisConfig) (*ollamaCompleter, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &ollamaCompleter{llm: llm}, nil
}

func (c *ollamaCompleter) Complete(ctx context.Context, promptText string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c.llm, promptText)
}
