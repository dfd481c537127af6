package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/metrics"
	"github.com/kailas-cloud/docqa/internal/tracing"
)

// DefaultSystemPrompt frames the cited context for the model.
const DefaultSystemPrompt = "You are a documentation assistant. Answer the user's question using only " +
	"the documentation sections below and cite the section and page you used. If the sections do not " +
	"contain the answer, say that you don't know.\n\nDocumentation:\n"

// GeneratorConfig holds chat completion settings.
type GeneratorConfig struct {
	Config
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

// Generator answers conversations with an OpenAI-compatible chat model.
type Generator struct {
	client       *openai.Client
	model        string
	temperature  float32
	maxTokens    int
	systemPrompt string
	provider     string
	logger       *zap.Logger
}

// NewGenerator creates a chat completion generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		client:       newClient(cfg.APIKey, cfg.BaseURL),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: prompt,
		provider:     cfg.Provider,
		logger:       log,
	}
}

// Generate implements domain.Generator. The context text is appended to the
// system prompt; user and assistant turns are forwarded in order.
func (g *Generator) Generate(ctx context.Context, contextText string, turns []chat.Turn) (string, error) {
	ctx, span := tracing.StartClient(ctx, "generation.generate", g.provider, g.model)
	defer span.End()

	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: g.systemPrompt + contextText,
	})
	for _, t := range turns {
		role, ok := roles[t.Role]
		if !ok || strings.TrimSpace(t.Content) == "" {
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    msgs,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		tracing.RecordError(span, err)
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", parseAPIError("generation", err, domain.ErrGenerationProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGenerationProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").
		Add(float64(resp.Usage.CompletionTokens))

	g.logger.Debug("Completion generated",
		zap.String("model", g.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("duration", duration),
	)
	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

var roles = map[chat.Role]string{
	chat.RoleUser:      openai.ChatMessageRoleUser,
	chat.RoleAssistant: openai.ChatMessageRoleAssistant,
}
