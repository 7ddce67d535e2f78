package enhance

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"talespin/internal/game"
	"talespin/internal/telemetry"
)

const (
	DefaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 300
)

// Generator produces replacement text for one node.
type Generator interface {
	Generate(ctx context.Context, req game.EnhancementRequest) (string, error)
}

// OpenAIConfig configures an OpenAIGenerator.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Tracer    trace.Tracer
	Logger    *log.Logger

	// Extra client options, e.g. option.WithBaseURL in tests.
	Options []option.RequestOption
}

// OpenAIGenerator calls the chat completions API.
type OpenAIGenerator struct {
	client    openai.Client
	model     string
	maxTokens int
	tracer    trace.Tracer
	log       *log.Logger
}

func NewOpenAI(cfg OpenAIConfig) *OpenAIGenerator {
	opts := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)
	g := &OpenAIGenerator{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		tracer:    cfg.Tracer,
		log:       cfg.Logger,
	}
	if strings.TrimSpace(g.model) == "" {
		g.model = DefaultModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = defaultMaxTokens
	}
	if g.tracer == nil {
		g.tracer = noop.NewTracerProvider().Tracer("enhance")
	}
	return g
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req game.EnhancementRequest) (string, error) {
	ctx, span := g.tracer.Start(ctx, "enhance.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.GenAIAttributes("openai", g.model, g.maxTokens)...),
	)
	defer span.End()
	span.SetAttributes(
		attribute.String("story.node_id", req.NodeID),
		attribute.String("story.location", req.Location),
	)

	system, user := Prompt(req)
	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxCompletionTokens: openai.Int(int64(g.maxTokens)),
	})
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "llm_completion_error"))
		span.RecordError(err)
		g.logf("enhance %s: %v", req.NodeID, err)
		return "", fmt.Errorf("text completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no completion choices returned")
		span.RecordError(err)
		return "", err
	}
	text := cleanReply(resp.Choices[0].Message.Content)
	if text == "" {
		err := fmt.Errorf("empty completion for node %s", req.NodeID)
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int64("response_time_ms", time.Since(start).Milliseconds()),
	)
	g.logf("enhance %s: %d chars in %v", req.NodeID, len(text), time.Since(start))
	return text, nil
}

func (g *OpenAIGenerator) logf(format string, args ...any) {
	if g.log != nil {
		g.log.Printf(format, args...)
	}
}
