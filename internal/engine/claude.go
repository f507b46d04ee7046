package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"rsstranslator/internal/observability/metrics"
	"rsstranslator/internal/resilience/circuitbreaker"
	"rsstranslator/internal/resilience/retry"
	"rsstranslator/internal/utils/text"
)

// Claude implements Engine using the Anthropic Messages API. Prompt
// instructions are folded into the first user message (no separate system
// prompt field), with {target_language} substituted into the configured
// prompt template.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	model         string
	maxTokens     int
	titlePrompt   string
	contentPrompt string
	summaryPrompt string
	maxSize       int
}

// NewClaude creates a Claude-backed Engine. maxSize is expressed in tokens.
func NewClaude(apiKey, model string, maxTokens, maxSize int, titlePromptEnv, contentPromptEnv, summaryPromptEnv string) *Claude {
	titlePrompt, contentPrompt, summaryPrompt := loadPromptsFromEnv(titlePromptEnv, contentPromptEnv, summaryPromptEnv)

	slog.Info("initialized claude engine",
		slog.String("model", model),
		slog.Int("max_size", maxSize))

	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
		model:          model,
		maxTokens:      maxTokens,
		titlePrompt:    titlePrompt,
		contentPrompt:  contentPrompt,
		summaryPrompt:  summaryPrompt,
		maxSize:        maxSize,
	}
}

func (c *Claude) MaxSize() int       { return c.maxSize }
func (c *Claude) MetersTokens() bool { return true }

// Translate sends two user messages for content calls (the entry title as
// context, then the text) and a single user message for title calls, with
// the prompt instructions folded into the first message.
func (c *Claude) Translate(ctx context.Context, text, targetLanguage, sourceLanguage string, kind TextKind, titleContext string) (Result, error) {
	instructions := c.contentPrompt
	if kind == KindTitle {
		instructions = c.titlePrompt
	}
	instructions = strings.ReplaceAll(instructions, "{target_language}", targetLanguage)

	var messages []anthropic.MessageParam
	if kind == KindContent {
		messages = []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf("%s\n\nTitle: %s", instructions, titleContext))),
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		}
	} else {
		messages = []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf("%s\n\n%s", instructions, text))),
		}
	}

	return c.call(ctx, "translate", messages)
}

func (c *Claude) Summarize(ctx context.Context, text, targetLanguage string) (Result, error) {
	instructions := strings.ReplaceAll(c.summaryPrompt, "{target_language}", targetLanguage)
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf("%s\n\n%s", instructions, text))),
	}
	return c.call(ctx, "summarize", messages)
}

func (c *Claude) call(ctx context.Context, operation string, messages []anthropic.MessageParam) (Result, error) {
	// Engine HTTP calls are bounded at 120 seconds.
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	var result Result
	start := time.Now()

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doCall(ctx, operation, messages)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("operation", operation),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(Result)
		return nil
	})

	metrics.RecordOperationDuration(metrics.EngineCallDuration, []string{"claude", operation}, start)

	if retryErr != nil {
		metrics.EngineCallsTotal.WithLabelValues("claude", operation, "error").Inc()
		return Result{}, fmt.Errorf("claude %s failed after retries: %w", operation, retryErr)
	}

	metrics.EngineCallsTotal.WithLabelValues("claude", operation, "ok").Inc()
	return result, nil
}

func (c *Claude) doCall(ctx context.Context, operation string, messages []anthropic.MessageParam) (Result, error) {
	requestID := uuid.New().String()

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  messages,
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "claude call failed",
			slog.String("request_id", requestID),
			slog.String("operation", operation),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return Result{}, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		slog.InfoContext(ctx, "claude returned empty response",
			slog.String("request_id", requestID),
			slog.String("operation", operation))
		return Result{}, nil
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		slog.ErrorContext(ctx, "claude returned unexpected content type",
			slog.String("request_id", requestID),
			slog.String("operation", operation))
		return Result{}, fmt.Errorf("claude api returned unexpected response type")
	}

	return Result{
		Text:       textBlock.Text,
		Tokens:     message.Usage.OutputTokens + message.Usage.InputTokens,
		Characters: int64(text.CountRunes(textBlock.Text)),
	}, nil
}
