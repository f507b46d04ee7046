package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"rsstranslator/internal/observability/metrics"
	"rsstranslator/internal/resilience/circuitbreaker"
	"rsstranslator/internal/resilience/retry"
	"rsstranslator/internal/utils/text"
)

// OpenAI implements Engine using the chat-completions API. It meters usage
// in tokens (res.Usage.TotalTokens), the OpenAI-native unit, so MaxSize is
// expressed in tokens and callers should size chunk groups accordingly.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	model            string
	maxTokens        int
	temperature      float32
	topP             float32
	frequencyPenalty float32
	presencePenalty  float32
	titlePrompt      string
	contentPrompt    string
	summaryPrompt    string
	maxSize          int
}

// NewOpenAI creates an OpenAI-backed Engine. baseURL may be empty to use
// the default OpenAI API; a non-empty value lets callers point at any
// OpenAI-compatible third-party endpoint.
func NewOpenAI(apiKey, baseURL, model string, maxTokens, maxSize int, titlePromptEnv, contentPromptEnv, summaryPromptEnv string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	titlePrompt, contentPrompt, summaryPrompt := loadPromptsFromEnv(titlePromptEnv, contentPromptEnv, summaryPromptEnv)

	slog.Info("initialized openai engine",
		slog.String("model", model),
		slog.Int("max_size", maxSize))

	return &OpenAI{
		client:           openai.NewClientWithConfig(cfg),
		circuitBreaker:   circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:      retry.AIAPIConfig(),
		model:            model,
		maxTokens:        maxTokens,
		temperature:      0.2,
		topP:             0.2,
		frequencyPenalty: 0,
		presencePenalty:  0,
		titlePrompt:      titlePrompt,
		contentPrompt:    contentPrompt,
		summaryPrompt:    summaryPrompt,
		maxSize:          maxSize,
	}
}

func (o *OpenAI) MaxSize() int       { return o.maxSize }
func (o *OpenAI) MetersTokens() bool { return true }

// Translate sends the system prompt plus two user messages for content
// calls (the entry title as context, then the text, so paragraph-level
// calls keep their surrounding topic) and a single user message for title
// calls.
func (o *OpenAI) Translate(ctx context.Context, text, targetLanguage, sourceLanguage string, kind TextKind, titleContext string) (Result, error) {
	systemPrompt := o.contentPrompt
	if kind == KindTitle {
		systemPrompt = o.titlePrompt
	}
	systemPrompt = strings.ReplaceAll(systemPrompt, "{target_language}", targetLanguage)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if kind == KindContent {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "Title: " + titleContext},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "Text: " + text},
		)
	} else {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text},
		)
	}

	return o.call(ctx, "translate", messages)
}

// Summarize sends the summary prompt followed by one user message with the
// text to summarize.
func (o *OpenAI) Summarize(ctx context.Context, text, targetLanguage string) (Result, error) {
	systemPrompt := strings.ReplaceAll(o.summaryPrompt, "{target_language}", targetLanguage)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: text},
	}

	return o.call(ctx, "summarize", messages)
}

func (o *OpenAI) call(ctx context.Context, operation string, messages []openai.ChatCompletionMessage) (Result, error) {
	// Engine HTTP calls are bounded at 120 seconds.
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	var result Result
	start := time.Now()

	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doCall(ctx, operation, messages)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("operation", operation),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(Result)
		return nil
	})

	metrics.RecordOperationDuration(metrics.EngineCallDuration, []string{"openai", operation}, start)

	if retryErr != nil {
		metrics.EngineCallsTotal.WithLabelValues("openai", operation, "error").Inc()
		return Result{}, fmt.Errorf("openai %s failed after retries: %w", operation, retryErr)
	}

	metrics.EngineCallsTotal.WithLabelValues("openai", operation, "ok").Inc()
	return result, nil
}

func (o *OpenAI) doCall(ctx context.Context, operation string, messages []openai.ChatCompletionMessage) (Result, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            o.model,
		Messages:         messages,
		MaxTokens:        o.maxTokens,
		Temperature:      o.temperature,
		TopP:             o.topP,
		FrequencyPenalty: o.frequencyPenalty,
		PresencePenalty:  o.presencePenalty,
	})
	if err != nil {
		return Result{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.WarnContext(ctx, "openai returned no choices", slog.String("operation", operation))
		return Result{}, nil
	}

	content := resp.Choices[0].Message.Content
	var tokens int64
	if resp.Usage.TotalTokens > 0 {
		tokens = int64(resp.Usage.TotalTokens)
	}

	if content == "" {
		slog.InfoContext(ctx, "openai returned empty completion", slog.String("operation", operation))
	}

	return Result{
		Text:       content,
		Tokens:     tokens,
		Characters: int64(text.CountRunes(content)),
	}, nil
}
