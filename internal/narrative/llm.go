package narrative

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = "You are a commercial real estate appraiser writing USPAP-style report prose. " +
	"Write in measured, third-person professional language. Never invent figures; use only the " +
	"values provided in the prompt. Respond with plain prose only, no markdown headings."

type failureClass int

const (
	failureNone failureClass = iota
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

// LLMCaller generates narrative prose from a prompt. The production
// implementation is AnthropicCaller; tests substitute a stub.
type LLMCaller interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type AnthropicCaller struct {
	messages AnthropicMessager
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	return &AnthropicCaller{messages: newAnthropicClient(apiKey)}, nil
}

func (a *AnthropicCaller) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.ModelClaudeSonnet4_20250514,
		MaxTokens:   2048,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

func classifyTransportError(err error) failureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}
