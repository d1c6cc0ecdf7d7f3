// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

// Package llm adapts the external text-generation services. The gateway
// accepts role-tagged turns with optional inline images and retries only
// rate-limit failures, with capped exponential backoff.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/tailwise/tailwise/internal/config"
)

// Role tags who authored a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of input to the completion service. Images are base64
// JPEG payloads and are only valid on non-assistant turns.
type Message struct {
	Role    Role
	Content string
	Images  []string
}

// Effort is the qualitative reasoning-effort hint passed to the provider.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Provider selects which model backend serves a completion.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Options tune one completion call. Zero values fall back to the gateway
// configuration.
type Options struct {
	MaxOutputTokens int
	Effort          Effort
	MaxAttempts     int
	Provider        Provider
}

// User-facing failure messages. Error content is absorbed into the chat
// transcript, so these read as assistant turns.
const (
	MsgHighDemand     = "We're experiencing high demand. Please try again in a few moments."
	MsgGenericFailure = "Sorry, we encountered an error processing your request."
)

// Error carries a user-facing message while preserving the provider failure
// for logging.
type Error struct {
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Gateway is a thin adapter over the completion providers.
type Gateway struct {
	oai   *openai.Client
	genAI *genai.Client

	provider        Provider
	model           string
	geminiModel     string
	maxAttempts     int
	maxOutputTokens int

	// retryInterval is the first backoff wait; each retry doubles it.
	retryInterval time.Duration
}

// NewGateway returns a gateway over the given provider clients.
func NewGateway(oai *openai.Client, genAI *genai.Client, conf config.Chat) *Gateway {
	g := &Gateway{
		oai:             oai,
		genAI:           genAI,
		provider:        Provider(conf.Provider),
		model:           conf.Model,
		geminiModel:     conf.GeminiModel,
		maxAttempts:     conf.MaxAttempts,
		maxOutputTokens: conf.MaxOutputTokens,
		retryInterval:   2 * time.Second,
	}
	if g.provider == "" {
		g.provider = ProviderOpenAI
	}
	if g.maxAttempts == 0 {
		g.maxAttempts = 3
	}
	if g.maxOutputTokens == 0 {
		g.maxOutputTokens = 1000
	}
	return g
}

// Complete requests one assistant turn for the given messages. Rate-limit
// failures are retried up to the attempt bound; any other failure is
// returned immediately as an *Error with a generic user-facing message.
func (g *Gateway) Complete(ctx context.Context, msgs []Message, opts Options) (string, error) {
	for _, m := range msgs {
		if m.Role == RoleAssistant && len(m.Images) > 0 {
			return "", errors.New("llm: assistant turns cannot carry images")
		}
	}

	attempts := opts.MaxAttempts
	if attempts == 0 {
		attempts = g.maxAttempts
	}

	operation := func() (string, error) {
		text, err := g.completeOnce(ctx, msgs, opts)
		if err == nil {
			return text, nil
		}
		if isRateLimited(err) {
			return "", err
		}
		return "", backoff.Permanent(&Error{Message: MsgGenericFailure, cause: err})
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.retryInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	text, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(uint(attempts)))
	if err != nil {
		var lerr *Error
		if errors.As(err, &lerr) {
			return "", lerr
		}
		return "", &Error{Message: MsgHighDemand, cause: err}
	}
	return text, nil
}

func (g *Gateway) completeOnce(ctx context.Context, msgs []Message, opts Options) (string, error) {
	provider := opts.Provider
	if provider == "" {
		provider = g.provider
	}
	if provider == ProviderGemini {
		return g.completeGemini(ctx, msgs, opts)
	}
	return g.completeOpenAI(ctx, msgs, opts)
}

func (g *Gateway) completeOpenAI(ctx context.Context, msgs []Message, opts Options) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(g.model),
		MaxCompletionTokens: openai.Int(int64(g.tokens(opts))),
		ReasoningEffort:     reasoningEffort(opts.Effort),
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleUser:
			if len(m.Images) == 0 {
				params.Messages = append(params.Messages, openai.UserMessage(m.Content))
				continue
			}
			parts := []openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(m.Content),
			}
			for _, img := range m.Images {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: "data:image/jpeg;base64," + img,
				}))
			}
			params.Messages = append(params.Messages, openai.UserMessage(parts))
		}
	}

	resp, err := g.oai.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *Gateway) completeGemini(ctx context.Context, msgs []Message, opts Options) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.tokens(opts)),
	}

	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			cfg.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
		case RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		case RoleUser:
			parts := []*genai.Part{{Text: m.Content}}
			for _, img := range m.Images {
				data, err := base64.StdEncoding.DecodeString(img)
				if err != nil {
					return "", fmt.Errorf("llm: decoding inline image: %w", err)
				}
				parts = append(parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: data},
				})
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		}
	}

	resp, err := g.genAI.Models.GenerateContent(ctx, g.geminiModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("llm: gemini completion: %w", err)
	}
	return resp.Text(), nil
}

func (g *Gateway) tokens(opts Options) int {
	if opts.MaxOutputTokens > 0 {
		return opts.MaxOutputTokens
	}
	return g.maxOutputTokens
}

func reasoningEffort(e Effort) openai.ReasoningEffort {
	switch e {
	case EffortMedium:
		return openai.ReasoningEffortMedium
	case EffortHigh:
		return openai.ReasoningEffortHigh
	default:
		return openai.ReasoningEffortLow
	}
}

func isRateLimited(err error) bool {
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode == http.StatusTooManyRequests
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusTooManyRequests
	}
	return false
}
