// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/tailwise/tailwise/internal/config"
)

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"choices": [
		{
			"index": 0,
			"message": {"role": "assistant", "content": "Hello!"}
		}
	]
}`

// seqTransport replays one status code per request, repeating the last.
type seqTransport struct {
	mu       sync.Mutex
	statuses []int
	calls    int
}

func (s *seqTransport) RoundTrip(*http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	s.calls++

	status := s.statuses[idx]
	body := completionBody
	if status != http.StatusOK {
		body = `{"error": {"message": "upstream failure"}}`
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func (s *seqTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// geminiTransport replays one status code per request, repeating the last,
// and captures request paths and bodies.
type geminiTransport struct {
	mu       sync.Mutex
	statuses []int
	paths    []string
	bodies   []string
}

func (g *geminiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	idx := len(g.paths)
	g.paths = append(g.paths, req.URL.Path)
	g.bodies = append(g.bodies, string(body))

	if idx >= len(g.statuses) {
		idx = len(g.statuses) - 1
	}
	status := g.statuses[idx]
	respBody := `{"candidates": [{"content": {"role": "model", "parts": [{"text": "Bonjour!"}]}}]}`
	if status != http.StatusOK {
		respBody = fmt.Sprintf(`{"error": {"code": %d, "message": "upstream failure"}}`, status)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(respBody)),
	}, nil
}

func (g *geminiTransport) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.paths)
}

func (g *geminiTransport) path(i int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paths[i]
}

func (g *geminiTransport) body(i int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bodies[i]
}

func newGenAIClient(t *testing.T, tr *geminiTransport) *genai.Client {
	t.Helper()
	genAI, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     "test-key",
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: tr},
	})
	require.NoError(t, err)
	return genAI
}

func newGeminiGateway(t *testing.T, tr *geminiTransport, conf config.Chat) *Gateway {
	t.Helper()
	if conf.GeminiModel == "" {
		conf.GeminiModel = "gemini-test"
	}
	g := NewGateway(nil, newGenAIClient(t, tr), conf)
	g.retryInterval = time.Millisecond
	return g
}

func newTestGateway(tr *seqTransport, conf config.Chat) *Gateway {
	oai := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Transport: tr}),
	)
	if conf.Model == "" {
		conf.Model = "gpt-test"
	}
	g := NewGateway(&oai, nil, conf)
	g.retryInterval = time.Millisecond
	return g
}

func TestComplete_Success(t *testing.T) {
	tr := &seqTransport{statuses: []int{http.StatusOK}}
	g := newTestGateway(tr, config.Chat{})

	text, err := g.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", text)
	assert.Equal(t, 1, tr.callCount())
}

func TestComplete_RetriesRateLimit(t *testing.T) {
	tr := &seqTransport{statuses: []int{http.StatusTooManyRequests, http.StatusOK}}
	g := newTestGateway(tr, config.Chat{MaxAttempts: 3})

	text, err := g.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", text)
	assert.Equal(t, 2, tr.callCount())
}

func TestComplete_RateLimitExhaustion(t *testing.T) {
	tr := &seqTransport{statuses: []int{http.StatusTooManyRequests}}
	g := newTestGateway(tr, config.Chat{MaxAttempts: 3})

	_, err := g.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.Error(t, err)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, MsgHighDemand, lerr.Message)
	assert.Equal(t, 3, tr.callCount())
}

func TestComplete_OtherFailureIsPermanent(t *testing.T) {
	tr := &seqTransport{statuses: []int{http.StatusInternalServerError}}
	g := newTestGateway(tr, config.Chat{MaxAttempts: 3})

	_, err := g.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.Error(t, err)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, MsgGenericFailure, lerr.Message)
	// No retries for non-rate-limit failures.
	assert.Equal(t, 1, tr.callCount())
}

func TestComplete_AttemptOverride(t *testing.T) {
	tr := &seqTransport{statuses: []int{http.StatusTooManyRequests}}
	g := newTestGateway(tr, config.Chat{MaxAttempts: 3})

	_, err := g.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{MaxAttempts: 1})
	require.Error(t, err)
	assert.Equal(t, 1, tr.callCount())
}

func TestComplete_RejectsAssistantImages(t *testing.T) {
	tr := &seqTransport{statuses: []int{http.StatusOK}}
	g := newTestGateway(tr, config.Chat{})

	_, err := g.Complete(context.Background(), []Message{
		{Role: RoleAssistant, Content: "here", Images: []string{"abc"}},
	}, Options{})
	require.Error(t, err)
	assert.Zero(t, tr.callCount())
}

func TestComplete_GeminiProvider(t *testing.T) {
	tr := &geminiTransport{statuses: []int{http.StatusOK}}
	g := newGeminiGateway(t, tr, config.Chat{Provider: "gemini"})

	text, err := g.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleAssistant, Content: "earlier reply"},
		{Role: RoleUser, Content: "hi there", Images: []string{"aW1n"}},
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour!", text)

	require.Equal(t, 1, tr.callCount())
	assert.Contains(t, tr.path(0), "gemini-test")

	// System turn, both conversation roles, and the inline image payload all
	// land in the request.
	body := tr.body(0)
	assert.Contains(t, body, "be brief")
	assert.Contains(t, body, "earlier reply")
	assert.Contains(t, body, "hi there")
	assert.Contains(t, body, `"role":"model"`)
	assert.Contains(t, body, "aW1n")
}

func TestComplete_GeminiRateLimitRetries(t *testing.T) {
	tr := &geminiTransport{statuses: []int{http.StatusTooManyRequests, http.StatusOK}}
	g := newGeminiGateway(t, tr, config.Chat{Provider: "gemini", MaxAttempts: 3})

	text, err := g.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour!", text)
	assert.Equal(t, 2, tr.callCount())
}

func TestComplete_ProviderOverride(t *testing.T) {
	oaiTr := &seqTransport{statuses: []int{http.StatusOK}}
	gemTr := &geminiTransport{statuses: []int{http.StatusOK}}

	oai := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Transport: oaiTr}),
	)
	g := NewGateway(&oai, newGenAIClient(t, gemTr), config.Chat{Model: "gpt-test", GeminiModel: "gemini-test"})
	g.retryInterval = time.Millisecond

	// The gateway defaults to openai; a per-call override routes to gemini.
	text, err := g.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{Provider: ProviderGemini})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour!", text)
	assert.Zero(t, oaiTr.callCount())
	assert.Equal(t, 1, gemTr.callCount())
}

func TestError_Unwrap(t *testing.T) {
	cause := assert.AnError
	err := &Error{Message: MsgGenericFailure, cause: cause}

	assert.Equal(t, MsgGenericFailure, err.Error())
	assert.ErrorIs(t, err, cause)
}
