// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

// Package chat runs the agent conversations for one user and pet. Each agent
// persona keeps its own in-memory transcript; completion failures are
// absorbed into the transcript as assistant turns, while persistence failures
// surface to the caller after a single stale-token recovery attempt.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tailwise/tailwise/internal/llm"
	"github.com/tailwise/tailwise/internal/petdb"
)

// MaxInlineImages is the most images carried inline on a single message.
// Anything beyond it is dropped and flagged on the message.
const MaxInlineImages = 5

// PlaceholderTitle names a session before a generated title replaces it.
const PlaceholderTitle = "New Chat"

// Completer produces one assistant turn for a conversation.
type Completer interface {
	Complete(ctx context.Context, msgs []llm.Message, opts llm.Options) (string, error)
}

// Store persists chat sessions and messages.
type Store interface {
	CreateSession(ctx context.Context, session *petdb.ChatSession) (string, error)
	SetSessionTitle(ctx context.Context, userID string, sessionID string, title string) error
	AppendMessage(ctx context.Context, userID string, msg *petdb.ChatMessage) error
	SessionMessages(ctx context.Context, userID string, sessionID string) ([]petdb.ChatMessage, error)
}

// Refresher re-establishes store credentials after a permission failure.
type Refresher interface {
	RefreshSession(ctx context.Context) error
}

// Orchestrator drives the agent conversations about one pet. Methods are safe
// for concurrent use.
type Orchestrator struct {
	store     Store
	refresher Refresher
	completer Completer

	userID string
	pet    *petdb.PetProfile

	mu        sync.Mutex
	agent     petdb.AgentType
	sessionID string
	buckets   map[petdb.AgentType][]petdb.ChatMessage
}

// NewOrchestrator returns an orchestrator starting on the general agent with
// no session.
func NewOrchestrator(store Store, refresher Refresher, completer Completer, userID string, pet *petdb.PetProfile) *Orchestrator {
	return &Orchestrator{
		store:     store,
		refresher: refresher,
		completer: completer,
		userID:    userID,
		pet:       pet,
		agent:     petdb.AgentGeneral,
		buckets:   map[petdb.AgentType][]petdb.ChatMessage{},
	}
}

// CurrentAgent returns the active agent persona.
func (o *Orchestrator) CurrentAgent() petdb.AgentType {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.agent
}

// SessionID returns the bound session, or empty before the first exchange.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Messages returns the transcript of the active agent.
func (o *Orchestrator) Messages() []petdb.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]petdb.ChatMessage(nil), o.buckets[o.agent]...)
}

// Send submits one user turn to the active agent and returns the transcript
// including the assistant's reply. A blank message with no images is a no-op.
// Completion failures are absorbed as an assistant turn rather than returned;
// persistence failures are returned. At most MaxInlineImages images ride
// along; extraFiles marks that the sender attached files beyond what is
// carried inline.
func (o *Orchestrator) Send(ctx context.Context, content string, images []string, extraFiles bool) ([]petdb.ChatMessage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if strings.TrimSpace(content) == "" && len(images) == 0 && !extraFiles {
		return append([]petdb.ChatMessage(nil), o.buckets[o.agent]...), nil
	}

	hasMore := extraFiles
	if len(images) > MaxInlineImages {
		images = images[:MaxInlineImages]
		hasMore = true
	}

	if err := o.ensureSession(ctx); err != nil {
		return nil, err
	}

	firstExchange := len(o.buckets[o.agent]) == 0

	userMsg := petdb.ChatMessage{
		ID:           uuid.NewString(),
		SessionID:    o.sessionID,
		Content:      content,
		Role:         petdb.ChatRoleUser,
		AgentType:    o.agent,
		Images:       images,
		HasMoreFiles: hasMore,
		Timestamp:    time.Now(),
	}
	if err := o.persistMessage(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("chat: persisting user message: %w", err)
	}
	o.buckets[o.agent] = append(o.buckets[o.agent], userMsg)

	prompt := llm.Message{
		Role:    llm.RoleSystem,
		Content: llm.BuildAgentPrompt(ctx, o.agent, o.pet, firstExchange),
	}
	msgs := append([]llm.Message{prompt}, toLLMMessages(o.buckets[o.agent])...)

	reply, err := o.completer.Complete(ctx, msgs, llm.Options{})
	if err != nil {
		reply = failureContent(err)
		slog.ErrorContext(ctx, "chat: completion failed", "error", err)
	}

	assistantMsg := petdb.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: o.sessionID,
		Content:   reply,
		Role:      petdb.ChatRoleAssistant,
		AgentType: o.agent,
		Timestamp: time.Now(),
	}
	if perr := o.persistMessage(ctx, &assistantMsg); perr != nil {
		return nil, fmt.Errorf("chat: persisting assistant message: %w", perr)
	}
	o.buckets[o.agent] = append(o.buckets[o.agent], assistantMsg)

	if firstExchange && err == nil {
		transcript := append([]petdb.ChatMessage(nil), o.buckets[o.agent]...)
		go o.generateTitle(context.WithoutCancel(ctx), o.sessionID, transcript)
	}

	return append([]petdb.ChatMessage(nil), o.buckets[o.agent]...), nil
}

// ActivateAgent switches to the given persona. The first activation of a
// persona opens with a generated greeting; later activations just resume its
// transcript.
func (o *Orchestrator) ActivateAgent(ctx context.Context, agent petdb.AgentType) ([]petdb.ChatMessage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.agent = agent
	if len(o.buckets[agent]) > 0 {
		return append([]petdb.ChatMessage(nil), o.buckets[agent]...), nil
	}

	if err := o.ensureSession(ctx); err != nil {
		return nil, err
	}

	prompt := llm.Message{
		Role:    llm.RoleSystem,
		Content: llm.BuildAgentPrompt(ctx, agent, o.pet, true),
	}
	greeting, err := o.completer.Complete(ctx, []llm.Message{prompt}, llm.Options{})
	if err != nil {
		greeting = failureContent(err)
		slog.ErrorContext(ctx, "chat: agent greeting failed", "error", err)
	}

	msg := petdb.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: o.sessionID,
		Content:   greeting,
		Role:      petdb.ChatRoleAssistant,
		AgentType: agent,
		Timestamp: time.Now(),
	}
	if perr := o.persistMessage(ctx, &msg); perr != nil {
		return nil, fmt.Errorf("chat: persisting agent greeting: %w", perr)
	}
	o.buckets[agent] = append(o.buckets[agent], msg)

	return append([]petdb.ChatMessage(nil), o.buckets[agent]...), nil
}

// SelectSession loads a stored session and resumes it. The agent is taken
// from the session's first message, defaulting to the general persona for an
// empty session. All other transcripts are discarded.
func (o *Orchestrator) SelectSession(ctx context.Context, sessionID string) (petdb.AgentType, []petdb.ChatMessage, error) {
	msgs, err := o.store.SessionMessages(ctx, o.userID, sessionID)
	if err != nil {
		return "", nil, err
	}

	agent := petdb.AgentGeneral
	if len(msgs) > 0 && petdb.ValidAgentType(string(msgs[0].AgentType)) {
		agent = msgs[0].AgentType
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.buckets = map[petdb.AgentType][]petdb.ChatMessage{
		agent: msgs,
	}
	o.agent = agent
	o.sessionID = sessionID

	return agent, append([]petdb.ChatMessage(nil), msgs...), nil
}

// Refresh discards the active agent's transcript and unbinds the session,
// leaving persisted data untouched. The next send starts a fresh session.
func (o *Orchestrator) Refresh() {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.buckets, o.agent)
	o.sessionID = ""
}

// setPet replaces the profile snapshot that agent prompts are built from.
func (o *Orchestrator) setPet(pet *petdb.PetProfile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pet = pet
}

// ensureSession lazily creates the backing session. Callers hold o.mu.
func (o *Orchestrator) ensureSession(ctx context.Context) error {
	if o.sessionID != "" {
		return nil
	}
	session := petdb.ChatSession{
		UserID: o.userID,
		PetID:  o.pet.ID,
		Title:  PlaceholderTitle,
	}
	id, err := o.store.CreateSession(ctx, &session)
	if err != nil {
		return err
	}
	o.sessionID = id
	return nil
}

// persistMessage writes a message to the store. A permission-denied failure
// triggers one credential refresh and exactly one retry of the same write;
// any remaining failure is terminal.
func (o *Orchestrator) persistMessage(ctx context.Context, msg *petdb.ChatMessage) error {
	err := o.store.AppendMessage(ctx, o.userID, msg)
	if err == nil {
		return nil
	}

	if status.Code(err) == codes.PermissionDenied && o.refresher != nil {
		if rerr := o.refresher.RefreshSession(ctx); rerr != nil {
			slog.ErrorContext(ctx, "chat: refreshing store session", "error", rerr)
		} else if err = o.store.AppendMessage(ctx, o.userID, msg); err == nil {
			return nil
		}
	}

	slog.ErrorContext(ctx, "chat: persisting message", "error", err, "session", msg.SessionID)
	return err
}

// generateTitle names the session from its transcript, replacing the
// placeholder. Failures are logged; the placeholder stays.
func (o *Orchestrator) generateTitle(ctx context.Context, sessionID string, transcript []petdb.ChatMessage) {
	msgs := append(toLLMMessages(transcript), llm.Message{
		Role:    llm.RoleUser,
		Content: llm.TitlePrompt,
	})

	title, err := o.completer.Complete(ctx, msgs, llm.Options{MaxOutputTokens: 60})
	if err != nil {
		slog.ErrorContext(ctx, "chat: generating session title", "error", err)
		return
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}

	if err := o.store.SetSessionTitle(ctx, o.userID, sessionID, title); err != nil {
		slog.ErrorContext(ctx, "chat: storing session title", "error", err)
	}
}

func toLLMMessages(msgs []petdb.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{
			Role:    llm.Role(m.Role),
			Content: m.Content,
			Images:  m.Images,
		})
	}
	return out
}

func failureContent(err error) string {
	var lerr *llm.Error
	if errors.As(err, &lerr) {
		return lerr.Message
	}
	return llm.MsgGenericFailure
}
