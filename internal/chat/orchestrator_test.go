// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tailwise/tailwise/internal/llm"
	"github.com/tailwise/tailwise/internal/petdb"
)

type fakeStore struct {
	mu         sync.Mutex
	sessions   []petdb.ChatSession
	appended   []petdb.ChatMessage
	titles     map[string]string
	messages   map[string][]petdb.ChatMessage
	appendErrs []error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		titles:   map[string]string{},
		messages: map[string][]petdb.ChatMessage{},
	}
}

func (f *fakeStore) CreateSession(_ context.Context, session *petdb.ChatSession) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.ID = fmt.Sprintf("session-%d", len(f.sessions)+1)
	session.CreatedAt = time.Now()
	f.sessions = append(f.sessions, *session)
	return session.ID, nil
}

func (f *fakeStore) SetSessionTitle(_ context.Context, _ string, sessionID string, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[sessionID] = title
	return nil
}

func (f *fakeStore) AppendMessage(_ context.Context, _ string, msg *petdb.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.appendErrs) > 0 {
		err := f.appendErrs[0]
		f.appendErrs = f.appendErrs[1:]
		if err != nil {
			return err
		}
	}
	f.appended = append(f.appended, *msg)
	return nil
}

func (f *fakeStore) SessionMessages(_ context.Context, _ string, sessionID string) ([]petdb.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[sessionID], nil
}

func (f *fakeStore) appendedMessages() []petdb.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]petdb.ChatMessage(nil), f.appended...)
}

func (f *fakeStore) title(sessionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.titles[sessionID]
}

type fakeCompleter struct {
	mu    sync.Mutex
	calls [][]llm.Message
	reply string
	title string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, msgs []llm.Message, _ llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msgs)
	if len(msgs) > 0 && msgs[len(msgs)-1].Content == llm.TitlePrompt {
		return f.title, nil
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// promptFor returns the system prompt of the call whose final turn carried
// the given user content.
func (f *fakeCompleter) promptFor(userContent string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.calls {
		if len(call) > 1 && call[len(call)-1].Content == userContent && call[0].Role == llm.RoleSystem {
			return call[0].Content
		}
	}
	return ""
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRefresher) RefreshSession(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func testPet() *petdb.PetProfile {
	return &petdb.PetProfile{
		ID:           "pet-1",
		PetName:      "Mochi",
		Breed:        "Shiba Inu",
		BreedType:    petdb.BreedTypePurebred,
		Sex:          petdb.SexFemale,
		SizeCategory: petdb.SizeMedium,
	}
}

func TestSend_FirstExchange(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{reply: "Hi! Let's talk about Mochi.", title: "Mochi Diet Questions"}
	o := NewOrchestrator(store, nil, completer, "user-1", testPet())

	msgs, err := o.Send(context.Background(), "What should Mochi eat?", nil, false)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, petdb.ChatRoleUser, msgs[0].Role)
	assert.Equal(t, "What should Mochi eat?", msgs[0].Content)
	assert.Equal(t, petdb.ChatRoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hi! Let's talk about Mochi.", msgs[1].Content)
	assert.Equal(t, petdb.AgentGeneral, o.CurrentAgent())

	// Session is created lazily with the placeholder title.
	require.Len(t, store.sessions, 1)
	assert.Equal(t, PlaceholderTitle, store.sessions[0].Title)
	assert.Equal(t, "pet-1", store.sessions[0].PetID)
	assert.Equal(t, store.sessions[0].ID, o.SessionID())

	// Only user and assistant turns are persisted, never the system prompt.
	appended := store.appendedMessages()
	require.Len(t, appended, 2)
	assert.Equal(t, petdb.ChatRoleUser, appended[0].Role)
	assert.Equal(t, petdb.ChatRoleAssistant, appended[1].Role)

	// The placeholder is replaced asynchronously after the first exchange.
	require.Eventually(t, func() bool {
		return store.title(o.SessionID()) == "Mochi Diet Questions"
	}, time.Second, 5*time.Millisecond)
}

func TestSend_BlankIsNoOp(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{reply: "hello"}
	o := NewOrchestrator(store, nil, completer, "user-1", testPet())

	msgs, err := o.Send(context.Background(), "   ", nil, false)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Empty(t, store.sessions)
	assert.Zero(t, completer.callCount())
}

func TestSend_ImageCap(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(store, nil, &fakeCompleter{reply: "ok"}, "user-1", testPet())

	images := make([]string, MaxInlineImages+2)
	for i := range images {
		images[i] = fmt.Sprintf("img-%d", i)
	}

	msgs, err := o.Send(context.Background(), "look at these", images, false)
	require.NoError(t, err)

	require.Len(t, msgs[0].Images, MaxInlineImages)
	assert.True(t, msgs[0].HasMoreFiles)
	assert.Equal(t, "img-0", msgs[0].Images[0])
}

func TestSend_ExtraFilesFlag(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(store, nil, &fakeCompleter{reply: "ok"}, "user-1", testPet())

	msgs, err := o.Send(context.Background(), "attached a report", []string{"img-0"}, true)
	require.NoError(t, err)
	assert.True(t, msgs[0].HasMoreFiles)
	assert.Len(t, msgs[0].Images, 1)
}

func TestSend_AttachmentOnlyMessage(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{reply: "Got the file!", title: "t"}
	o := NewOrchestrator(store, nil, completer, "user-1", testPet())

	// A non-image attachment with no text still goes through.
	msgs, err := o.Send(context.Background(), "", nil, true)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].HasMoreFiles)
	assert.Empty(t, msgs[0].Images)
	assert.Len(t, store.appendedMessages(), 2)
}

func TestSend_CompletionFailureAbsorbed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limited",
			err:  &llm.Error{Message: llm.MsgHighDemand},
			want: llm.MsgHighDemand,
		},
		{
			name: "other failure",
			err:  errors.New("connection reset"),
			want: llm.MsgGenericFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			completer := &fakeCompleter{err: tt.err}
			o := NewOrchestrator(store, nil, completer, "user-1", testPet())

			msgs, err := o.Send(context.Background(), "hello", nil, false)
			require.NoError(t, err, "completion failure must not fail the send")
			require.Len(t, msgs, 2)
			assert.Equal(t, petdb.ChatRoleAssistant, msgs[1].Role)
			assert.Equal(t, tt.want, msgs[1].Content)

			// The failure turn is persisted like any other.
			appended := store.appendedMessages()
			require.Len(t, appended, 2)
			assert.Equal(t, tt.want, appended[1].Content)

			// No title is generated for a failed first exchange.
			time.Sleep(20 * time.Millisecond)
			assert.Empty(t, store.title(o.SessionID()))
		})
	}
}

func TestPersist_PermissionDeniedRefreshesOnce(t *testing.T) {
	store := newFakeStore()
	store.appendErrs = []error{status.Error(codes.PermissionDenied, "stale credentials")}
	refresher := &fakeRefresher{}
	o := NewOrchestrator(store, refresher, &fakeCompleter{reply: "ok", title: "t"}, "user-1", testPet())

	msgs, err := o.Send(context.Background(), "hello", nil, false)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, 1, refresher.calls)
	// The retried user turn and the assistant turn both landed.
	assert.Len(t, store.appendedMessages(), 2)
}

func TestPersist_OtherErrorsDoNotRefresh(t *testing.T) {
	store := newFakeStore()
	store.appendErrs = []error{status.Error(codes.Unavailable, "backend down")}
	refresher := &fakeRefresher{}
	o := NewOrchestrator(store, refresher, &fakeCompleter{reply: "ok", title: "t"}, "user-1", testPet())

	msgs, err := o.Send(context.Background(), "hello", nil, false)
	require.Error(t, err)
	assert.Nil(t, msgs)

	assert.Zero(t, refresher.calls)
	// The failed write is terminal: nothing landed and nothing was cached.
	assert.Empty(t, store.appendedMessages())
	assert.Empty(t, o.Messages())
}

func TestActivateAgent_GreetsOnce(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{reply: "Hey there! 👋"}
	o := NewOrchestrator(store, nil, completer, "user-1", testPet())

	msgs, err := o.ActivateAgent(context.Background(), petdb.AgentNutrition)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, petdb.ChatRoleAssistant, msgs[0].Role)
	assert.Equal(t, petdb.AgentNutrition, msgs[0].AgentType)
	assert.Equal(t, petdb.AgentNutrition, o.CurrentAgent())
	assert.Equal(t, 1, completer.callCount())

	// Re-activating resumes the transcript without a new greeting.
	msgs, err = o.ActivateAgent(context.Background(), petdb.AgentNutrition)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, 1, completer.callCount())
}

func TestActivateAgent_BucketsAreIndependent(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{reply: "reply", title: "t"}
	o := NewOrchestrator(store, nil, completer, "user-1", testPet())

	_, err := o.Send(context.Background(), "general question", nil, false)
	require.NoError(t, err)

	msgs, err := o.ActivateAgent(context.Background(), petdb.AgentCreative)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	// Switching back shows the general transcript untouched.
	msgs, err = o.ActivateAgent(context.Background(), petdb.AgentGeneral)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSelectSession(t *testing.T) {
	store := newFakeStore()
	store.messages["session-7"] = []petdb.ChatMessage{
		{ID: "m1", Role: petdb.ChatRoleUser, AgentType: petdb.AgentNutrition, Content: "food?"},
		{ID: "m2", Role: petdb.ChatRoleAssistant, AgentType: petdb.AgentNutrition, Content: "kibble"},
	}
	completer := &fakeCompleter{reply: "reply", title: "t"}
	o := NewOrchestrator(store, nil, completer, "user-1", testPet())

	// Build up some state first; selecting must discard it.
	_, err := o.Send(context.Background(), "hello", nil, false)
	require.NoError(t, err)

	agent, msgs, err := o.SelectSession(context.Background(), "session-7")
	require.NoError(t, err)
	assert.Equal(t, petdb.AgentNutrition, agent)
	assert.Equal(t, petdb.AgentNutrition, o.CurrentAgent())
	require.Len(t, msgs, 2)
	assert.Equal(t, "session-7", o.SessionID())

	// The previous general transcript is gone.
	_, err = o.ActivateAgent(context.Background(), petdb.AgentGeneral)
	require.NoError(t, err)
	assert.Len(t, o.Messages(), 1)
}

func TestSelectSession_EmptyDefaultsToGeneral(t *testing.T) {
	store := newFakeStore()
	o := NewOrchestrator(store, nil, &fakeCompleter{}, "user-1", testPet())

	agent, msgs, err := o.SelectSession(context.Background(), "session-none")
	require.NoError(t, err)
	assert.Equal(t, petdb.AgentGeneral, agent)
	assert.Empty(t, msgs)
}

func TestRefresh(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{reply: "reply", title: "t"}
	o := NewOrchestrator(store, nil, completer, "user-1", testPet())

	_, err := o.Send(context.Background(), "hello", nil, false)
	require.NoError(t, err)

	_, err = o.ActivateAgent(context.Background(), petdb.AgentNutrition)
	require.NoError(t, err)
	firstSession := o.SessionID()
	require.NotEmpty(t, firstSession)

	o.Refresh()
	assert.Empty(t, o.SessionID())
	assert.Empty(t, o.Messages())

	// Only the active agent's transcript is discarded.
	msgs, err := o.ActivateAgent(context.Background(), petdb.AgentGeneral)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	// A refreshed agent restarts with a fresh session and greeting.
	_, err = o.ActivateAgent(context.Background(), petdb.AgentNutrition)
	require.NoError(t, err)
	assert.NotEqual(t, firstSession, o.SessionID())
}

func TestRegistry_ReturnsSameOrchestratorPerPet(t *testing.T) {
	store := newFakeStore()
	r := NewRegistry(store, nil, &fakeCompleter{})

	pet := testPet()
	o1 := r.For("user-1", pet)
	o2 := r.For("user-1", pet)
	assert.Same(t, o1, o2)

	other := testPet()
	other.ID = "pet-2"
	assert.NotSame(t, o1, r.For("user-1", other))
	assert.NotSame(t, o1, r.For("user-2", pet))
}

func TestRegistry_RefreshesPetSnapshot(t *testing.T) {
	store := newFakeStore()
	completer := &fakeCompleter{reply: "ok", title: "t"}
	r := NewRegistry(store, nil, completer)

	o := r.For("user-1", testPet())
	_, err := o.Send(context.Background(), "hello", nil, false)
	require.NoError(t, err)
	assert.Contains(t, completer.promptFor("hello"), "Mochi")

	// After a profile edit, the same orchestrator prompts with the new data.
	edited := testPet()
	edited.PetName = "Noodle"
	require.Same(t, o, r.For("user-1", edited))

	_, err = o.Send(context.Background(), "hi again", nil, false)
	require.NoError(t, err)
	assert.Contains(t, completer.promptFor("hi again"), "Noodle")
}
