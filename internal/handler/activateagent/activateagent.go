// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package activateagent

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tailwise/tailwise/internal/auth"
	"github.com/tailwise/tailwise/internal/chat"
	"github.com/tailwise/tailwise/internal/httpapi"
	"github.com/tailwise/tailwise/internal/petdb"
)

type Request struct {
	PetID     string `json:"pet_id"`
	AgentType string `json:"agent_type"`
}

type Response struct {
	SessionID string              `json:"session_id"`
	AgentType petdb.AgentType     `json:"agent_type"`
	Messages  []petdb.ChatMessage `json:"messages"`
}

// Store reads pet profiles.
type Store interface {
	GetProfile(ctx context.Context, userID string, profileID string) (*petdb.PetProfile, error)
}

// Handler switches the active agent persona for a pet's conversation.
type Handler struct {
	store    Store
	registry *chat.Registry
}

func NewHandler(store Store, registry *chat.Registry) *Handler {
	return &Handler{store: store, registry: registry}
}

// ActivateAgent makes the given persona active, generating its greeting on
// first activation, and returns its transcript.
func (h *Handler) ActivateAgent(ctx context.Context, req *Request) (*Response, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpapi.NewError(http.StatusUnauthorized, "authentication required")
	}
	if req.PetID == "" {
		return nil, httpapi.NewError(http.StatusBadRequest, "pet_id is required")
	}
	if !petdb.ValidAgentType(req.AgentType) {
		return nil, httpapi.NewError(http.StatusBadRequest, fmt.Sprintf("unknown agent type %q", req.AgentType))
	}

	pet, err := h.store.GetProfile(ctx, userID, req.PetID)
	if err != nil {
		return nil, fmt.Errorf("activateagent: loading pet profile: %w", err)
	}

	o := h.registry.For(userID, pet)
	msgs, err := o.ActivateAgent(ctx, petdb.AgentType(req.AgentType))
	if err != nil {
		return nil, fmt.Errorf("activateagent: activating agent: %w", err)
	}

	return &Response{
		SessionID: o.SessionID(),
		AgentType: o.CurrentAgent(),
		Messages:  msgs,
	}, nil
}
