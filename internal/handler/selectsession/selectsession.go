// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package selectsession

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
	SessionID string `json:"session_id"`
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

// Handler resumes a stored chat session.
type Handler struct {
	store    Store
	registry *chat.Registry
}

func NewHandler(store Store, registry *chat.Registry) *Handler {
	return &Handler{store: store, registry: registry}
}

// SelectSession loads the session's messages and makes its agent active.
func (h *Handler) SelectSession(ctx context.Context, req *Request) (*Response, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpapi.NewError(http.StatusUnauthorized, "authentication required")
	}
	if req.PetID == "" || req.SessionID == "" {
		return nil, httpapi.NewError(http.StatusBadRequest, "pet_id and session_id are required")
	}

	pet, err := h.store.GetProfile(ctx, userID, req.PetID)
	if err != nil {
		return nil, fmt.Errorf("selectsession: loading pet profile: %w", err)
	}

	agent, msgs, err := h.registry.For(userID, pet).SelectSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("selectsession: loading session: %w", err)
	}

	return &Response{
		SessionID: req.SessionID,
		AgentType: agent,
		Messages:  msgs,
	}, nil
}
