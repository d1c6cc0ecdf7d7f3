// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package refreshchat

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
	PetID string `json:"pet_id"`
}

type Response struct {
	AgentType petdb.AgentType `json:"agent_type"`
}

// Store reads pet profiles.
type Store interface {
	GetProfile(ctx context.Context, userID string, profileID string) (*petdb.PetProfile, error)
}

// Handler starts a fresh conversation for a pet.
type Handler struct {
	store    Store
	registry *chat.Registry
}

func NewHandler(store Store, registry *chat.Registry) *Handler {
	return &Handler{store: store, registry: registry}
}

// RefreshChat discards the active agent's transcript and unbinds the
// session. The next message starts a new session.
func (h *Handler) RefreshChat(ctx context.Context, req *Request) (*Response, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpapi.NewError(http.StatusUnauthorized, "authentication required")
	}
	if req.PetID == "" {
		return nil, httpapi.NewError(http.StatusBadRequest, "pet_id is required")
	}

	pet, err := h.store.GetProfile(ctx, userID, req.PetID)
	if err != nil {
		return nil, fmt.Errorf("refreshchat: loading pet profile: %w", err)
	}

	o := h.registry.For(userID, pet)
	o.Refresh()

	return &Response{AgentType: o.CurrentAgent()}, nil
}
