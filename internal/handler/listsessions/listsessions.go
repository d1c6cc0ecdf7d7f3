// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package listsessions

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tailwise/tailwise/internal/auth"
	"github.com/tailwise/tailwise/internal/httpapi"
	"github.com/tailwise/tailwise/internal/petdb"
)

type Request struct {
	// PetID optionally restricts the list to one pet's sessions.
	PetID string `json:"pet_id"`
}

type Response struct {
	Sessions []petdb.ChatSession `json:"sessions"`
}

// Store reads chat sessions.
type Store interface {
	ListSessions(ctx context.Context, userID string) ([]petdb.ChatSession, error)
}

// Handler lists the authenticated user's chat history.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// ListSessions returns the user's sessions, newest first.
func (h *Handler) ListSessions(ctx context.Context, req *Request) (*Response, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpapi.NewError(http.StatusUnauthorized, "authentication required")
	}

	sessions, err := h.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listsessions: listing sessions: %w", err)
	}

	out := make([]petdb.ChatSession, 0, len(sessions))
	for _, s := range sessions {
		if req.PetID != "" && s.PetID != req.PetID {
			continue
		}
		out = append(out, s)
	}
	return &Response{Sessions: out}, nil
}
