// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package listprofiles

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tailwise/tailwise/internal/auth"
	"github.com/tailwise/tailwise/internal/httpapi"
	"github.com/tailwise/tailwise/internal/petdb"
)

type Request struct{}

type Response struct {
	Profiles []petdb.PetProfile `json:"profiles"`
}

// Store reads pet profiles.
type Store interface {
	ListProfiles(ctx context.Context, userID string) ([]petdb.PetProfile, error)
}

// Handler lists the authenticated user's pet profiles.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// ListProfiles returns the user's profiles, newest first.
func (h *Handler) ListProfiles(ctx context.Context, _ *Request) (*Response, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpapi.NewError(http.StatusUnauthorized, "authentication required")
	}

	profiles, err := h.store.ListProfiles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listprofiles: listing profiles: %w", err)
	}
	if profiles == nil {
		profiles = []petdb.PetProfile{}
	}
	return &Response{Profiles: profiles}, nil
}
