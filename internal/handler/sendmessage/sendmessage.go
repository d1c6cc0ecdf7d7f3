// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package sendmessage

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/tailwise/tailwise/internal/auth"
	"github.com/tailwise/tailwise/internal/chat"
	"github.com/tailwise/tailwise/internal/httpapi"
	"github.com/tailwise/tailwise/internal/image"
	"github.com/tailwise/tailwise/internal/petdb"
	"github.com/tailwise/tailwise/internal/util"
)

// File is one attachment on an outgoing message, carried as a data URL.
type File struct {
	Filename string `json:"filename"`
	DataURL  string `json:"data_url"`
}

type Request struct {
	PetID   string `json:"pet_id"`
	Content string `json:"content"`
	Files   []File `json:"files"`
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

// Handler submits a user message to the active agent and returns the updated
// transcript.
type Handler struct {
	store    Store
	registry *chat.Registry
}

func NewHandler(store Store, registry *chat.Registry) *Handler {
	return &Handler{store: store, registry: registry}
}

// SendMessage forwards the message to the pet's conversation. Image files
// ride along inline, downscaled, up to the inline bound; anything else is
// flagged as extra files.
func (h *Handler) SendMessage(ctx context.Context, req *Request) (*Response, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpapi.NewError(http.StatusUnauthorized, "authentication required")
	}
	if req.PetID == "" {
		return nil, httpapi.NewError(http.StatusBadRequest, "pet_id is required")
	}

	pet, err := h.store.GetProfile(ctx, userID, req.PetID)
	if err != nil {
		return nil, fmt.Errorf("sendmessage: loading pet profile: %w", err)
	}

	var raw [][]byte
	extraFiles := false
	for _, f := range req.Files {
		ct, data, err := util.DataURLBytes(f.DataURL)
		if err != nil {
			return nil, httpapi.NewError(http.StatusBadRequest, fmt.Sprintf("invalid file %q", f.Filename))
		}
		if !strings.HasPrefix(ct, "image/") || len(raw) == chat.MaxInlineImages {
			extraFiles = true
			continue
		}
		raw = append(raw, data)
	}

	scaled, err := image.DownscaleAll(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("sendmessage: downscaling images: %w", err)
	}
	images := make([]string, 0, len(scaled))
	for _, img := range scaled {
		images = append(images, base64.StdEncoding.EncodeToString(img))
	}

	o := h.registry.For(userID, pet)
	msgs, err := o.Send(ctx, req.Content, images, extraFiles)
	if err != nil {
		return nil, fmt.Errorf("sendmessage: sending message: %w", err)
	}

	return &Response{
		SessionID: o.SessionID(),
		AgentType: o.CurrentAgent(),
		Messages:  msgs,
	}, nil
}
