// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package watchprofiles

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tailwise/tailwise/internal/auth"
	"github.com/tailwise/tailwise/internal/petdb"
)

// Handler streams the authenticated user's profile list as server-sent
// events, emitting the full list on every change until the client
// disconnects.
type Handler struct {
	db *petdb.Client
}

func NewHandler(db *petdb.Client) *Handler {
	return &Handler{db: db}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := auth.UserID(ctx)
	if userID == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	iter := h.db.WatchProfiles(ctx, userID)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err != nil {
			// Canceled means the client went away.
			if status.Code(err) != codes.Canceled {
				slog.ErrorContext(ctx, "watchprofiles: watching profiles", "error", err)
			}
			return
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			slog.ErrorContext(ctx, "watchprofiles: reading snapshot", "error", err)
			return
		}
		profiles := make([]petdb.PetProfile, 0, len(docs))
		for _, doc := range docs {
			var profile petdb.PetProfile
			if err := doc.DataTo(&profile); err != nil {
				slog.ErrorContext(ctx, "watchprofiles: decoding profile", "error", err)
				continue
			}
			profiles = append(profiles, profile)
		}

		payload, err := json.Marshal(profiles)
		if err != nil {
			slog.ErrorContext(ctx, "watchprofiles: encoding profiles", "error", err)
			return
		}

		if _, err := w.Write([]byte("event: profiles\ndata: ")); err != nil {
			return
		}
		if _, err := w.Write(payload); err != nil {
			return
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}
