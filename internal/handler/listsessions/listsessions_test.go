// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package listsessions

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailwise/tailwise/internal/auth"
	"github.com/tailwise/tailwise/internal/httpapi"
	"github.com/tailwise/tailwise/internal/petdb"
)

type fakeStore struct {
	sessions []petdb.ChatSession
}

func (f *fakeStore) ListSessions(context.Context, string) ([]petdb.ChatSession, error) {
	return f.sessions, nil
}

func TestListSessions(t *testing.T) {
	store := &fakeStore{sessions: []petdb.ChatSession{
		{ID: "s1", PetID: "pet-1", Title: "Diet questions"},
		{ID: "s2", PetID: "pet-2", Title: "Training ideas"},
		{ID: "s3", PetID: "pet-1", Title: "New Chat"},
	}}
	h := NewHandler(store)
	ctx := auth.WithUserID(context.Background(), "user-1")

	resp, err := h.ListSessions(ctx, &Request{})
	require.NoError(t, err)
	assert.Len(t, resp.Sessions, 3)

	resp, err = h.ListSessions(ctx, &Request{PetID: "pet-1"})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, "s1", resp.Sessions[0].ID)
	assert.Equal(t, "s3", resp.Sessions[1].ID)
}

func TestListSessions_RequiresAuth(t *testing.T) {
	h := NewHandler(&fakeStore{})

	_, err := h.ListSessions(context.Background(), &Request{})
	var herr *httpapi.Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusUnauthorized, herr.Status)
}
