// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package chat

import (
	"sync"

	"github.com/tailwise/tailwise/internal/petdb"
)

type registryKey struct {
	userID string
	petID  string
}

// Registry hands out one Orchestrator per user and pet, creating it on first
// use. Orchestrators live for the process lifetime; transcripts reset only
// through their own Refresh or SelectSession.
type Registry struct {
	store     Store
	refresher Refresher
	completer Completer

	mu            sync.Mutex
	orchestrators map[registryKey]*Orchestrator
}

// NewRegistry returns an empty registry over the given collaborators.
func NewRegistry(store Store, refresher Refresher, completer Completer) *Registry {
	return &Registry{
		store:         store,
		refresher:     refresher,
		completer:     completer,
		orchestrators: map[registryKey]*Orchestrator{},
	}
}

// For returns the orchestrator for the user's conversations about pet. The
// given profile replaces the orchestrator's snapshot so prompts follow edits.
func (r *Registry) For(userID string, pet *petdb.PetProfile) *Orchestrator {
	key := registryKey{userID: userID, petID: pet.ID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.orchestrators[key]; ok {
		o.setPet(pet)
		return o
	}
	o := NewOrchestrator(r.store, r.refresher, r.completer, userID, pet)
	r.orchestrators[key] = o
	return o
}
