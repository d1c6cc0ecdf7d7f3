// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package saveprofile

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tailwise/tailwise/internal/auth"
	"github.com/tailwise/tailwise/internal/httpapi"
	"github.com/tailwise/tailwise/internal/petdb"
	"github.com/tailwise/tailwise/internal/util"
	"github.com/tailwise/tailwise/internal/wizard"
)

// Attachment is one veterinary document on the submitted form. Exactly one
// of URL and DataURL is set: URL references an already stored document,
// DataURL carries a new upload inline.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	DataURL  string `json:"data_url,omitempty"`
}

// Request is the completed onboarding form. Profile.VetRecords is ignored;
// Attachments is the authoritative document list.
type Request struct {
	Profile     petdb.PetProfile `json:"profile"`
	Attachments []Attachment     `json:"attachments"`
}

// Response returns either the persisted profile or the field errors that
// blocked submission.
type Response struct {
	ProfileID   string             `json:"profile_id,omitempty"`
	Profile     *petdb.PetProfile  `json:"profile,omitempty"`
	FieldErrors []wizard.FieldError `json:"field_errors,omitempty"`
}

// Store persists pet profiles.
type Store interface {
	CreateProfile(ctx context.Context, userID string, profile *petdb.PetProfile) (string, error)
	UpdateProfile(ctx context.Context, userID string, profile *petdb.PetProfile) error
	GetProfile(ctx context.Context, userID string, profileID string) (*petdb.PetProfile, error)
}

// ObjectStore stores attachment files durably.
type ObjectStore interface {
	WriteFile(ctx context.Context, path string, contentType string, data []byte) (string, error)
	DeleteFile(ctx context.Context, url string) error
}

// Handler saves a completed onboarding form as a pet profile.
type Handler struct {
	store Store
	files ObjectStore
}

// NewHandler returns a Handler using the given stores.
func NewHandler(store Store, files ObjectStore) *Handler {
	return &Handler{store: store, files: files}
}

// SaveProfile validates the submitted form and persists it, uploading new
// attachments and deleting removed ones. Validation failures return field
// errors rather than a persisted profile; nothing is written for an invalid
// form.
func (h *Handler) SaveProfile(ctx context.Context, req *Request) (*Response, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpapi.NewError(http.StatusUnauthorized, "authentication required")
	}

	var original []petdb.VetRecord
	if req.Profile.ID != "" {
		existing, err := h.store.GetProfile(ctx, userID, req.Profile.ID)
		if err != nil {
			return nil, fmt.Errorf("saveprofile: loading existing profile: %w", err)
		}
		original = existing.VetRecords
	}

	draft := wizard.DraftFromProfile(&req.Profile)
	draft.Attachments = nil
	for _, a := range req.Attachments {
		if a.DataURL != "" {
			_, data, err := util.DataURLBytes(a.DataURL)
			if err != nil {
				return nil, httpapi.NewError(http.StatusBadRequest, fmt.Sprintf("invalid attachment %q", a.Filename))
			}
			draft.AddFiles(wizard.PendingAttachment(a.Filename, data))
			continue
		}
		draft.Attachments = append(draft.Attachments, wizard.PersistedAttachment(a.Filename, a.URL))
	}

	draft.Normalize()

	if errs := wizard.ValidateAll(draft); len(errs) > 0 {
		return &Response{FieldErrors: errs}, nil
	}

	up := &uploader{files: h.files, userID: userID}
	records, toDelete, err := wizard.ReconcileOnSave(ctx, up, original, draft.Attachments)
	if err != nil {
		return nil, fmt.Errorf("saveprofile: reconciling attachments: %w", err)
	}

	draft.Attachments = draft.Attachments[:0]
	for _, rec := range records {
		draft.Attachments = append(draft.Attachments, wizard.PersistedAttachment(rec.Filename, rec.URL))
	}

	profile, err := draft.Profile()
	if err != nil {
		return nil, fmt.Errorf("saveprofile: assembling profile: %w", err)
	}

	if req.Profile.ID == "" {
		id, err := h.store.CreateProfile(ctx, userID, profile)
		if err != nil {
			return nil, fmt.Errorf("saveprofile: creating profile: %w", err)
		}
		profile.ID = id
	} else {
		profile.ID = req.Profile.ID
		if err := h.store.UpdateProfile(ctx, userID, profile); err != nil {
			return nil, fmt.Errorf("saveprofile: updating profile: %w", err)
		}
	}

	// Storage deletes run only after the record write has succeeded, so a
	// failed save never loses a referenced document.
	wizard.DeleteRemoved(ctx, remover{files: h.files}, toDelete)

	return &Response{ProfileID: profile.ID, Profile: profile}, nil
}

type uploader struct {
	files  ObjectStore
	userID string
}

func (u *uploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	path := fmt.Sprintf("vet-records/%s/%s-%s", u.userID, uuid.NewString(), name)
	return u.files.WriteFile(ctx, path, contentType, data)
}

type remover struct {
	files ObjectStore
}

func (r remover) Remove(ctx context.Context, url string) error {
	return r.files.DeleteFile(ctx, url)
}
