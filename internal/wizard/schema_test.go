// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailwise/tailwise/internal/petdb"
)

func TestNewDraft_Defaults(t *testing.T) {
	d := NewDraft()

	assert.Equal(t, DefaultActivityMinutes, d.ActivityMinutes)
	assert.Equal(t, DefaultCareConfidence, d.CareConfidence)
	assert.False(t, d.TakesSupplements)
	assert.False(t, d.AloneInDay)
}

func TestNormalize_DedupesPreservingOrder(t *testing.T) {
	d := NewDraft()
	d.MedicalConditions = []string{"Allergies", "Arthritis", "Allergies", "Other", "Arthritis"}
	d.Interests = []string{"Training", "Training"}

	d.Normalize()

	assert.Equal(t, []string{"Allergies", "Arthritis", "Other"}, d.MedicalConditions)
	assert.Equal(t, []string{"Training"}, d.Interests)
}

func TestDraftFromProfile_RoundTrip(t *testing.T) {
	birth := time.Date(2021, 5, 10, 0, 0, 0, 0, time.UTC)
	p := &petdb.PetProfile{
		PetName:           "Biscuit",
		Breed:             "Corgi",
		BreedType:         petdb.BreedTypePurebred,
		Sex:               petdb.SexNeutered,
		BirthDate:         &birth,
		SizeCategory:      petdb.SizeSmall,
		MedicalConditions: []string{"Allergies"},
		DietTypes:         []string{"Dry food", "Wet food"},
		ActivityLevel:     petdb.ActivityHigh,
		ActivityMinutes:   60,
		Temperament:       petdb.TemperamentEnergetic,
		TopConcern:        "Weight",
		ImprovementGoals:  "More exercise",
		CareConfidence:    4,
		VetRecords: []petdb.VetRecord{
			{Filename: "vaccines.pdf", URL: "https://storage.googleapis.com/b/vaccines.pdf"},
		},
	}

	d := DraftFromProfile(p)

	assert.Equal(t, "Biscuit", d.PetName)
	assert.Equal(t, 60, d.ActivityMinutes)
	require.Len(t, d.Attachments, 1)
	assert.Equal(t, AttachmentPersisted, d.Attachments[0].Kind)
	assert.Equal(t, "vaccines.pdf", d.Attachments[0].Name)

	// Mutating the draft must not alias the profile's slices.
	d.DietTypes[0] = "Raw"
	assert.Equal(t, "Dry food", p.DietTypes[0])

	out, err := d.Profile()
	require.NoError(t, err)
	assert.Equal(t, p.VetRecords, out.VetRecords)
	assert.Equal(t, p.TopConcern, out.TopConcern)
	assert.Equal(t, p.CareConfidence, out.CareConfidence)
}

func TestProfile_RejectsPendingAttachments(t *testing.T) {
	d := validDraft()
	d.AddFiles(PendingAttachment("xray.png", []byte{1, 2, 3}))

	_, err := d.Profile()
	require.ErrorIs(t, err, ErrPendingAttachments)
}
