// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

// Package wizard implements the pet health onboarding form: the draft
// profile state, the ordered section navigator with validation-gated
// progression, and attachment reconciliation between local files and
// durable records.
package wizard

import (
	"errors"
	"time"

	"github.com/tailwise/tailwise/internal/petdb"
)

// Section identifies one of the seven fixed wizard sections.
type Section string

const (
	SectionBasicInfo      Section = "basicInfo"
	SectionMedicalHistory Section = "medicalHistory"
	SectionDiet           Section = "diet"
	SectionLifestyle      Section = "lifestyle"
	SectionBehaviorHealth Section = "behaviorHealth"
	SectionOwnerSentiment Section = "ownerSentiment"
	SectionReview         Section = "review"
)

// Sections returns the fixed wizard order.
func Sections() []Section {
	return []Section{
		SectionBasicInfo,
		SectionMedicalHistory,
		SectionDiet,
		SectionLifestyle,
		SectionBehaviorHealth,
		SectionOwnerSentiment,
		SectionReview,
	}
}

func sectionIndex(s Section) int {
	for i, sec := range Sections() {
		if sec == s {
			return i
		}
	}
	return -1
}

// Defaults for numeric draft fields.
const (
	DefaultActivityMinutes = 30
	DefaultCareConfidence  = 3
	MaxActivityMinutes     = 180
)

// Draft is the in-progress pet profile mutated section by section during the
// wizard. It is never partially persisted; the only terminal write is
// through the submission pipeline.
type Draft struct {
	PetName      string
	Breed        string
	BreedType    petdb.BreedType
	Sex          petdb.Sex
	BirthDate    *time.Time
	Weight       string
	SizeCategory petdb.SizeCategory

	MedicalConditions     []string
	OtherCondition        string
	CurrentMedications    string
	SurgeriesOrProcedures string
	SurgeryDate           *time.Time
	Attachments           []Attachment

	DietTypes         []string
	OtherDietType     string
	MainBrands        string
	TakesSupplements  bool
	SupplementDetails string
	FoodAllergies     string

	ActivityLevel         petdb.ActivityLevel
	ActivityMinutes       int
	UsesTrackingDevice    bool
	TrackingDeviceDetails string
	AloneInDay            bool
	HoursAlone            int

	Temperament       petdb.Temperament
	RecentBehaviors   []string
	CurrentSymptoms   []string
	MajorHealthEvents string

	TopConcern       string
	ImprovementGoals string
	CareConfidence   int
	Interests        []string

	// removedURLs collects previously persisted attachments the user removed
	// during this wizard run; they are deleted from storage on save.
	removedURLs []string
}

// NewDraft returns a draft holding the schema defaults.
func NewDraft() *Draft {
	return &Draft{
		ActivityMinutes: DefaultActivityMinutes,
		CareConfidence:  DefaultCareConfidence,
	}
}

// DraftFromProfile hydrates a draft from a persisted profile for editing.
// Persisted attachments carry over as the durable variant.
func DraftFromProfile(p *petdb.PetProfile) *Draft {
	d := &Draft{
		PetName:      p.PetName,
		Breed:        p.Breed,
		BreedType:    p.BreedType,
		Sex:          p.Sex,
		BirthDate:    p.BirthDate,
		Weight:       p.Weight,
		SizeCategory: p.SizeCategory,

		MedicalConditions:     append([]string(nil), p.MedicalConditions...),
		OtherCondition:        p.OtherCondition,
		CurrentMedications:    p.CurrentMedications,
		SurgeriesOrProcedures: p.SurgeriesOrProcedures,
		SurgeryDate:           p.SurgeryDate,

		DietTypes:         append([]string(nil), p.DietTypes...),
		OtherDietType:     p.OtherDietType,
		MainBrands:        p.MainBrands,
		TakesSupplements:  p.TakesSupplements,
		SupplementDetails: p.SupplementDetails,
		FoodAllergies:     p.FoodAllergies,

		ActivityLevel:         p.ActivityLevel,
		ActivityMinutes:       p.ActivityMinutes,
		UsesTrackingDevice:    p.UsesTrackingDevice,
		TrackingDeviceDetails: p.TrackingDeviceDetails,
		AloneInDay:            p.AloneInDay,
		HoursAlone:            p.HoursAlone,

		Temperament:       p.Temperament,
		RecentBehaviors:   append([]string(nil), p.RecentBehaviors...),
		CurrentSymptoms:   append([]string(nil), p.CurrentSymptoms...),
		MajorHealthEvents: p.MajorHealthEvents,

		TopConcern:       p.TopConcern,
		ImprovementGoals: p.ImprovementGoals,
		CareConfidence:   p.CareConfidence,
		Interests:        append([]string(nil), p.Interests...),
	}
	for _, rec := range p.VetRecords {
		d.Attachments = append(d.Attachments, PersistedAttachment(rec.Filename, rec.URL))
	}
	return d
}

// Normalize dedupes every tag set in place, preserving first-seen order.
func (d *Draft) Normalize() {
	d.MedicalConditions = dedupeTags(d.MedicalConditions)
	d.DietTypes = dedupeTags(d.DietTypes)
	d.RecentBehaviors = dedupeTags(d.RecentBehaviors)
	d.CurrentSymptoms = dedupeTags(d.CurrentSymptoms)
	d.Interests = dedupeTags(d.Interests)
}

func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ErrPendingAttachments is returned when a draft is assembled into a record
// while unsent attachments remain; reconciliation must run first.
var ErrPendingAttachments = errors.New("wizard: draft still has pending attachments")

// Profile assembles the persisted record from the draft. Every attachment
// must already be the durable variant.
func (d *Draft) Profile() (*petdb.PetProfile, error) {
	records := make([]petdb.VetRecord, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		switch a.Kind {
		case AttachmentPersisted:
			records = append(records, petdb.VetRecord{Filename: a.Name, URL: a.URL})
		case AttachmentPending:
			return nil, ErrPendingAttachments
		default:
			return nil, errors.New("wizard: unknown attachment kind")
		}
	}
	return &petdb.PetProfile{
		PetName:      d.PetName,
		Breed:        d.Breed,
		BreedType:    d.BreedType,
		Sex:          d.Sex,
		BirthDate:    d.BirthDate,
		Weight:       d.Weight,
		SizeCategory: d.SizeCategory,

		MedicalConditions:     d.MedicalConditions,
		OtherCondition:        d.OtherCondition,
		CurrentMedications:    d.CurrentMedications,
		SurgeriesOrProcedures: d.SurgeriesOrProcedures,
		SurgeryDate:           d.SurgeryDate,
		VetRecords:            records,

		DietTypes:         d.DietTypes,
		OtherDietType:     d.OtherDietType,
		MainBrands:        d.MainBrands,
		TakesSupplements:  d.TakesSupplements,
		SupplementDetails: d.SupplementDetails,
		FoodAllergies:     d.FoodAllergies,

		ActivityLevel:         d.ActivityLevel,
		ActivityMinutes:       d.ActivityMinutes,
		UsesTrackingDevice:    d.UsesTrackingDevice,
		TrackingDeviceDetails: d.TrackingDeviceDetails,
		AloneInDay:            d.AloneInDay,
		HoursAlone:            d.HoursAlone,

		Temperament:       d.Temperament,
		RecentBehaviors:   d.RecentBehaviors,
		CurrentSymptoms:   d.CurrentSymptoms,
		MajorHealthEvents: d.MajorHealthEvents,

		TopConcern:       d.TopConcern,
		ImprovementGoals: d.ImprovementGoals,
		CareConfidence:   d.CareConfidence,
		Interests:        d.Interests,
	}, nil
}
