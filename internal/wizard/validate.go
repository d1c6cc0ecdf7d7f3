// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package wizard

import (
	"slices"
	"time"
)

// FieldError reports one invalid or missing field of a section.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// requiredFields maps the draft state to the required-field set of a
// section. Conditional requirements depend only on the draft, never on any
// UI state: detail fields are required exactly when their governing flag or
// set membership holds.
func (d *Draft) requiredFields(s Section) []string {
	switch s {
	case SectionBasicInfo:
		return []string{"petName", "breed", "breedType", "sex", "birthDate", "sizeCategory"}
	case SectionMedicalHistory:
		if slices.Contains(d.MedicalConditions, "Other") {
			return []string{"otherCondition"}
		}
		return nil
	case SectionDiet:
		fields := []string{"dietTypes"}
		if slices.Contains(d.DietTypes, "Other") {
			fields = append(fields, "otherDietType")
		}
		if d.TakesSupplements {
			fields = append(fields, "supplementDetails")
		}
		return fields
	case SectionLifestyle:
		fields := []string{"activityLevel"}
		if d.UsesTrackingDevice {
			fields = append(fields, "trackingDeviceDetails")
		}
		if d.AloneInDay {
			fields = append(fields, "hoursAlone")
		}
		return fields
	case SectionBehaviorHealth:
		return []string{"temperament"}
	case SectionOwnerSentiment:
		return []string{"topConcern", "improvementGoals"}
	case SectionReview:
		return nil
	}
	return nil
}

// ValidateSection checks the required fields of one section plus its date
// rules. A nil result means the section passes.
func ValidateSection(d *Draft, s Section) []FieldError {
	var errs []FieldError
	for _, f := range d.requiredFields(s) {
		if msg, ok := d.fieldMissing(f); ok {
			errs = append(errs, FieldError{Field: f, Message: msg})
		}
	}

	now := time.Now()
	switch s {
	case SectionBasicInfo:
		if d.BirthDate != nil && d.BirthDate.After(now) {
			errs = append(errs, FieldError{Field: "birthDate", Message: "Birth date cannot be in the future"})
		}
	case SectionMedicalHistory:
		if d.SurgeryDate != nil && d.SurgeryDate.After(now) {
			errs = append(errs, FieldError{Field: "surgeryDate", Message: "Surgery date cannot be in the future"})
		}
	case SectionLifestyle:
		if d.ActivityMinutes < 0 || d.ActivityMinutes > MaxActivityMinutes {
			errs = append(errs, FieldError{Field: "activityMinutes", Message: "Minutes of activity must be between 0 and 180"})
		}
	}
	return errs
}

// ValidateAll runs every section's validation. The submission pipeline uses
// it as a defensive check; a gated wizard run never reaches it with errors.
func ValidateAll(d *Draft) []FieldError {
	var errs []FieldError
	for _, s := range Sections() {
		errs = append(errs, ValidateSection(d, s)...)
	}
	return errs
}

func (d *Draft) fieldMissing(field string) (string, bool) {
	switch field {
	case "petName":
		if d.PetName == "" {
			return "Pet Name is required", true
		}
	case "breed":
		if d.Breed == "" {
			return "Breed is required", true
		}
	case "breedType":
		if d.BreedType == "" {
			return "Please select an option", true
		}
	case "sex":
		if d.Sex == "" {
			return "Please select your pet's sex", true
		}
	case "birthDate":
		if d.BirthDate == nil {
			return "Birth date is required", true
		}
	case "sizeCategory":
		if d.SizeCategory == "" {
			return "Please select a size category", true
		}
	case "otherCondition":
		if d.OtherCondition == "" {
			return "Please specify the other condition", true
		}
	case "dietTypes":
		if len(d.DietTypes) == 0 {
			return "Please select at least one diet type", true
		}
	case "otherDietType":
		if d.OtherDietType == "" {
			return "Please specify other diet type", true
		}
	case "supplementDetails":
		if d.SupplementDetails == "" {
			return "Please list the supplements you give your pet", true
		}
	case "activityLevel":
		if d.ActivityLevel == "" {
			return "Please select an activity level", true
		}
	case "trackingDeviceDetails":
		if d.TrackingDeviceDetails == "" {
			return "Please enter the tracking device you use", true
		}
	case "hoursAlone":
		if d.HoursAlone <= 0 {
			return "Please enter the hours your pet is alone", true
		}
	case "temperament":
		if d.Temperament == "" {
			return "Please select a temperament", true
		}
	case "topConcern":
		if d.TopConcern == "" {
			return "Please share your top concern", true
		}
	case "improvementGoals":
		if d.ImprovementGoals == "" {
			return "Please share what you want to improve", true
		}
	}
	return "", false
}
