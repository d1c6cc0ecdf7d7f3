// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package petdb

import "time"

// BreedType classifies a pet as mixed or purebred.
type BreedType string

const (
	BreedTypeMixed    BreedType = "mixed"
	BreedTypePurebred BreedType = "purebred"
)

// Sex is the sex of a pet, including altered states.
type Sex string

const (
	SexMale     Sex = "male"
	SexFemale   Sex = "female"
	SexNeutered Sex = "neutered"
	SexSpayed   Sex = "spayed"
)

// SizeCategory buckets a pet by body size.
type SizeCategory string

const (
	SizeSmall  SizeCategory = "small"
	SizeMedium SizeCategory = "medium"
	SizeLarge  SizeCategory = "large"
	SizeGiant  SizeCategory = "giant"
)

// ActivityLevel is the reported daily activity of a pet.
type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// Temperament is the dominant temperament of a pet.
type Temperament string

const (
	TemperamentCalm       Temperament = "calm"
	TemperamentFriendly   Temperament = "friendly"
	TemperamentEnergetic  Temperament = "energetic"
	TemperamentAnxious    Temperament = "anxious"
	TemperamentAggressive Temperament = "aggressive"
)

// VetRecord is a durable reference to an uploaded veterinary document.
type VetRecord struct {
	// Filename is the original name of the uploaded file.
	Filename string `firestore:"filename" json:"filename"`

	// URL is the public URL of the stored object.
	URL string `firestore:"url" json:"url"`
}

// PetProfile is the pet health profile stored in Firestore. Field names
// mirror the onboarding draft one-for-one in snake_case.
type PetProfile struct {
	// ID is the unique identifier of the profile.
	ID string `firestore:"id" json:"id"`

	// UserID is the ID of the owning user. Every read and write is scoped
	// by it.
	UserID string `firestore:"user_id" json:"user_id"`

	PetName      string       `firestore:"pet_name" json:"pet_name"`
	Breed        string       `firestore:"breed" json:"breed"`
	BreedType    BreedType    `firestore:"breed_type" json:"breed_type"`
	Sex          Sex          `firestore:"sex" json:"sex"`
	BirthDate    *time.Time   `firestore:"birth_date" json:"birth_date"`
	Weight       string       `firestore:"weight" json:"weight"`
	SizeCategory SizeCategory `firestore:"size_category" json:"size_category"`

	MedicalConditions     []string   `firestore:"medical_conditions" json:"medical_conditions"`
	OtherCondition        string     `firestore:"other_condition" json:"other_condition"`
	CurrentMedications    string     `firestore:"current_medications" json:"current_medications"`
	SurgeriesOrProcedures string     `firestore:"surgeries_or_procedures" json:"surgeries_or_procedures"`
	SurgeryDate           *time.Time `firestore:"surgery_date" json:"surgery_date"`

	// VetRecords are the persisted attachments of the profile. Only durable
	// records appear here, never unsent local files.
	VetRecords []VetRecord `firestore:"vet_records" json:"vet_records"`

	DietTypes         []string `firestore:"diet_types" json:"diet_types"`
	OtherDietType     string   `firestore:"other_diet_type" json:"other_diet_type"`
	MainBrands        string   `firestore:"main_brands" json:"main_brands"`
	TakesSupplements  bool     `firestore:"takes_supplements" json:"takes_supplements"`
	SupplementDetails string   `firestore:"supplement_details" json:"supplement_details"`
	FoodAllergies     string   `firestore:"food_allergies" json:"food_allergies"`

	ActivityLevel         ActivityLevel `firestore:"activity_level" json:"activity_level"`
	ActivityMinutes       int           `firestore:"activity_minutes" json:"activity_minutes"`
	UsesTrackingDevice    bool          `firestore:"uses_tracking_device" json:"uses_tracking_device"`
	TrackingDeviceDetails string        `firestore:"tracking_device_details" json:"tracking_device_details"`
	AloneInDay            bool          `firestore:"alone_in_day" json:"alone_in_day"`
	HoursAlone            int           `firestore:"hours_alone" json:"hours_alone"`

	Temperament       Temperament `firestore:"temperament" json:"temperament"`
	RecentBehaviors   []string    `firestore:"recent_behaviors" json:"recent_behaviors"`
	CurrentSymptoms   []string    `firestore:"current_symptoms" json:"current_symptoms"`
	MajorHealthEvents string      `firestore:"major_health_events" json:"major_health_events"`

	TopConcern       string   `firestore:"top_concern" json:"top_concern"`
	ImprovementGoals string   `firestore:"improvement_goals" json:"improvement_goals"`
	CareConfidence   int      `firestore:"care_confidence" json:"care_confidence"`
	Interests        []string `firestore:"interests" json:"interests"`

	// CreatedAt is the timestamp when the profile was first persisted.
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`

	// UpdatedAt is the timestamp of the last write.
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
}
