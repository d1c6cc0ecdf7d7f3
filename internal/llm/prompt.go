// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tailwise/tailwise/internal/i18n"
	"github.com/tailwise/tailwise/internal/petdb"
)

// TitlePrompt is appended as a user turn after a conversation to name the
// session.
const TitlePrompt = `Based on the conversation above, generate a very brief and concise title (maximum 6 words) that captures the main topic or purpose of this chat. Only respond with the title text, nothing else.`

// BuildAgentPrompt returns the system prompt for an agent conversation over
// the given pet. When firstResponse is set, the prompt also pins the greeting
// format of the agent's opening message.
func BuildAgentPrompt(ctx context.Context, agent petdb.AgentType, pet *petdb.PetProfile, firstResponse bool) string {
	var b strings.Builder

	b.WriteString(roleDescription(agent, pet.PetName))
	b.WriteString("\n\n")
	b.WriteString(baseInfo(pet))
	b.WriteString("\n\n")
	b.WriteString(considerations(agent, pet))
	if firstResponse {
		b.WriteString("\n\n")
		b.WriteString(closingFormat(agent, pet.PetName))
	}

	if lng := i18n.UserLanguage(ctx); lng != "" && lng != "en" {
		fmt.Fprintf(&b, "\n\nAlways respond in the language with BCP 47 tag %q.", lng)
	}

	return b.String()
}

func roleDescription(agent petdb.AgentType, name string) string {
	switch agent {
	case petdb.AgentNutrition:
		return fmt.Sprintf(roleNutrition, name, name)
	case petdb.AgentAssessment:
		return fmt.Sprintf(roleAssessment, name, name)
	case petdb.AgentAnalysis:
		return fmt.Sprintf(roleAnalysis, name, name)
	case petdb.AgentCreative:
		return fmt.Sprintf(roleCreative, name, name)
	default:
		return fmt.Sprintf(roleGeneral, name, name)
	}
}

const (
	roleNutrition = `You are a fun and friendly AI nutritionist for dogs! 🐕 You have deep knowledge about dog nutrition, dietary requirements, and feeding guidelines. You're here to help %s's owner with their nutrition-related questions in a cheerful and engaging way! Be proactive and friendly in providing nutritional advice based on %s's specific needs. Start with clear recommendations and then ask targeted follow-up questions if needed. Use emojis and markdown formatting to make your responses more engaging! 🦴`

	roleAssessment = `You are a caring and attentive AI veterinary assessment assistant! 🏥 You help evaluate %s's health conditions and provide preliminary assessments in a warm and supportive way. Be proactive in identifying potential health concerns based on %s's medical history. Start with clear observations and recommendations, then ask specific follow-up questions if needed. Remember to always recommend consulting a veterinarian for serious concerns. Use emojis and markdown formatting to make your responses more engaging! 🐾`

	roleAnalysis = `You are an enthusiastic AI health data analyst for dogs! 📊 You help analyze %s's health patterns, symptoms, and behaviors to identify potential health trends or concerns. Be proactive in identifying patterns and providing insights based on %s's data. Start with clear analysis and recommendations, then ask targeted follow-up questions if needed. Use emojis and markdown formatting to make your responses more engaging! 🔍`

	roleCreative = `You are a playful and imaginative AI creative assistant for dog care! 🎨 You help generate innovative ideas for %s's care, training, and enrichment activities. Be proactive in suggesting creative solutions based on %s's needs and restrictions. Start with specific activity recommendations, then ask targeted follow-up questions if needed. Use emojis and markdown formatting to make your responses more engaging! 🎾`

	roleGeneral = `You are a friendly and helpful AI assistant helping %s's owner with general questions about their dog's health and well-being! 🐾 Be proactive in providing relevant information and recommendations based on %s's profile. Start with clear advice, then ask targeted follow-up questions if needed. Use emojis and markdown formatting to make your responses more engaging! 💕`
)

func baseInfo(pet *petdb.PetProfile) string {
	var b strings.Builder

	b.WriteString("Pet Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", pet.PetName)
	fmt.Fprintf(&b, "- Breed: %s (%s)\n", pet.Breed, pet.BreedType)
	fmt.Fprintf(&b, "- Sex: %s\n", pet.Sex)
	if pet.BirthDate != nil {
		fmt.Fprintf(&b, "- Age: %s\n", ageString(*pet.BirthDate))
	}
	if pet.Weight != "" {
		fmt.Fprintf(&b, "- Weight: %s\n", pet.Weight)
	}
	fmt.Fprintf(&b, "- Size: %s\n", pet.SizeCategory)

	b.WriteString("\nHealth Information:\n")
	fmt.Fprintf(&b, "- Conditions: %s\n", listOrNone(conditionList(pet)))
	fmt.Fprintf(&b, "- Medications: %s\n", valueOrNone(pet.CurrentMedications))
	fmt.Fprintf(&b, "- Food allergies: %s\n", valueOrNone(pet.FoodAllergies))
	fmt.Fprintf(&b, "- Current diet: %s\n", listOrNone(dietList(pet)))
	fmt.Fprintf(&b, "- Supplements: %s\n", supplementString(pet))
	fmt.Fprintf(&b, "- Activity: %s, about %d minutes per day\n", pet.ActivityLevel, pet.ActivityMinutes)
	fmt.Fprintf(&b, "- Temperament: %s", pet.Temperament)

	return b.String()
}

func considerations(agent petdb.AgentType, pet *petdb.PetProfile) string {
	switch agent {
	case petdb.AgentNutrition:
		return fmt.Sprintf(considerNutrition,
			pet.PetName,
			valueOrNone(pet.FoodAllergies),
			listOrNone(dietList(pet)),
			valueOrNone(pet.MainBrands),
			supplementString(pet))
	case petdb.AgentAssessment:
		return fmt.Sprintf(considerAssessment,
			valueOrNone(pet.CurrentMedications),
			listOrNone(conditionList(pet)),
			valueOrNone(pet.SurgeriesOrProcedures),
			listOrNone(pet.CurrentSymptoms))
	case petdb.AgentAnalysis:
		return fmt.Sprintf(considerAnalysis,
			pet.ActivityLevel,
			pet.ActivityMinutes,
			listOrNone(pet.RecentBehaviors),
			listOrNone(pet.CurrentSymptoms),
			listOrNone(conditionList(pet)))
	case petdb.AgentCreative:
		return fmt.Sprintf(considerCreative,
			pet.Temperament,
			pet.ActivityLevel,
			aloneString(pet),
			listOrNone(pet.Interests))
	default:
		return fmt.Sprintf(considerGeneral,
			pet.PetName,
			valueOrNone(pet.TopConcern),
			valueOrNone(pet.ImprovementGoals))
	}
}

const (
	considerNutrition = `Important considerations:
- %s has food allergies to: %s
- Current diet: %s
- Main food brands: %s
- Supplements: %s`

	considerAssessment = `Important considerations:
- Current medications: %s
- Known conditions: %s
- Past surgeries or procedures: %s
- Current symptoms: %s`

	considerAnalysis = `Important considerations:
- Activity level: %s, about %d minutes per day
- Recent behaviors: %s
- Current symptoms: %s
- Known conditions: %s`

	considerCreative = `Important considerations:
- Temperament: %s
- Activity level: %s
- Time alone: %s
- Owner interests: %s`

	considerGeneral = `Important considerations:
Consider all aspects of %s's health information when providing general advice.
- Owner's top concern: %s
- Improvement goals: %s`
)

func closingFormat(agent petdb.AgentType, name string) string {
	switch agent {
	case petdb.AgentNutrition:
		return fmt.Sprintf(formatNutrition, name, name)
	case petdb.AgentAssessment:
		return fmt.Sprintf(formatAssessment, name, name)
	case petdb.AgentAnalysis:
		return fmt.Sprintf(formatAnalysis, name, name)
	case petdb.AgentCreative:
		return fmt.Sprintf(formatCreative, name, name)
	default:
		return fmt.Sprintf(formatGeneral, name, name)
	}
}

const (
	formatNutrition = `Format:
## 🦴 Nutrition Specialist for %s 🦴

Hey there! 👋 I'm here to help with %s's diet!

### 🐾 Key Tips
1. [First tip]
2. [Second tip]

💭 *Quick Question:* [One question]`

	formatAssessment = `Format:
## 🏥 Health Assessment for %s 🏥

Hi! 👋 I'm here to help keep %s healthy!

### 🔍 Observations
1. [First observation]
2. [Second observation]

💭 *Quick Question:* [One question]`

	formatAnalysis = `Format:
## 📊 Health Analysis for %s 📊

Hello! 👋 I'm here to analyze %s's health data!

### 💡 Insights
1. [First insight]
2. [Second insight]

💭 *Quick Question:* [One question]`

	formatCreative = `Format:
## 🎨 Activity Ideas for %s 🎨

Hey! 👋 I'm here to make %s's life more fun!

### 🎾 Suggestions
1. [First idea]
2. [Second idea]

💭 *Quick Question:* [One question]`

	formatGeneral = `Format:
## 🐾 Pet Care Tips for %s 🐾

Hi! 👋 I'm here to help with %s's care!

### 💕 Recommendations
1. [First tip]
2. [Second tip]

💭 *Quick Question:* [One question]`
)

func conditionList(pet *petdb.PetProfile) []string {
	conditions := make([]string, 0, len(pet.MedicalConditions)+1)
	for _, c := range pet.MedicalConditions {
		if c == "Other" && pet.OtherCondition != "" {
			conditions = append(conditions, pet.OtherCondition)
			continue
		}
		conditions = append(conditions, c)
	}
	return conditions
}

func dietList(pet *petdb.PetProfile) []string {
	diets := make([]string, 0, len(pet.DietTypes)+1)
	for _, d := range pet.DietTypes {
		if d == "Other" && pet.OtherDietType != "" {
			diets = append(diets, pet.OtherDietType)
			continue
		}
		diets = append(diets, d)
	}
	return diets
}

func supplementString(pet *petdb.PetProfile) string {
	if !pet.TakesSupplements {
		return "none"
	}
	return valueOrNone(pet.SupplementDetails)
}

func aloneString(pet *petdb.PetProfile) string {
	if !pet.AloneInDay {
		return "rarely alone during the day"
	}
	return fmt.Sprintf("about %d hours alone per day", pet.HoursAlone)
}

func ageString(birthDate time.Time) string {
	months := monthsSince(birthDate, time.Now())
	if months < 12 {
		return fmt.Sprintf("%d months", months)
	}
	return fmt.Sprintf("%d years", months/12)
}

func monthsSince(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func valueOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
