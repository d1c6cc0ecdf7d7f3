// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package petdb

import "time"

// AgentType identifies one of the fixed AI personas a chat belongs to.
type AgentType string

const (
	AgentGeneral    AgentType = "general"
	AgentNutrition  AgentType = "nutrition"
	AgentAssessment AgentType = "assessment"
	AgentAnalysis   AgentType = "analysis"
	AgentCreative   AgentType = "creative"
)

// AgentTypes returns all agent types in display order.
func AgentTypes() []AgentType {
	return []AgentType{AgentGeneral, AgentNutrition, AgentAssessment, AgentAnalysis, AgentCreative}
}

// ValidAgentType reports whether s names a known agent type.
func ValidAgentType(s string) bool {
	switch AgentType(s) {
	case AgentGeneral, AgentNutrition, AgentAssessment, AgentAnalysis, AgentCreative:
		return true
	}
	return false
}

type ChatRole string

const (
	// ChatRoleUser represents a user message.
	ChatRoleUser ChatRole = "user"
	// ChatRoleAssistant represents an assistant message.
	ChatRoleAssistant ChatRole = "assistant"
	// ChatRoleSystem represents a persona prompt. System messages are kept
	// in memory only and never persisted.
	ChatRoleSystem ChatRole = "system"
)

// ChatSession groups messages under one agent persona for one pet.
type ChatSession struct {
	// ID is the unique identifier for the session.
	ID string `firestore:"id" json:"id"`

	// UserID is the ID of the owning user.
	UserID string `firestore:"user_id" json:"user_id"`

	// PetID is the ID of the pet the conversation is about.
	PetID string `firestore:"pet_id" json:"pet_id"`

	// Title starts as a placeholder and is replaced asynchronously by a
	// generated summary after the first full exchange.
	Title string `firestore:"title" json:"title"`

	// CreatedAt is the timestamp when the session was created.
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
}

// ChatMessage is one persisted message in a chat session.
type ChatMessage struct {
	// ID is the unique identifier of the message.
	ID string `firestore:"id" json:"id"`

	// SessionID is the ID of the owning session.
	SessionID string `firestore:"session_id" json:"session_id"`

	// Content is the text content of the message.
	Content string `firestore:"content" json:"content"`

	// Role is the role of the message sender.
	Role ChatRole `firestore:"role" json:"role"`

	// AgentType is the persona the message belongs to.
	AgentType AgentType `firestore:"agent_type" json:"agent_type"`

	// Images are inline base64 JPEG payloads, at most five per message.
	Images []string `firestore:"images" json:"images"`

	// HasMoreFiles is set when the user attached more files than the inline
	// image bound; the overflow carries no content.
	HasMoreFiles bool `firestore:"has_more_files" json:"has_more_files"`

	// Timestamp is the send time. Messages are persisted in arrival order.
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
}
