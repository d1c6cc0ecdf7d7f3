// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"github.com/curioswitch/go-curiostack/config"
)

type Chat struct {
	// Model is the completion model used for chat turns, e.g. gpt-5-mini.
	Model string `koanf:"model"`

	// Provider selects the completion backend, openai or gemini. Defaults to
	// openai.
	Provider string `koanf:"provider"`

	// GeminiModel is the model used when the gemini provider is selected.
	GeminiModel string `koanf:"geminimodel"`

	// MaxAttempts bounds completion attempts while the provider is rate limiting.
	MaxAttempts int `koanf:"maxattempts"`

	// MaxOutputTokens caps the visible text of a completion.
	MaxOutputTokens int `koanf:"maxoutputtokens"`
}

type Config struct {
	config.Common

	// Chat is the configuration for the completion gateway.
	Chat Chat `koanf:"chat"`
}
