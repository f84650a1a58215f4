// Package provider routes judge prompts to LLM backends. Each backend is a
// Client with a single Complete method; a registry maps provider ids to
// configured clients, and Resolve picks the provider for a judge from its
// model name and optional override.
package provider

import (
	"context"
	"os"
	"strings"
	"time"
)

// Provider ids.
const (
	Groq      = "groq"
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Gemini    = "gemini"
)

// Verdict responses are tiny; cap completions accordingly.
const maxCompletionTokens = 400

const defaultTimeout = 60 * time.Second

// Client is one configured LLM backend.
type Client interface {
	// Complete sends prompt as a single user message to model and returns
	// the raw response text.
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Resolve maps a judge's provider override and model name to a provider id.
// Inference from the model name runs first; when an override disagrees with
// a successful inference, the inference wins (judges routinely carry stale
// overrides after a model swap). An empty result means the judge is
// unroutable.
func Resolve(override, model string) string {
	inferred := ""
	if model != "" {
		m := strings.ToLower(model)
		switch {
		case strings.HasPrefix(m, "gemini"):
			inferred = Gemini
		case strings.HasPrefix(m, "gpt"), strings.HasPrefix(m, "o1"):
			inferred = OpenAI
		case strings.HasPrefix(m, "claude"):
			inferred = Anthropic
		case strings.HasPrefix(m, "llama"), strings.HasPrefix(m, "mixtral"):
			inferred = Groq
		}
	}

	if override != "" {
		ov := strings.ToLower(strings.TrimSpace(override))
		if inferred != "" && inferred != ov {
			return inferred
		}
		return ov
	}
	return inferred
}

// ClientsFromEnv builds the provider-clients map from API-key environment
// variables. A provider is present only when its key is configured.
func ClientsFromEnv() map[string]Client {
	clients := make(map[string]Client)
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		clients[Groq] = newChatClient(Groq, key, groqEndpoint)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		clients[OpenAI] = newChatClient(OpenAI, key, openAIEndpoint)
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		clients[Anthropic] = newAnthropicClient(key)
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		clients[Gemini] = newGeminiClient(key)
	}
	return clients
}
