package llm

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Provider identifies a model provider.
type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenRouter Provider = "openrouter"
)

// ModelDescriptor describes one model offered through the catalog.
type ModelDescriptor struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Provider           Provider `json:"provider"`
	ContextTokens      int      `json:"context_length"`
	MaxTokens          int      `json:"max_tokens"`
	SupportsTimestamps bool     `json:"supports_timestamps"`
	Multimodal         bool     `json:"supports_multimodal"`
	Speed              string   `json:"speed"`
	Cost               string   `json:"cost"`
	Description        string   `json:"description"`
}

// geminiModels are offered when a Gemini API key is configured.
var geminiModels = []ModelDescriptor{
	{
		ID:                 "gemini-2.0-flash",
		Name:               "Gemini 2.0 Flash",
		Provider:           ProviderGemini,
		ContextTokens:      1000000,
		MaxTokens:          8192,
		SupportsTimestamps: true,
		Multimodal:         true,
		Speed:              "fast",
		Cost:               "free",
		Description:        "Fast and efficient for most tasks",
	},
	{
		ID:                 "gemini-2.0-pro",
		Name:               "Gemini 2.0 Pro",
		Provider:           ProviderGemini,
		ContextTokens:      2000000,
		MaxTokens:          8192,
		SupportsTimestamps: true,
		Multimodal:         true,
		Speed:              "medium",
		Cost:               "free",
		Description:        "Advanced reasoning for complex tasks",
	},
}

// openRouterModels are offered when an OpenRouter API key is configured.
var openRouterModels = []ModelDescriptor{
	{
		ID:                 "openai/gpt-3.5-turbo",
		Name:               "ChatGPT 3.5 Turbo",
		Provider:           ProviderOpenRouter,
		ContextTokens:      16384,
		MaxTokens:          4096,
		SupportsTimestamps: true,
		Speed:              "fast",
		Cost:               "free_tier",
		Description:        "OpenAI's fast and capable model",
	},
	{
		ID:                 "anthropic/claude-3-haiku",
		Name:               "Claude 3 Haiku",
		Provider:           ProviderOpenRouter,
		ContextTokens:      200000,
		MaxTokens:          4096,
		SupportsTimestamps: true,
		Speed:              "very_fast",
		Cost:               "free_tier",
		Description:        "Anthropic's fastest and most affordable model",
	},
	{
		ID:                 "mistralai/mistral-small",
		Name:               "Mistral Small",
		Provider:           ProviderOpenRouter,
		ContextTokens:      32000,
		MaxTokens:          8192,
		SupportsTimestamps: true,
		Speed:              "fast",
		Cost:               "free_tier",
		Description:        "Efficient and capable small model",
	},
	{
		ID:                 "google/gemma-2-2b-it",
		Name:               "Gemma 2 (2B)",
		Provider:           ProviderOpenRouter,
		ContextTokens:      8000,
		MaxTokens:          4096,
		SupportsTimestamps: false,
		Speed:              "very_fast",
		Cost:               "free",
		Description:        "Lightweight model for quick responses",
	},
	{
		ID:                 "qwen/qwen-2.5-7b-instruct",
		Name:               "Qwen 2.5 (7B)",
		Provider:           ProviderOpenRouter,
		ContextTokens:      32000,
		MaxTokens:          8192,
		SupportsTimestamps: true,
		Speed:              "medium",
		Cost:               "free_tier",
		Description:        "Strong multilingual capabilities",
	},
}

// availabilityTTL bounds how long a provider Ping result is reused.
const availabilityTTL = 5 * time.Minute

// Catalog holds the models usable with the configured credentials and
// routes each model ID to its provider client. Provider availability
// is probed lazily and cached.
type Catalog struct {
	clients map[Provider]Client
	models  map[string]ModelDescriptor

	mu     sync.Mutex
	probed map[Provider]availability
}

type availability struct {
	ok      bool
	checked time.Time
}

// NewCatalog builds a catalog from the provider clients that have
// credentials. Nil clients are skipped along with their models.
func NewCatalog(gemini, openRouter Client) *Catalog {
	c := &Catalog{
		clients: make(map[Provider]Client),
		models:  make(map[string]ModelDescriptor),
		probed:  make(map[Provider]availability),
	}
	if gemini != nil {
		c.clients[ProviderGemini] = gemini
		for _, m := range geminiModels {
			c.models[m.ID] = m
		}
	}
	if openRouter != nil {
		c.clients[ProviderOpenRouter] = openRouter
		for _, m := range openRouterModels {
			c.models[m.ID] = m
		}
	}
	return c
}

// Lookup returns the descriptor for a model ID.
func (c *Catalog) Lookup(modelID string) (ModelDescriptor, bool) {
	m, ok := c.models[modelID]
	return m, ok
}

// ClientFor returns the provider client serving a model ID.
func (c *Catalog) ClientFor(modelID string) (Client, bool) {
	m, ok := c.models[modelID]
	if !ok {
		return nil, false
	}
	client, ok := c.clients[m.Provider]
	return client, ok
}

// Models lists all credentialed models sorted by ID.
func (c *Catalog) Models() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Available reports whether a provider currently answers Ping. Results
// are cached for availabilityTTL so catalog listings do not hammer
// provider APIs.
func (c *Catalog) Available(ctx context.Context, p Provider) bool {
	client, ok := c.clients[p]
	if !ok {
		return false
	}

	c.mu.Lock()
	if a, ok := c.probed[p]; ok && time.Since(a.checked) < availabilityTTL {
		c.mu.Unlock()
		return a.ok
	}
	c.mu.Unlock()

	err := client.Ping(ctx)

	c.mu.Lock()
	c.probed[p] = availability{ok: err == nil, checked: time.Now()}
	c.mu.Unlock()

	return err == nil
}

// Recommend returns the model IDs suited to a query type, filtered to
// models the catalog actually offers.
func (c *Catalog) Recommend(queryType string) []string {
	recommended, ok := recommendations[queryType]
	if !ok {
		recommended = []string{"gemini-2.0-flash"}
	}

	var out []string
	for _, id := range recommended {
		if _, ok := c.models[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

var recommendations = map[string][]string{
	"summary":       {"gemini-2.0-flash", "gemini-2.0-pro"},
	"word_analysis": {"gemini-2.0-flash", "openai/gpt-3.5-turbo"},
	"quiz":          {"gemini-2.0-pro", "anthropic/claude-3-haiku"},
	"translation":   {"gemini-2.0-flash", "qwen/qwen-2.5-7b-instruct"},
	"explanation":   {"gemini-2.0-pro", "openai/gpt-3.5-turbo"},
	"general":       {"gemini-2.0-flash", "openai/gpt-3.5-turbo"},
}
