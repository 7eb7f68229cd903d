// Package knowledge renders the administrator-curated knowledge base and
// resolves per-agent generation settings.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/daycare-ai/backend/internal/model/daycare"
	"github.com/zhouzirui/daycare-ai/backend/internal/model/persona"
	"github.com/zhouzirui/daycare-ai/backend/internal/store"
)

const (
	// DefaultTemperature applies when an agent config leaves temperature unset.
	DefaultTemperature = 0.7
	// DefaultMaxTokens applies when an agent config leaves the token budget unset.
	DefaultMaxTokens = 1000

	documentSeparator = "\n\n---\n\n"
)

// Fetcher reads knowledge documents and agent configs from the store.
type Fetcher struct {
	repo store.KnowledgeRepository
}

// NewFetcher creates a Fetcher over repo.
func NewFetcher(repo store.KnowledgeRepository) *Fetcher {
	return &Fetcher{repo: repo}
}

// Docs returns the active documents targeting any of agentTypes as a single
// block, newest first. An empty string means there is nothing to inject.
func (f *Fetcher) Docs(ctx context.Context, agentTypes ...persona.AgentType) (string, error) {
	docs, err := f.repo.ActiveKnowledgeDocuments(ctx, agentTypes)
	if err != nil {
		return "", fmt.Errorf("load knowledge documents: %w", err)
	}
	return Render(docs), nil
}

// Config returns the stored config for agentType, or nil when none exists.
func (f *Fetcher) Config(ctx context.Context, agentType persona.AgentType) (*daycare.AgentConfig, error) {
	cfg, err := f.repo.AgentConfig(ctx, agentType)
	if err != nil {
		return nil, fmt.Errorf("load agent config %s: %w", agentType, err)
	}
	return cfg, nil
}

// Render formats documents as markdown headings separated by horizontal rules.
func Render(docs []daycare.KnowledgeDocument) string {
	if len(docs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, "### "+doc.Title+"\n"+doc.Content)
	}
	return strings.Join(parts, documentSeparator)
}

// Settings are the generation parameters a persona runs with.
type Settings struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Resolve merges cfg over the built-in defaults. Empty prompts and zero
// numeric values count as unset.
func Resolve(cfg *daycare.AgentConfig, defaultPrompt string) Settings {
	settings := Settings{
		SystemPrompt: defaultPrompt,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
	}
	if cfg == nil {
		return settings
	}

	if cfg.SystemPrompt != nil && strings.TrimSpace(*cfg.SystemPrompt) != "" {
		settings.SystemPrompt = *cfg.SystemPrompt
	}
	if cfg.Temperature != nil && *cfg.Temperature != 0 {
		settings.Temperature = *cfg.Temperature
	}
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 {
		settings.MaxTokens = *cfg.MaxTokens
	}
	return settings
}
