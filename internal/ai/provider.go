// Package ai implements the LLM extractors used as fallback/first-pass
// parsers for people-movement and funding headlines.
//
// Extraction is advisory: every caller must treat an error from a
// provider as "no result" and fall back to its rule-based parser. A
// malformed or non-JSON model response is an extraction failure, never
// a fatal error.
package ai

import (
	"context"
	"fmt"
)

// Extractor is the interface that all LLM providers must implement.
type Extractor interface {
	// ExtractPeople extracts {name, company, designation} from a single
	// people-movement headline.
	ExtractPeople(ctx context.Context, title string) (*PeopleFields, error)

	// ExtractFunding extracts {company, amount, round, investors} from a
	// funding headline plus optional summary.
	ExtractFunding(ctx context.Context, title, summary string) (*FundingFields, error)
}

// NewProvider creates the appropriate provider based on config.
func NewProvider(cfg ProviderConfig) (Extractor, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.Model), nil
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
