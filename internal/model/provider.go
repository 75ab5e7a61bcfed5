package model

import "github.com/rotisserie/eris"

// Provider identifies one external AI-completion backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderDeepSeek  Provider = "deepseek"
)

// canonicalOrder fixes the display and listing order for providers.
var canonicalOrder = []Provider{
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderGemini,
	ProviderDeepSeek,
}

// AllProviders returns the supported providers in canonical order.
func AllProviders() []Provider {
	out := make([]Provider, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// Valid reports whether p is a supported provider identity.
func (p Provider) Valid() bool {
	for _, known := range canonicalOrder {
		if p == known {
			return true
		}
	}
	return false
}

func (p Provider) String() string {
	return string(p)
}

// ParseProvider converts a string into a Provider, rejecting unknown values.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.Valid() {
		return "", eris.Errorf("unknown provider %q", s)
	}
	return p, nil
}

// SortProviders orders a provider set canonically, dropping duplicates.
func SortProviders(providers []Provider) []Provider {
	seen := make(map[Provider]bool, len(providers))
	for _, p := range providers {
		seen[p] = true
	}
	out := make([]Provider, 0, len(seen))
	for _, p := range canonicalOrder {
		if seen[p] {
			out = append(out, p)
		}
	}
	return out
}
