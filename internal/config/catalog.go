package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fanout-cli/internal/cost"
	"github.com/sells-group/fanout-cli/internal/model"
)

// CatalogEntry overrides settings for one provider.
type CatalogEntry struct {
	BaseURL       string     `yaml:"base_url"`
	Model         string     `yaml:"model"`
	RatePerMinute float64    `yaml:"rate_per_minute"`
	Pricing       *cost.Rate `yaml:"pricing"`
}

// Catalog is an optional providers.yaml file overriding per-provider
// endpoints, models, rate limits, and pricing.
type Catalog struct {
	Providers map[model.Provider]CatalogEntry `yaml:"providers"`
}

// LoadCatalog reads and parses a provider catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read catalog %s", path)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, eris.Wrapf(err, "config: parse catalog %s", path)
	}

	for p := range cat.Providers {
		if !p.Valid() {
			return nil, eris.Errorf("config: catalog names unknown provider %q", p)
		}
	}

	return &cat, nil
}

// Apply merges the catalog's entries into the configuration. Zero-value
// fields leave the existing setting untouched.
func (c *Catalog) Apply(cfg *Config) {
	for provider, entry := range c.Providers {
		pc := cfg.Providers.For(provider)
		if entry.BaseURL != "" {
			pc.BaseURL = entry.BaseURL
		}
		if entry.Model != "" {
			pc.Model = entry.Model
		}
		cfg.Providers.set(provider, pc)

		if entry.RatePerMinute > 0 {
			if cfg.Dispatch.RatePerMinute == nil {
				cfg.Dispatch.RatePerMinute = make(map[model.Provider]float64)
			}
			cfg.Dispatch.RatePerMinute[provider] = entry.RatePerMinute
		}
		if entry.Pricing != nil {
			if cfg.Pricing == nil {
				cfg.Pricing = make(cost.Rates)
			}
			cfg.Pricing[provider] = *entry.Pricing
		}
	}
}

func (p *ProvidersConfig) set(provider model.Provider, pc ProviderConfig) {
	switch provider {
	case model.ProviderOpenAI:
		p.OpenAI = pc
	case model.ProviderAnthropic:
		p.Anthropic = pc
	case model.ProviderGemini:
		p.Gemini = pc
	case model.ProviderDeepSeek:
		p.DeepSeek = pc
	}
}
