package extraction

import "fmt"

// NewExtractor creates an extractor based on configuration.
func NewExtractor(cfg Config) (Extractor, error) {
	switch cfg.Provider {
	case "openai", "":
		return newOpenAIExtractor(cfg)
	default:
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
}
