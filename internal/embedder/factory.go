package embedder

import "github.com/hiroq/audionotes/internal/model"

// NewEmbedder はEmbedderConfigからEmbedderを作成
func NewEmbedder(cfg *model.EmbedderConfig, envAPIKey string) (Embedder, error) {
	switch cfg.Provider {
	case model.ProviderOpenAI:
		// APIKey解決: cfg.APIKey > envAPIKey
		apiKey := envAPIKey
		if cfg.APIKey != nil && *cfg.APIKey != "" {
			apiKey = *cfg.APIKey
		}

		opts := []OpenAIOption{}

		if cfg.BaseURL != nil && *cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(*cfg.BaseURL))
		}

		if cfg.Model != "" {
			opts = append(opts, WithModel(cfg.Model))
		}

		if cfg.Dim > 0 {
			opts = append(opts, WithDim(cfg.Dim))
		}

		return NewOpenAIEmbedder(apiKey, opts...)

	case model.ProviderLocal:
		return NewLocalEmbedder(cfg.Dim), nil

	default:
		return nil, ErrUnknownProvider
	}
}
