package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/config"
	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/metrics"
	"github.com/kailas-cloud/quizgen/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/quizgen/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/quizgen/internal/usecase/embedding"
)

// buildEmbedder returns the process-wide lazy embedder.
// Chain (inner to outer): OpenAI -> Cached -> Instrumented -> Truncating, built on first use.
func buildEmbedder(cfg config.EmbeddingConfig, be *backend, logger *zap.Logger) *embeddinguc.Lazy {
	factory := func() (domain.Embedder, error) {
		base := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})

		var embedder domain.Embedder = base
		if cfg.Cache.Enabled && be != nil && be.redis != nil {
			embedder = embcache.New(base, be.redis, embcache.Options{
				Prefix: cfg.Cache.Prefix,
				Model:  cfg.Model,
				TTL:    time.Duration(cfg.Cache.TTLSec) * time.Second,
			}, metrics.EmbeddingCacheTotal, logger)
		}

		embedder = embeddinguc.NewInstrumentedEmbedder(
			embedder, cfg.Provider, cfg.Model,
			time.Duration(cfg.TimeoutSec)*time.Second, logger,
		)

		return domain.NewTruncatingEmbedder(embedder, cfg.MaxInputChars), nil
	}
	return embeddinguc.NewLazy(factory, logger)
}
