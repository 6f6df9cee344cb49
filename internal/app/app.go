// Package app is the composition root shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/config"
	openaiTransport "github.com/kailas-cloud/quizgen/internal/transport/openai"
	"github.com/kailas-cloud/quizgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/quizgen/internal/usecase/health"
	"github.com/kailas-cloud/quizgen/internal/usecase/indexing"
	"github.com/kailas-cloud/quizgen/internal/usecase/retrieval"
)

// App holds the wired use cases.
type App struct {
	Generation *generation.Service
	Retrieval  *retrieval.Service
	Indexing   *indexing.Service
	Health     *healthuc.Service

	pool    *ants.Pool
	backend *backend
	logger  *zap.Logger
}

// New connects the vector backend and wires every use case.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder := buildEmbedder(cfg.Embedding, be, logger)

	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:    cfg.Generation.APIKey,
		BaseURL:   cfg.Generation.BaseURL,
		Model:     cfg.Generation.Model,
		MaxTokens: cfg.Generation.MaxTokens,
		Logger:    logger,
	})

	var pool *ants.Pool
	var genPool generation.Pool // nil interface, not a typed nil pointer
	if cfg.Generation.Workers > 0 {
		pool, err = newPool(cfg.Generation.Workers, logger)
		if err != nil {
			be.close()
			return nil, err
		}
		genPool = pool
	}

	retrievalSvc := retrieval.New(be.index, embedder, cfg.Embedding.MaxInputChars, logger)
	indexingSvc := indexing.New(be.index, embedder, cfg.Vector.Dimensions, cfg.Embedding.MaxInputChars, logger)

	producer := generation.NewSegmentGenerator(
		completer, time.Duration(cfg.Generation.TimeoutSec)*time.Second, logger,
	)
	generationSvc := generation.New(producer, retrievalSvc, nil, genPool, generation.Options{
		MaxTotal: cfg.Generation.MaxTotal,
		TopK:     cfg.Retrieval.TopK,
	}, logger)

	healthSvc := healthuc.New(be.ping, embedder, completer)

	logger.Info("Application wired",
		zap.String("vector_driver", cfg.Vector.Driver),
		zap.Int("dimensions", cfg.Vector.Dimensions),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
		zap.Int("workers", cfg.Generation.Workers),
		zap.Bool("embedding_cache", cfg.Embedding.Cache.Enabled && be.redis != nil),
	)

	return &App{
		Generation: generationSvc,
		Retrieval:  retrievalSvc,
		Indexing:   indexingSvc,
		Health:     healthSvc,
		pool:       pool,
		backend:    be,
		logger:     logger,
	}, nil
}

// Close releases the worker pool and the backend connection.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Release()
	}
	if a.backend != nil && a.backend.close != nil {
		a.backend.close()
	}
}

func newPool(workers int, logger *zap.Logger) (*ants.Pool, error) {
	// Nonblocking: a saturated pool fails Submit and the segment runs in the request goroutine.
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithExpiryDuration(time.Minute),
		ants.WithPanicHandler(func(p any) {
			logger.Error("Worker panic recovered", zap.Any("panic", p), zap.Stack("stacktrace"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return pool, nil
}
