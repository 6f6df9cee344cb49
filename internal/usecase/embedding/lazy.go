package embedding

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

// Factory builds the embedder on first use.
type Factory func() (domain.Embedder, error)

// Lazy is a process-wide embedder cell initialized once on first use.
// An init failure is sticky: every later call reports the same error.
type Lazy struct {
	factory Factory
	logger  *zap.Logger

	once  sync.Once
	inner domain.Embedder
	err   error
}

// NewLazy creates an uninitialized cell.
func NewLazy(factory Factory, logger *zap.Logger) *Lazy {
	return &Lazy{factory: factory, logger: logger}
}

func (l *Lazy) get() (domain.Embedder, error) {
	l.once.Do(func() {
		l.logger.Info("Initializing embedding model")
		l.inner, l.err = l.factory()
		if l.err == nil && l.inner == nil {
			l.err = fmt.Errorf("embedding factory returned nil: %w", domain.ErrEmbeddingProviderError)
		}
		if l.err != nil {
			l.logger.Error("Embedding model initialization failed", zap.Error(l.err))
			return
		}
		l.logger.Info("Embedding model ready")
	})
	return l.inner, l.err
}

// Embed initializes the cell if needed and delegates.
func (l *Lazy) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	inner, err := l.get()
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("lazy embedder init: %w", err)
	}
	return inner.Embed(ctx, text) //nolint:wrapcheck // transparent proxy
}

// HealthCheck reports the init error, then proxies to the inner embedder.
func (l *Lazy) HealthCheck(ctx context.Context) error {
	inner, err := l.get()
	if err != nil {
		return fmt.Errorf("lazy embedder init: %w", err)
	}
	if hc, ok := inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent proxy
	}
	return nil
}
