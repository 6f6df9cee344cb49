package domain

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxEmbeddingChars caps embedding input; all-MiniLM-class models see ~512 tokens.
const DefaultMaxEmbeddingChars = 2000

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// TruncatingEmbedder is a domain decorator that caps input length in runes before embedding.
// Longer text is truncated, never rejected.
type TruncatingEmbedder struct {
	inner    Embedder
	maxRunes int
}

// NewTruncatingEmbedder creates a decorator; maxRunes <= 0 uses DefaultMaxEmbeddingChars.
func NewTruncatingEmbedder(inner Embedder, maxRunes int) *TruncatingEmbedder {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxEmbeddingChars
	}
	return &TruncatingEmbedder{inner: inner, maxRunes: maxRunes}
}

// Embed truncates text and delegates to the inner embedder.
func (e *TruncatingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, TruncateRunes(text, e.maxRunes))
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("truncating embed: %w", err)
	}
	return result, nil
}

// HealthCheck proxies to the inner embedder when it supports health checks.
func (e *TruncatingEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent proxy
	}
	return nil
}

// TruncateRunes returns at most n leading runes of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// IsBlank reports whether s contains only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
