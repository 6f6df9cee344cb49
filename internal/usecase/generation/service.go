package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/domain/budget"
	"github.com/kailas-cloud/quizgen/internal/domain/chunk"
	"github.com/kailas-cloud/quizgen/internal/domain/question"
	"github.com/kailas-cloud/quizgen/internal/metrics"
)

// RelatedSeparator joins the source text with each related document.
const RelatedSeparator = "\n\n--- Related content ---\n\n"

// Request is a single question generation call.
type Request struct {
	Content            string
	Difficulty         string // "", "mixed", "easy", "medium" or "hard"
	OwnerID            string
	DocumentID         string // optional, enables "similar to stored document" enrichment
	UseSemanticContext bool
	TopK               int
}

// Result is the bounded, validated question set.
type Result struct {
	Questions  []question.Question `json:"questions"`
	Difficulty string              `json:"difficulty"`
	Segments   int                 `json:"segments"`
	Enriched   bool                `json:"enriched"`
}

// Options tunes the orchestrator.
type Options struct {
	MaxTotal int // <= 0 uses DefaultMaxTotal
	TopK     int // default related-document count when the request leaves it unset
}

// Service orchestrates validation, enrichment, chunking, fan-out and aggregation.
type Service struct {
	producer  SegmentProducer
	retriever Retriever
	chunker   *chunk.Chunker
	pool      Pool
	maxTotal  int
	topK      int
	logger    *zap.Logger
}

// New creates the orchestrator. retriever may be nil (no enrichment);
// pool may be nil (segments run sequentially in the calling goroutine).
func New(
	producer SegmentProducer, retriever Retriever, chunker *chunk.Chunker,
	pool Pool, opts Options, logger *zap.Logger,
) *Service {
	if chunker == nil {
		chunker = chunk.Default()
	}
	if opts.MaxTotal <= 0 {
		opts.MaxTotal = DefaultMaxTotal
	}
	return &Service{
		producer:  producer,
		retriever: retriever,
		chunker:   chunker,
		pool:      pool,
		maxTotal:  opts.MaxTotal,
		topK:      opts.TopK,
		logger:    logger,
	}
}

// Generate produces at most MaxTotal validated, de-duplicated questions for req.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Content) == "" {
		return Result{}, domain.ErrEmptyContent
	}
	if err := budget.CheckLength(req.Content); err != nil {
		return Result{}, fmt.Errorf("check length: %w", err)
	}
	filter, err := question.ParseFilter(req.Difficulty)
	if err != nil {
		return Result{}, fmt.Errorf("parse difficulty: %w", err)
	}
	if ctx.Err() != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
	}

	start := time.Now()

	text, enriched := s.enrich(ctx, req)

	segments, path := s.plan(text)
	s.logger.Info("Generating questions",
		zap.String("path", path),
		zap.Int("length", budget.Length(text)),
		zap.Int("estimated_tokens", budget.EstimateTokens(text)),
		zap.Int("segments", len(segments)),
		zap.String("difficulty", question.FilterLabel(filter)),
		zap.Bool("enriched", enriched),
	)

	batches, err := s.run(ctx, segments, filter)
	if err != nil {
		return Result{}, err
	}

	questions := aggregate(batches, s.maxTotal, s.logger)
	metrics.GenerationDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	if len(questions) == 0 {
		return Result{}, domain.ErrNoQuestionsGenerated
	}

	s.logger.Info("Generated questions",
		zap.Int("questions", len(questions)),
		zap.Int("segments", len(segments)),
		zap.Duration("duration", time.Since(start)),
	)

	return Result{
		Questions:  questions,
		Difficulty: question.FilterLabel(filter),
		Segments:   len(segments),
		Enriched:   enriched,
	}, nil
}

// enrich appends the owner's related documents to the source text.
// Any failure, or a request without an owner, yields the original text.
func (s *Service) enrich(ctx context.Context, req Request) (string, bool) {
	if !req.UseSemanticContext || s.retriever == nil {
		return req.Content, false
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		metrics.EnrichmentTotal.WithLabelValues("empty").Inc()
		return req.Content, false
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	var candidates []domain.ContextCandidate
	if req.DocumentID != "" {
		found, err := s.retriever.FindSimilarTo(ctx, req.DocumentID, req.OwnerID, topK)
		if err != nil {
			s.logger.Warn("Semantic context unavailable for document",
				zap.String("document_id", req.DocumentID),
				zap.Error(err),
			)
		}
		candidates = found
	} else {
		candidates = s.retriever.FindRelated(ctx, req.Content, req.OwnerID, topK)
	}

	if len(candidates) == 0 {
		metrics.EnrichmentTotal.WithLabelValues("empty").Inc()
		return req.Content, false
	}
	metrics.EnrichmentTotal.WithLabelValues("applied").Inc()

	var b strings.Builder
	b.WriteString(req.Content)
	for _, c := range candidates {
		b.WriteString(RelatedSeparator)
		b.WriteString(c.Content)
	}
	return b.String(), true
}

// plan decides between a single request and chunked segments.
func (s *Service) plan(text string) ([]chunk.Segment, string) {
	if budget.FitsSingleRequest(text) {
		return []chunk.Segment{{Index: 0, Text: text, Start: 0, End: budget.Length(text)}}, "single"
	}
	return s.chunker.Split(text), "chunked"
}

// run fans segments out to the pool; results are stored by segment index.
func (s *Service) run(
	ctx context.Context, segments []chunk.Segment, filter question.Difficulty,
) ([][]question.Question, error) {
	batches := make([][]question.Question, len(segments))

	if s.pool == nil {
		for i, seg := range segments {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
			}
			batches[i] = s.runSegment(ctx, seg, len(segments), filter)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
		}
		return batches, nil
	}

	var wg sync.WaitGroup
	for i, seg := range segments {
		// Submit blocks while a shared pool is saturated.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			batches[i] = s.runSegment(ctx, seg, len(segments), filter)
		}
		if err := s.pool.Submit(task); err != nil {
			s.logger.Warn("Worker pool rejected segment, running inline",
				zap.Int("segment", seg.Index),
				zap.Error(err),
			)
			task()
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
	case <-done:
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err())
	}
	return batches, nil
}

// runSegment absorbs segment failures into an empty batch.
func (s *Service) runSegment(
	ctx context.Context, seg chunk.Segment, total int, filter question.Difficulty,
) []question.Question {
	qs, err := s.producer.Generate(ctx, seg.Text, filter)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("Segment generation failed",
			zap.Int("segment", seg.Index+1),
			zap.Int("segments", total),
			zap.Error(err),
		)
		return nil
	}
	s.logger.Debug("Segment processed",
		zap.Int("segment", seg.Index+1),
		zap.Int("segments", total),
		zap.Int("questions", len(qs)),
	)
	return qs
}
