package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/domain/question"
	"github.com/kailas-cloud/quizgen/internal/metrics"
)

// SegmentGenerator asks the model for questions about one segment of text.
type SegmentGenerator struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewSegmentGenerator creates a generator. timeout <= 0 disables the per-call deadline.
func NewSegmentGenerator(completer Completer, timeout time.Duration, logger *zap.Logger) *SegmentGenerator {
	return &SegmentGenerator{completer: completer, timeout: timeout, logger: logger}
}

// Generate returns the questions the model produced for text, difficulty normalized.
// Unparseable output yields an empty result; only a failed model call is an error.
// Questions are not validated here.
func (g *SegmentGenerator) Generate(
	ctx context.Context, text string, filter question.Difficulty,
) ([]question.Question, error) {
	if strings.TrimSpace(text) == "" {
		metrics.SegmentsTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	content, err := g.completer.Complete(callCtx, BuildPrompt(text, filter), 0)
	if err != nil {
		metrics.SegmentsTotal.WithLabelValues("model_error").Inc()
		return nil, fmt.Errorf("complete segment: %w", err)
	}

	raws, err := parseQuestions(content)
	if err != nil {
		metrics.SegmentsTotal.WithLabelValues("parse_error").Inc()
		g.logger.Warn("Failed to parse model output",
			zap.Int("output_len", len(content)),
			zap.String("output_head", domain.TruncateRunes(content, 200)),
			zap.Error(err),
		)
		return nil, nil
	}

	out := make([]question.Question, 0, len(raws))
	for _, r := range raws {
		out = append(out, question.Question{
			Text:       r.Question,
			Options:    r.Options,
			Answer:     r.Answer,
			Difficulty: question.Normalize(r.Difficulty, filter),
		})
	}

	metrics.SegmentsTotal.WithLabelValues("ok").Inc()
	return out, nil
}
