package generation

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain/question"
	"github.com/kailas-cloud/quizgen/internal/metrics"
)

// DefaultMaxTotal is the cap on questions returned per request.
const DefaultMaxTotal = 15

// aggregate flattens per-segment batches in order, drops invalid questions and
// exact-text duplicates, and truncates to maxTotal.
func aggregate(batches [][]question.Question, maxTotal int, logger *zap.Logger) []question.Question {
	seen := make(map[string]struct{})
	out := make([]question.Question, 0, maxTotal)

	var invalid, duplicate, capped int
	for _, batch := range batches {
		for i := range batch {
			q := batch[i]
			if err := q.Validate(); err != nil {
				invalid++
				logger.Debug("Dropped invalid question", zap.Error(err))
				continue
			}
			if _, dup := seen[q.Text]; dup {
				duplicate++
				continue
			}
			if len(out) == maxTotal {
				capped++
				continue
			}
			seen[q.Text] = struct{}{}
			out = append(out, q)
		}
	}

	metrics.QuestionsTotal.WithLabelValues("emitted").Add(float64(len(out)))
	metrics.QuestionsTotal.WithLabelValues("invalid").Add(float64(invalid))
	metrics.QuestionsTotal.WithLabelValues("duplicate").Add(float64(duplicate))
	metrics.QuestionsTotal.WithLabelValues("capped").Add(float64(capped))

	if invalid > 0 || duplicate > 0 || capped > 0 {
		logger.Info("Questions discarded during aggregation",
			zap.Int("invalid", invalid),
			zap.Int("duplicate", duplicate),
			zap.Int("capped", capped),
		)
	}
	return out
}
