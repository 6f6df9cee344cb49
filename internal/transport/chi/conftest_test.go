package chi

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/metrics"
	"github.com/kailas-cloud/quizgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/quizgen/internal/usecase/health"
)

func TestMain(m *testing.M) {
	metrics.RegisterHTTPMetrics()
	os.Exit(m.Run())
}

type mockGenerator struct {
	result generation.Result
	err    error
	got    generation.Request
}

func (m *mockGenerator) Generate(_ context.Context, req generation.Request) (generation.Result, error) {
	m.got = req
	return m.result, m.err
}

type mockRetriever struct {
	related    []domain.ContextCandidate
	similar    []domain.ContextCandidate
	similarErr error

	gotText, gotOwner, gotID string
	gotTopK                  int
}

func (m *mockRetriever) FindRelated(_ context.Context, text, ownerID string, topK int) []domain.ContextCandidate {
	m.gotText, m.gotOwner, m.gotTopK = text, ownerID, topK
	return m.related
}

func (m *mockRetriever) FindSimilarTo(
	_ context.Context, documentID, ownerID string, topK int,
) ([]domain.ContextCandidate, error) {
	m.gotID, m.gotOwner, m.gotTopK = documentID, ownerID, topK
	return m.similar, m.similarErr
}

type mockIndexer struct {
	created bool
	err     error
}

func (m *mockIndexer) Index(_ context.Context, _, _, _ string) (bool, error) {
	return m.created, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type fixture struct {
	gen    *mockGenerator
	ret    *mockRetriever
	idx    *mockIndexer
	health *mockHealth
	server *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gen: &mockGenerator{},
		ret: &mockRetriever{},
		idx: &mockIndexer{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.CheckVectorIndex: healthuc.CheckOK},
		}},
	}
	f.server = NewServer(f.gen, f.ret, f.idx, f.health, zap.NewNop())
	return f
}
