package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/domain/question"
	"github.com/kailas-cloud/quizgen/internal/repository/chromem"
	"github.com/kailas-cloud/quizgen/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/quizgen/internal/usecase/health"
	"github.com/kailas-cloud/quizgen/internal/usecase/retrieval"
)

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestGenerateQuestions_OK(t *testing.T) {
	f := newFixture(t)
	f.gen.result = generation.Result{
		Questions: []question.Question{{
			Text: "What is Go?", Options: []string{"A language", "A game", "A car", "A city"},
			Answer: "A language", Difficulty: question.Easy,
		}},
		Difficulty: "easy",
		Segments:   1,
	}

	rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/questions",
		`{"content":"Go is a language.","difficulty":"easy","owner_id":"u1","use_semantic_context":true,"top_k":3}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp GenerateQuestionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Questions) != 1 || resp.Questions[0].Text != "What is Go?" || resp.Difficulty != "easy" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if f.gen.got.OwnerID != "u1" || !f.gen.got.UseSemanticContext || f.gen.got.TopK != 3 {
		t.Errorf("request not forwarded: %+v", f.gen.got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestGenerateQuestions_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"empty", domain.ErrEmptyContent, http.StatusBadRequest, CodeEmptyContent},
		{"too large", domain.NewInputTooLarge(30001, 30000), http.StatusRequestEntityTooLarge, CodeInputTooLarge},
		{"difficulty", domain.ErrInvalidDifficulty, http.StatusBadRequest, CodeInvalidDifficulty},
		{"none", domain.ErrNoQuestionsGenerated, http.StatusUnprocessableEntity, CodeNoQuestionsGenerated},
		{"cancelled", domain.ErrCancelled, statusClientClosedRequest, CodeCancelled},
		{"provider", domain.ErrGenerationProviderError, http.StatusBadGateway, CodeGenerationProviderError},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError, CodeInternalError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.gen.err = tc.err

			rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/questions", `{"content":"x"}`)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if got := decodeError(t, rr); got.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, got.Code)
			}
		})
	}
}

func TestGenerateQuestions_InputTooLargeDetails(t *testing.T) {
	f := newFixture(t)
	f.gen.err = domain.NewInputTooLarge(30001, 30000)

	rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/questions", `{"content":"x"}`)

	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["length"] != float64(30001) || body["limit"] != float64(30000) {
		t.Errorf("expected length/limit in body, got %v", body)
	}
}

func TestGenerateQuestions_InternalErrorNotLeaked(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errors.New("redis: connection refused at 10.0.0.5:6379")

	rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/questions", `{"content":"x"}`)
	if strings.Contains(rr.Body.String(), "10.0.0.5") {
		t.Errorf("internal details leaked: %s", rr.Body.String())
	}
}

func TestGenerateQuestions_BadBody(t *testing.T) {
	f := newFixture(t)

	rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/questions", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got.Code != CodeBadRequest {
		t.Errorf("expected bad_request, got %s", got.Code)
	}
}

func TestGenerateQuestions_BodyTooLarge(t *testing.T) {
	f := newFixture(t)
	f.server.WithMaxBodyBytes(64)

	rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/questions",
		`{"content":"`+strings.Repeat("a", 200)+`"}`)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.ret.related = []domain.ContextCandidate{{DocumentID: "d1", Content: "c", Similarity: 0.9}}

	rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/search",
		`{"query":"photosynthesis","owner_id":"u1","top_k":2}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp ContextListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].DocumentID != "d1" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if f.ret.gotText != "photosynthesis" || f.ret.gotOwner != "u1" || f.ret.gotTopK != 2 {
		t.Errorf("unexpected forwarded args: %q %q %d", f.ret.gotText, f.ret.gotOwner, f.ret.gotTopK)
	}
}

func TestSearch_EmptyResultIsArray(t *testing.T) {
	f := newFixture(t)

	rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/search", `{"query":"x","owner_id":"u1"}`)
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("expected empty items array, got %s", rr.Body.String())
	}
}

func TestSearch_OwnerRequired(t *testing.T) {
	f := newFixture(t)

	rr := do(t, f.server.Router(nil), http.MethodPost, "/v1/search", `{"query":"x"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSimilarDocuments(t *testing.T) {
	f := newFixture(t)
	f.ret.similar = []domain.ContextCandidate{{DocumentID: "d2"}}

	rr := do(t, f.server.Router(nil), http.MethodGet, "/v1/documents/d1/similar?owner_id=u1&top_k=4", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if f.ret.gotID != "d1" || f.ret.gotOwner != "u1" || f.ret.gotTopK != 4 {
		t.Errorf("unexpected forwarded args: %q %q %d", f.ret.gotID, f.ret.gotOwner, f.ret.gotTopK)
	}
}

func TestSimilarDocuments_SourceNotFound(t *testing.T) {
	f := newFixture(t)
	f.ret.similarErr = domain.ErrSourceNotFound

	rr := do(t, f.server.Router(nil), http.MethodGet, "/v1/documents/missing/similar?owner_id=u1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got.Code != CodeSourceNotFound {
		t.Errorf("expected source_not_found, got %s", got.Code)
	}
}

func TestSimilarDocuments_OtherOwnersSource(t *testing.T) {
	db, err := chromem.Open(chromem.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	index, err := chromem.New(db)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	for _, d := range []domain.IndexedDocument{
		{ID: "alice-doc", OwnerID: "alice", Content: "Alice notes.", Vector: []float32{1, 0}},
		{ID: "alice-other", OwnerID: "alice", Content: "More notes.", Vector: []float32{0.9, 0.1}},
		{ID: "bob-doc", OwnerID: "bob", Content: "Bob notes.", Vector: []float32{0.95, 0.05}},
	} {
		if _, err := index.Upsert(context.Background(), d); err != nil {
			t.Fatalf("upsert %s: %v", d.ID, err)
		}
	}

	f := newFixture(t)
	srv := NewServer(f.gen, retrieval.New(index, nil, 0, zap.NewNop()), f.idx, f.health, zap.NewNop())
	h := srv.Router(nil)

	rr := do(t, h, http.MethodGet, "/v1/documents/alice-doc/similar?owner_id=bob", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another owner's document, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got.Code != CodeSourceNotFound {
		t.Errorf("expected source_not_found, got %s", got.Code)
	}

	rr = do(t, h, http.MethodGet, "/v1/documents/alice-doc/similar?owner_id=alice", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for the owner, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "alice-other") || strings.Contains(body, "bob-doc") {
		t.Errorf("expected only the owner's documents, got %s", body)
	}
}

func TestSimilarDocuments_BadParams(t *testing.T) {
	f := newFixture(t)
	h := f.server.Router(nil)

	for _, path := range []string{
		"/v1/documents/d1/similar",
		"/v1/documents/d1/similar?owner_id=u1&top_k=abc",
		"/v1/documents/d1/similar?owner_id=u1&top_k=0",
	} {
		if rr := do(t, h, http.MethodGet, path, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rr.Code)
		}
	}
}

func TestIndexDocument(t *testing.T) {
	f := newFixture(t)
	f.idx.created = true

	rr := do(t, f.server.Router(nil), http.MethodPut, "/v1/documents/d1", `{"owner_id":"u1","content":"text"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if rr.Header().Get("Location") != "/v1/documents/d1" {
		t.Errorf("unexpected Location %q", rr.Header().Get("Location"))
	}

	f.idx.created = false
	rr = do(t, f.server.Router(nil), http.MethodPut, "/v1/documents/d1", `{"owner_id":"u1","content":"text"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", rr.Code)
	}
}

func TestIndexDocument_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrInvalidDocument, http.StatusBadRequest},
		{domain.ErrEmptyContent, http.StatusBadRequest},
		{domain.ErrEmbeddingProviderError, http.StatusBadGateway},
		{domain.ErrVectorDimMismatch, http.StatusBadGateway},
	}
	for _, tc := range tests {
		f := newFixture(t)
		f.idx.err = tc.err
		rr := do(t, f.server.Router(nil), http.MethodPut, "/v1/documents/d1", `{"owner_id":"u1","content":"x"}`)
		if rr.Code != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, rr.Code)
		}
	}
}

func TestOptionalRoutes_NotConfigured(t *testing.T) {
	s := NewServer(&mockGenerator{}, nil, nil, &mockHealth{}, zap.NewNop())
	h := s.Router(nil)

	if rr := do(t, h, http.MethodPost, "/v1/search", `{}`); rr.Code != http.StatusNotImplemented {
		t.Errorf("search: expected 501, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPut, "/v1/documents/d1", `{}`); rr.Code != http.StatusNotImplemented {
		t.Errorf("index: expected 501, got %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rr := do(t, f.server.Router(nil), http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	f.health.report = healthuc.Report{
		Status: healthuc.Unhealthy,
		Checks: map[string]healthuc.CheckResult{healthuc.CheckVectorIndex: healthuc.CheckError},
	}
	rr = do(t, f.server.Router(nil), http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Checks[healthuc.CheckVectorIndex] != "error" {
		t.Errorf("unexpected checks: %v", resp.Checks)
	}
}

func TestRouter_AuthAndExemptions(t *testing.T) {
	f := newFixture(t)
	h := f.server.Router([]string{"secret"})

	if rr := do(t, h, http.MethodPost, "/v1/questions", `{"content":"x"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("expected /health exempt, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/metrics", ""); rr.Code != http.StatusOK {
		t.Errorf("expected /metrics exempt, got %d", rr.Code)
	}
	rr := do(t, h, http.MethodPost, "/v1/questions", `{"content":"x"}`, "Authorization", "Bearer secret")
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rr.Code)
	}
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	f := newFixture(t)

	rr := do(t, f.server.Router(nil), http.MethodGet, "/v1/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, generation.Request) (generation.Result, error) {
	panic("boom")
}

func TestRouter_RecoversPanics(t *testing.T) {
	s := NewServer(panicGenerator{}, nil, nil, &mockHealth{}, zap.NewNop())

	rr := do(t, s.Router(nil), http.MethodPost, "/v1/questions", `{"content":"x"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got.Code != CodeInternalError {
		t.Errorf("expected internal_error, got %s", got.Code)
	}
}
