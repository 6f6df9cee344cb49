package chi

import (
	"github.com/kailas-cloud/quizgen/internal/domain"
	"github.com/kailas-cloud/quizgen/internal/domain/question"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeEmptyContent            ErrorCode = "empty_content"
	CodeInputTooLarge           ErrorCode = "input_too_large"
	CodeInvalidDifficulty       ErrorCode = "invalid_difficulty"
	CodeNoQuestionsGenerated    ErrorCode = "no_questions_generated"
	CodeCancelled               ErrorCode = "cancelled"
	CodeSourceNotFound          ErrorCode = "source_not_found"
	CodeVectorDimMismatch       ErrorCode = "vector_dim_mismatch"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeGenerationProviderError ErrorCode = "generation_provider_error"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// GenerateQuestionsRequest is the body of POST /v1/questions.
type GenerateQuestionsRequest struct {
	Content            string `json:"content"`
	Difficulty         string `json:"difficulty,omitempty"`
	OwnerID            string `json:"owner_id,omitempty"`
	DocumentID         string `json:"document_id,omitempty"`
	UseSemanticContext bool   `json:"use_semantic_context,omitempty"`
	TopK               int    `json:"top_k,omitempty"`
}

// GenerateQuestionsResponse is the body of a successful POST /v1/questions.
type GenerateQuestionsResponse struct {
	Questions  []question.Question `json:"questions"`
	Difficulty string              `json:"difficulty"`
	Segments   int                 `json:"segments"`
	Enriched   bool                `json:"enriched"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query   string `json:"query"`
	OwnerID string `json:"owner_id"`
	TopK    int    `json:"top_k,omitempty"`
}

// ContextListResponse lists related documents.
type ContextListResponse struct {
	Items []domain.ContextCandidate `json:"items"`
	Total int                       `json:"total"`
}

// IndexDocumentRequest is the body of PUT /v1/documents/{id}.
type IndexDocumentRequest struct {
	OwnerID string `json:"owner_id"`
	Content string `json:"content"`
}

// IndexDocumentResponse acknowledges an indexed document.
type IndexDocumentResponse struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Created bool   `json:"created"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
