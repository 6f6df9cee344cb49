package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

// statusClientClosedRequest reports a request abandoned by the caller.
const statusClientClosedRequest = 499

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		inputTooLargeHandler,
		sentinelHandler(domain.ErrEmptyContent, http.StatusBadRequest, CodeEmptyContent),
		sentinelHandler(domain.ErrInvalidDifficulty, http.StatusBadRequest, CodeInvalidDifficulty),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrSourceNotFound, http.StatusNotFound, CodeSourceNotFound),
		sentinelHandler(domain.ErrNoQuestionsGenerated, http.StatusUnprocessableEntity, CodeNoQuestionsGenerated),
		sentinelHandler(domain.ErrCancelled, statusClientClosedRequest, CodeCancelled),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, CodeGenerationProviderError),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyContent,
		domain.ErrInputTooLarge,
		domain.ErrInvalidDifficulty,
		domain.ErrInvalidDocument,
		domain.ErrSourceNotFound,
		domain.ErrNoQuestionsGenerated,
		domain.ErrCancelled,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// inputTooLargeHandler reports the measured length and ceiling alongside the code.
func inputTooLargeHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInputTooLarge) {
		return false
	}
	var tle *domain.InputTooLargeError
	if errors.As(err, &tle) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
			"code":    CodeInputTooLarge,
			"message": tle.Error(),
			"length":  tle.Length,
			"limit":   tle.Limit,
		})
		return true
	}
	writeError(w, http.StatusRequestEntityTooLarge, CodeInputTooLarge, msg)
	return true
}
