package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent signals blank input text.
	ErrEmptyContent = errors.New("empty content")
	// ErrInputTooLarge signals input text above the character ceiling.
	ErrInputTooLarge = errors.New("input too large")
	// ErrInvalidDifficulty signals a difficulty filter outside easy/medium/hard/mixed.
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	// ErrNoQuestionsGenerated signals that no segment produced a valid question.
	ErrNoQuestionsGenerated = errors.New("no questions generated")
	// ErrCancelled signals caller-initiated cancellation of a generation request.
	ErrCancelled = errors.New("cancelled")
	// ErrSourceNotFound signals a source document without a stored embedding.
	ErrSourceNotFound = errors.New("source document not found or has no embedding")

	// ErrInvalidDocument signals a document without an ID or owner.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrVectorDimMismatch signals an embedding with a dimension other than the index expects.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrNotFound signals a missing key in a backing store.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuestion signals a structurally invalid generated question.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generative model provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)

// InputTooLargeError wraps ErrInputTooLarge with the measured length and the ceiling.
type InputTooLargeError struct {
	Length int
	Limit  int
}

func (e *InputTooLargeError) Error() string {
	return fmt.Sprintf("%s: %d characters, maximum allowed is %d", ErrInputTooLarge.Error(), e.Length, e.Limit)
}

func (e *InputTooLargeError) Unwrap() error { return ErrInputTooLarge }

// NewInputTooLarge creates an input-too-large error.
func NewInputTooLarge(length, limit int) error {
	return &InputTooLargeError{Length: length, Limit: limit}
}
