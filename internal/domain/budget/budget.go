// Package budget estimates model request cost from text length.
//
// The estimate uses a fixed ratio of four characters per token. It is an
// approximation, not a tokenizer.
package budget

import (
	"unicode/utf8"

	"github.com/kailas-cloud/quizgen/internal/domain"
)

const (
	// CharsPerToken is the approximation ratio.
	CharsPerToken = 4
	// MaxTokensPerRequest keeps a single generation call under provider TPM limits.
	MaxTokensPerRequest = 4000
	// MaxCharacters is the hard input ceiling.
	MaxCharacters = 30000
	// PromptReserve is the character allowance for fixed prompt scaffolding.
	PromptReserve = 1000
)

// Length returns the text length in characters (runes).
func Length(text string) int {
	return utf8.RuneCountInString(text)
}

// EstimateTokens returns ceil(characters / CharsPerToken).
func EstimateTokens(text string) int {
	n := Length(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// FitsSingleRequest reports whether text can be sent in one generation request.
func FitsSingleRequest(text string) bool {
	return EstimateTokens(text) <= MaxTokensPerRequest
}

// ChunkSize returns the per-segment character target for a token budget.
func ChunkSize(maxTokens int) int {
	return maxTokens*CharsPerToken - PromptReserve
}

// CheckLength fails with domain.ErrInputTooLarge above MaxCharacters.
func CheckLength(text string) error {
	if n := Length(text); n > MaxCharacters {
		return domain.NewInputTooLarge(n, MaxCharacters)
	}
	return nil
}
