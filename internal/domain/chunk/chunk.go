// Package chunk splits oversized text into overlapping segments at sentence boundaries.
package chunk

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/quizgen/internal/domain/budget"
)

const (
	// DefaultOverlap is the character overlap between consecutive segments.
	DefaultOverlap = 200
	// DefaultWindow is the ±distance searched around a naive cut for a sentence end.
	DefaultWindow = 500
)

// Segment is a bounded substring of the source text.
// Start and End are rune offsets of the untrimmed range [Start, End).
type Segment struct {
	Index int
	Text  string
	Start int
	End   int
}

// Chunker is a deterministic, stateless text splitter.
type Chunker struct {
	size    int
	overlap int
	window  int
}

// New creates a chunker. The size must exceed overlap+window so every step advances.
func New(size, overlap, window int) (*Chunker, error) {
	if overlap < 0 || window < 0 {
		return nil, fmt.Errorf("overlap and window must be non-negative")
	}
	if size <= overlap+window {
		return nil, fmt.Errorf("chunk size %d must exceed overlap+window (%d)", size, overlap+window)
	}
	return &Chunker{size: size, overlap: overlap, window: window}, nil
}

// Default returns the chunker sized for budget.MaxTokensPerRequest.
func Default() *Chunker {
	return &Chunker{
		size:    budget.ChunkSize(budget.MaxTokensPerRequest),
		overlap: DefaultOverlap,
		window:  DefaultWindow,
	}
}

// Split partitions text into ordered segments. Blank segments are dropped.
func (c *Chunker) Split(text string) []Segment {
	runes := []rune(text)
	n := len(runes)

	var segments []Segment
	for start := 0; start < n; {
		end := start + c.size
		if end < n {
			end = c.snap(runes, start, end)
		} else {
			end = n
		}

		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			segments = append(segments, Segment{
				Index: len(segments),
				Text:  s,
				Start: start,
				End:   end,
			})
		}

		if end >= n {
			break
		}
		start = end - c.overlap
	}
	return segments
}

// snap moves a naive cut to just after the last sentence terminator followed by
// whitespace within [end-window, end+window). Returns end unchanged if none is found.
func (c *Chunker) snap(runes []rune, start, end int) int {
	from := max(end-c.window, start)
	to := min(end+c.window, len(runes))
	for i := to - 2; i >= from; i-- {
		if isTerminal(runes[i]) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	return end
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
