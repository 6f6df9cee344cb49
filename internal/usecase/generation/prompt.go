package generation

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/quizgen/internal/domain/question"
)

const promptHeader = `You must respond ONLY with a valid JSON array and nothing else.
Generate 3-5 multiple choice questions from the following text chunk.
Each object must have:
- "question": string
- "options": array of exactly 4 strings
- "answer": one of the options exactly as written
- "difficulty": one of "easy", "medium", or "hard"
`

const mixedInstruction = `Generate a mix of difficulty levels:
- "easy": Basic recall questions, simple concepts
- "medium": Application questions, moderate complexity
- "hard": Analysis, synthesis, or complex reasoning questions`

// BuildPrompt renders the model instruction for one segment.
func BuildPrompt(text string, filter question.Difficulty) string {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(text) + 512)

	b.WriteString(promptHeader)
	b.WriteString("\n")
	b.WriteString(difficultyInstruction(filter))
	b.WriteString("\n\nText chunk:\n\"\"\"")
	b.WriteString(text)
	b.WriteString("\"\"\"\n")
	return b.String()
}

func difficultyInstruction(filter question.Difficulty) string {
	if !filter.IsValid() {
		return mixedInstruction
	}
	return fmt.Sprintf("IMPORTANT: Generate ONLY %[1]s difficulty questions.\n"+
		"For %[1]s questions:\n%[2]s\n\n"+
		"All questions must be %[1]s difficulty level.",
		filter, filter.Definition())
}
