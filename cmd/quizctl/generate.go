package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/quizgen/internal/usecase/generation"
)

type generateOptions struct {
	difficulty string
	ownerID    string
	documentID string
	semantic   bool
	topK       int
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: "Generate questions from a text file (or stdin)",
		Long: `Generate up to 15 multiple-choice questions from a text file and print them as JSON.

Examples:
  quizctl generate notes.txt
  quizctl generate --difficulty hard chapter1.md
  cat notes.txt | quizctl generate --semantic --owner user-1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.semantic && strings.TrimSpace(opts.ownerID) == "" {
				return errors.New("--owner is required with --semantic")
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			text, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, logger, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer a.Close()

			res, err := a.Generation.Generate(cmd.Context(), generation.Request{
				Content:            text,
				Difficulty:         opts.difficulty,
				OwnerID:            opts.ownerID,
				DocumentID:         opts.documentID,
				UseSemanticContext: opts.semantic,
				TopK:               opts.topK,
			})
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&opts.difficulty, "difficulty", "d", "", "easy, medium, hard or mixed")
	cmd.Flags().StringVar(&opts.ownerID, "owner", "", "owner whose documents provide semantic context")
	cmd.Flags().StringVar(&opts.documentID, "document", "", "use documents similar to this stored document as context")
	cmd.Flags().BoolVar(&opts.semantic, "semantic", false, "enrich the text with related documents")
	cmd.Flags().IntVar(&opts.topK, "top-k", 0, "number of related documents (default from config)")
	return cmd
}
