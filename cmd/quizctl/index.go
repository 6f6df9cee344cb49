package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type indexOptions struct {
	id      string
	ownerID string
}

func newIndexCmd(root *rootOptions) *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index [file]",
		Short: "Index a text file as a document for semantic context",
		Long: `Embed a text file and store it in the vector index under an owner.
A random document ID is generated when --id is omitted.

Examples:
  quizctl index --owner user-1 biology.txt
  quizctl index --owner user-1 --id ch1 chapter1.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ownerID == "" {
				return errors.New("--owner is required")
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			text, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			id := opts.id
			if id == "" {
				id = uuid.NewString()
			}

			a, logger, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			defer a.Close()

			created, err := a.Indexing.Index(cmd.Context(), id, opts.ownerID, text)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "document ID (random UUID when empty)")
	cmd.Flags().StringVar(&opts.ownerID, "owner", "", "document owner")
	return cmd
}
