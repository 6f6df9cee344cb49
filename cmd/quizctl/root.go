package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/quizgen/internal/app"
	"github.com/kailas-cloud/quizgen/internal/config"
	logpkg "github.com/kailas-cloud/quizgen/internal/logger"
)

type rootOptions struct {
	env        string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "quizctl",
		Short:         "Generate multiple-choice questions from text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Load .env for API keys
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.env, "env", "", "config environment (defaults to $ENV or local)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "explicit config file path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(newGenerateCmd(opts), newIndexCmd(opts), newVersionCmd())
	return cmd
}

// open loads configuration and wires the application.
func (o *rootOptions) open(ctx context.Context) (*app.App, *zap.Logger, error) {
	env := o.env
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, o.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return a, logger, nil
}

// readInput returns the file contents, or stdin when path is "-" or empty.
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}
