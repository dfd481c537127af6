package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/domain/chat"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/tracing"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	"github.com/kailas-cloud/docqa/internal/version"
)

type globalFlags struct {
	env        string
	configPath string
	logLevel   string
}

func main() {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:           "docqa",
		Short:         "Document question answering over hybrid retrieval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.env, "env", config.GetEnv(), "Environment name (selects config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Explicit config file path")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override logging.level")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), g)
		},
	}

	askCmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the documentation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), g, strings.Join(args, " "))
		},
	}

	normalizeCmd := &cobra.Command{
		Use:   "normalize <query>",
		Short: "Print the vocabulary-normalized form of a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd.Context(), g, strings.Join(args, " "))
		},
	}

	var batchSize int
	ingestCmd := &cobra.Command{
		Use:   "ingest <fixture.yaml>",
		Short: "Embed and store passages from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), g, args[0], batchSize)
		},
	}
	ingestCmd.Flags().IntVar(&batchSize, "batch-size", ingestuc.DefaultBatchSize, "Passages per store write")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docqa %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}

	rootCmd.AddCommand(serveCmd, askCmd, normalizeCmd, ingestCmd, versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(g globalFlags) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load(g.env)
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	return cfg, nil
}

// bootstrap loads config, builds the logger and tracing, and wires the app.
// The returned cleanup must be called once the command finishes.
func bootstrap(ctx context.Context, g globalFlags) (*app, func(), error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logpkg.NewLogger(g.env, cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version.Version,
		Environment:    g.env,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = logger.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		a.close()
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("Tracer shutdown failed", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return a, cleanup, nil
}

func runNormalize(ctx context.Context, g globalFlags, query string) error {
	a, cleanup, err := bootstrap(ctx, g)
	if err != nil {
		return err
	}
	defer cleanup()

	res := a.normalizer.Normalize(ctx, query)
	return printJSON(map[string]any{
		"original":    query,
		"normalized":  res.Query,
		"corrections": res.Corrections,
	})
}

func runAsk(ctx context.Context, g globalFlags, question string) error {
	a, cleanup, err := bootstrap(ctx, g)
	if err != nil {
		return err
	}
	defer cleanup()

	turns := []chat.Turn{{Role: chat.RoleUser, Content: question}}
	if a.answer == nil {
		// Without a generator, print the retrieved context.
		res, err := a.retrieval.RetrieveAndFormat(ctx, turns)
		if err != nil {
			return err
		}
		fmt.Println(res.Context)
		return nil
	}

	reply, err := a.answer.Answer(ctx, turns)
	if err != nil {
		return err
	}
	fmt.Println(reply.Text)
	if reply.Failed {
		return errors.New("generation failed")
	}
	return nil
}

func runIngest(ctx context.Context, g globalFlags, path string, batchSize int) error {
	a, cleanup, err := bootstrap(ctx, g)
	if err != nil {
		return err
	}
	defer cleanup()

	passages, err := ingestuc.LoadFixture(path)
	if err != nil {
		return fmt.Errorf("load passages: %w", err)
	}
	stats, err := a.ingest.WithBatchSize(batchSize).Ingest(ctx, passages)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
