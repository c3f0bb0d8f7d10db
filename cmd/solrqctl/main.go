// Command solrqctl compiles queries and runs resumable cursor exports
// against a search engine core from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/solrq/internal/logger"
)

func main() {
	os.Exit(submain(context.Background()))
}

func submain(ctx context.Context) int {
	logger, err := logpkg.NewLogger(logpkg.EnvLocal, envOr("SOLRQ_LOG_LEVEL", "warn"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(logger)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "solrqctl",
		Short:         "solrqctl compiles search queries and exports full result sets with cursor marks",
		SilenceErrors: true,
		Example: `
  # Show the request parameters a query compiles to
  solrqctl compile query.json

  # Export every matching document as NDJSON, checkpointing to redis
  solrqctl export --solr-url http://localhost:8983/solr --core products --redis localhost:6379 query.json > out.ndjson

  # Continue an interrupted export
  solrqctl export --core products --redis localhost:6379 --resume 6f1c... query.json >> out.ndjson

  # List saved checkpoints
  solrqctl checkpoints ls --redis localhost:6379
`,
	}
	cmd.AddCommand(
		newCompileCommand(logger),
		newExportCommand(logger),
		newCheckpointsCommand(),
		newVersionCommand(),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
