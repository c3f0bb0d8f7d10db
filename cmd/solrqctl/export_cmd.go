package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/solr/parser"
	"github.com/kailas-cloud/solrq/internal/transport/solrhttp"
	exportuc "github.com/kailas-cloud/solrq/internal/usecase/export"
)

type exportFlags struct {
	solrURL   string
	core      string
	uniqueKey string
	timeout   time.Duration
	redis     redisFlags
	resume    string
	batch     int
	every     int
}

func newExportCommand(logger *zap.Logger) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export [query.json|-]",
		Short: "Stream every matching document as NDJSON",
		Long: `Iterates the full result set with cursor marks and writes one document per line to stdout.
With --redis, progress is checkpointed at page boundaries and an interrupted export
continues from the last checkpoint with --resume <id>.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if strings.TrimSpace(f.core) == "" {
				return fmt.Errorf("--core is required")
			}
			if f.resume != "" && !f.redis.enabled() {
				return fmt.Errorf("--resume needs --redis, checkpoints live there")
			}
			q, err := readQuery(cmd, args)
			if err != nil {
				return err
			}
			return runExport(cmd, f, exportuc.Request{Query: q, ResumeID: f.resume, BatchSize: f.batch}, logger)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.solrURL, "solr-url", envOr("SOLR_URL", "http://localhost:8983/solr"), "engine base URL")
	flags.StringVar(&f.core, "core", envOr("SOLR_CORE", ""), "core to export from")
	flags.StringVar(&f.uniqueKey, "unique-key", "id", "unique key field used as sort tie-breaker")
	flags.DurationVar(&f.timeout, "timeout", 30*time.Second, "per-request timeout")
	f.redis.bind(flags)
	flags.StringVar(&f.resume, "resume", "", "export id to continue")
	flags.IntVar(&f.batch, "batch", 500, "documents per page")
	flags.IntVar(&f.every, "every", 1000, "checkpoint after at least this many documents")
	return cmd
}

func runExport(cmd *cobra.Command, f exportFlags, req exportuc.Request, logger *zap.Logger) error {
	ctx := cmd.Context()
	client, err := solrhttp.New(solrhttp.Config{
		BaseURL: f.solrURL,
		Core:    f.core,
		Timeout: f.timeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	var checkpoints exportuc.CheckpointStore
	if f.redis.enabled() {
		repo, closeFn, err := f.redis.open(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		checkpoints = repo
	}

	compiler := parser.New(logger)
	svc := exportuc.New(
		solrhttp.NewFetcher[json.RawMessage](client, compiler),
		compiler,
		checkpoints,
		exportuc.Config{Core: f.core, UniqueKey: f.uniqueKey, BatchSize: f.batch, Every: f.every},
		logger,
	)
	job, err := svc.Prepare(ctx, req)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	var line bytes.Buffer
	progress, runErr := job.Run(ctx, func(doc json.RawMessage) error {
		line.Reset()
		if err := json.Compact(&line, doc); err != nil {
			return err //nolint:wrapcheck // wrapped by the export job
		}
		line.WriteByte('\n')
		_, err := out.Write(line.Bytes())
		return err //nolint:wrapcheck // wrapped by the export job
	})
	if err := out.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("flush output: %w", err)
	}

	status := cmd.ErrOrStderr()
	if runErr != nil {
		if checkpoints != nil {
			fmt.Fprintf(status, "export %s stopped after %d documents, continue with --resume %s\n",
				progress.ID, progress.Exported, progress.ID)
		}
		return runErr
	}
	fmt.Fprintf(status, "export %s finished: %d documents\n", progress.ID, progress.Exported)
	return nil
}
