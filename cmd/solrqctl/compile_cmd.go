package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain/query"
	"github.com/kailas-cloud/solrq/internal/solr/parser"
	"github.com/kailas-cloud/solrq/internal/transport/dto"
)

func newCompileCommand(logger *zap.Logger) *cobra.Command {
	var outputType string
	cmd := &cobra.Command{
		Use:   "compile [query.json|-]",
		Short: "Compile a JSON query into request parameters",
		Long:  "Reads a query in the /v1/search JSON format from a file, or stdin when the argument is - or missing.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			q, err := readQuery(cmd, args)
			if err != nil {
				return err
			}
			p, err := parser.New(logger).ConstructSolrQuery(q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch outputType {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(dto.NewCompileResponse(p))
			case "query":
				_, err := fmt.Fprintln(out, p.Encode())
				return err
			default:
				return fmt.Errorf("unknown output format %q (json|query)", outputType)
			}
		},
	}
	cmd.Flags().StringVarP(&outputType, "output", "o", "json", "output format (json|query)")
	return cmd
}

// readQuery decodes the query from the file named by args[0], or stdin.
func readQuery(cmd *cobra.Command, args []string) (*query.Query, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(filepath.Clean(args[0]))
		if err != nil {
			return nil, fmt.Errorf("open query: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	body, err := dto.DecodeQuery(r)
	if err != nil {
		return nil, err
	}
	return body.ToDomain()
}
