package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/constants"
	"github.com/edgeflag/edgeflag/internal/output"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var importWorkers int

var importCmd = &cobra.Command{
	Use:   "import <environment-api-key> <file>",
	Short: "Bulk import identities from a JSON file",
	Long: `Reads a JSON array of identity documents and writes them to the
identities table in batches. Missing identity uuids are assigned; identifiers
over the store's sort key limit are skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVar(&importWorkers, "workers", 4, "Number of concurrent batch writers")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	envKey, file := args[0], args[1]

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var docs []api.IdentityDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}
	if len(docs) == 0 {
		output.Warning("nothing to import")
		return nil
	}

	a, err := buildApp(ctx, slog.Default())
	if err != nil {
		return err
	}

	output.Info("importing %d identities into %s", len(docs), envKey)

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importWorkers)

	for start := 0; start < len(docs); start += constants.BatchWriteChunkSize {
		end := min(start+constants.BatchWriteChunkSize, len(docs))
		chunk := docs[start:end]
		g.Go(func() error {
			n, err := a.identity.Import(gctx, envKey, chunk)
			if err != nil {
				return err
			}
			written.Add(int64(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		output.Error("import failed: %v", err)
		return err
	}

	skipped := int64(len(docs)) - written.Load()
	output.Success("imported %d identities", written.Load())
	if skipped > 0 {
		output.Warning("%d identities skipped", skipped)
	}

	return nil
}
