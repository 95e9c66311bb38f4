/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/depscout/internal/ops"
	"github.com/fulmenhq/depscout/internal/schema"
	"github.com/fulmenhq/depscout/pkg/exitcode"
	"github.com/fulmenhq/depscout/pkg/safeio"
)

// reportFileCap bounds how much of a candidate report file is read.
// Scan reports are a few hundred KB at most; anything larger is not one
// of ours.
const reportFileCap = 32 << 20

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <report.json>...",
	Short: "Validate report files against the embedded schema",
	Long: `Validate checks previously written scan reports against the report
schema compiled into this binary. Files validate concurrently; the command
exits non-zero if any file is invalid or unreadable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	capabilities := ops.GetDefaultCapabilities(ops.GroupUtility, ops.CategoryValidation)
	if err := ops.RegisterCommandWithTaxonomy("validate", ops.GroupUtility, ops.CategoryValidation, capabilities, validateCmd, "Validate report files against the schema"); err != nil {
		panic(fmt.Sprintf("Failed to register validate command: %v", err))
	}

	validateCmd.Flags().Int("concurrency", 4, "Files validated in parallel")
}

type fileResult struct {
	path   string
	result *schema.Result
	err    error
}

func runValidate(cmd *cobra.Command, args []string) error {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]fileResult, len(args))

	group, ctx := errgroup.WithContext(cmd.Context())
	group.SetLimit(concurrency)
	for i, path := range args {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validateFile(path)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	failures := 0
	for _, res := range results {
		switch {
		case res.err != nil:
			failures++
			cmd.Printf("✗ %s: %v\n", res.path, res.err)
		case !res.result.Valid:
			failures++
			cmd.Printf("✗ %s: %d schema violations\n", res.path, len(res.result.Errors))
			for _, verr := range res.result.Errors {
				cmd.Printf("    %s: %s\n", verr.Path, verr.Message)
			}
		default:
			cmd.Printf("✓ %s\n", res.path)
		}
	}

	if failures > 0 {
		cmd.Printf("%d of %d files failed validation\n", failures, len(args))
		os.Exit(exitcode.ValidationError)
	}
	return nil
}

func validateFile(path string) fileResult {
	data, err := safeio.ReadFileCapped(path, reportFileCap)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	result, err := schema.ValidateBytes(data, reportSchemaName)
	return fileResult{path: path, result: result, err: err}
}
