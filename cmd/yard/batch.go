package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lemonberrylabs/shunting-yard/pkg/expr"
	"github.com/lemonberrylabs/shunting-yard/pkg/parser"
	"github.com/lemonberrylabs/shunting-yard/pkg/runtime"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Run suite files and report each case",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	cmd.Flags().Int("max-depth", 0, "Operator stack depth limit (default 1000, env MAX_DEPTH)")
	cmd.Flags().BoolP("verbose", "v", false, "Print the output of passing cases too")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	depth, err := maxDepth(cmd)
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	engine := runtime.NewEngine(nil, expr.WithMaxDepth(depth))
	out := cmd.OutOrStdout()
	passed, failed := 0, 0

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading suite: %w", err)
		}
		suite, err := parser.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if suite.Name == "" {
			suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		report, err := engine.RunSuite(cmd.Context(), suite, "")
		if err != nil {
			return err
		}
		for _, r := range report.Results {
			switch {
			case !r.Passed:
				fmt.Fprintf(out, "FAIL %s/%s: %s\n", suite.Name, r.ID, r.Failure)
			case verbose:
				fmt.Fprintf(out, "PASS %s/%s: %s\n", suite.Name, r.ID, r.Output)
			default:
				fmt.Fprintf(out, "PASS %s/%s\n", suite.Name, r.ID)
			}
		}
		passed += report.Passed
		failed += report.Failed
	}

	fmt.Fprintf(out, "%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return fmt.Errorf("%d case(s) failed", failed)
	}
	return nil
}
